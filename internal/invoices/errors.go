package invoices

import (
	"fmt"

	"github.com/invoicer/invoicer/internal/platform/httpx"
)

var (
	// ErrInvoiceNotFound covers both missing and foreign invoices.
	ErrInvoiceNotFound = fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	// ErrClientNotFound is returned when the referenced client is not visible to the user.
	ErrClientNotFound = fmt.Errorf("%w: client", httpx.ErrNotFound)
	// ErrTemplateNotFound is returned when templateId does not resolve for the user.
	ErrTemplateNotFound = fmt.Errorf("%w: invoice template", httpx.ErrNotFound)
	// ErrNotEditable blocks changes to invoices that left DRAFT.
	ErrNotEditable = fmt.Errorf("%w: only DRAFT invoices can be modified", httpx.ErrInvalidState)
	// ErrPDFUnavailable wraps renderer failures.
	ErrPDFUnavailable = fmt.Errorf("%w: pdf rendering", httpx.ErrUpstream)
)
