package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicer/invoicer/internal/shared"
	"github.com/invoicer/invoicer/report"
)

// CacheInvalidator drops cached analytics after invoice writes.
type CacheInvalidator interface {
	Bump(ctx context.Context, userID string) error
}

// PDFRenderer renders an invoice document in one of the layouts.
type PDFRenderer interface {
	Render(ctx context.Context, layout report.Layout, doc report.InvoiceDocument) ([]byte, error)
}

// Service implements invoice use cases.
type Service struct {
	repo     Repository
	renderer PDFRenderer
	cache    CacheInvalidator
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService wires the invoice service. renderer and cache may be nil.
func NewService(repo Repository, renderer PDFRenderer, cache CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		renderer: renderer,
		cache:    cache,
		logger:   logger,
		validate: shared.NewValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns the user's invoices, newest first.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Invoice, error) {
	return s.repo.List(ctx, userID, filter)
}

// Get returns one invoice with its client and items.
func (s *Service) Get(ctx context.Context, userID, id string) (*Invoice, error) {
	return s.repo.Get(ctx, userID, id)
}

// Create validates the input, allocates the next number and stores the
// invoice as DRAFT. Allocation and inserts share one transaction.
func (s *Service) Create(ctx context.Context, userID string, in InvoiceInput) (*Invoice, error) {
	d, err := normalize(s.validate, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inv := Invoice{
		ID:         s.newID(),
		UserID:     userID,
		ClientID:   d.ClientID,
		Status:     StatusDraft,
		IssueDate:  d.IssueDate,
		DueDate:    d.DueDate,
		Notes:      d.Notes,
		TaxRate:    d.TaxRate,
		TemplateID: d.TemplateID,
		Currency:   d.Currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	totals := CalculateTotals(d.lines(), d.TaxRate)
	inv.Subtotal, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxAmount, totals.Total
	items := s.buildItems(inv.ID, d.Items)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := s.checkReferences(ctx, repo, userID, d); err != nil {
			return err
		}
		if inv.Currency == "" {
			code, err := repo.DefaultCurrency(ctx, userID)
			if err != nil {
				return fmt.Errorf("default currency: %w", err)
			}
			inv.Currency = code
		}
		number, err := repo.AllocateNumber(ctx, userID)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := repo.Insert(ctx, inv); err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return repo.ReplaceItems(ctx, inv.ID, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		slog.String("user_id", userID),
		slog.String("invoice_id", inv.ID),
		slog.String("invoice_number", inv.InvoiceNumber))
	s.invalidate(ctx, userID)
	return s.repo.Get(ctx, userID, inv.ID)
}

// Update replaces the editable fields and all items of a DRAFT invoice.
// The number and status never change here.
func (s *Service) Update(ctx context.Context, userID, id string, in InvoiceInput) (*Invoice, error) {
	d, err := normalize(s.validate, in)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		status, err := repo.LockStatus(ctx, userID, id)
		if err != nil {
			return err
		}
		if !status.CanEdit() {
			return ErrNotEditable
		}
		existing, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, repo, userID, d); err != nil {
			return err
		}

		inv := *existing
		inv.ClientID = d.ClientID
		inv.IssueDate = d.IssueDate
		inv.DueDate = d.DueDate
		inv.Notes = d.Notes
		inv.TaxRate = d.TaxRate
		inv.TemplateID = d.TemplateID
		if d.Currency != "" {
			inv.Currency = d.Currency
		}
		totals := CalculateTotals(d.lines(), d.TaxRate)
		inv.Subtotal, inv.TaxAmount, inv.Total = totals.Subtotal, totals.TaxAmount, totals.Total
		inv.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return repo.ReplaceItems(ctx, inv.ID, s.buildItems(inv.ID, d.Items))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return s.repo.Get(ctx, userID, id)
}

// Delete removes a DRAFT invoice and its items.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		status, err := repo.LockStatus(ctx, userID, id)
		if err != nil {
			return err
		}
		if !status.CanEdit() {
			return ErrNotEditable
		}
		return repo.Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// UpdateStatus moves the invoice along the lifecycle table.
func (s *Service) UpdateStatus(ctx context.Context, userID, id string, in StatusInput) (*Invoice, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	requested, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var from Status
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.LockStatus(ctx, userID, id)
		if err != nil {
			return err
		}
		next, err := Transition(current, requested)
		if err != nil {
			return err
		}
		from = current
		return repo.UpdateStatus(ctx, userID, id, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice status changed",
		slog.String("invoice_id", id),
		slog.String("from", string(from)),
		slog.String("to", string(requested)))
	s.invalidate(ctx, userID)
	return s.repo.Get(ctx, userID, id)
}

// PDF is a rendered invoice ready to stream.
type PDF struct {
	Filename string
	Content  []byte
	Layout   report.Layout
}

// ExportPDF renders the invoice with the layout chosen by its template.
func (s *Service) ExportPDF(ctx context.Context, userID, id string) (*PDF, error) {
	data, err := s.repo.LoadExport(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("%w: renderer not configured", ErrPDFUnavailable)
	}

	inv := data.Invoice
	layout := report.SelectLayout(inv.TemplateID, data.Template)
	doc := buildDocument(data)

	content, err := s.renderer.Render(ctx, layout, doc)
	if err != nil {
		s.logger.Error("render invoice pdf",
			slog.String("invoice_id", inv.ID),
			slog.String("layout", string(layout)),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrPDFUnavailable, err)
	}
	return &PDF{
		Filename: "invoice-" + inv.InvoiceNumber + ".pdf",
		Content:  content,
		Layout:   layout,
	}, nil
}

// buildDocument maps stored data onto the layout view model. Totals are
// recomputed from the items with the same calculator used on write.
func buildDocument(data *ExportData) report.InvoiceDocument {
	inv := data.Invoice
	lines := make([]Line, len(inv.Items))
	items := make([]report.DocumentItem, len(inv.Items))
	for i, it := range inv.Items {
		lines[i] = Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		items[i] = report.DocumentItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       LineTotal(lines[i]),
		}
	}
	totals := CalculateTotals(lines, inv.TaxRate)
	doc := report.InvoiceDocument{
		Number:    inv.InvoiceNumber,
		Status:    string(inv.Status),
		Currency:  inv.Currency,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Notes:     inv.Notes,
		Issuer:    data.Issuer,
		Client:    data.Client,
		Items:     items,
		Subtotal:  totals.Subtotal,
		TaxRate:   inv.TaxRate,
		TaxAmount: totals.TaxAmount,
		Total:     totals.Total,
	}
	if data.Template != nil {
		doc.Styles = data.Template.Styles
	}
	return doc
}

func (s *Service) buildItems(invoiceID string, inputs []ItemInput) []Item {
	items := make([]Item, len(inputs))
	for i, in := range inputs {
		items[i] = Item{
			ID:          s.newID(),
			InvoiceID:   invoiceID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       LineTotal(Line{Quantity: in.Quantity, UnitPrice: in.UnitPrice}),
		}
	}
	return items
}

func (s *Service) checkReferences(ctx context.Context, repo Repository, userID string, d draft) error {
	ok, err := repo.ClientExists(ctx, userID, d.ClientID)
	if err != nil {
		return fmt.Errorf("check client: %w", err)
	}
	if !ok {
		return ErrClientNotFound
	}
	if d.TemplateID == nil {
		return nil
	}
	ok, err = repo.TemplateVisible(ctx, userID, *d.TemplateID)
	if err != nil {
		return fmt.Errorf("check template: %w", err)
	}
	if !ok {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, userID); err != nil {
		s.logger.Warn("bump analytics cache", slog.String("user_id", userID), slog.Any("error", err))
	}
}
