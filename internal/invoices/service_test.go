package invoices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/report"
)

const (
	userA   = "7a1c6f0e-7c55-4f43-9a55-0d5b2f1b8c01"
	userB   = "2b3d4e5f-1111-4a2b-8c3d-4e5f60718293"
	clientA = "c0ffee00-0000-4000-8000-000000000001"
	clientB = "c0ffee00-0000-4000-8000-000000000002"
	tplPro  = "f1f1f1f1-0000-4000-8000-000000000001"
	tplMini = "f1f1f1f1-0000-4000-8000-000000000002"
)

type fixture struct {
	repo     *mockRepository
	renderer *fakeRenderer
	cache    *countingCache
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepository()
	repo.users[userA] = &mockUser{prefix: "INV", next: 1, currency: "USD"}
	repo.users[userB] = &mockUser{prefix: "BB", next: 12345, currency: "EUR"}
	repo.clients[clientA] = userA
	repo.clients[clientB] = userB
	repo.templates[tplPro] = mockTemplate{system: true, ref: report.TemplateRef{Name: "Professional"}}
	repo.templates[tplMini] = mockTemplate{system: true, ref: report.TemplateRef{Name: "Minimalist"}}

	renderer := &fakeRenderer{}
	cache := &countingCache{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, renderer, cache, logger).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	})
	return &fixture{repo: repo, renderer: renderer, cache: cache, svc: svc}
}

func sampleInput(clientID string) InvoiceInput {
	return InvoiceInput{
		ClientID:  clientID,
		IssueDate: "2026-01-15",
		TaxRate:   decimal.NewFromInt(10),
		Items: []ItemInput{
			{Description: "Design work", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *httpx.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Fields
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestInvoiceLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)
	assert.Equal(t, "INV0001", inv.InvoiceNumber)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(20)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(220)))
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Total.Equal(decimal.NewFromInt(200)))

	inv, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "SENT"})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)

	inv, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)

	_, err = f.svc.Update(ctx, userA, inv.ID, sampleInput(clientA))
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.ErrorIs(t, err, httpx.ErrInvalidState)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "SENT"})
	assert.ErrorIs(t, err, httpx.ErrInvalidTransition)

	assert.Equal(t, 3, f.cache.bumps[userA])
}

func TestCreateAllocatesSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)
	assert.Equal(t, "INV0001", first.InvoiceNumber)
	assert.Equal(t, "INV0002", second.InvoiceNumber)

	wide, err := f.svc.Create(ctx, userB, sampleInput(clientB))
	require.NoError(t, err)
	assert.Equal(t, "BB12345", wide.InvoiceNumber)
	assert.Equal(t, "EUR", wide.Currency)
}

func TestCreateRejectsForeignClientWithoutConsumingNumber(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), userA, sampleInput(clientB))
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Equal(t, 1, f.repo.users[userA].next)
}

func TestCreateUnknownTemplate(t *testing.T) {
	f := newFixture(t)
	in := sampleInput(clientA)
	missing := "f1f1f1f1-0000-4000-8000-0000000000ff"
	in.TemplateID = &missing

	_, err := f.svc.Create(context.Background(), userA, in)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*InvoiceInput)
		field string
	}{
		{"no items", func(in *InvoiceInput) { in.Items = nil }, "items"},
		{"zero quantity", func(in *InvoiceInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(in *InvoiceInput) { in.Items[0].UnitPrice = decimal.NewFromInt(-1) }, "items[0].unitPrice"},
		{"blank description", func(in *InvoiceInput) { in.Items[0].Description = "   " }, "items[0].description"},
		{"tax above 100", func(in *InvoiceInput) { in.TaxRate = decimal.NewFromInt(101) }, "taxRate"},
		{"negative tax", func(in *InvoiceInput) { in.TaxRate = decimal.NewFromInt(-5) }, "taxRate"},
		{"tax beyond cents", func(in *InvoiceInput) { in.TaxRate = decimal.RequireFromString("7.125") }, "taxRate"},
		{"price beyond 4 places", func(in *InvoiceInput) { in.Items[0].UnitPrice = decimal.RequireFromString("0.12345") }, "items[0].unitPrice"},
		{"bad issue date", func(in *InvoiceInput) { in.IssueDate = "15/01/2026" }, "issueDate"},
		{"due before issue", func(in *InvoiceInput) { due := "2026-01-01"; in.DueDate = &due }, "dueDate"},
		{"unknown currency", func(in *InvoiceInput) { code := "ZZZ"; in.Currency = &code }, "currency"},
		{"client not a uuid", func(in *InvoiceInput) { in.ClientID = "42" }, "clientId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := sampleInput(clientA)
			tc.mut(&in)
			_, err := f.svc.Create(context.Background(), userA, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, httpx.ErrValidation)
			assert.Contains(t, fieldsOf(t, err), tc.field)
			assert.Empty(t, f.repo.invoices)
		})
	}
}

func TestCreateTotalsMatchStoragePrecision(t *testing.T) {
	f := newFixture(t)
	in := sampleInput(clientA)
	in.TaxRate = decimal.RequireFromString("7.130")
	in.Items = []ItemInput{{Description: "Widgets", Quantity: 1000, UnitPrice: decimal.RequireFromString("0.1235")}}

	inv, err := f.svc.Create(context.Background(), userA, in)
	require.NoError(t, err)

	stored := CalculateTotals([]Line{{Quantity: 1000, UnitPrice: inv.Items[0].UnitPrice.Round(unitPriceScale)}}, inv.TaxRate.Round(taxRateScale))
	assert.True(t, decimal.RequireFromString("123.50").Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.RequireFromString("8.81").Equal(inv.TaxAmount), inv.TaxAmount.String())
	assert.True(t, stored.Total.Equal(inv.Total), "stored %s, recomputed %s", inv.Total, stored.Total)
}

func TestCreateAcceptsRFC3339AndCurrencyOverride(t *testing.T) {
	f := newFixture(t)
	in := sampleInput(clientA)
	in.IssueDate = "2026-01-15T18:30:00Z"
	due := "2026-02-14"
	in.DueDate = &due
	code := "eur"
	in.Currency = &code

	inv, err := f.svc.Create(context.Background(), userA, in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, 14, inv.DueDate.Day())
	assert.Equal(t, "EUR", inv.Currency)
}

func TestUpdateReplacesItemsAndKeepsNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	in := sampleInput(clientA)
	in.TaxRate = decimal.Zero
	in.Items = []ItemInput{
		{Description: "Hosting", Quantity: 3, UnitPrice: decimal.RequireFromString("9.99")},
		{Description: "Setup", Quantity: 1, UnitPrice: decimal.RequireFromString("50")},
	}
	updated, err := f.svc.Update(ctx, userA, inv.ID, in)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, updated.InvoiceNumber)
	assert.Len(t, updated.Items, 2)
	assert.Equal(t, "79.97", updated.Subtotal.StringFixed(2))
	assert.True(t, updated.TaxAmount.IsZero())
	assert.True(t, updated.Total.Equal(updated.Subtotal))
}

func TestDeleteRequiresDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "SENT"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Delete(ctx, userA, inv.ID), ErrNotEditable)

	draft, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, userA, draft.ID))
	_, err = f.svc.Get(ctx, userA, draft.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, userB, inv.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, userB, inv.ID), httpx.ErrNotFound)
	_, err = f.svc.UpdateStatus(ctx, userB, inv.ID, StatusInput{Status: "SENT"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

// ============================================================================
// STATUS UPDATES
// ============================================================================

func TestUpdateStatusRejectedEdgeCarriesContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "PAID"})
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusDraft, te.From)
	assert.Equal(t, StatusPaid, te.To)
	assert.Equal(t, []Status{StatusSent, StatusCancelled}, te.Allowed)
	assert.Equal(t, 0, f.repo.statusWrites)
}

func TestUpdateStatusUnknownLiteralIsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "ARCHIVED"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.NotErrorIs(t, err, httpx.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCancelledInvoiceReopensAsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "CANCELLED"})
	require.NoError(t, err)
	reopened, err := f.svc.UpdateStatus(ctx, userA, inv.ID, StatusInput{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, reopened.Status)
	_, err = f.svc.Update(ctx, userA, inv.ID, sampleInput(clientA))
	assert.NoError(t, err)
}

// ============================================================================
// PDF EXPORT
// ============================================================================

func TestExportPDFLayoutSelection(t *testing.T) {
	missing := "f1f1f1f1-0000-4000-8000-0000000000ff"
	cases := []struct {
		name     string
		template *string
		want     report.Layout
	}{
		{"no template", nil, report.LayoutDefault},
		{"professional", strp(tplPro), report.LayoutProfessional},
		{"unknown name", strp(tplMini), report.LayoutModern},
		{"dangling reference", &missing, report.LayoutDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
			require.NoError(t, err)
			f.repo.invoices[inv.ID].TemplateID = tc.template

			pdf, err := f.svc.ExportPDF(ctx, userA, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, pdf.Layout)
			assert.Equal(t, tc.want, f.renderer.layout)
			assert.Equal(t, "invoice-INV0001.pdf", pdf.Filename)
			assert.Equal(t, "220", f.renderer.doc.Total.String())
		})
	}
}

func TestExportPDFRendererFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, userA, sampleInput(clientA))
	require.NoError(t, err)
	f.renderer.err = errors.New("gotenberg down")

	_, err = f.svc.ExportPDF(ctx, userA, inv.ID)
	assert.ErrorIs(t, err, httpx.ErrUpstream)
}

func strp(s string) *string { return &s }
