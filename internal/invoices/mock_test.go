package invoices

import (
	"context"
	"sort"
	"sync"

	"github.com/invoicer/invoicer/report"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockUser struct {
	prefix   string
	next     int
	currency string
}

type mockTemplate struct {
	userID string
	system bool
	ref    report.TemplateRef
}

type mockRepository struct {
	mu        sync.Mutex
	users     map[string]*mockUser
	clients   map[string]string // client id -> owner
	templates map[string]mockTemplate
	invoices  map[string]*Invoice

	txErr        error
	statusWrites int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:     map[string]*mockUser{},
		clients:   map[string]string{},
		templates: map[string]mockTemplate{},
		invoices:  map[string]*Invoice{},
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, m)
}

func (m *mockRepository) List(ctx context.Context, userID string, filter ListFilter) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Invoice{}
	for _, inv := range m.invoices {
		if inv.UserID != userID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, userID, id string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, ErrInvoiceNotFound
	}
	cp := *inv
	cp.Items = append([]Item(nil), inv.Items...)
	cp.Client = &ClientSummary{ID: inv.ClientID, Name: "Client " + inv.ClientID}
	return &cp, nil
}

func (m *mockRepository) LockStatus(ctx context.Context, userID, id string) (Status, error) {
	inv, err := m.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return inv.Status, nil
}

func (m *mockRepository) AllocateNumber(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	n := u.next
	u.next++
	return FormatNumber(u.prefix, n), nil
}

func (m *mockRepository) DefaultCurrency(ctx context.Context, userID string) (string, error) {
	return m.users[userID].currency, nil
}

func (m *mockRepository) ClientExists(ctx context.Context, userID, clientID string) (bool, error) {
	return m.clients[clientID] == userID, nil
}

func (m *mockRepository) TemplateVisible(ctx context.Context, userID, templateID string) (bool, error) {
	tpl, ok := m.templates[templateID]
	return ok && (tpl.system || tpl.userID == userID), nil
}

func (m *mockRepository) Insert(ctx context.Context, inv Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = &inv
	return nil
}

func (m *mockRepository) Update(ctx context.Context, inv Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.invoices[inv.ID].Items
	inv.Items = items
	m.invoices[inv.ID] = &inv
	return nil
}

func (m *mockRepository) ReplaceItems(ctx context.Context, invoiceID string, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoiceID].Items = append([]Item(nil), items...)
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, userID, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusWrites++
	m.invoices[id].Status = status
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.invoices, id)
	return nil
}

func (m *mockRepository) LoadExport(ctx context.Context, userID, id string) (*ExportData, error) {
	inv, err := m.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	data := &ExportData{
		Invoice: *inv,
		Issuer:  report.Party{Name: "Issuer"},
		Client:  report.Party{Name: inv.Client.Name},
	}
	if inv.TemplateID != nil {
		if tpl, ok := m.templates[*inv.TemplateID]; ok {
			ref := tpl.ref
			data.Template = &ref
		}
	}
	return data, nil
}

type fakeRenderer struct {
	layout report.Layout
	doc    report.InvoiceDocument
	err    error
}

func (f *fakeRenderer) Render(ctx context.Context, layout report.Layout, doc report.InvoiceDocument) ([]byte, error) {
	f.layout, f.doc = layout, doc
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF"), nil
}

type countingCache struct {
	bumps map[string]int
}

func (c *countingCache) Bump(ctx context.Context, userID string) error {
	if c.bumps == nil {
		c.bumps = map[string]int{}
	}
	c.bumps[userID]++
	return nil
}
