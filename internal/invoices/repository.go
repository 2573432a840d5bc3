package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicer/invoicer/internal/platform/db"
	"github.com/invoicer/invoicer/report"
)

// ExportData is everything the PDF layouts need for one invoice.
type ExportData struct {
	Invoice  Invoice
	Issuer   report.Party
	Client   report.Party
	Template *report.TemplateRef
}

// Repository persists invoices. Every query is scoped by user id.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, userID string, filter ListFilter) ([]Invoice, error)
	Get(ctx context.Context, userID, id string) (*Invoice, error)
	LockStatus(ctx context.Context, userID, id string) (Status, error)
	AllocateNumber(ctx context.Context, userID string) (string, error)
	DefaultCurrency(ctx context.Context, userID string) (string, error)
	ClientExists(ctx context.Context, userID, clientID string) (bool, error)
	TemplateVisible(ctx context.Context, userID, templateID string) (bool, error)
	Insert(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	ReplaceItems(ctx context.Context, invoiceID string, items []Item) error
	UpdateStatus(ctx context.Context, userID, id string, status Status) error
	Delete(ctx context.Context, userID, id string) error
	LoadExport(ctx context.Context, userID, id string) (*ExportData, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn at READ COMMITTED. Number allocation and the FOR UPDATE
// locks serialize writers on the rows they touch.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const invoiceSelect = `SELECT i.id::text, i.user_id::text, i.client_id::text, i.invoice_number, i.status,
	i.issue_date, i.due_date, i.notes, i.subtotal, i.tax_rate, i.tax_amount, i.total, i.currency,
	i.template_id::text, i.created_at, i.updated_at,
	c.id::text, c.name, c.email, c.company
FROM invoices i
JOIN clients c ON c.id = i.client_id`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv                        Invoice
		status                     string
		dueDate                    pgtype.Date
		notes, templateID          pgtype.Text
		subtotal, rate, tax, total pgtype.Numeric
		client                     ClientSummary
		clientEmail, clientCompany pgtype.Text
	)
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ClientID, &inv.InvoiceNumber, &status,
		&inv.IssueDate, &dueDate, &notes, &subtotal, &rate, &tax, &total, &inv.Currency,
		&templateID, &inv.CreatedAt, &inv.UpdatedAt,
		&client.ID, &client.Name, &clientEmail, &clientCompany,
	)
	if err != nil {
		return Invoice{}, err
	}
	inv.Status = Status(status)
	if dueDate.Valid {
		d := dueDate.Time
		inv.DueDate = &d
	}
	inv.Notes = db.Text(notes)
	inv.TemplateID = db.Text(templateID)
	inv.Subtotal = db.Decimal(subtotal)
	inv.TaxRate = db.Decimal(rate)
	inv.TaxAmount = db.Decimal(tax)
	inv.Total = db.Decimal(total)
	client.Email = db.Text(clientEmail)
	client.Company = db.Text(clientCompany)
	inv.Client = &client
	inv.Items = []Item{}
	return inv, nil
}

func (r *repository) List(ctx context.Context, userID string, filter ListFilter) ([]Invoice, error) {
	conditions := []string{"i.user_id = $1"}
	args := []interface{}{userID}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("i.client_id = $%d", len(args)))
	}
	query := invoiceSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY i.created_at DESC, i.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		index[inv.ID] = len(out)
		ids = append(ids, inv.ID)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Invoice{}, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		pos := index[it.InvoiceID]
		out[pos].Items = append(out[pos].Items, it)
	}
	return out, nil
}

func (r *repository) itemsFor(ctx context.Context, invoiceIDs []string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text, invoice_id::text, description, quantity, unit_price, total
FROM invoice_items
WHERE invoice_id = ANY($1::uuid[])
ORDER BY invoice_id, position`, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it           Item
			price, total pgtype.Numeric
		)
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &price, &total); err != nil {
			return nil, err
		}
		it.UnitPrice = db.Decimal(price)
		it.Total = db.Decimal(total)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, invoiceSelect+" WHERE i.id = $1 AND i.user_id = $2", id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	items, err := r.itemsFor(ctx, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	if items != nil {
		inv.Items = items
	}
	return &inv, nil
}

// LockStatus reads the invoice status and holds the row lock until the
// surrounding transaction ends.
func (r *repository) LockStatus(ctx context.Context, userID, id string) (Status, error) {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvoiceNotFound
		}
		return "", err
	}
	return Status(status), nil
}

// AllocateNumber increments the user's counter and formats the value it held.
func (r *repository) AllocateNumber(ctx context.Context, userID string) (string, error) {
	var (
		prefix  string
		counter int
	)
	err := r.db.QueryRow(ctx, `UPDATE users
SET next_invoice_num = next_invoice_num + 1, updated_at = now()
WHERE id = $1
RETURNING invoice_prefix, next_invoice_num - 1`, userID).Scan(&prefix, &counter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("allocate invoice number: user %s: %w", userID, pgx.ErrNoRows)
		}
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	return FormatNumber(prefix, counter), nil
}

func (r *repository) DefaultCurrency(ctx context.Context, userID string) (string, error) {
	var code string
	if err := r.db.QueryRow(ctx, `SELECT default_currency FROM users WHERE id = $1`, userID).Scan(&code); err != nil {
		return "", err
	}
	return code, nil
}

func (r *repository) ClientExists(ctx context.Context, userID, clientID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND user_id = $2)`, clientID, userID).Scan(&ok)
	return ok, err
}

func (r *repository) TemplateVisible(ctx context.Context, userID, templateID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(
	SELECT 1 FROM invoice_templates WHERE id = $1 AND (is_system OR user_id = $2)
)`, templateID, userID).Scan(&ok)
	return ok, err
}

func (r *repository) Insert(ctx context.Context, inv Invoice) error {
	_, err := r.db.Exec(ctx, `INSERT INTO invoices (
	id, user_id, client_id, template_id, invoice_number, status, issue_date, due_date, notes,
	subtotal, tax_rate, tax_amount, total, currency, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		inv.ID, inv.UserID, inv.ClientID, inv.TemplateID, inv.InvoiceNumber, string(inv.Status),
		inv.IssueDate, inv.DueDate, inv.Notes,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.Currency, inv.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET
	client_id = $3, template_id = $4, issue_date = $5, due_date = $6, notes = $7,
	subtotal = $8, tax_rate = $9, tax_amount = $10, total = $11, currency = $12, updated_at = $13
WHERE id = $1 AND user_id = $2`,
		inv.ID, inv.UserID, inv.ClientID, inv.TemplateID, inv.IssueDate, inv.DueDate, inv.Notes,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.Currency, inv.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// ReplaceItems deletes every line of the invoice and inserts items in order.
func (r *repository) ReplaceItems(ctx context.Context, invoiceID string, items []Item) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	for i, it := range items {
		_, err := r.db.Exec(ctx, `INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, it.ID, invoiceID, i+1, it.Description, it.Quantity, it.UnitPrice, it.Total)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, userID, id string, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $3, updated_at = now() WHERE id = $1 AND user_id = $2`,
		id, userID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repository) LoadExport(ctx context.Context, userID, id string) (*ExportData, error) {
	inv, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	out := &ExportData{Invoice: *inv}

	var (
		name                                   string
		business, email, phone, address, taxID pgtype.Text
		logo                                   pgtype.Text
	)
	err = r.db.QueryRow(ctx, `SELECT name, business_name, email, phone, address, tax_id, logo_url
FROM users WHERE id = $1`, userID).Scan(&name, &business, &email, &phone, &address, &taxID, &logo)
	if err != nil {
		return nil, fmt.Errorf("load issuer: %w", err)
	}
	out.Issuer = report.Party{
		Name:    name,
		Company: db.Text(business),
		Email:   db.Text(email),
		Phone:   db.Text(phone),
		Address: db.Text(address),
		TaxID:   db.Text(taxID),
		LogoURL: db.Text(logo),
	}

	var cEmail, cPhone, cCompany, cAddress pgtype.Text
	err = r.db.QueryRow(ctx, `SELECT name, email, phone, company, address FROM clients WHERE id = $1 AND user_id = $2`,
		inv.ClientID, userID).Scan(&name, &cEmail, &cPhone, &cCompany, &cAddress)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	out.Client = report.Party{
		Name:    name,
		Company: db.Text(cCompany),
		Email:   db.Text(cEmail),
		Phone:   db.Text(cPhone),
		Address: db.Text(cAddress),
	}

	if inv.TemplateID == nil {
		return out, nil
	}
	var (
		tplName string
		styles  []byte
	)
	err = r.db.QueryRow(ctx, `SELECT name, styles FROM invoice_templates
WHERE id = $1 AND (is_system OR user_id = $2)`, *inv.TemplateID, userID).Scan(&tplName, &styles)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("load template: %w", err)
	}
	ref := &report.TemplateRef{Name: tplName}
	if len(styles) > 0 {
		if err := json.Unmarshal(styles, &ref.Styles); err != nil {
			return nil, fmt.Errorf("decode template styles: %w", err)
		}
	}
	out.Template = ref
	return out, nil
}
