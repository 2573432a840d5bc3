package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicer/invoicer/internal/invoices"
	"github.com/invoicer/invoicer/internal/platform/db"
)

// PGRepository reads analytics inputs from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Invoices returns every invoice of userID, oldest issue date first.
func (r *PGRepository) Invoices(ctx context.Context, userID string) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, client_id::text, status, total, issue_date, due_date, created_at
FROM invoices WHERE user_id = $1 ORDER BY issue_date, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		var (
			inv    Invoice
			status string
			total  pgtype.Numeric
			due    pgtype.Date
		)
		if err := rows.Scan(&inv.ID, &inv.ClientID, &status, &total, &inv.IssueDate, &due, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.Status = invoices.Status(status)
		inv.Total = db.Decimal(total)
		inv.IssueDate = inv.IssueDate.UTC()
		if due.Valid {
			d := due.Time.UTC()
			inv.DueDate = &d
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Clients returns every client of userID with its invoice summaries.
func (r *PGRepository) Clients(ctx context.Context, userID string) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id::text, c.name, c.company, c.created_at,
	i.id::text, i.status, i.total
FROM clients c
LEFT JOIN invoices i ON i.client_id = c.id
WHERE c.user_id = $1
ORDER BY c.created_at, c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	index := map[string]int{}
	for rows.Next() {
		var (
			c                Client
			company          pgtype.Text
			invID, invStatus pgtype.Text
			invTotal         pgtype.Numeric
		)
		if err := rows.Scan(&c.ID, &c.Name, &company, &c.CreatedAt, &invID, &invStatus, &invTotal); err != nil {
			return nil, err
		}
		pos, seen := index[c.ID]
		if !seen {
			c.Company = db.Text(company)
			c.Invoices = []InvoiceSummary{}
			out = append(out, c)
			pos = len(out) - 1
			index[c.ID] = pos
		}
		if invID.Valid {
			out[pos].Invoices = append(out[pos].Invoices, InvoiceSummary{
				ID:     invID.String,
				Status: invoices.Status(invStatus.String),
				Total:  db.Decimal(invTotal),
			})
		}
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
