package clients

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicer/invoicer/internal/platform/db"
)

// Repository persists clients scoped by owner.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, userID string) ([]Client, error)
	Get(ctx context.Context, userID, id string) (*Client, error)
	Insert(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, userID, id string) error
	// LockInvoiceCount locks the client row and counts its invoices.
	LockInvoiceCount(ctx context.Context, userID, id string) (int, error)
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

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const clientSelect = `SELECT c.id::text, c.user_id::text, c.name, c.email, c.phone, c.company, c.address, c.notes,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM invoices i WHERE i.client_id = c.id)
FROM clients c`

func scanClient(row pgx.Row) (Client, error) {
	var (
		c                                    Client
		email, phone, company, address, note pgtype.Text
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &email, &phone, &company, &address, &note,
		&c.CreatedAt, &c.UpdatedAt, &c.InvoiceCount); err != nil {
		return Client{}, err
	}
	c.Email = db.Text(email)
	c.Phone = db.Text(phone)
	c.Company = db.Text(company)
	c.Address = db.Text(address)
	c.Notes = db.Text(note)
	return c, nil
}

func (r *repository) List(ctx context.Context, userID string) ([]Client, error) {
	rows, err := r.db.Query(ctx, clientSelect+` WHERE c.user_id = $1 ORDER BY c.created_at DESC, c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, clientSelect+` WHERE c.id = $1 AND c.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Insert(ctx context.Context, c Client) error {
	_, err := r.db.Exec(ctx, `INSERT INTO clients (id, user_id, name, email, phone, company, address, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, c.Address, c.Notes, c.CreatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, c Client) error {
	tag, err := r.db.Exec(ctx, `UPDATE clients
SET name = $3, email = $4, phone = $5, company = $6, address = $7, notes = $8, updated_at = $9
WHERE id = $1 AND user_id = $2`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Company, c.Address, c.Notes, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrClientHasInvoices
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *repository) LockInvoiceCount(ctx context.Context, userID, id string) (int, error) {
	var locked string
	err := r.db.QueryRow(ctx, `SELECT id::text FROM clients WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrClientNotFound
		}
		return 0, err
	}
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE client_id = $1`, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
