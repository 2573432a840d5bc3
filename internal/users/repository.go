package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicer/invoicer/internal/platform/db"
)

// Repository persists user accounts.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u User) error
	UpdateProfile(ctx context.Context, u User) error
	// SetLogo stores the new logo URL and returns the one it replaced.
	SetLogo(ctx context.Context, id string, url *string) (*string, error)
	// ActiveSince lists users with a login or invoice change after since.
	ActiveSince(ctx context.Context, since time.Time) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userSelect = `SELECT id::text, email, password_hash, name, business_name, phone, address, tax_id,
	invoice_prefix, next_invoice_num, default_currency, logo_url, is_active, created_at, updated_at
FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u                                   User
		business, phone, address, tax, logo pgtype.Text
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &business, &phone, &address, &tax,
		&u.InvoicePrefix, &u.NextInvoiceNum, &u.DefaultCurrency, &logo, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.BusinessName = db.Text(business)
	u.Phone = db.Text(phone)
	u.Address = db.Text(address)
	u.TaxID = db.Text(tax)
	u.LogoURL = db.Text(logo)
	return &u, nil
}

// FindByID fetches an active user.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE id = $1 AND is_active`, id))
}

// FindByEmail matches the address case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, userSelect+` WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users
	(id, email, password_hash, name, invoice_prefix, next_invoice_num, default_currency, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.InvoicePrefix, u.NextInvoiceNum, u.DefaultCurrency, u.IsActive, u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// UpdateProfile writes the editable settings. The numbering counter is
// never touched here.
func (r *PGRepository) UpdateProfile(ctx context.Context, u User) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
	name = $2, email = $3, business_name = $4, phone = $5, address = $6, tax_id = $7,
	invoice_prefix = $8, default_currency = $9, updated_at = $10
WHERE id = $1 AND is_active`,
		u.ID, u.Name, u.Email, u.BusinessName, u.Phone, u.Address, u.TaxID, u.InvoicePrefix, u.DefaultCurrency, u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLogo swaps logo_url under a row lock so concurrent uploads each see the
// URL they replaced.
func (r *PGRepository) SetLogo(ctx context.Context, id string, url *string) (*string, error) {
	var previous pgtype.Text
	err := r.pool.QueryRow(ctx, `UPDATE users u SET logo_url = $2, updated_at = now()
FROM (SELECT id, logo_url FROM users WHERE id = $1 AND is_active FOR UPDATE) prev
WHERE u.id = prev.id
RETURNING prev.logo_url`, id, url).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return db.Text(previous), nil
}

// ActiveSince lists user ids ordered for stable batching.
func (r *PGRepository) ActiveSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id::text FROM login_sessions WHERE created_at >= $1
UNION
SELECT user_id::text FROM invoices WHERE updated_at >= $1
ORDER BY 1`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
