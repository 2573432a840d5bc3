package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicer/invoicer/internal/platform/db"
)

// Repository persists invoice templates.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// List returns system templates plus those owned by userID.
	List(ctx context.Context, userID string) ([]Template, error)
	Get(ctx context.Context, userID, id string) (*Template, error)
	Insert(ctx context.Context, t Template) error
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, id string) error
	// LockReferenced locks the template row and reports whether any invoice uses it.
	LockReferenced(ctx context.Context, id string) (bool, error)
	// InsertSystem adds a system template unless one with the same name exists.
	InsertSystem(ctx context.Context, t Template) (bool, error)
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

const templateSelect = `SELECT id::text, user_id::text, name, category, description, preview_url,
	is_default, is_system, styles, sample_data, created_at, updated_at
FROM invoice_templates`

func scanTemplate(row pgx.Row) (Template, error) {
	var (
		t                     Template
		userID, desc, preview pgtype.Text
		styles, sample        []byte
	)
	if err := row.Scan(&t.ID, &userID, &t.Name, &t.Category, &desc, &preview,
		&t.IsDefault, &t.IsSystem, &styles, &sample, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Template{}, err
	}
	t.UserID = db.Text(userID)
	t.Description = db.Text(desc)
	t.PreviewURL = db.Text(preview)
	if len(styles) > 0 {
		if err := json.Unmarshal(styles, &t.Styles); err != nil {
			return Template{}, fmt.Errorf("decode styles of %s: %w", t.ID, err)
		}
	}
	if len(sample) > 0 && string(sample) != "null" {
		t.SampleData = &SampleData{}
		if err := json.Unmarshal(sample, t.SampleData); err != nil {
			return Template{}, fmt.Errorf("decode sample data of %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, userID string) ([]Template, error) {
	rows, err := r.db.Query(ctx, templateSelect+`
WHERE is_system OR user_id = $1
ORDER BY is_default DESC, lower(name), id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, templateSelect+` WHERE id = $1 AND (is_system OR user_id = $2)`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func encode(t Template) (styles, sample []byte, err error) {
	if styles, err = json.Marshal(t.Styles); err != nil {
		return nil, nil, err
	}
	if t.SampleData != nil {
		if sample, err = json.Marshal(t.SampleData); err != nil {
			return nil, nil, err
		}
	}
	return styles, sample, nil
}

func (r *repository) Insert(ctx context.Context, t Template) error {
	styles, sample, err := encode(t)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO invoice_templates
	(id, user_id, name, category, description, preview_url, is_default, is_system, styles, sample_data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		t.ID, t.UserID, t.Name, t.Category, t.Description, t.PreviewURL, t.IsDefault, t.IsSystem, styles, sample, t.CreatedAt)
	return err
}

func (r *repository) InsertSystem(ctx context.Context, t Template) (bool, error) {
	styles, sample, err := encode(t)
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `INSERT INTO invoice_templates
	(id, user_id, name, category, description, preview_url, is_default, is_system, styles, sample_data, created_at, updated_at)
VALUES ($1, NULL, $2, $3, $4, $5, $6, TRUE, $7, $8, $9, $9)
ON CONFLICT ((lower(name))) WHERE is_system DO NOTHING`,
		t.ID, t.Name, t.Category, t.Description, t.PreviewURL, t.IsDefault, styles, sample, t.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) Update(ctx context.Context, t Template) error {
	styles, sample, err := encode(t)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE invoice_templates
SET name = $2, category = $3, description = $4, preview_url = $5, styles = $6, sample_data = $7, updated_at = $8
WHERE id = $1 AND NOT is_system`,
		t.ID, t.Name, t.Category, t.Description, t.PreviewURL, styles, sample, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoice_templates WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrTemplateInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *repository) LockReferenced(ctx context.Context, id string) (bool, error) {
	var locked string
	if err := r.db.QueryRow(ctx, `SELECT id::text FROM invoice_templates WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTemplateNotFound
		}
		return false, err
	}
	var used bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE template_id = $1)`, id).Scan(&used)
	return used, err
}
