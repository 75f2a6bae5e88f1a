package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/leadbridge/leadbridge/internal/platform/db"
)

const phoneConstraint = "leads_phone_key"

const leadSelect = `
SELECT l.id, l.name, l.phone, l.product, l.product_sku, l.status, l.created_by, COALESCE(u.username, ''),
       l.created_at, l.updated_at
FROM leads l
LEFT JOIN users u ON u.id = l.created_by`

// Repository provides PostgreSQL backed persistence for leads.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Create inserts a lead.
func (r *Repository) Create(ctx context.Context, l Lead) (Lead, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO leads (name, phone, product, product_sku, status, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`, l.Name, l.Phone, l.Product, l.ProductSKU, l.Status, l.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, phoneConstraint) {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, fmt.Errorf("leads: create: %w", err)
	}
	return r.Get(ctx, id)
}

// Get loads a lead by id.
func (r *Repository) Get(ctx context.Context, id int64) (Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, leadSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// FindByPhone loads the lead owning phone.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (Lead, error) {
	l, err := scanLead(r.db.QueryRow(ctx, leadSelect+` WHERE l.phone = $1`, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// List returns leads newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Lead, error) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("l.created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("l.created_at <= $%d", len(args)))
	}
	query := leadSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY l.created_at DESC, l.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list: %w", err)
	}
	defer rows.Close()
	leads := []Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// Update overwrites status, name and product.
func (r *Repository) Update(ctx context.Context, l Lead) (Lead, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE leads SET status = $2, name = $3, product = $4, updated_at = NOW()
WHERE id = $1`, l.ID, l.Status, l.Name, l.Product)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Lead{}, ErrNotFound
	}
	return r.Get(ctx, l.ID)
}

// Delete removes a lead.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("leads: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Product, &l.ProductSKU, &l.Status, &l.CreatedBy, &l.CreatedByName,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}
