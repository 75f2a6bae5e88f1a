package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadbridge/leadbridge/internal/platform/db"
)

const skuConstraint = "products_sku_key"

// Repository provides PostgreSQL backed persistence for products and sync runs.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const productColumns = `id, name, sku, category, remote_id, variants, created_at, updated_at`

// UpsertRemote inserts or updates the product owning u.RemoteID in a single statement.
func (r *Repository) UpsertRemote(ctx context.Context, u RemoteUpsert) error {
	variants, err := encodeVariants(u.Variants)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
INSERT INTO products (name, sku, category, remote_id, variants)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (remote_id) DO UPDATE SET
    name = EXCLUDED.name,
    sku = EXCLUDED.sku,
    category = EXCLUDED.category,
    variants = EXCLUDED.variants,
    updated_at = NOW()`,
		u.Name, u.SKU, u.Category, u.RemoteID, variants)
	if err != nil {
		return mapWriteError(err, u.SKU)
	}
	return nil
}

// Create stores a manual product.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	variants, err := encodeVariants(p.Variants)
	if err != nil {
		return Product{}, err
	}
	row := r.db.QueryRow(ctx, `
INSERT INTO products (name, sku, category, remote_id, variants)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+productColumns,
		p.Name, p.SKU, p.Category, p.RemoteID, variants)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, mapWriteError(err, p.SKU)
	}
	return created, nil
}

// Get loads a product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Update overwrites name, sku and category.
func (r *Repository) Update(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `
UPDATE products SET name = $2, sku = $3, category = $4, updated_at = NOW()
WHERE id = $1
RETURNING `+productColumns,
		p.ID, p.Name, p.SKU, p.Category)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, mapWriteError(err, p.SKU)
	}
	return updated, nil
}

// Delete removes one product.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset deletes every product and returns how many were removed.
func (r *Repository) Reset(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, fmt.Errorf("catalog: reset products: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Search lists products newest first, optionally filtered by a case-insensitive
// substring of name, sku or any variant sku.
func (r *Repository) Search(ctx context.Context, params SearchParams) ([]Product, error) {
	params = params.normalized()
	pattern := "%" + escapeLike(params.Query) + "%"
	rows, err := r.db.Query(ctx, `
SELECT `+productColumns+`
FROM products
WHERE $1 = ''
   OR name ILIKE $2
   OR sku ILIKE $2
   OR EXISTS (SELECT 1 FROM jsonb_array_elements(variants) v WHERE v->>'sku' ILIKE $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`, params.Query, pattern, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// StartRun records a running sync and returns its id.
func (r *Repository) StartRun(ctx context.Context, store string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Exec(ctx, `INSERT INTO catalog_sync_runs (id, store, status) VALUES ($1, $2, $3)`, id, store, RunRunning)
	if err != nil {
		return uuid.Nil, fmt.Errorf("catalog: start run: %w", err)
	}
	return id, nil
}

// FinishRun stores the counters and final status of a run.
func (r *Repository) FinishRun(ctx context.Context, id uuid.UUID, res SyncResult, runErr error) error {
	status := RunCompleted
	var lastError *string
	if runErr != nil {
		status = RunFailed
		msg := runErr.Error()
		lastError = &msg
	}
	_, err := r.db.Exec(ctx, `
UPDATE catalog_sync_runs
SET status = $2, saved = $3, total_remote = $4, fetched = $5, errors = $6, last_error = $7, finished_at = NOW()
WHERE id = $1`,
		id, status, res.Saved, res.TotalRemote, res.Fetched, res.Errors, lastError)
	if err != nil {
		return fmt.Errorf("catalog: finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent sync runs.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultRunLimit
	}
	rows, err := r.db.Query(ctx, `
SELECT id, store, status, saved, total_remote, fetched, errors, last_error, started_at, finished_at
FROM catalog_sync_runs
ORDER BY started_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(&run.ID, &run.Store, &run.Status, &run.Saved, &run.TotalRemote, &run.Fetched,
			&run.Errors, &run.LastError, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		variants []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.RemoteID, &variants, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Variants = []Variant{}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return Product{}, fmt.Errorf("catalog: decode variants: %w", err)
		}
	}
	return p, nil
}

func encodeVariants(variants []Variant) ([]byte, error) {
	if variants == nil {
		variants = []Variant{}
	}
	data, err := json.Marshal(variants)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode variants: %w", err)
	}
	return data, nil
}

func mapWriteError(err error, sku string) error {
	if db.IsUniqueViolation(err, skuConstraint) {
		return fmt.Errorf("%w: %q", ErrDuplicateSKU, sku)
	}
	return fmt.Errorf("catalog: write product: %w", err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
