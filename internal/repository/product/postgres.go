package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const productColumns = `id::text, sku, slug, name, COALESCE(description, ''), price_cents, currency, category_id::text, images, stock, is_active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.IncludeInactive {
		conds = append(conds, "is_active")
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}

	q := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.getBy(ctx, "sku", sku)
}

func (r *postgresRepo) getBy(ctx context.Context, column, value string) (*domain.Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE " + column + " = $1"
	row := r.pool.QueryRow(ctx, q, value)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get %s=%s error=%v", column, value, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (sku, slug, name, description, price_cents, currency, category_id, images, stock, is_active)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, COALESCE($8, '[]'::jsonb), $9, $10)
RETURNING ` + productColumns
	row := r.pool.QueryRow(ctx, q, p.SKU, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.CategoryID, p.Images, p.Stock, p.IsActive)
	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: create sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: created sku=%s id=%s", created.SKU, created.ID)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products SET
    sku = $2,
    slug = $3,
    name = $4,
    description = NULLIF($5, ''),
    price_cents = $6,
    currency = $7,
    category_id = $8,
    stock = $9,
    is_active = $10,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	row := r.pool.QueryRow(ctx, q, p.ID, p.SKU, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.CategoryID, p.Stock, p.IsActive)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("product repo: update id=%s error=%v", p.ID, err)
		return nil, err
	}
	return updated, nil
}

// Upsert inserts or updates by SKU. Used by the importer and seeder.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (sku, slug, name, description, price_cents, currency, category_id, images, stock, is_active)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, COALESCE($8, '[]'::jsonb), $9, $10)
ON CONFLICT (sku) DO UPDATE SET
    slug = EXCLUDED.slug,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    category_id = EXCLUDED.category_id,
    images = EXCLUDED.images,
    stock = EXCLUDED.stock,
    is_active = EXCLUDED.is_active,
    updated_at = now()
RETURNING ` + productColumns
	row := r.pool.QueryRow(ctx, q, p.SKU, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.CategoryID, p.Images, p.Stock, p.IsActive)
	res, err := scanProduct(row)
	if err != nil {
		r.logger.Printf("product repo: upsert sku=%s error=%v", p.SKU, err)
		return nil, err
	}
	r.logger.Printf("product repo: upserted sku=%s id=%s", res.SKU, res.ID)
	return res, nil
}

func (r *postgresRepo) SetImages(ctx context.Context, id string, images []string) error {
	if images == nil {
		images = []string{}
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE products SET images = $2, updated_at = now() WHERE id = $1`, id, images)
	if err != nil {
		r.logger.Printf("product repo: set images id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID, &p.SKU, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Currency,
		&p.CategoryID, &p.Images, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
