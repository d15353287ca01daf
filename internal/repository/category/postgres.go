package category

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const categoryColumns = `id::text, slug, name, position, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *postgresRepo) getBy(ctx context.Context, column, value string) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE `+column+` = $1`, value).
		Scan(&c.ID, &c.Slug, &c.Name, &c.Position, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (slug, name, position)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns
	var created domain.Category
	err := r.pool.QueryRow(ctx, q, c.Slug, c.Name, c.Position).
		Scan(&created.ID, &created.Slug, &created.Name, &created.Position, &created.CreatedAt)
	if err != nil {
		if isUnique(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
UPDATE categories SET slug = $2, name = $3, position = $4
WHERE id = $1
RETURNING ` + categoryColumns
	var updated domain.Category
	err := r.pool.QueryRow(ctx, q, c.ID, c.Slug, c.Name, c.Position).
		Scan(&updated.ID, &updated.Slug, &updated.Name, &updated.Position, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUnique(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &updated, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (slug, name, position)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position
RETURNING ` + categoryColumns
	var res domain.Category
	err := r.pool.QueryRow(ctx, q, c.Slug, c.Name, c.Position).
		Scan(&res.ID, &res.Slug, &res.Name, &res.Position, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
