package role

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const roleColumns = `id::text, name, COALESCE(description, ''), permissions, is_system, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions, &role.IsSystem, &role.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getBy(ctx, "name", name)
}

func (r *postgresRepo) getBy(ctx context.Context, column, value string) (*domain.Role, error) {
	var role domain.Role
	err := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE `+column+` = $1`, value).
		Scan(&role.ID, &role.Name, &role.Description, &role.Permissions, &role.IsSystem, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *postgresRepo) Create(ctx context.Context, role domain.Role) (*domain.Role, error) {
	const q = `
INSERT INTO roles (name, description, permissions, is_system)
VALUES ($1, NULLIF($2, ''), $3, $4)
RETURNING ` + roleColumns
	var created domain.Role
	err := r.pool.QueryRow(ctx, q, role.Name, role.Description, role.Permissions, role.IsSystem).
		Scan(&created.ID, &created.Name, &created.Description, &created.Permissions, &created.IsSystem, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *postgresRepo) Update(ctx context.Context, role domain.Role) (*domain.Role, error) {
	const q = `
UPDATE roles SET name = $2, description = NULLIF($3, ''), permissions = $4
WHERE id = $1
RETURNING ` + roleColumns
	var updated domain.Role
	err := r.pool.QueryRow(ctx, q, role.ID, role.Name, role.Description, role.Permissions).
		Scan(&updated.ID, &updated.Name, &updated.Description, &updated.Permissions, &updated.IsSystem, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrConflict
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
