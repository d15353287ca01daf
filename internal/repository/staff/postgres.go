package staff

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const staffColumns = `s.id::text, s.email, s.password_hash, s.role_id::text, r.name, s.is_active, s.created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.StaffUser) (*domain.StaffUser, error) {
	const q = `
INSERT INTO staff_users (email, password_hash, role_id, is_active)
VALUES ($1, $2, $3, $4)
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q, strings.ToLower(u.Email), u.PasswordHash, u.RoleID, u.IsActive).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, domain.ErrAlreadyExists
			case "23503":
				return nil, domain.ErrNotFound
			}
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	return r.getBy(ctx, "s.id", id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	return r.getBy(ctx, "s.email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *postgresRepo) getBy(ctx context.Context, column, value string) (*domain.StaffUser, error) {
	q := `SELECT ` + staffColumns + ` FROM staff_users s JOIN roles r ON r.id = s.role_id WHERE ` + column + ` = $1`
	var u domain.StaffUser
	err := r.pool.QueryRow(ctx, q, value).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.StaffUser, error) {
	const q = `
SELECT ` + staffColumns + `
FROM staff_users s
JOIN roles r ON r.id = s.role_id
ORDER BY s.created_at
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffUser
	for rows.Next() {
		var u domain.StaffUser
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, u domain.StaffUser) (*domain.StaffUser, error) {
	const q = `
UPDATE staff_users SET email = $2, password_hash = $3, role_id = $4, is_active = $5
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, u.ID, strings.ToLower(u.Email), u.PasswordHash, u.RoleID, u.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, u.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM staff_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM staff_users WHERE is_active`).Scan(&count)
	return count, err
}
