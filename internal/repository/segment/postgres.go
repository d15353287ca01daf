package segment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const segmentColumns = `s.id::text, s.name, COALESCE(s.description, ''), count(m.customer_id), s.created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Segment, error) {
	const q = `
SELECT ` + segmentColumns + `
FROM segments s
LEFT JOIN segment_members m ON m.segment_id = s.id
GROUP BY s.id
ORDER BY s.name
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.MemberCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Segment, error) {
	const q = `
SELECT ` + segmentColumns + `
FROM segments s
LEFT JOIN segment_members m ON m.segment_id = s.id
WHERE s.id = $1
GROUP BY s.id
`
	var s domain.Segment
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.Name, &s.Description, &s.MemberCount, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Segment) (*domain.Segment, error) {
	const q = `
INSERT INTO segments (name, description)
VALUES ($1, NULLIF($2, ''))
RETURNING id::text, name, COALESCE(description, ''), created_at
`
	var created domain.Segment
	err := r.pool.QueryRow(ctx, q, s.Name, s.Description).
		Scan(&created.ID, &created.Name, &created.Description, &created.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *postgresRepo) Update(ctx context.Context, s domain.Segment) (*domain.Segment, error) {
	const q = `
UPDATE segments SET name = $2, description = NULLIF($3, '')
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, s.ID, s.Name, s.Description)
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
	return r.GetByID(ctx, s.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM segments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MemberIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT customer_id::text FROM segment_members WHERE segment_id = $1 ORDER BY added_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		ids = append(ids, cid)
	}
	return ids, rows.Err()
}

// ReplaceMembers swaps the full member set in one transaction.
func (r *postgresRepo) ReplaceMembers(ctx context.Context, id string, customerIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM segment_members WHERE segment_id = $1`, id); err != nil {
		return err
	}
	for _, cid := range customerIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO segment_members (segment_id, customer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, cid); err != nil {
			if isForeignKey(err) {
				return domain.ErrNotFound
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) AddMember(ctx context.Context, id, customerID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO segment_members (segment_id, customer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		id, customerID)
	if isForeignKey(err) {
		return domain.ErrNotFound
	}
	return err
}

func (r *postgresRepo) RemoveMember(ctx context.Context, id, customerID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM segment_members WHERE segment_id = $1 AND customer_id = $2`, id, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveCustomer drops a customer from every segment. Used by the
// customer-deletion cleanup.
func (r *postgresRepo) RemoveCustomer(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM segment_members WHERE customer_id = $1`, customerID)
	return err
}

func isForeignKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
