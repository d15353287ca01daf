package customer

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

const customerColumns = `id::text, email, password_hash, COALESCE(first_name, ''), COALESCE(last_name, ''), addresses, COALESCE(default_shipping_address_id, ''), COALESCE(default_billing_address_id, ''), is_active, created_at`

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

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (email, password_hash, first_name, last_name, addresses, default_shipping_address_id, default_billing_address_id, is_active)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), COALESCE($5, '[]'::jsonb), NULLIF($6, ''), NULLIF($7, ''), $8)
RETURNING ` + customerColumns
	row := r.pool.QueryRow(ctx, q, c.Email, c.PasswordHash, c.FirstName, c.LastName, c.Addresses, c.DefaultShippingAddressID, c.DefaultBillingAddressID, c.IsActive)
	created, err := scanCustomer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: create email=%s error=%v", c.Email, err)
		return nil, err
	}
	r.logger.Printf("customer repo: created id=%s", created.ID)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *postgresRepo) getBy(ctx context.Context, column, value string) (*domain.Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE `+column+` = $1`, value)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("customer repo: get %s error=%v", column, err)
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers`
	var args []interface{}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		q += ` WHERE email ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1`
	}
	q += ` ORDER BY created_at DESC`
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
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
UPDATE customers SET
    email = $2,
    first_name = NULLIF($3, ''),
    last_name = NULLIF($4, ''),
    addresses = COALESCE($5, '[]'::jsonb),
    default_shipping_address_id = NULLIF($6, ''),
    default_billing_address_id = NULLIF($7, ''),
    is_active = $8
WHERE id = $1
RETURNING ` + customerColumns
	row := r.pool.QueryRow(ctx, q, c.ID, c.Email, c.FirstName, c.LastName, c.Addresses, c.DefaultShippingAddressID, c.DefaultBillingAddressID, c.IsActive)
	updated, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: update id=%s error=%v", c.ID, err)
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("customer repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("customer repo: deleted id=%s", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName,
		&c.Addresses, &c.DefaultShippingAddressID, &c.DefaultBillingAddressID,
		&c.IsActive, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
