package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (token, customer_id, currency)
VALUES ($1, $2, $3)
RETURNING id::text, token, customer_id::text, currency, state, created_at, updated_at
`
	var c domain.Cart
	err := r.pool.QueryRow(ctx, q, in.Token, in.CustomerID, in.Currency).
		Scan(&c.ID, &c.Token, &c.CustomerID, &c.Currency, &c.State, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Lines = []domain.CartLine{}
	return &c, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	const q = `
SELECT id::text, token, customer_id::text, currency, state, created_at, updated_at
FROM carts
WHERE id = $1
`
	var c domain.Cart
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&c.ID, &c.Token, &c.CustomerID, &c.Currency, &c.State, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, token, customer_id::text, currency, state, created_at, updated_at
FROM carts
WHERE customer_id = $1 AND state = 'active'
ORDER BY created_at DESC
LIMIT 1
`
	var c domain.Cart
	err := r.pool.QueryRow(ctx, q, customerID).
		Scan(&c.ID, &c.Token, &c.CustomerID, &c.Currency, &c.State, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) loadLines(ctx context.Context, c *domain.Cart) error {
	const q = `
SELECT id::text, cart_id::text, product_id::text, sku, name, quantity, unit_price_cents, total_cents, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at
`
	rows, err := r.pool.Query(ctx, q, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Lines = []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.SKU, &l.Name, &l.Quantity, &l.UnitPriceCents, &l.TotalCents, &l.CreatedAt); err != nil {
			return err
		}
		c.Lines = append(c.Lines, l)
	}
	return rows.Err()
}

// AddLine inserts a line, or increments quantity when the product is already
// in the cart.
func (r *postgresRepo) AddLine(ctx context.Context, cartID string, line domain.CartLine) error {
	const q = `
INSERT INTO cart_lines (cart_id, product_id, sku, name, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6, $5 * $6)
ON CONFLICT (cart_id, product_id) DO UPDATE SET
    quantity = cart_lines.quantity + EXCLUDED.quantity,
    total_cents = (cart_lines.quantity + EXCLUDED.quantity) * cart_lines.unit_price_cents
`
	if _, err := r.pool.Exec(ctx, q, cartID, line.ProductID, line.SKU, line.Name, line.Quantity, line.UnitPriceCents); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error {
	const q = `
UPDATE cart_lines
SET quantity = $3, total_cents = $3 * unit_price_cents
WHERE cart_id = $1 AND id = $2
`
	cmd, err := r.pool.Exec(ctx, q, cartID, lineID, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND id = $2`, cartID, lineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *postgresRepo) SetState(ctx context.Context, cartID, state string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET state = $2, updated_at = now() WHERE id = $1`, cartID, state)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AbandonByCustomer marks every active cart of a customer abandoned. Used by
// the customer-deletion cleanup.
func (r *postgresRepo) AbandonByCustomer(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET state = 'abandoned', updated_at = now() WHERE customer_id = $1 AND state = 'active'`, customerID)
	return err
}

func (r *postgresRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
