package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const orderColumns = `id::text, number, customer_id::text, email, subtotal_cents, shipping_cents, total_cents, currency, status, payment_status, COALESCE(payment_ref, ''), shipping_address, placed_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, o domain.Order, numberPrefix string) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, item := range o.Items {
		cmd, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
			item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock for %s: %w", item.SKU, err)
		}
		if cmd.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, item.SKU)
		}
	}

	const insertOrder = `
INSERT INTO orders (number, customer_id, email, subtotal_cents, shipping_cents, total_cents, currency, status, payment_status, shipping_address)
VALUES ($1 || '-' || nextval('order_numbers')::text, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns
	row := tx.QueryRow(ctx, insertOrder,
		numberPrefix, o.CustomerID, o.Email,
		o.SubtotalCents, o.ShippingCents, o.TotalCents, o.Currency,
		string(o.Status), string(o.PaymentStatus), o.ShippingAddress)
	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	created.Items = make([]domain.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		const insertItem = `
INSERT INTO order_items (order_id, product_id, sku, name, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text
`
		if err := tx.QueryRow(ctx, insertItem, created.ID, item.ProductID, item.SKU, item.Name, item.Quantity, item.UnitPriceCents, item.TotalCents).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("insert order item %s: %w", item.SKU, err)
		}
		item.OrderID = created.ID
		created.Items = append(created.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created number=%s total=%d%s items=%d", created.Number, created.TotalCents, created.Currency, len(created.Items))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY placed_at DESC`, customerID)
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		conds = append(conds, fmt.Sprintf("email ILIKE $%d", len(args)))
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY placed_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.list(ctx, q, args...)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.loadItems(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	row := r.pool.QueryRow(ctx, q, id, string(status))
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: status number=%s -> %s", o.Number, status)
	return o, nil
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, ref string) (*domain.Order, error) {
	const q = `
UPDATE orders SET payment_status = $2, payment_ref = COALESCE(NULLIF($3, ''), payment_ref), updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns
	row := r.pool.QueryRow(ctx, q, id, string(status), ref)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: payment number=%s -> %s", o.Number, status)
	return o, nil
}

func (r *postgresRepo) loadItems(ctx context.Context, o *domain.Order) error {
	const q = `
SELECT id::text, order_id::text, product_id::text, sku, name, quantity, unit_price_cents, total_cents
FROM order_items
WHERE order_id = $1
`
	rows, err := r.pool.Query(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SKU, &item.Name, &item.Quantity, &item.UnitPriceCents, &item.TotalCents); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o             domain.Order
		status        string
		paymentStatus string
	)
	if err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.Email,
		&o.SubtotalCents, &o.ShippingCents, &o.TotalCents, &o.Currency,
		&status, &paymentStatus, &o.PaymentRef, &o.ShippingAddress,
		&o.PlacedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return &o, nil
}
