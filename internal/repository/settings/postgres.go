package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcore/internal/domain"
)

const settingsColumns = `store_name, support_email, currency, order_number_prefix, maintenance, flat_shipping_cents, free_shipping_threshold_cents, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id`).
		Scan(&s.StoreName, &s.SupportEmail, &s.Currency, &s.OrderNumberPrefix, &s.Maintenance,
			&s.FlatShippingCents, &s.FreeShippingThresholdCents, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.Settings) (*domain.Settings, error) {
	const q = `
INSERT INTO settings (id, store_name, support_email, currency, order_number_prefix, maintenance, flat_shipping_cents, free_shipping_threshold_cents, updated_at)
VALUES (true, $1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (id) DO UPDATE SET
    store_name = EXCLUDED.store_name,
    support_email = EXCLUDED.support_email,
    currency = EXCLUDED.currency,
    order_number_prefix = EXCLUDED.order_number_prefix,
    maintenance = EXCLUDED.maintenance,
    flat_shipping_cents = EXCLUDED.flat_shipping_cents,
    free_shipping_threshold_cents = EXCLUDED.free_shipping_threshold_cents,
    updated_at = now()
RETURNING ` + settingsColumns
	var out domain.Settings
	err := r.pool.QueryRow(ctx, q,
		s.StoreName, s.SupportEmail, s.Currency, s.OrderNumberPrefix,
		s.Maintenance, s.FlatShippingCents, s.FreeShippingThresholdCents).
		Scan(&out.StoreName, &out.SupportEmail, &out.Currency, &out.OrderNumberPrefix, &out.Maintenance,
			&out.FlatShippingCents, &out.FreeShippingThresholdCents, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
