package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"shopcore/internal/domain"
)

type productSeed struct {
	SKU         string
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Category    string
	Stock       int
}

// Apply inserts an admin role and account plus basic catalog data for
// manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, adminEmail, adminPassword string) error {
	roleID, err := ensureAdminRole(ctx, pool)
	if err != nil {
		return fmt.Errorf("ensure admin role: %w", err)
	}
	if err := ensureAdminUser(ctx, pool, roleID, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}

	apparelID, err := ensureCategory(ctx, pool, "apparel", "Apparel", 1)
	if err != nil {
		return fmt.Errorf("ensure category apparel: %w", err)
	}
	drinkwareID, err := ensureCategory(ctx, pool, "drinkware", "Drinkware", 2)
	if err != nil {
		return fmt.Errorf("ensure category drinkware: %w", err)
	}
	categoryIDs := map[string]string{"apparel": apparelID, "drinkware": drinkwareID}

	products := []productSeed{
		{
			SKU:         "SKU-DEMO-TSHIRT",
			Slug:        "demo-t-shirt",
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			PriceCents:  1999,
			Currency:    "USD",
			Category:    "apparel",
			Stock:       50,
		},
		{
			SKU:         "SKU-DEMO-MUG",
			Slug:        "demo-mug",
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			PriceCents:  1299,
			Currency:    "USD",
			Category:    "drinkware",
			Stock:       120,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, categoryIDs[p.Category], p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	return nil
}

func ensureAdminRole(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	const q = `
INSERT INTO roles (name, description, permissions, is_system)
VALUES ('admin', 'Full access', $1, true)
ON CONFLICT (name) DO UPDATE SET permissions = EXCLUDED.permissions
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, domain.AllPermissions).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO staff_users (email, password_hash, role_id, is_active)
VALUES ($1, $2, $3, true)
ON CONFLICT (email) DO NOTHING
`
	_, err = pool.Exec(ctx, q, email, string(hashed), roleID)
	return err
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, slug, name string, position int) (string, error) {
	const q = `
INSERT INTO categories (slug, name, position)
VALUES ($1, $2, $3)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, slug, name, position).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, categoryID string, p productSeed) error {
	const q = `
INSERT INTO products (sku, slug, name, description, price_cents, currency, category_id, stock, is_active)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, true)
ON CONFLICT (sku) DO UPDATE
SET slug = EXCLUDED.slug,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    category_id = EXCLUDED.category_id,
    stock = EXCLUDED.stock
`
	_, err := pool.Exec(ctx, q, p.SKU, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, categoryID, p.Stock)
	return err
}
