package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userSeed struct {
	Email string
	Name  string
	Role  string
}

type productSeed struct {
	ID                uuid.UUID
	Name              string
	Description       string
	PriceCents        int64
	Currency          string
	StockLevel        int
	LowStockThreshold int
}

// Fixed product ids keep the seed idempotent; products have no natural
// unique key to upsert on.
var (
	seedShirtID = uuid.MustParse("5d8f1b77-0dd0-4cb4-9a83-3b6a64e0e1aa")
	seedMugID   = uuid.MustParse("8c4e2c31-52fb-4b21-9a07-6f1dbb7e43bb")
	seedLampID  = uuid.MustParse("f2a90a3e-9f6e-4f0d-8d26-0c6a9ed54ccc")
)

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	vendorID, err := ensureUser(ctx, pool, userSeed{Email: "vendor@example.com", Name: "Demo Vendor", Role: "vendor"})
	if err != nil {
		return fmt.Errorf("ensure vendor: %w", err)
	}
	if _, err := ensureUser(ctx, pool, userSeed{Email: "customer@example.com", Name: "Demo Customer", Role: "customer"}); err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}
	if _, err := ensureUser(ctx, pool, userSeed{Email: "admin@example.com", Name: "Demo Admin", Role: "admin"}); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	products := []productSeed{
		{
			ID:                seedShirtID,
			Name:              "Demo T-Shirt",
			Description:       "Soft cotton tee for demo purposes",
			PriceCents:        1999,
			Currency:          "USD",
			StockLevel:        50,
			LowStockThreshold: 5,
		},
		{
			ID:                seedMugID,
			Name:              "Demo Mug",
			Description:       "Ceramic mug with demo logo",
			PriceCents:        1299,
			Currency:          "USD",
			StockLevel:        120,
			LowStockThreshold: 10,
		},
		{
			ID:                seedLampID,
			Name:              "Demo Desk Lamp",
			Description:       "Adjustable lamp, warm light",
			PriceCents:        4599,
			Currency:          "USD",
			StockLevel:        3,
			LowStockThreshold: 5,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, vendorID, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, u userSeed) (string, error) {
	const q = `
INSERT INTO users (email, name, role)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, u.Email, u.Name, u.Role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, vendorID string, p productSeed) error {
	const q = `
INSERT INTO products (id, vendor_id, name, description, price_cents, currency, stock_level, low_stock_threshold, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    stock_level = EXCLUDED.stock_level,
    low_stock_threshold = EXCLUDED.low_stock_threshold
`
	_, err := pool.Exec(ctx, q, p.ID, vendorID, p.Name, p.Description, p.PriceCents, p.Currency, p.StockLevel, p.LowStockThreshold)
	return err
}
