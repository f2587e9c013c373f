package product

import (
	"context"
	"errors"
	"io"
	"log"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id::text, vendor_id::text, name, COALESCE(description, ''), price_cents, currency, stock_level, low_stock_threshold, is_active, created_at`

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.fetchOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *postgresRepo) GetActiveByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.fetchOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND is_active`, id)
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return r.fetchMany(ctx, `
SELECT `+productColumns+`
FROM products
WHERE vendor_id = $1
ORDER BY created_at DESC
`, vendorID)
}

func (r *postgresRepo) ListLowStock(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return r.fetchMany(ctx, `
SELECT `+productColumns+`
FROM products
WHERE vendor_id = $1 AND is_active AND stock_level <= low_stock_threshold
ORDER BY stock_level ASC
`, vendorID)
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (vendor_id, name, description, price_cents, currency, stock_level, low_stock_threshold, is_active)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
RETURNING id::text, created_at
`
	created := p
	err := r.pool.QueryRow(ctx, q,
		p.VendorID, p.Name, p.Description, p.PriceCents, p.Currency, p.StockLevel, p.LowStockThreshold, p.IsActive,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: create vendor_id=%s name=%q error=%v", p.VendorID, p.Name, err)
		return nil, err
	}
	r.logger.Printf("product repo: created id=%s vendor_id=%s", created.ID, created.VendorID)
	return &created, nil
}

func (r *postgresRepo) SetStock(ctx context.Context, id string, level int) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE products SET stock_level = $2 WHERE id = $1`, id, level)
	if err != nil {
		r.logger.Printf("product repo: set stock id=%s level=%d error=%v", id, level, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	const q = `
UPDATE products
SET stock_level = stock_level - $2
WHERE id = $1 AND is_active AND stock_level >= $2
`
	cmd, err := r.pool.Exec(ctx, q, id, qty)
	if err != nil {
		r.logger.Printf("product repo: decrement id=%s qty=%d error=%v", id, qty, err)
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) DecrementStockUnchecked(ctx context.Context, id string, qty int) error {
	var level int
	err := r.pool.QueryRow(ctx, `SELECT stock_level FROM products WHERE id = $1`, id).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	// Separate read and write, as in the original behavior. Concurrent calls
	// can both observe the same level and oversell; the floor of zero only
	// keeps the column constraint satisfied.
	newLevel := level - qty
	if newLevel < 0 {
		newLevel = 0
	}
	_, err = r.pool.Exec(ctx, `UPDATE products SET stock_level = $2 WHERE id = $1`, id, newLevel)
	if err != nil {
		r.logger.Printf("product repo: unchecked decrement id=%s qty=%d error=%v", id, qty, err)
	}
	return err
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE products SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("product repo: set active id=%s active=%v", id, active)
	return nil
}

func (r *postgresRepo) HasOpenOrders(ctx context.Context, id string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	WHERE oi.product_id = $1 AND o.status = 'Processing' AND NOT o.deleted
)
`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...interface{}) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&p.ID, &p.VendorID, &p.Name, &p.Description, &p.PriceCents, &p.Currency,
		&p.StockLevel, &p.LowStockThreshold, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) fetchMany(ctx context.Context, q string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.VendorID, &p.Name, &p.Description, &p.PriceCents, &p.Currency,
			&p.StockLevel, &p.LowStockThreshold, &p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
