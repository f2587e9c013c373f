package cart

import (
	"context"
	"errors"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cartColumns = `id::text, user_id::text, COALESCE(discount_code, ''), discount_cents, checked_out, created_at, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreateOpen(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.GetOpenByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// DO NOTHING on conflict with the partial unique index, so two racing
	// first accesses end up reading the same row.
	const ins = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) WHERE NOT checked_out DO NOTHING
`
	if _, err := r.pool.Exec(ctx, ins, userID); err != nil {
		return nil, err
	}
	return r.GetOpenByUser(ctx, userID)
}

func (r *postgresRepo) GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `
SELECT `+cartColumns+`
FROM carts
WHERE user_id = $1 AND NOT checked_out
`, userID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `
SELECT `+cartColumns+`
FROM carts
WHERE id = $1
`, id)
}

func (r *postgresRepo) AddItem(ctx context.Context, cartID string, in AddItemInput) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var itemID string
	var existingQty int
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
`, cartID, in.ProductID).Scan(&itemID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err == nil {
		// Re-add: quantity accumulates, price and options refresh to the
		// current product snapshot.
		newQty := existingQty + in.Quantity
		newTotal := in.UnitPriceCents * int64(newQty)
		if _, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, unit_price_cents = $2, total_cents = $3, selected_options = $4
WHERE id = $5
`, newQty, in.UnitPriceCents, newTotal, in.SelectedOptions, itemID); err != nil {
			return err
		}
	} else {
		total := in.UnitPriceCents * int64(in.Quantity)
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, vendor_id, quantity, selected_options, unit_price_cents, total_cents, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
`, cartID, in.ProductID, in.VendorID, in.Quantity, in.SelectedOptions, in.UnitPriceCents, total, in.Notes); err != nil {
			return err
		}
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) UpdateItem(ctx context.Context, cartID, itemID string, quantity int, options map[string]string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The price snapshot is deliberately left alone here; only a re-add
	// refreshes it.
	cmd, err := tx.Exec(ctx, `
UPDATE cart_items
SET quantity = $1,
    total_cents = unit_price_cents * $1,
    selected_options = COALESCE($2, selected_options)
WHERE id = $3 AND cart_id = $4
`, quantity, options, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`, itemID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) ClearItems(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
UPDATE carts
SET discount_code = NULL, discount_cents = 0, updated_at = now()
WHERE id = $1
`, cartID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) SetDiscount(ctx context.Context, cartID, code string, amountCents int64) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET discount_code = NULLIF($1, ''), discount_cents = $2, updated_at = now()
WHERE id = $3
`, code, amountCents, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkCheckedOut(ctx context.Context, cartID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET checked_out = TRUE, updated_at = now()
WHERE id = $1 AND NOT checked_out
`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.DiscountCode,
		&cart.DiscountCents,
		&cart.CheckedOut,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT id::text, cart_id::text, product_id::text, vendor_id::text, quantity, selected_options, unit_price_cents, total_cents, COALESCE(status, ''), COALESCE(notes, ''), added_at
FROM cart_items
WHERE cart_id = $1
ORDER BY added_at ASC
`
	rows, err := r.pool.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.VendorID,
			&item.Quantity,
			&item.SelectedOptions,
			&item.UnitPriceCents,
			&item.TotalCents,
			&item.Status,
			&item.Notes,
			&item.AddedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
