package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, order_number, customer_id::text, total_cents, status, shipping_address, COALESCE(payment_method, ''), payment_status, COALESCE(cancel_reason, ''), deleted, created_at, updated_at`

const itemColumns = `id::text, order_id::text, product_id::text, vendor_id::text, quantity, unit_price_cents, status, COALESCE(tracking_number, ''), COALESCE(notes, '')`

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

func (r *postgresRepo) Insert(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insOrder = `
INSERT INTO orders (order_number, customer_id, total_cents, status, shipping_address, payment_method, payment_status)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
RETURNING id::text, created_at, updated_at
`
	created := o
	err = tx.QueryRow(ctx, insOrder,
		o.Number, o.CustomerID, o.TotalCents, o.Status, o.ShippingAddress, o.PaymentMethod, o.PaymentStatus,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		r.logger.Printf("order repo: insert number=%s customer_id=%s error=%v", o.Number, o.CustomerID, err)
		return nil, err
	}

	const insItem = `
INSERT INTO order_items (order_id, product_id, vendor_id, quantity, unit_price_cents, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
RETURNING id::text
`
	created.Items = make([]domain.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		item.OrderID = created.ID
		if err := tx.QueryRow(ctx, insItem,
			created.ID, item.ProductID, item.VendorID, item.Quantity, item.UnitPriceCents, item.Status, item.Notes,
		).Scan(&item.ID); err != nil {
			return nil, err
		}
		created.Items = append(created.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: inserted id=%s number=%s items=%d total_cents=%d", created.ID, created.Number, len(created.Items), created.TotalCents)
	return &created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND NOT deleted`, id).Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.TotalCents, &o.Status, &o.ShippingAddress,
		&o.PaymentMethod, &o.PaymentStatus, &o.CancelReason, &o.Deleted, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	items, err := r.itemsFor(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]

	notes, err := r.notesFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Notes = notes

	return &o, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE NOT deleted`
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		q += fmt.Sprintf(clause, len(args))
	}

	if f.Status != nil {
		add(` AND status = $%d`, *f.Status)
	}
	if f.CustomerID != "" {
		add(` AND customer_id = $%d`, f.CustomerID)
	}
	if f.VendorID != "" {
		add(` AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.vendor_id = $%d)`, f.VendorID)
	}
	if f.From != nil {
		add(` AND created_at >= $%d`, *f.From)
	}
	if f.To != nil {
		add(` AND created_at <= $%d`, *f.To)
	}

	q += ` ORDER BY created_at DESC`
	add(` LIMIT $%d`, f.PageSize)
	add(` OFFSET $%d`, (f.Page-1)*f.PageSize)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.Number, &o.CustomerID, &o.TotalCents, &o.Status, &o.ShippingAddress,
			&o.PaymentMethod, &o.PaymentStatus, &o.CancelReason, &o.Deleted, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, cancelReason string) error {
	const q = `
UPDATE orders
SET status = $2,
    cancel_reason = COALESCE(NULLIF($3, ''), cancel_reason),
    updated_at = now()
WHERE id = $1 AND NOT deleted
`
	cmd, err := r.pool.Exec(ctx, q, orderID, status, cancelReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("order repo: set status id=%s status=%s", orderID, status)
	return nil
}

func (r *postgresRepo) UpdateItem(ctx context.Context, orderID, itemID string, status domain.OrderStatus, trackingNumber *string) error {
	const q = `
UPDATE order_items
SET status = $3,
    tracking_number = COALESCE($4, tracking_number)
WHERE id = $2 AND order_id = $1
`
	cmd, err := r.pool.Exec(ctx, q, orderID, itemID, status, trackingNumber)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.pool.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID); err != nil {
		return err
	}
	return nil
}

func (r *postgresRepo) CancelItems(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE order_items
SET status = 'Cancelled'
WHERE order_id = $1 AND status IN ('Processing', 'Shipped')
`, orderID)
	return err
}

func (r *postgresRepo) DeliverItems(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE order_items
SET status = 'Delivered'
WHERE order_id = $1 AND status = 'Shipped'
`, orderID)
	return err
}

func (r *postgresRepo) AddNote(ctx context.Context, note domain.OrderNote) (*domain.OrderNote, error) {
	const q = `
INSERT INTO order_notes (order_id, author_id, body)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	created := note
	if err := r.pool.QueryRow(ctx, q, note.OrderID, note.AuthorID, note.Body).Scan(&created.ID, &created.CreatedAt); err != nil {
		r.logger.Printf("order repo: add note order_id=%s error=%v", note.OrderID, err)
		return nil, err
	}
	return &created, nil
}

func (r *postgresRepo) SetDeleted(ctx context.Context, orderID string, deleted bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET deleted = $2, updated_at = now() WHERE id = $1`, orderID, deleted)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ExistsByCustomerAndVendor(ctx context.Context, customerID, vendorID string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.id
	WHERE o.customer_id = $1 AND oi.vendor_id = $2 AND NOT o.deleted
)
`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, customerID, vendorID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresRepo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+itemColumns+`
FROM order_items
WHERE order_id = ANY($1)
ORDER BY id
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.VendorID,
			&item.Quantity, &item.UnitPriceCents, &item.Status, &item.TrackingNumber, &item.Notes,
		); err != nil {
			return nil, err
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	return result, rows.Err()
}

func (r *postgresRepo) notesFor(ctx context.Context, orderID string) ([]domain.OrderNote, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, author_id::text, body, created_at
FROM order_notes
WHERE order_id = $1
ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.OrderNote
	for rows.Next() {
		var n domain.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
