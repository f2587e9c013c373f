package rating

import (
	"context"
	"errors"

	"marketplace-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ratingColumns = `id::text, vendor_id::text, customer_id::text, rating, COALESCE(comment, ''), approved, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Insert(ctx context.Context, in domain.VendorRating) (*domain.VendorRating, error) {
	const q = `
INSERT INTO vendor_ratings (vendor_id, customer_id, rating, comment, approved)
VALUES ($1, $2, $3, NULLIF($4, ''), FALSE)
RETURNING id::text, created_at
`
	created := in
	created.Approved = false
	if err := r.pool.QueryRow(ctx, q, in.VendorID, in.CustomerID, in.Rating, in.Comment).Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *postgresRepo) Approve(ctx context.Context, id string) (*domain.VendorRating, error) {
	const q = `
UPDATE vendor_ratings
SET approved = TRUE
WHERE id = $1
RETURNING ` + ratingColumns + `
`
	var rt domain.VendorRating
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rt.ID, &rt.VendorID, &rt.CustomerID, &rt.Rating, &rt.Comment, &rt.Approved, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (r *postgresRepo) Aggregate(ctx context.Context, vendorID string) (float64, int, error) {
	const q = `
SELECT COALESCE(AVG(rating), 0), COUNT(*)
FROM vendor_ratings
WHERE vendor_id = $1 AND approved
`
	var avg float64
	var count int
	if err := r.pool.QueryRow(ctx, q, vendorID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func (r *postgresRepo) ListApproved(ctx context.Context, vendorID string, limit int) ([]domain.VendorRating, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+ratingColumns+`
FROM vendor_ratings
WHERE vendor_id = $1 AND approved
ORDER BY created_at DESC
LIMIT $2
`, vendorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []domain.VendorRating
	for rows.Next() {
		var rt domain.VendorRating
		if err := rows.Scan(&rt.ID, &rt.VendorID, &rt.CustomerID, &rt.Rating, &rt.Comment, &rt.Approved, &rt.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}
