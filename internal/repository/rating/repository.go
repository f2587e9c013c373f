package rating

import (
	"context"

	"marketplace-backend/internal/domain"
)

type Repository interface {
	Insert(ctx context.Context, r domain.VendorRating) (*domain.VendorRating, error)
	// Approve flips the approval flag; ErrNotFound when the rating does not
	// exist.
	Approve(ctx context.Context, id string) (*domain.VendorRating, error)
	// Aggregate averages only approved ratings.
	Aggregate(ctx context.Context, vendorID string) (avg float64, count int, err error)
	ListApproved(ctx context.Context, vendorID string, limit int) ([]domain.VendorRating, error)
}
