package product

import (
	"context"

	"marketplace-backend/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetActiveByID treats deactivated products as absent.
	GetActiveByID(ctx context.Context, id string) (*domain.Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error)
	// ListLowStock returns a vendor's active products at or below their
	// low-stock threshold.
	ListLowStock(ctx context.Context, vendorID string) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	SetStock(ctx context.Context, id string, level int) error
	// DecrementStock applies a single conditional decrement and reports
	// whether it took effect. It never drives stock below zero.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	// DecrementStockUnchecked performs the legacy read-then-write pair with
	// no guard against concurrent decrements of the same product.
	DecrementStockUnchecked(ctx context.Context, id string, qty int) error
	SetActive(ctx context.Context, id string, active bool) error
	// HasOpenOrders reports whether any Processing order references the
	// product.
	HasOpenOrders(ctx context.Context, id string) (bool, error)
}
