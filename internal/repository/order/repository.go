package order

import (
	"context"
	"time"

	"marketplace-backend/internal/domain"
)

// ListFilter narrows order listings. Page is 1-based; PageSize must be
// positive. Callers validate both before reaching the repository.
type ListFilter struct {
	Status     *domain.OrderStatus
	CustomerID string
	VendorID   string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

type Repository interface {
	// Insert persists the order and its items as a single transaction.
	Insert(ctx context.Context, o domain.Order) (*domain.Order, error)
	// GetByID loads the order with its items and notes. Soft-deleted orders
	// are reported as absent.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, error)
	// SetStatus updates the order-level status; cancelReason is recorded
	// only when non-empty.
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, cancelReason string) error
	// UpdateItem sets an item's status and, when non-nil, its tracking
	// number.
	UpdateItem(ctx context.Context, orderID, itemID string, status domain.OrderStatus, trackingNumber *string) error
	// CancelItems moves every non-terminal item to Cancelled.
	CancelItems(ctx context.Context, orderID string) error
	// DeliverItems moves every Shipped item to Delivered.
	DeliverItems(ctx context.Context, orderID string) error
	AddNote(ctx context.Context, note domain.OrderNote) (*domain.OrderNote, error)
	SetDeleted(ctx context.Context, orderID string, deleted bool) error
	// ExistsByCustomerAndVendor reports whether the customer has any order
	// containing at least one of the vendor's items.
	ExistsByCustomerAndVendor(ctx context.Context, customerID, vendorID string) (bool, error)
}
