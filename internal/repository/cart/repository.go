package cart

import (
	"context"

	"marketplace-backend/internal/domain"
)

// AddItemInput carries the product snapshot taken at add time.
type AddItemInput struct {
	ProductID       string
	VendorID        string
	Quantity        int
	UnitPriceCents  int64
	SelectedOptions map[string]string
	Notes           string
}

type Repository interface {
	// GetOrCreateOpen returns the user's open cart, creating an empty one
	// when none exists. Concurrent first access converges on a single cart
	// via the partial unique index on (user_id) WHERE NOT checked_out.
	GetOrCreateOpen(ctx context.Context, userID string) (*domain.Cart, error)
	// GetOpenByUser returns the open cart or ErrNotFound.
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	// AddItem inserts a new line or, when the product is already in the
	// cart, adds to the quantity and refreshes price and options to the
	// supplied snapshot.
	AddItem(ctx context.Context, cartID string, in AddItemInput) error
	// UpdateItem replaces quantity and options on an existing line without
	// touching the price snapshot.
	UpdateItem(ctx context.Context, cartID, itemID string, quantity int, options map[string]string) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	ClearItems(ctx context.Context, cartID string) error
	SetDiscount(ctx context.Context, cartID, code string, amountCents int64) error
	MarkCheckedOut(ctx context.Context, cartID string) error
}
