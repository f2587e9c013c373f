package cart

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	cartrepo "marketplace-backend/internal/repository/cart"
)

// ErrInvalidDiscountCode is returned for unknown codes and for codes whose
// minimum-subtotal requirement is not met.
var ErrInvalidDiscountCode = errors.New("invalid discount code")

// ErrEmptyCart is returned when checking out a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

type Service struct {
	repo     cartRepo
	products productRepo
	rules    config.DiscountRules
}

type cartRepo interface {
	GetOrCreateOpen(ctx context.Context, userID string) (*domain.Cart, error)
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID string, in cartrepo.AddItemInput) error
	UpdateItem(ctx context.Context, cartID, itemID string, quantity int, options map[string]string) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	ClearItems(ctx context.Context, cartID string) error
	SetDiscount(ctx context.Context, cartID, code string, amountCents int64) error
	MarkCheckedOut(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetActiveByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productRepo, rules config.DiscountRules) *Service {
	return &Service{repo: repo, products: products, rules: rules}
}

// GetOrCreateCart returns the user's open cart, creating an empty one on
// first access.
func (s *Service) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user id required")
	}
	return s.repo.GetOrCreateOpen(ctx, userID)
}

// AddOrUpdateItem puts a product into the open cart. When the product is
// already a line, the quantity is added and the price snapshot refreshed to
// the current product price. Stock is not checked here; only order creation
// validates stock.
func (s *Service) AddOrUpdateItem(ctx context.Context, userID, productID string, quantity int, options map[string]string, notes string) (*domain.Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.NewValidationError("product id required")
	}
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive")
	}

	product, err := s.products.GetActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ProductUnavailableError{ProductID: productID}
		}
		return nil, err
	}

	cart, err := s.repo.GetOrCreateOpen(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddItem(ctx, cart.ID, cartrepo.AddItemInput{
		ProductID:       product.ID,
		VendorID:        product.VendorID,
		Quantity:        quantity,
		UnitPriceCents:  product.PriceCents,
		SelectedOptions: options,
		Notes:           notes,
	}); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, cart.ID)
}

// UpdateItem replaces quantity and options on an existing line. The price
// snapshot is not refreshed; only a re-add does that.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int, options map[string]string) (*domain.Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item id required")
	}
	if quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive")
	}

	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, cart.ID, itemID, quantity, options); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// RemoveItem deletes one line from the open cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item id required")
	}
	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// ClearCart removes every line and resets any applied discount.
func (s *Service) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// ApplyDiscount applies a configured discount code against the current item
// subtotal.
func (s *Service) ApplyDiscount(ctx context.Context, userID, code string) (*domain.Cart, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidDiscountCode
	}

	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	policy, ok := s.rules[code]
	if !ok {
		return nil, ErrInvalidDiscountCode
	}
	amount := policy.Amount(cart.Subtotal())
	if amount <= 0 {
		return nil, ErrInvalidDiscountCode
	}

	if err := s.repo.SetDiscount(ctx, cart.ID, code, amount); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}

// Checkout freezes the cart. It does not create an order; the caller issues
// a separate order-creation call afterwards.
func (s *Service) Checkout(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := s.repo.MarkCheckedOut(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, cart.ID)
}
