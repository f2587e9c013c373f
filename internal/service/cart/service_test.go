package cart

import (
	"context"
	"errors"
	"testing"

	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	cartrepo "marketplace-backend/internal/repository/cart"
)

type stubRepo struct {
	openCart        *domain.Cart
	openErr         error
	createdCart     *domain.Cart
	createErr       error
	getByIDResults  []*domain.Cart
	getByIDCalls    int
	getByIDErr      error
	addItemErr      error
	updateItemErr   error
	removeItemErr   error
	clearErr        error
	discountErr     error
	checkoutErr     error
	lastAddCartID   string
	lastAddInput    cartrepo.AddItemInput
	lastUpdateItem  string
	lastUpdateQty   int
	lastRemoveItem  string
	lastDiscount    string
	lastDiscountAmt int64
	checkedOutCart  string
}

func (s *stubRepo) GetOrCreateOpen(_ context.Context, _ string) (*domain.Cart, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.openCart != nil {
		return s.openCart, nil
	}
	return s.createdCart, nil
}

func (s *stubRepo) GetOpenByUser(_ context.Context, _ string) (*domain.Cart, error) {
	return s.openCart, s.openErr
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Cart, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	var res *domain.Cart
	if len(s.getByIDResults) > 0 {
		idx := s.getByIDCalls
		if idx >= len(s.getByIDResults) {
			idx = len(s.getByIDResults) - 1
		}
		res = s.getByIDResults[idx]
	}
	s.getByIDCalls++
	return res, nil
}

func (s *stubRepo) AddItem(_ context.Context, cartID string, in cartrepo.AddItemInput) error {
	s.lastAddCartID = cartID
	s.lastAddInput = in
	return s.addItemErr
}

func (s *stubRepo) UpdateItem(_ context.Context, _, itemID string, quantity int, _ map[string]string) error {
	s.lastUpdateItem = itemID
	s.lastUpdateQty = quantity
	return s.updateItemErr
}

func (s *stubRepo) RemoveItem(_ context.Context, _, itemID string) error {
	s.lastRemoveItem = itemID
	return s.removeItemErr
}

func (s *stubRepo) ClearItems(_ context.Context, _ string) error {
	return s.clearErr
}

func (s *stubRepo) SetDiscount(_ context.Context, _, code string, amountCents int64) error {
	s.lastDiscount = code
	s.lastDiscountAmt = amountCents
	return s.discountErr
}

func (s *stubRepo) MarkCheckedOut(_ context.Context, cartID string) error {
	s.checkedOutCart = cartID
	return s.checkoutErr
}

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProductRepo) GetActiveByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func defaultRules() config.DiscountRules {
	return config.DiscountRules{"DISCOUNT10": {Percent: 10}}
}

func TestGetOrCreateCartRequiresUser(t *testing.T) {
	svc := &Service{repo: &stubRepo{}}
	_, err := svc.GetOrCreateCart(context.Background(), "  ")
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetOrCreateCartHappyPath(t *testing.T) {
	expected := &domain.Cart{ID: "c1", UserID: "u1"}
	svc := &Service{repo: &stubRepo{createdCart: expected}}
	got, err := svc.GetOrCreateCart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != expected {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestAddOrUpdateItemValidation(t *testing.T) {
	svc := &Service{repo: &stubRepo{}, products: &stubProductRepo{}}

	_, err := svc.AddOrUpdateItem(context.Background(), "u1", "", 1, nil, "")
	if err == nil || err.Error() != "product id required" {
		t.Fatalf("expected product id error, got %v", err)
	}

	_, err = svc.AddOrUpdateItem(context.Background(), "u1", "p1", 0, nil, "")
	if err == nil || err.Error() != "quantity must be positive" {
		t.Fatalf("expected quantity error, got %v", err)
	}
}

func TestAddOrUpdateItemInactiveProduct(t *testing.T) {
	svc := &Service{repo: &stubRepo{}, products: &stubProductRepo{err: domain.ErrNotFound}}
	_, err := svc.AddOrUpdateItem(context.Background(), "u1", "p1", 1, nil, "")
	var unavailable *domain.ProductUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}
}

func TestAddOrUpdateItemSnapshotsPrice(t *testing.T) {
	open := &domain.Cart{ID: "c1", UserID: "u1"}
	updated := &domain.Cart{ID: "c1", UserID: "u1", Items: []domain.CartItem{{ID: "i1", ProductID: "p1", Quantity: 2}}}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{updated}}
	product := &domain.Product{ID: "p1", VendorID: "v1", PriceCents: 1000, StockLevel: 1}
	svc := &Service{repo: repo, products: &stubProductRepo{product: product}}

	got, err := svc.AddOrUpdateItem(context.Background(), "u1", "p1", 2, map[string]string{"size": "M"}, "gift wrap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != updated {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if repo.lastAddCartID != "c1" {
		t.Fatalf("unexpected cart id %q", repo.lastAddCartID)
	}
	in := repo.lastAddInput
	if in.ProductID != "p1" || in.VendorID != "v1" || in.Quantity != 2 || in.UnitPriceCents != 1000 {
		t.Fatalf("unexpected add input: %+v", in)
	}
	if in.SelectedOptions["size"] != "M" || in.Notes != "gift wrap" {
		t.Fatalf("options/notes not forwarded: %+v", in)
	}
}

// Stock is deliberately not validated when adding to a cart; only order
// creation checks it.
func TestAddOrUpdateItemIgnoresStock(t *testing.T) {
	open := &domain.Cart{ID: "c1", UserID: "u1"}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{open}}
	product := &domain.Product{ID: "p1", VendorID: "v1", PriceCents: 500, StockLevel: 1}
	svc := &Service{repo: repo, products: &stubProductRepo{product: product}}

	if _, err := svc.AddOrUpdateItem(context.Background(), "u1", "p1", 99, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastAddInput.Quantity != 99 {
		t.Fatalf("expected quantity 99, got %d", repo.lastAddInput.Quantity)
	}
}

func TestUpdateItemNotFoundCart(t *testing.T) {
	svc := &Service{repo: &stubRepo{openErr: domain.ErrNotFound}}
	_, err := svc.UpdateItem(context.Background(), "u1", "i1", 2, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateItemHappyPath(t *testing.T) {
	open := &domain.Cart{ID: "c1", UserID: "u1"}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{open}}
	svc := &Service{repo: repo}
	if _, err := svc.UpdateItem(context.Background(), "u1", "i1", 3, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastUpdateItem != "i1" || repo.lastUpdateQty != 3 {
		t.Fatalf("update not forwarded: %s %d", repo.lastUpdateItem, repo.lastUpdateQty)
	}
}

func TestRemoveItemRepoError(t *testing.T) {
	open := &domain.Cart{ID: "c1", UserID: "u1"}
	repo := &stubRepo{openCart: open, removeItemErr: domain.ErrNotFound}
	svc := &Service{repo: repo}
	_, err := svc.RemoveItem(context.Background(), "u1", "i1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyDiscountUnknownCode(t *testing.T) {
	open := &domain.Cart{ID: "c1", Items: []domain.CartItem{{TotalCents: 1000}}}
	svc := &Service{repo: &stubRepo{openCart: open}, rules: defaultRules()}
	_, err := svc.ApplyDiscount(context.Background(), "u1", "NOPE")
	if !errors.Is(err, ErrInvalidDiscountCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
}

func TestApplyDiscountTenPercent(t *testing.T) {
	// Subtotal 2x10.00 + 1x5.00 = 25.00, 10% => 2.50.
	open := &domain.Cart{ID: "c1", Items: []domain.CartItem{
		{ProductID: "p1", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000},
		{ProductID: "p2", Quantity: 1, UnitPriceCents: 500, TotalCents: 500},
	}}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{open}}
	svc := &Service{repo: repo, rules: defaultRules()}

	if _, err := svc.ApplyDiscount(context.Background(), "u1", "discount10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastDiscount != "DISCOUNT10" || repo.lastDiscountAmt != 250 {
		t.Fatalf("unexpected discount %s %d", repo.lastDiscount, repo.lastDiscountAmt)
	}
}

func TestApplyDiscountMinSubtotal(t *testing.T) {
	rules := config.DiscountRules{"SAVE5": {FixedCents: 500, MinSubtotalCents: 2000}}
	open := &domain.Cart{ID: "c1", Items: []domain.CartItem{{TotalCents: 1500}}}
	svc := &Service{repo: &stubRepo{openCart: open}, rules: rules}

	_, err := svc.ApplyDiscount(context.Background(), "u1", "SAVE5")
	if !errors.Is(err, ErrInvalidDiscountCode) {
		t.Fatalf("expected invalid code below minimum, got %v", err)
	}

	open.Items = []domain.CartItem{{TotalCents: 2500}}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{open}}
	svc = &Service{repo: repo, rules: rules}
	if _, err := svc.ApplyDiscount(context.Background(), "u1", "SAVE5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastDiscountAmt != 500 {
		t.Fatalf("expected 500, got %d", repo.lastDiscountAmt)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	open := &domain.Cart{ID: "c1"}
	svc := &Service{repo: &stubRepo{openCart: open}}
	_, err := svc.Checkout(context.Background(), "u1")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	open := &domain.Cart{ID: "c1", Items: []domain.CartItem{{ID: "i1", ProductID: "p1", Quantity: 2}}}
	done := &domain.Cart{ID: "c1", CheckedOut: true, Items: open.Items}
	repo := &stubRepo{openCart: open, getByIDResults: []*domain.Cart{done}}
	svc := &Service{repo: repo}

	got, err := svc.Checkout(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.CheckedOut {
		t.Fatalf("cart not checked out: %+v", got)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items changed on checkout: %+v", got.Items)
	}
	if repo.checkedOutCart != "c1" {
		t.Fatalf("checkout not forwarded: %s", repo.checkedOutCart)
	}
}

func TestCheckoutNoOpenCart(t *testing.T) {
	svc := &Service{repo: &stubRepo{openErr: domain.ErrNotFound}}
	_, err := svc.Checkout(context.Background(), "u1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
