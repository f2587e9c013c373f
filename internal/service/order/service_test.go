package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/domain"
	orderrepo "marketplace-backend/internal/repository/order"
)

type fakeOrderRepo struct {
	orders         map[string]*domain.Order
	inserted       *domain.Order
	insertErr      error
	listResult     []domain.Order
	lastFilter     orderrepo.ListFilter
	lastStatus     domain.OrderStatus
	lastReason     string
	cancelledItems string
	deliveredItems string
	updatedItem    string
	updatedStatus  domain.OrderStatus
	notes          []domain.OrderNote
	deleted        map[string]bool
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	m := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m, deleted: map[string]bool{}}
}

func (f *fakeOrderRepo) Insert(_ context.Context, o domain.Order) (*domain.Order, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	o.ID = "generated"
	f.inserted = &o
	return &o, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok || f.deleted[id] {
		return nil, domain.ErrNotFound
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	f.lastFilter = filter
	return f.listResult, nil
}

func (f *fakeOrderRepo) SetStatus(_ context.Context, orderID string, status domain.OrderStatus, reason string) error {
	f.lastStatus = status
	f.lastReason = reason
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
		o.CancelReason = reason
	}
	return nil
}

func (f *fakeOrderRepo) UpdateItem(_ context.Context, orderID, itemID string, status domain.OrderStatus, tracking *string) error {
	f.updatedItem = itemID
	f.updatedStatus = status
	if o, ok := f.orders[orderID]; ok {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].Status = status
				if tracking != nil {
					o.Items[i].TrackingNumber = *tracking
				}
			}
		}
	}
	return nil
}

func (f *fakeOrderRepo) CancelItems(_ context.Context, orderID string) error {
	f.cancelledItems = orderID
	if o, ok := f.orders[orderID]; ok {
		for i := range o.Items {
			if !o.Items[i].Status.Terminal() {
				o.Items[i].Status = domain.StatusCancelled
			}
		}
	}
	return nil
}

func (f *fakeOrderRepo) DeliverItems(_ context.Context, orderID string) error {
	f.deliveredItems = orderID
	if o, ok := f.orders[orderID]; ok {
		for i := range o.Items {
			if o.Items[i].Status == domain.StatusShipped {
				o.Items[i].Status = domain.StatusDelivered
			}
		}
	}
	return nil
}

func (f *fakeOrderRepo) AddNote(_ context.Context, note domain.OrderNote) (*domain.OrderNote, error) {
	note.ID = "n1"
	f.notes = append(f.notes, note)
	return &note, nil
}

func (f *fakeOrderRepo) SetDeleted(_ context.Context, orderID string, deleted bool) error {
	if _, ok := f.orders[orderID]; !ok {
		return domain.ErrNotFound
	}
	f.deleted[orderID] = deleted
	return nil
}

type fakeProductRepo struct {
	products   map[string]*domain.Product
	decrements []string
	failAfter  int
}

func newFakeProductRepo(products ...*domain.Product) *fakeProductRepo {
	m := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeProductRepo{products: m, failAfter: -1}
}

func (f *fakeProductRepo) GetActiveByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id string, qty int) (bool, error) {
	if f.failAfter >= 0 && len(f.decrements) >= f.failAfter {
		return false, nil
	}
	p, ok := f.products[id]
	if !ok || p.StockLevel < qty {
		return false, nil
	}
	p.StockLevel -= qty
	f.decrements = append(f.decrements, id)
	return true, nil
}

func (f *fakeProductRepo) DecrementStockUnchecked(_ context.Context, id string, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.StockLevel -= qty
	if p.StockLevel < 0 {
		p.StockLevel = 0
	}
	f.decrements = append(f.decrements, id)
	return nil
}

func newService(repo *fakeOrderRepo, products *fakeProductRepo) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		strictStock: true,
		maxPageSize: 100,
		now:         func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: "p1", VendorID: "v1", Name: "Shirt", PriceCents: 1999, StockLevel: 10, IsActive: true},
		&domain.Product{ID: "p2", VendorID: "v2", Name: "Mug", PriceCents: 899, StockLevel: 5, IsActive: true},
	)
	repo := newFakeOrderRepo()
	svc := newService(repo, products)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: "cust1",
		Lines: []LineInput{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 3},
		},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Order)

	assert.Equal(t, int64(2*1999+3*899), res.Order.TotalCents)
	assert.Equal(t, domain.StatusProcessing, res.Order.Status)
	assert.Equal(t, domain.PaymentPending, res.Order.PaymentStatus)
	assert.Equal(t, "O1714564800000000000", res.Order.Number)

	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, "v1", res.Order.Items[0].VendorID)
	assert.Equal(t, domain.StatusProcessing, res.Order.Items[0].Status)

	assert.Equal(t, 8, products.products["p1"].StockLevel)
	assert.Equal(t, 2, products.products["p2"].StockLevel)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newService(newFakeOrderRepo(), newFakeProductRepo())

	cases := []struct {
		name string
		in   CreateOrderInput
		msg  string
	}{
		{"missing customer", CreateOrderInput{Lines: []LineInput{{ProductID: "p1", Quantity: 1}}}, "customer id is required"},
		{"no lines", CreateOrderInput{CustomerID: "c"}, "order must contain at least one item"},
		{"blank product", CreateOrderInput{CustomerID: "c", Lines: []LineInput{{Quantity: 1}}}, "product id is required for every item"},
		{"zero quantity", CreateOrderInput{CustomerID: "c", Lines: []LineInput{{ProductID: "p1"}}}, "quantity must be positive for every item"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.CreateOrder(context.Background(), tc.in)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tc.msg, res.Message)
		})
	}
}

func TestCreateOrderInactiveProductFailsWholeOrder(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: "p1", PriceCents: 1000, StockLevel: 10, IsActive: true},
		&domain.Product{ID: "p2", PriceCents: 1000, StockLevel: 10, IsActive: false},
	)
	repo := newFakeOrderRepo()
	svc := newService(repo, products)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: "c",
		Lines:      []LineInput{{ProductID: "p1", Quantity: 1}, {ProductID: "p2", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "product p2 is not available", res.Message)
	assert.Nil(t, repo.inserted)
	assert.Empty(t, products.decrements, "no decrement before validation completes")
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: "p1", Name: "Lamp", PriceCents: 3000, StockLevel: 2, IsActive: true},
	)
	svc := newService(newFakeOrderRepo(), products)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: "c",
		Lines:      []LineInput{{ProductID: "p1", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient stock for Lamp: available 2, requested 5", res.Message)
}

// When a concurrent order consumes stock between validation and decrement,
// earlier line decrements are kept and the order is not persisted.
func TestCreateOrderMidLoopShortfallKeepsEarlierDecrements(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: "p1", PriceCents: 1000, StockLevel: 10, IsActive: true},
		&domain.Product{ID: "p2", PriceCents: 1000, StockLevel: 10, IsActive: true},
	)
	products.failAfter = 1
	repo := newFakeOrderRepo()
	svc := newService(repo, products)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: "c",
		Lines:      []LineInput{{ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 3}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "insufficient stock for p2")
	assert.Nil(t, repo.inserted)
	assert.Equal(t, 7, products.products["p1"].StockLevel, "first decrement stays applied")
	assert.Equal(t, 10, products.products["p2"].StockLevel)
}

func TestCreateOrderLegacyDecrement(t *testing.T) {
	products := newFakeProductRepo(
		&domain.Product{ID: "p1", PriceCents: 1000, StockLevel: 3, IsActive: true},
	)
	repo := newFakeOrderRepo()
	svc := newService(repo, products)
	svc.strictStock = false

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: "c",
		Lines:      []LineInput{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, products.products["p1"].StockLevel)
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:         "o1",
		Number:     "O42",
		CustomerID: "cust1",
		Status:     domain.StatusProcessing,
		Items: []domain.OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", VendorID: "v1", Quantity: 1, Status: domain.StatusProcessing},
			{ID: "i2", OrderID: "o1", ProductID: "p2", VendorID: "v2", Quantity: 2, Status: domain.StatusShipped},
		},
	}
}

func TestGetOrderVisibility(t *testing.T) {
	repo := newFakeOrderRepo(testOrder())
	svc := newService(repo, newFakeProductRepo())

	t.Run("owner sees all items", func(t *testing.T) {
		res, err := svc.GetOrder(context.Background(), "o1", "cust1", domain.RoleCustomer)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Len(t, res.Order.Items, 2)
	})

	t.Run("other customer gets not found", func(t *testing.T) {
		res, err := svc.GetOrder(context.Background(), "o1", "cust2", domain.RoleCustomer)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "order not found", res.Message)
	})

	t.Run("vendor sees only own lines", func(t *testing.T) {
		res, err := svc.GetOrder(context.Background(), "o1", "v1", domain.RoleVendor)
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Len(t, res.Order.Items, 1)
		assert.Equal(t, "i1", res.Order.Items[0].ID)
	})

	t.Run("vendor without lines gets not found", func(t *testing.T) {
		res, err := svc.GetOrder(context.Background(), "o1", "v3", domain.RoleVendor)
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		res, err := svc.GetOrder(context.Background(), "o1", "whoever", domain.RoleAdmin)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Len(t, res.Order.Items, 2)
	})
}

func TestListValidation(t *testing.T) {
	svc := newService(newFakeOrderRepo(), newFakeProductRepo())

	res, err := svc.GetOrders(context.Background(), ListFilter{Page: 0, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "page must be positive", res.Message)

	res, err = svc.GetOrders(context.Background(), ListFilter{Page: 1, PageSize: 0})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "page size must be positive", res.Message)

	res, err = svc.GetOrders(context.Background(), ListFilter{Page: 1, PageSize: 10, Status: "Lost"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, `unknown status "Lost"`, res.Message)
}

func TestListCapsPageSize(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newService(repo, newFakeProductRepo())
	svc.maxPageSize = 50

	res, err := svc.GetOrders(context.Background(), ListFilter{Page: 2, PageSize: 500})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 50, res.PageSize)
	assert.Equal(t, 50, repo.lastFilter.PageSize)
	assert.Equal(t, 2, repo.lastFilter.Page)
}

func TestVendorListNarrowsItems(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.listResult = []domain.Order{*testOrder()}
	svc := newService(repo, newFakeProductRepo())

	res, err := svc.GetVendorOrders(context.Background(), "v2", ListFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Orders, 1)
	require.Len(t, res.Orders[0].Items, 1)
	assert.Equal(t, "i2", res.Orders[0].Items[0].ID)
	assert.Equal(t, "v2", repo.lastFilter.VendorID)
}

func TestUpdateItemStatus(t *testing.T) {
	t.Run("vendor ships own item", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		tracking := "TRACK123"
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "i1", "v1", domain.RoleVendor, domain.StatusShipped, &tracking)
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, "i1", repo.updatedItem)
		assert.Equal(t, domain.StatusShipped, repo.updatedStatus)
	})

	t.Run("vendor may not touch another vendor's item", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "i2", "v1", domain.RoleVendor, domain.StatusDelivered, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "you are not allowed to update this item", res.Message)
	})

	t.Run("customer may not update items", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "i1", "cust1", domain.RoleCustomer, domain.StatusShipped, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("illegal transition rejected", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "i1", "admin", domain.RoleAdmin, domain.StatusDelivered, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "invalid status transition from Processing to Delivered", res.Message)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "i1", "admin", domain.RoleAdmin, "Teleported", nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("missing item", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.UpdateItemStatus(context.Background(), "o1", "nope", "admin", domain.RoleAdmin, domain.StatusShipped, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "order item not found", res.Message)
	})
}

func TestCancel(t *testing.T) {
	t.Run("owner cancels, non-terminal items follow", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		products := newFakeProductRepo(&domain.Product{ID: "p1", StockLevel: 0, IsActive: true})
		svc := newService(repo, products)

		res, err := svc.Cancel(context.Background(), "o1", "cust1", domain.RoleCustomer, "changed my mind")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, domain.StatusCancelled, res.Order.Status)
		assert.Equal(t, "changed my mind", repo.lastReason)
		for _, item := range res.Order.Items {
			assert.Equal(t, domain.StatusCancelled, item.Status)
		}
		// Cancellation never restores stock.
		assert.Equal(t, 0, products.products["p1"].StockLevel)
	})

	t.Run("stranger may not cancel", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.Cancel(context.Background(), "o1", "cust2", domain.RoleCustomer, "")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "you are not allowed to cancel this order", res.Message)
	})

	t.Run("admin cancels any order", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.Cancel(context.Background(), "o1", "admin", domain.RoleAdmin, "fraud")
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("already cancelled", func(t *testing.T) {
		o := testOrder()
		o.Status = domain.StatusCancelled
		repo := newFakeOrderRepo(o)
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.Cancel(context.Background(), "o1", "cust1", domain.RoleCustomer, "")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "order is already cancelled", res.Message)
	})

	t.Run("delivered order", func(t *testing.T) {
		o := testOrder()
		o.Status = domain.StatusDelivered
		repo := newFakeOrderRepo(o)
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.Cancel(context.Background(), "o1", "cust1", domain.RoleCustomer, "")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "delivered orders cannot be cancelled", res.Message)
	})
}

func TestConfirmDelivery(t *testing.T) {
	t.Run("owner confirms, shipped items delivered", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.ConfirmDelivery(context.Background(), "o1", "cust1")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, domain.StatusDelivered, res.Order.Status)
		assert.Equal(t, domain.StatusDelivered, res.Order.Items[1].Status)
		// A Processing item has no legal path to Delivered.
		assert.Equal(t, domain.StatusProcessing, res.Order.Items[0].Status)
	})

	t.Run("stranger may not confirm", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.ConfirmDelivery(context.Background(), "o1", "cust2")
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("cancelled orders stay cancelled", func(t *testing.T) {
		o := testOrder()
		o.Status = domain.StatusCancelled
		repo := newFakeOrderRepo(o)
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.ConfirmDelivery(context.Background(), "o1", "cust1")
		require.NoError(t, err)
		assert.False(t, res.Success)
	})
}

func TestAddNote(t *testing.T) {
	t.Run("blank note rejected", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.AddNote(context.Background(), "o1", "cust1", domain.RoleCustomer, "   ")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "note text is required", res.Message)
	})

	t.Run("vendor with items may note", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.AddNote(context.Background(), "o1", "v1", domain.RoleVendor, "shipping tomorrow")
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Len(t, repo.notes, 1)
		assert.Equal(t, "shipping tomorrow", repo.notes[0].Body)
		assert.Equal(t, "v1", repo.notes[0].AuthorID)
	})

	t.Run("unrelated vendor rejected", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder())
		svc := newService(repo, newFakeProductRepo())
		res, err := svc.AddNote(context.Background(), "o1", "v9", domain.RoleVendor, "hello")
		require.NoError(t, err)
		assert.False(t, res.Success)
	})
}

func TestSoftDelete(t *testing.T) {
	repo := newFakeOrderRepo(testOrder())
	svc := newService(repo, newFakeProductRepo())

	res, err := svc.SoftDelete(context.Background(), "o1", domain.RoleCustomer)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "you are not allowed to delete orders", res.Message)

	res, err = svc.SoftDelete(context.Background(), "o1", domain.RoleAdmin)
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = svc.GetOrder(context.Background(), "o1", "whoever", domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "order not found", res.Message)
}
