package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketplace-backend/internal/domain"
	orderrepo "marketplace-backend/internal/repository/order"
)

// Result is the uniform outcome of an order mutation. Business failures
// (shortfalls, not-found, unauthorized) are reported through Success and
// Message; only infrastructure faults travel as Go errors.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"data,omitempty"`
}

// ListResult is the uniform outcome of an order listing.
type ListResult struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Orders   []domain.Order `json:"data"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

func failure(msg string) *Result {
	return &Result{Success: false, Message: msg}
}

type Service struct {
	repo        orderRepo
	products    productRepo
	strictStock bool
	maxPageSize int
	now         func() time.Time
}

type orderRepo interface {
	Insert(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus, cancelReason string) error
	UpdateItem(ctx context.Context, orderID, itemID string, status domain.OrderStatus, trackingNumber *string) error
	CancelItems(ctx context.Context, orderID string) error
	DeliverItems(ctx context.Context, orderID string) error
	AddNote(ctx context.Context, note domain.OrderNote) (*domain.OrderNote, error)
	SetDeleted(ctx context.Context, orderID string, deleted bool) error
}

type productRepo interface {
	GetActiveByID(ctx context.Context, id string) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	DecrementStockUnchecked(ctx context.Context, id string, qty int) error
}

// New builds the order engine. strictStock selects the atomic conditional
// decrement; when false the legacy unguarded read-then-write pair is used.
func New(repo orderrepo.Repository, products productRepo, strictStock bool, maxPageSize int) *Service {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Service{
		repo:        repo,
		products:    products,
		strictStock: strictStock,
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

type LineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

type CreateOrderInput struct {
	CustomerID      string
	Lines           []LineInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// CreateOrder validates and prices every line, decrements stock one line at
// a time, then persists the order with its items in a single insert.
//
// Decrements are not batched and are not rolled back: when line N fails
// under concurrent load, lines 1..N-1 stay decremented and no order is
// persisted.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Result, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return failure("customer id is required"), nil
	}
	if len(in.Lines) == 0 {
		return failure("order must contain at least one item"), nil
	}
	for _, line := range in.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return failure("product id is required for every item"), nil
		}
		if line.Quantity <= 0 {
			return failure("quantity must be positive for every item"), nil
		}
	}

	// Phase 1: resolve products, check stock, accumulate the total and
	// build the items before any write happens.
	var totalCents int64
	items := make([]domain.OrderItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		p, err := s.products.GetActiveByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				unavailable := &domain.ProductUnavailableError{ProductID: line.ProductID}
				return failure(unavailable.Error()), nil
			}
			return nil, err
		}
		if p.StockLevel < line.Quantity {
			short := &domain.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.StockLevel,
				Requested: line.Quantity,
			}
			return failure(short.Error()), nil
		}
		totalCents += p.PriceCents * int64(line.Quantity)
		items = append(items, domain.OrderItem{
			ProductID:      p.ID,
			VendorID:       p.VendorID,
			Quantity:       line.Quantity,
			UnitPriceCents: p.PriceCents,
			Status:         domain.StatusProcessing,
			Notes:          line.Notes,
		})
	}

	// Phase 2: one decrement per line, in line order.
	for i, line := range in.Lines {
		if s.strictStock {
			applied, err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return nil, err
			}
			if !applied {
				// A concurrent order consumed the stock after phase 1.
				return failure(fmt.Sprintf("insufficient stock for %s: requested %d", itemName(items, i), line.Quantity)), nil
			}
		} else {
			if err := s.products.DecrementStockUnchecked(ctx, line.ProductID, line.Quantity); err != nil {
				return nil, err
			}
		}
	}

	// Phase 3: persist order plus items as one insert.
	created, err := s.repo.Insert(ctx, domain.Order{
		Number:          s.orderNumber(),
		CustomerID:      in.CustomerID,
		TotalCents:      totalCents,
		Status:          domain.StatusProcessing,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		Items:           items,
	})
	if err != nil {
		return nil, err
	}

	return &Result{Success: true, Message: "order created", Order: created}, nil
}

// GetOrder returns one order, restricted to its customer, a vendor with
// items in it (seeing only their own lines), or an admin.
func (s *Service) GetOrder(ctx context.Context, orderID, userID, role string) (*Result, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}

	switch role {
	case domain.RoleAdmin:
	case domain.RoleVendor:
		vendorItems := o.ItemsForVendor(userID)
		if len(vendorItems) == 0 {
			return failure("order not found"), nil
		}
		o.Items = vendorItems
	default:
		if o.CustomerID != userID {
			return failure("order not found"), nil
		}
	}

	return &Result{Success: true, Message: "ok", Order: o}, nil
}

// ListFilter is the caller-facing subset of the repository filter.
type ListFilter struct {
	Status   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// GetOrders lists orders across all customers. Intended for elevated roles;
// the boundary enforces that.
func (s *Service) GetOrders(ctx context.Context, f ListFilter) (*ListResult, error) {
	return s.list(ctx, f, "", "")
}

// GetCustomerOrders lists one customer's orders.
func (s *Service) GetCustomerOrders(ctx context.Context, customerID string, f ListFilter) (*ListResult, error) {
	return s.list(ctx, f, customerID, "")
}

// GetVendorOrders lists orders containing the vendor's items, with each
// order's item list narrowed to that vendor's lines.
func (s *Service) GetVendorOrders(ctx context.Context, vendorID string, f ListFilter) (*ListResult, error) {
	return s.list(ctx, f, "", vendorID)
}

func (s *Service) list(ctx context.Context, f ListFilter, customerID, vendorID string) (*ListResult, error) {
	if f.Page <= 0 {
		return &ListResult{Message: "page must be positive"}, nil
	}
	if f.PageSize <= 0 {
		return &ListResult{Message: "page size must be positive"}, nil
	}
	if f.PageSize > s.maxPageSize {
		f.PageSize = s.maxPageSize
	}

	filter := orderrepo.ListFilter{
		CustomerID: customerID,
		VendorID:   vendorID,
		From:       f.From,
		To:         f.To,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}
	if f.Status != "" {
		status := domain.OrderStatus(f.Status)
		if !status.Valid() {
			return &ListResult{Message: fmt.Sprintf("unknown status %q", f.Status)}, nil
		}
		filter.Status = &status
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if vendorID != "" {
		for i := range orders {
			orders[i].Items = orders[i].ItemsForVendor(vendorID)
		}
	}

	return &ListResult{
		Success:  true,
		Message:  "ok",
		Orders:   orders,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

// UpdateItemStatus moves one order item through its lifecycle. Admins may
// update any item; vendors only items carrying their vendor id. Illegal
// transitions are rejected.
func (s *Service) UpdateItemStatus(ctx context.Context, orderID, itemID, userID, role string, newStatus domain.OrderStatus, trackingNumber *string) (*Result, error) {
	if !newStatus.Valid() {
		return failure(fmt.Sprintf("unknown status %q", string(newStatus))), nil
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}

	item := o.Item(itemID)
	if item == nil {
		return failure("order item not found"), nil
	}

	switch role {
	case domain.RoleAdmin:
	case domain.RoleVendor:
		if item.VendorID != userID {
			return failure("you are not allowed to update this item"), nil
		}
	default:
		return failure("you are not allowed to update this item"), nil
	}

	if !domain.CanTransition(item.Status, newStatus) {
		invalid := &domain.InvalidTransitionError{From: item.Status, To: newStatus}
		return failure(invalid.Error()), nil
	}

	if err := s.repo.UpdateItem(ctx, orderID, itemID, newStatus, trackingNumber); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: "item status updated", Order: updated}, nil
}

// Cancel moves the order and every non-terminal item to Cancelled. A
// customer may cancel only their own order; admins may cancel any. Stock is
// not restored.
func (s *Service) Cancel(ctx context.Context, orderID, userID, role, reason string) (*Result, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}

	if role != domain.RoleAdmin && o.CustomerID != userID {
		return failure("you are not allowed to cancel this order"), nil
	}
	if o.Status == domain.StatusCancelled {
		return failure("order is already cancelled"), nil
	}
	if o.Status == domain.StatusDelivered {
		return failure("delivered orders cannot be cancelled"), nil
	}

	if err := s.repo.CancelItems(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, orderID, domain.StatusCancelled, reason); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: "order cancelled", Order: updated}, nil
}

// ConfirmDelivery marks the order delivered. Only the owning customer may
// confirm; items move to Delivered only where that transition is legal.
func (s *Service) ConfirmDelivery(ctx context.Context, orderID, customerID string) (*Result, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}
	if o.CustomerID != customerID {
		return failure("you are not allowed to confirm this order"), nil
	}
	if o.Status == domain.StatusCancelled {
		return failure("cancelled orders cannot be confirmed"), nil
	}

	if err := s.repo.DeliverItems(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, orderID, domain.StatusDelivered, ""); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: "delivery confirmed", Order: updated}, nil
}

// AddNote appends a timestamped internal note. Admins, the owning customer,
// and vendors with items in the order may write notes.
func (s *Service) AddNote(ctx context.Context, orderID, userID, role, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return failure("note text is required"), nil
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}

	allowed := role == domain.RoleAdmin ||
		o.CustomerID == userID ||
		(role == domain.RoleVendor && len(o.ItemsForVendor(userID)) > 0)
	if !allowed {
		return failure("you are not allowed to add notes to this order"), nil
	}

	if _, err := s.repo.AddNote(ctx, domain.OrderNote{
		OrderID:  orderID,
		AuthorID: userID,
		Body:     strings.TrimSpace(text),
	}); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Message: "note added", Order: updated}, nil
}

// SoftDelete hides the order from all reads without removing the row.
func (s *Service) SoftDelete(ctx context.Context, orderID, role string) (*Result, error) {
	if role != domain.RoleAdmin {
		return failure("you are not allowed to delete orders"), nil
	}
	if err := s.repo.SetDeleted(ctx, orderID, true); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return failure("order not found"), nil
		}
		return nil, err
	}
	return &Result{Success: true, Message: "order deleted"}, nil
}

// orderNumber derives a human-readable number from the creation time. Not
// unique under high-frequency concurrent creation.
func (s *Service) orderNumber() string {
	return "O" + strconv.FormatInt(s.now().UTC().UnixNano(), 10)
}

func itemName(items []domain.OrderItem, i int) string {
	if i >= 0 && i < len(items) {
		return items[i].ProductID
	}
	return "item"
}
