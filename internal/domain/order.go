package domain

import "time"

// OrderStatus is shared by orders and order items. The order-level status is
// an independently-set field, not derived from item statuses.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// PaymentStatus values for the order's payment field.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
	PaymentFailed  = "Failed"
)

var itemTransitions = map[OrderStatus][]OrderStatus{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether an order item may move from one status to
// another. Delivered and Cancelled are terminal.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further item transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(itemTransitions[s]) == 0
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is snapshotted onto the order at creation.
type ShippingAddress struct {
	FullName   string `json:"fullName,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	Number          string          `json:"orderNumber"`
	CustomerID      string          `json:"customerId"`
	TotalCents      int64           `json:"totalCents"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	PaymentStatus   string          `json:"paymentStatus,omitempty"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	Deleted         bool            `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []OrderItem     `json:"items"`
	Notes           []OrderNote     `json:"notes,omitempty"`
}

// OrderItem carries the vendor reference copied from the product at order
// creation, which backs per-vendor order views and rating eligibility.
type OrderItem struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"orderId"`
	ProductID      string      `json:"productId"`
	VendorID       string      `json:"vendorId"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents int64       `json:"unitPriceCents"`
	Status         OrderStatus `json:"status"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

type OrderNote struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item returns the order line with the given id, or nil.
func (o *Order) Item(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemsForVendor returns only the lines belonging to the given vendor.
func (o *Order) ItemsForVendor(vendorID string) []OrderItem {
	var items []OrderItem
	for _, it := range o.Items {
		if it.VendorID == vendorID {
			items = append(items, it)
		}
	}
	return items
}
