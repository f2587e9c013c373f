package domain

import "time"

// Cart is a user's open shopping cart. At most one non-checked-out cart
// exists per user, enforced by a partial unique index on (user_id).
type Cart struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	DiscountCode  string     `json:"discountCode,omitempty"`
	DiscountCents int64      `json:"discountCents"`
	CheckedOut    bool       `json:"isCheckedOut"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Items         []CartItem `json:"items,omitempty"`
}

// CartItem snapshots the unit price at add time; the snapshot is refreshed
// when the same product is re-added, but not on a plain quantity edit.
type CartItem struct {
	ID              string            `json:"id"`
	CartID          string            `json:"cartId"`
	ProductID       string            `json:"productId"`
	VendorID        string            `json:"vendorId"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
	UnitPriceCents  int64             `json:"unitPriceCents"`
	TotalCents      int64             `json:"totalCents"`
	Status          string            `json:"status,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	AddedAt         time.Time         `json:"addedAt"`
}

// Subtotal sums line totals before any discount.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.TotalCents
	}
	return sum
}
