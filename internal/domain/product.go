package domain

import "time"

// Product is the shared stock-bearing entity. Stock is mutated by order
// creation and vendor stock updates; products are soft-deactivated, never
// deleted, once orders reference them.
type Product struct {
	ID                string    `json:"id"`
	VendorID          string    `json:"vendorId"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"priceCents"`
	Currency          string    `json:"currency"`
	StockLevel        int       `json:"stockLevel"`
	LowStockThreshold int       `json:"lowStockThreshold"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
}
