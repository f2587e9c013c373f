package domain

import "time"

// VendorRating is stored unapproved; only approved ratings count toward a
// vendor's aggregate profile.
type VendorRating struct {
	ID         string    `json:"id"`
	VendorID   string    `json:"vendorId"`
	CustomerID string    `json:"customerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Approved   bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VendorProfile aggregates approved ratings for a vendor.
type VendorProfile struct {
	Vendor        User           `json:"vendor"`
	AverageRating float64        `json:"averageRating"`
	RatingCount   int            `json:"ratingCount"`
	RecentRatings []VendorRating `json:"recentRatings,omitempty"`
}
