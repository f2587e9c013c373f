package rating

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/domain"
	ratingrepo "marketplace-backend/internal/repository/rating"
)

var (
	// ErrNotAVendor is returned when the rated user does not exist or does
	// not carry the vendor role.
	ErrNotAVendor = errors.New("vendor not found")
	// ErrNotEligible is returned when the customer has no order containing
	// the vendor's items.
	ErrNotEligible = errors.New("you can only rate vendors you have ordered from")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

const recentRatingsLimit = 10

type Service struct {
	repo   ratingrepo.Repository
	users  userRepo
	orders orderRepo
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type orderRepo interface {
	ExistsByCustomerAndVendor(ctx context.Context, customerID, vendorID string) (bool, error)
}

func New(repo ratingrepo.Repository, users userRepo, orders orderRepo) *Service {
	return &Service{repo: repo, users: users, orders: orders}
}

// Submit stores an unapproved rating. The customer must have at least one
// order, in any status, containing an item from the vendor.
func (s *Service) Submit(ctx context.Context, vendorID, customerID string, ratingValue int, comment string) (*domain.VendorRating, error) {
	if ratingValue < 1 || ratingValue > 5 {
		return nil, ErrInvalidRating
	}

	vendor, err := s.users.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotAVendor
		}
		return nil, err
	}
	if vendor.Role != domain.RoleVendor {
		return nil, ErrNotAVendor
	}

	eligible, err := s.orders.ExistsByCustomerAndVendor(ctx, customerID, vendorID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrNotEligible
	}

	return s.repo.Insert(ctx, domain.VendorRating{
		VendorID:   vendorID,
		CustomerID: customerID,
		Rating:     ratingValue,
		Comment:    strings.TrimSpace(comment),
	})
}

// Approve flips the approval flag so the rating counts toward the vendor's
// aggregate.
func (s *Service) Approve(ctx context.Context, ratingID string) (*domain.VendorRating, error) {
	return s.repo.Approve(ctx, ratingID)
}

// VendorProfile aggregates only approved ratings.
func (s *Service) VendorProfile(ctx context.Context, vendorID string) (*domain.VendorProfile, error) {
	vendor, err := s.users.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotAVendor
		}
		return nil, err
	}
	if vendor.Role != domain.RoleVendor {
		return nil, ErrNotAVendor
	}

	avg, count, err := s.repo.Aggregate(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListApproved(ctx, vendorID, recentRatingsLimit)
	if err != nil {
		return nil, err
	}

	return &domain.VendorProfile{
		Vendor:        *vendor,
		AverageRating: avg,
		RatingCount:   count,
		RecentRatings: recent,
	}, nil
}
