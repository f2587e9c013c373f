package product

import (
	"context"

	"marketplace-backend/internal/domain"
	productrepo "marketplace-backend/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive treats deactivated products as absent.
func (s *Service) GetActive(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetActiveByID(ctx, id)
}

func (s *Service) ListByVendor(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return s.repo.ListByVendor(ctx, vendorID)
}

// LowStock lists the vendor's active products at or below their low-stock
// threshold.
func (s *Service) LowStock(ctx context.Context, vendorID string) ([]domain.Product, error) {
	return s.repo.ListLowStock(ctx, vendorID)
}

// SetStock replaces a product's stock level. Only the owning vendor may do
// this.
func (s *Service) SetStock(ctx context.Context, productID string, newLevel int, vendorID string) (*domain.Product, error) {
	if newLevel < 0 {
		return nil, domain.NewValidationError("stock level must not be negative")
	}
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.VendorID != vendorID {
		return nil, domain.ErrUnauthorized
	}
	if err := s.repo.SetStock(ctx, productID, newLevel); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, productID)
}

// CanDelete reports whether the product is free of open orders. Products
// referenced by a Processing order may only be deactivated.
func (s *Service) CanDelete(ctx context.Context, productID, vendorID string) (bool, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if p.VendorID != vendorID {
		return false, domain.ErrUnauthorized
	}
	open, err := s.repo.HasOpenOrders(ctx, productID)
	if err != nil {
		return false, err
	}
	return !open, nil
}

// Deactivate soft-deactivates the product; it stays resolvable for existing
// orders but disappears from active lookups.
func (s *Service) Deactivate(ctx context.Context, productID, vendorID string) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.VendorID != vendorID {
		return domain.ErrUnauthorized
	}
	return s.repo.SetActive(ctx, productID, false)
}
