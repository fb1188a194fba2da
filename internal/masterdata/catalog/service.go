package catalog

import (
	"context"
	"fmt"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Item, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("invalid catalog item id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input ItemInput) (Item, error) {
	if input.UnitPrice.Sign() < 0 {
		return Item{}, fmt.Errorf("unit price must not be negative: %w", internalshared.ErrValidation)
	}
	return s.repo.Create(ctx, Item{CompanyID: scope.CompanyID, SKU: input.SKU, Name: input.Name, UnitPrice: input.UnitPrice})
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input ItemInput) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("invalid catalog item id: %w", internalshared.ErrValidation)
	}
	if input.UnitPrice.Sign() < 0 {
		return Item{}, fmt.Errorf("unit price must not be negative: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Item{ID: id, CompanyID: scope.CompanyID, SKU: input.SKU, Name: input.Name, UnitPrice: input.UnitPrice}); err != nil {
		return Item{}, err
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid catalog item id: %w", internalshared.ErrValidation)
	}
	return s.repo.SetActive(ctx, scope.CompanyID, id, active)
}

// Provision creates the branch stock counter for the item so receipts can be
// posted against it.
func (s *Service) Provision(ctx context.Context, scope internalshared.Scope, itemID, branchID int64) (int64, error) {
	if itemID <= 0 || branchID <= 0 {
		return 0, fmt.Errorf("item and branch required: %w", internalshared.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, scope.CompanyID, itemID); err != nil {
		return 0, err
	}
	return s.repo.EnsureInventory(ctx, scope.CompanyID, branchID, itemID)
}

func (s *Service) ListLegacyParts(ctx context.Context, scope internalshared.Scope, search string) ([]LegacyPart, error) {
	return s.repo.ListLegacyParts(ctx, scope.CompanyID, search)
}
