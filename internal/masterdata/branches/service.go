package branches

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

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Branch, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Branch, error) {
	if id <= 0 {
		return Branch{}, fmt.Errorf("invalid branch id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input BranchInput) (Branch, error) {
	return s.repo.Create(ctx, Branch{
		CompanyID: scope.CompanyID,
		Code:      input.Code,
		Name:      input.Name,
		Address:   input.Address,
		Phone:     input.Phone,
	})
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input BranchInput) (Branch, error) {
	if id <= 0 {
		return Branch{}, fmt.Errorf("invalid branch id: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Branch{
		ID:        id,
		CompanyID: scope.CompanyID,
		Code:      input.Code,
		Name:      input.Name,
		Address:   input.Address,
		Phone:     input.Phone,
	}); err != nil {
		return Branch{}, err
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid branch id: %w", internalshared.ErrValidation)
	}
	return s.repo.SetActive(ctx, scope.CompanyID, id, active)
}
