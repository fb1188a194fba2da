package customers

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

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Customer, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("invalid customer id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input CustomerInput) (Customer, error) {
	return s.repo.Create(ctx, Customer{
		CompanyID: scope.CompanyID,
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
	})
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input CustomerInput) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("invalid customer id: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Customer{
		ID:        id,
		CompanyID: scope.CompanyID,
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
	}); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid customer id: %w", internalshared.ErrValidation)
	}
	return s.repo.SetActive(ctx, scope.CompanyID, id, active)
}
