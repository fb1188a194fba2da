package payments

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

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Method, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Method, error) {
	if id <= 0 {
		return Method{}, fmt.Errorf("invalid payment method id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input MethodInput) (Method, error) {
	return s.repo.Create(ctx, Method{CompanyID: scope.CompanyID, Name: input.Name, Kind: input.Kind})
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input MethodInput) (Method, error) {
	if id <= 0 {
		return Method{}, fmt.Errorf("invalid payment method id: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Method{ID: id, CompanyID: scope.CompanyID, Name: input.Name, Kind: input.Kind}); err != nil {
		return Method{}, err
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid payment method id: %w", internalshared.ErrValidation)
	}
	return s.repo.SetActive(ctx, scope.CompanyID, id, active)
}
