package devices

import (
	"context"
	"fmt"
	"strings"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Device, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Device, error) {
	if id <= 0 {
		return Device{}, fmt.Errorf("invalid device id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

// FindBySerial looks a device up by its serial number for intake pre-fill.
func (s *Service) FindBySerial(ctx context.Context, scope internalshared.Scope, serial string) (Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return Device{}, fmt.Errorf("serial required: %w", internalshared.ErrValidation)
	}
	return s.repo.FindBySerial(ctx, scope.CompanyID, serial)
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input DeviceInput) (Device, error) {
	return s.repo.Create(ctx, Device{
		CompanyID:    scope.CompanyID,
		CustomerID:   input.CustomerID,
		DeviceType:   input.DeviceType,
		Brand:        input.Brand,
		Model:        input.Model,
		SerialNumber: input.SerialNumber,
	})
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input DeviceInput) (Device, error) {
	if id <= 0 {
		return Device{}, fmt.Errorf("invalid device id: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Device{
		ID:           id,
		CompanyID:    scope.CompanyID,
		CustomerID:   input.CustomerID,
		DeviceType:   input.DeviceType,
		Brand:        input.Brand,
		Model:        input.Model,
		SerialNumber: input.SerialNumber,
	}); err != nil {
		return Device{}, err
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid device id: %w", internalshared.ErrValidation)
	}
	return s.repo.SetActive(ctx, scope.CompanyID, id, active)
}
