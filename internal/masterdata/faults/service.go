package faults

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Service manages the fault catalog. Price reads go through the Redis cache
// because every ticket intake resolves them; catalog mutations bump the cache
// version.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context, scope internalshared.Scope, filters shared.ListFilters) ([]Fault, int, error) {
	filters.CompanyID = &scope.CompanyID
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope internalshared.Scope, id int64) (Fault, error) {
	if id <= 0 {
		return Fault{}, fmt.Errorf("invalid fault id: %w", internalshared.ErrValidation)
	}
	return s.repo.Get(ctx, scope.CompanyID, id)
}

// Prices resolves catalog prices for the requested fault ids from the cached
// active price map. Unknown or inactive ids are absent from the result.
func (s *Service) Prices(ctx context.Context, scope internalshared.Scope, ids []int64) (map[int64]decimal.Decimal, error) {
	cached, err := s.cache.FetchPrices(ctx, scope.CompanyID, func(ctx context.Context) (map[int64]string, error) {
		prices, err := s.repo.ActivePrices(ctx, scope.CompanyID)
		if err != nil {
			return nil, err
		}
		out := make(map[int64]string, len(prices))
		for id, price := range prices {
			out[id] = price.String()
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		raw, ok := cached[id]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("cached price for fault %d: %w", id, err)
		}
		out[id] = price
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, scope internalshared.Scope, input FaultInput) (Fault, error) {
	if input.Price.Sign() < 0 {
		return Fault{}, fmt.Errorf("price must not be negative: %w", internalshared.ErrValidation)
	}
	fault, err := s.repo.Create(ctx, Fault{CompanyID: scope.CompanyID, Name: input.Name, Price: input.Price})
	if err != nil {
		return Fault{}, err
	}
	s.invalidate(ctx)
	return fault, nil
}

func (s *Service) Update(ctx context.Context, scope internalshared.Scope, id int64, input FaultInput) (Fault, error) {
	if id <= 0 {
		return Fault{}, fmt.Errorf("invalid fault id: %w", internalshared.ErrValidation)
	}
	if input.Price.Sign() < 0 {
		return Fault{}, fmt.Errorf("price must not be negative: %w", internalshared.ErrValidation)
	}
	if err := s.repo.Update(ctx, Fault{ID: id, CompanyID: scope.CompanyID, Name: input.Name, Price: input.Price}); err != nil {
		return Fault{}, err
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, scope.CompanyID, id)
}

func (s *Service) SetActive(ctx context.Context, scope internalshared.Scope, id int64, active bool) error {
	if id <= 0 {
		return fmt.Errorf("invalid fault id: %w", internalshared.ErrValidation)
	}
	if err := s.repo.SetActive(ctx, scope.CompanyID, id, active); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("fault cache bump", slog.Any("error", err))
	}
}
