package faults

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mdshared "github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type memoryRepo struct {
	faults map[int64]Fault
	loads  int
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{faults: make(map[int64]Fault)}
}

func (r *memoryRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]Fault, int, error) {
	var out []Fault
	for _, f := range r.faults {
		out = append(out, f)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, companyID, id int64) (Fault, error) {
	f, ok := r.faults[id]
	if !ok || f.CompanyID != companyID {
		return Fault{}, internalshared.ErrNotFound
	}
	return f, nil
}

func (r *memoryRepo) ActivePrices(ctx context.Context, companyID int64) (map[int64]decimal.Decimal, error) {
	r.loads++
	out := make(map[int64]decimal.Decimal)
	for _, f := range r.faults {
		if f.CompanyID == companyID && f.IsActive {
			out[f.ID] = f.Price
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, fault Fault) (Fault, error) {
	r.nextID++
	fault.ID = r.nextID
	fault.IsActive = true
	r.faults[fault.ID] = fault
	return fault, nil
}

func (r *memoryRepo) Update(ctx context.Context, fault Fault) error {
	existing, ok := r.faults[fault.ID]
	if !ok {
		return internalshared.ErrNotFound
	}
	existing.Name = fault.Name
	existing.Price = fault.Price
	r.faults[fault.ID] = existing
	return nil
}

func (r *memoryRepo) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	existing, ok := r.faults[id]
	if !ok {
		return internalshared.ErrNotFound
	}
	existing.IsActive = active
	r.faults[id] = existing
	return nil
}

func newCachedService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, NewCache(client, time.Minute), logger), repo
}

func TestPricesServedFromCache(t *testing.T) {
	svc, repo := newCachedService(t)
	scope := internalshared.Scope{CompanyID: 1}
	ctx := context.Background()

	created, err := svc.Create(ctx, scope, FaultInput{Name: "Broken screen", Price: decimal.NewFromInt(150)})
	require.NoError(t, err)

	prices, err := svc.Prices(ctx, scope, []int64{created.ID})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(150).Equal(prices[created.ID]))
	require.Equal(t, 1, repo.loads)

	// Second read hits Redis, not the repository.
	_, err = svc.Prices(ctx, scope, []int64{created.ID})
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads)
}

func TestPriceCacheInvalidatedOnUpdate(t *testing.T) {
	svc, repo := newCachedService(t)
	scope := internalshared.Scope{CompanyID: 1}
	ctx := context.Background()

	created, err := svc.Create(ctx, scope, FaultInput{Name: "Battery swap", Price: decimal.NewFromInt(80)})
	require.NoError(t, err)

	_, err = svc.Prices(ctx, scope, []int64{created.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, scope, created.ID, FaultInput{Name: "Battery swap", Price: decimal.NewFromInt(95)})
	require.NoError(t, err)

	prices, err := svc.Prices(ctx, scope, []int64{created.ID})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(95).Equal(prices[created.ID]))
	require.Equal(t, 2, repo.loads)
}

func TestPricesOmitInactiveFaults(t *testing.T) {
	svc, repo := newCachedService(t)
	scope := internalshared.Scope{CompanyID: 1}
	ctx := context.Background()

	created, err := svc.Create(ctx, scope, FaultInput{Name: "Water damage", Price: decimal.NewFromInt(200)})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, scope, created.ID, false))

	prices, err := svc.Prices(ctx, scope, []int64{created.ID})
	require.NoError(t, err)
	require.NotContains(t, prices, created.ID)
	require.Equal(t, 1, repo.loads)
}
