package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// FaultPricer resolves catalog prices for fault ids. The masterdata fault
// service implements it with a read-through cache.
type FaultPricer interface {
	Prices(ctx context.Context, scope shared.Scope, ids []int64) (map[int64]decimal.Decimal, error)
}

// PgReferenceChecker validates intake references against the masterdata tables.
type PgReferenceChecker struct {
	pool   *pgxpool.Pool
	faults FaultPricer
}

// NewReferenceChecker constructs PgReferenceChecker.
func NewReferenceChecker(pool *pgxpool.Pool, faults FaultPricer) *PgReferenceChecker {
	return &PgReferenceChecker{pool: pool, faults: faults}
}

func (c *PgReferenceChecker) activeRow(ctx context.Context, query string, notFound error, label string, args ...any) error {
	var active bool
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		return err
	}
	if !active {
		return fmt.Errorf("%s is inactive: %w", label, shared.ErrValidation)
	}
	return nil
}

func (c *PgReferenceChecker) CustomerActive(ctx context.Context, scope shared.Scope, id int64) error {
	return c.activeRow(ctx, `SELECT is_active FROM customers WHERE id=$1 AND company_id=$2`,
		ErrCustomerNotFound, "customer", id, scope.CompanyID)
}

func (c *PgReferenceChecker) DeviceActive(ctx context.Context, scope shared.Scope, id int64) error {
	return c.activeRow(ctx, `SELECT is_active FROM devices WHERE id=$1 AND company_id=$2`,
		ErrDeviceNotFound, "device", id, scope.CompanyID)
}

func (c *PgReferenceChecker) BranchActive(ctx context.Context, companyID, branchID int64) error {
	return c.activeRow(ctx, `SELECT is_active FROM branches WHERE id=$1 AND company_id=$2`,
		ErrBranchNotFound, "branch", branchID, companyID)
}

func (c *PgReferenceChecker) PaymentMethodActive(ctx context.Context, scope shared.Scope, id int64) error {
	return c.activeRow(ctx, `SELECT is_active FROM payment_methods WHERE id=$1 AND company_id=$2`,
		ErrPaymentMethodNotFound, "payment method", id, scope.CompanyID)
}

// FaultPrices resolves prices for every requested fault and fails if any id is
// unknown in the company's catalog.
func (c *PgReferenceChecker) FaultPrices(ctx context.Context, scope shared.Scope, ids []int64) (map[int64]decimal.Decimal, error) {
	if len(ids) == 0 {
		return map[int64]decimal.Decimal{}, nil
	}
	prices, err := c.faults.Prices(ctx, scope, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, fmt.Errorf("fault %d: %w", id, ErrFaultNotFound)
		}
	}
	return prices, nil
}
