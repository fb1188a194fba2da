package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) Adjust(ctx context.Context, adj Adjustment) (Movement, error) {
	return Apply(ctx, r.tx, adj)
}

// GetInventory loads one counter row scoped to the caller's company.
func (r *Repository) GetInventory(ctx context.Context, scope shared.Scope, inventoryID int64) (BranchInventory, error) {
	if r == nil {
		return BranchInventory{}, errors.New("stock repository not initialised")
	}
	var inv BranchInventory
	err := r.pool.QueryRow(ctx, `SELECT bi.id, bi.company_id, bi.branch_id, bi.item_id, ci.name, bi.stock_quantity, bi.is_active, bi.updated_at
FROM branch_inventory bi
JOIN catalog_items ci ON ci.id = bi.item_id
WHERE bi.id=$1 AND bi.company_id=$2`, inventoryID, scope.CompanyID).
		Scan(&inv.ID, &inv.CompanyID, &inv.BranchID, &inv.ItemID, &inv.ItemName, &inv.StockQuantity, &inv.IsActive, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BranchInventory{}, ErrInventoryNotFound
		}
		return BranchInventory{}, err
	}
	return inv, nil
}

// ListMovements returns movement rows for one counter, oldest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if r == nil {
		return nil, errors.New("stock repository not initialised")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, inventory_id, quantity, previous_qty, new_qty, movement_type, COALESCE(reference_id::text, ''), COALESCE(actor_id, 0), note, occurred_at
FROM stock_movements
WHERE inventory_id=$1 AND occurred_at BETWEEN COALESCE($2, '-infinity') AND COALESCE($3, 'infinity')
ORDER BY occurred_at ASC, id ASC
LIMIT $4`, filter.InventoryID, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.InventoryID, &m.Quantity, &m.PreviousQty, &m.NewQty, &m.Type, &m.ReferenceID, &m.ActorID, &m.Note, &m.At); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
