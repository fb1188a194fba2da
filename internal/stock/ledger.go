package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Apply executes one adjustment against the counter and writes the paired
// movement row on the given transaction. Every stock change in the system,
// whether from the standalone stock service or the ticket parts ledger, routes
// through this function so the movement log stays complete.
//
// The row is locked before the delta is applied; the negative-quantity check
// therefore holds even when two transactions passed an earlier advisory
// availability check concurrently.
func Apply(ctx context.Context, tx pgx.Tx, adj Adjustment) (Movement, error) {
	if adj.Delta == 0 {
		return Movement{}, ErrZeroDelta
	}
	if !adj.Type.IsValid() {
		return Movement{}, ErrInvalidMovementType
	}

	var current int64
	err := tx.QueryRow(ctx,
		`SELECT stock_quantity FROM branch_inventory WHERE id=$1 FOR UPDATE`,
		adj.InventoryID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrInventoryNotFound
		}
		return Movement{}, err
	}

	newQty := current + adj.Delta
	if newQty < 0 {
		return Movement{}, ErrInsufficient
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE branch_inventory SET stock_quantity=$1, updated_at=$2 WHERE id=$3`,
		newQty, now, adj.InventoryID); err != nil {
		return Movement{}, err
	}

	movement := Movement{
		InventoryID: adj.InventoryID,
		Quantity:    adj.Delta,
		PreviousQty: current,
		NewQty:      newQty,
		Type:        adj.Type,
		ReferenceID: adj.ReferenceID,
		ActorID:     adj.ActorID,
		Note:        adj.Note,
		At:          now,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO stock_movements (inventory_id, quantity, previous_qty, new_qty, movement_type, reference_id, actor_id, note, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		movement.InventoryID, movement.Quantity, movement.PreviousQty, movement.NewQty,
		string(movement.Type), nullString(movement.ReferenceID), nullInt(movement.ActorID),
		movement.Note, movement.At).Scan(&movement.ID)
	if err != nil {
		return Movement{}, err
	}
	return movement, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
