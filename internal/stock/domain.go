package stock

import (
	"fmt"
	"time"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// MovementType is the reason code recorded with every quantity change.
type MovementType string

const (
	// MovementConsume deducts stock when an approved part is consumed.
	MovementConsume MovementType = "CONSUME"
	// MovementRestore returns stock when a part is removed or a ticket deleted.
	MovementRestore MovementType = "RESTORE"
	// MovementReceive records replenishment from purchasing.
	MovementReceive MovementType = "RECEIVE"
	// MovementAdjust records manual stock corrections.
	MovementAdjust MovementType = "ADJUST"
)

// IsValid reports whether the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementConsume, MovementRestore, MovementReceive, MovementAdjust:
		return true
	default:
		return false
	}
}

// BranchInventory is the per-(branch, item) quantity counter. StockQuantity is
// the single mutable quantity; it changes only through Adjust.
type BranchInventory struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	BranchID      int64     `json:"branch_id"`
	ItemID        int64     `json:"item_id"`
	ItemName      string    `json:"item_name"`
	StockQuantity int64     `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Movement is one append-only audit record of a quantity change. Rows are
// never edited after insert.
type Movement struct {
	ID          int64        `json:"id"`
	InventoryID int64        `json:"inventory_id"`
	Quantity    int64        `json:"quantity"`
	PreviousQty int64        `json:"previous_qty"`
	NewQty      int64        `json:"new_qty"`
	Type        MovementType `json:"type"`
	ReferenceID string       `json:"reference_id,omitempty"`
	ActorID     int64        `json:"actor_id"`
	Note        string       `json:"note,omitempty"`
	At          time.Time    `json:"at"`
}

// Adjustment describes one requested quantity change. Delta is signed: a
// negative delta is a deduction and must not take the counter below zero.
type Adjustment struct {
	InventoryID int64
	Delta       int64
	Type        MovementType
	ReferenceID string
	ActorID     int64
	Note        string
}

// MovementFilter narrows movement-log reads.
type MovementFilter struct {
	InventoryID int64
	From        time.Time
	To          time.Time
	Limit       int
}

// Domain errors wrap the shared taxonomy so callers classify with errors.Is.
var (
	// ErrInventoryNotFound indicates the counter row is absent or out of scope.
	ErrInventoryNotFound = fmt.Errorf("branch inventory: %w", shared.ErrNotFound)
	// ErrInsufficient indicates a deduction would take the counter negative.
	ErrInsufficient = fmt.Errorf("stock would go negative: %w", shared.ErrInsufficientStock)
	// ErrZeroDelta indicates a no-op adjustment.
	ErrZeroDelta = fmt.Errorf("adjustment delta must be non-zero: %w", shared.ErrValidation)
	// ErrInvalidMovementType indicates an unknown reason code.
	ErrInvalidMovementType = fmt.Errorf("unknown movement type: %w", shared.ErrValidation)
)
