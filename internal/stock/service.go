package stock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInventory(ctx context.Context, scope shared.Scope, inventoryID int64) (BranchInventory, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// TxRepository exposes the transactional ledger operation.
type TxRepository interface {
	Adjust(ctx context.Context, adj Adjustment) (Movement, error)
}

// Service coordinates direct stock operations: replenishment and manual
// corrections. Ticket-driven consumption goes through the tickets package,
// which shares the same ledger code path.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// AdjustInput describes a direct stock adjustment request.
type AdjustInput struct {
	InventoryID int64
	Delta       int64
	Type        MovementType
	Note        string
	ActorID     int64
	ReferenceID string
}

// Adjust applies one quantity change and its paired movement record. Deductions
// that would take the counter negative fail with ErrInsufficient.
func (s *Service) Adjust(ctx context.Context, scope shared.Scope, input AdjustInput) (Movement, error) {
	if !scope.Valid() {
		return Movement{}, fmt.Errorf("company scope required: %w", shared.ErrValidation)
	}
	if input.InventoryID <= 0 {
		return Movement{}, ErrInventoryNotFound
	}
	if input.Delta == 0 {
		return Movement{}, ErrZeroDelta
	}
	if !input.Type.IsValid() {
		return Movement{}, ErrInvalidMovementType
	}

	inv, err := s.repo.GetInventory(ctx, scope, input.InventoryID)
	if err != nil {
		return Movement{}, err
	}

	var movement Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		movement, err = tx.Adjust(ctx, Adjustment{
			InventoryID: input.InventoryID,
			Delta:       input.Delta,
			Type:        input.Type,
			ReferenceID: input.ReferenceID,
			ActorID:     input.ActorID,
			Note:        input.Note,
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditEntry{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("stock:%s", input.Type),
			Entity:   "branch_inventory",
			EntityID: fmt.Sprintf("%d", input.InventoryID),
			Meta: map[string]any{
				"item":         inv.ItemName,
				"branch_id":    inv.BranchID,
				"delta":        input.Delta,
				"previous_qty": movement.PreviousQty,
				"new_qty":      movement.NewQty,
				"note":         input.Note,
			},
		}); err != nil && s.logger != nil {
			s.logger.Warn("stock audit record", slog.Any("error", err))
		}
	}
	return movement, nil
}

// GetInventory returns one counter row within scope.
func (s *Service) GetInventory(ctx context.Context, scope shared.Scope, inventoryID int64) (BranchInventory, error) {
	if inventoryID <= 0 {
		return BranchInventory{}, ErrInventoryNotFound
	}
	return s.repo.GetInventory(ctx, scope, inventoryID)
}

// ListMovements returns the movement log for one counter, oldest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.InventoryID <= 0 {
		return nil, ErrInventoryNotFound
	}
	return s.repo.ListMovements(ctx, filter)
}
