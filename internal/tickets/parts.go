package tickets

import (
	"context"
	"fmt"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

// AddPart attaches a part to the ticket. The inventory row must belong to the
// ticket's branch and be active, and current stock must cover the quantity.
// For extra-spare parts this is a reservation-intent check only, stock is not
// deducted until approval. Tagged parts are auto-approved and deduct
// immediately. An unapproved row for the same (inventory, extra-spare flag,
// fault tag) is merged by summing quantities instead of duplicated.
func (s *Service) AddPart(ctx context.Context, scope shared.Scope, ticketID int64, req AddPartRequest) (PartUsage, error) {
	if req.Quantity <= 0 {
		return PartUsage{}, ErrInvalidQuantity
	}
	if req.UnitPrice.Sign() < 0 {
		return PartUsage{}, ErrNegativePrice
	}

	var result PartUsage
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		inv, err := tx.GetInventory(ctx, req.InventoryID)
		if err != nil {
			return err
		}
		if inv.BranchID != t.BranchID {
			return ErrBranchMismatch
		}
		if !inv.IsActive {
			return ErrInventoryDormant
		}
		if inv.StockQuantity < req.Quantity {
			return availabilityError(inv, req.Quantity)
		}

		ref := PartRef{Source: PartSourceInventory, InventoryID: req.InventoryID}
		now := s.now()

		if existing, err := tx.FindMergeablePart(ctx, t.ID, ref, req.IsExtraSpare, req.FaultTag); err != nil {
			return err
		} else if existing != nil {
			existing.Quantity += req.Quantity
			existing.TotalPrice = LineTotal(existing.Quantity, existing.UnitPrice)
			existing.UpdatedAt = now
			if inv.StockQuantity < existing.Quantity {
				return availabilityError(inv, existing.Quantity)
			}
			if err := tx.UpdatePart(ctx, *existing); err != nil {
				return err
			}
			result = *existing
			return nil
		}

		part := PartUsage{
			TicketID:     t.ID,
			Ref:          ref,
			ItemName:     inv.ItemName,
			Quantity:     req.Quantity,
			UnitPrice:    req.UnitPrice,
			TotalPrice:   LineTotal(req.Quantity, req.UnitPrice),
			IsExtraSpare: req.IsExtraSpare,
			FaultTag:     req.FaultTag,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if !req.IsExtraSpare {
			method := ApprovalTagged
			part.IsApproved = true
			part.ApprovalMethod = &method
			part.ApprovedBy = &req.AddedBy
			part.ApprovedAt = &now
		}

		id, err := tx.InsertPart(ctx, part)
		if err != nil {
			return err
		}
		part.ID = id

		if part.IsApproved {
			if _, err := tx.AdjustStock(ctx, stock.Adjustment{
				InventoryID: req.InventoryID,
				Delta:       -req.Quantity,
				Type:        stock.MovementConsume,
				ReferenceID: partReference(id),
				ActorID:     req.AddedBy,
				Note:        fmt.Sprintf("tagged part on ticket %s", t.TicketNumber),
			}); err != nil {
				return err
			}
			if err := s.refreshCost(ctx, tx, &t); err != nil {
				return err
			}
		}

		result = part
		return nil
	})
	if err != nil {
		return PartUsage{}, err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: req.AddedBy, Action: "part:add", Entity: "part_usage",
		EntityID: fmt.Sprintf("%d", result.ID),
		Meta: map[string]any{
			"ticket_id": ticketID, "item": result.ItemName, "quantity": result.Quantity,
			"extra_spare": result.IsExtraSpare, "approved": result.IsApproved,
		},
	})
	return result, nil
}

// ApprovePart approves an extra-spare part: re-checks current availability
// (stock may have been consumed by other tickets since the part was added),
// deducts stock, stamps approval metadata and adds the line into the billable
// cost. Approval is one-way.
func (s *Service) ApprovePart(ctx context.Context, scope shared.Scope, partID int64, req ApprovePartRequest) (PartUsage, error) {
	if req.Method == ApprovalWarranty || req.Method == ApprovalTagged {
		return PartUsage{}, fmt.Errorf("approval method %s not allowed here: %w", req.Method, shared.ErrValidation)
	}
	return s.approve(ctx, scope, partID, req.Method, req.Note, req.ApprovedBy, false)
}

// ApprovePartForWarranty approves a part on a warranty-repair ticket: stock is
// consumed exactly as in ApprovePart but the amount is never billed.
func (s *Service) ApprovePartForWarranty(ctx context.Context, scope shared.Scope, partID int64, req ApproveWarrantyRequest) (PartUsage, error) {
	return s.approve(ctx, scope, partID, ApprovalWarranty, req.Note, req.ApprovedBy, true)
}

func (s *Service) approve(ctx context.Context, scope shared.Scope, partID int64, method ApprovalMethod, note string, actorID int64, warranty bool) (PartUsage, error) {
	var result PartUsage
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		t, err := tx.GetTicketForUpdate(ctx, scope, part.TicketID)
		if err != nil {
			return err
		}
		if part.IsApproved {
			return ErrAlreadyApproved
		}
		if !part.Ref.HasStock() {
			return ErrLegacyPartNoStock
		}
		if warranty && !t.IsWarrantyRepair {
			return ErrNotWarrantyRepair
		}

		// Mandatory re-check: the add-time availability check is advisory and
		// other tickets may have consumed the stock since.
		inv, err := tx.GetInventory(ctx, part.Ref.InventoryID)
		if err != nil {
			return err
		}
		if inv.StockQuantity < part.Quantity {
			return availabilityError(inv, part.Quantity)
		}
		if _, err := tx.AdjustStock(ctx, stock.Adjustment{
			InventoryID: part.Ref.InventoryID,
			Delta:       -part.Quantity,
			Type:        stock.MovementConsume,
			ReferenceID: partReference(part.ID),
			ActorID:     actorID,
			Note:        fmt.Sprintf("approved (%s) on ticket %s", method, t.TicketNumber),
		}); err != nil {
			return err
		}

		now := s.now()
		part.IsApproved = true
		part.ApprovalMethod = &method
		part.ApprovedBy = &actorID
		part.ApprovedAt = &now
		if note != "" {
			part.ApprovalNote = &note
		}
		part.UpdatedAt = now
		if err := tx.UpdatePart(ctx, part); err != nil {
			return err
		}
		if err := s.refreshCost(ctx, tx, &t); err != nil {
			return err
		}
		result = part
		return nil
	})
	if err != nil {
		return PartUsage{}, err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: actorID, Action: "part:approve", Entity: "part_usage",
		EntityID: fmt.Sprintf("%d", partID),
		Meta: map[string]any{
			"method": string(method), "quantity": result.Quantity,
			"total_price": result.TotalPrice.String(), "warranty": warranty,
		},
	})
	return result, nil
}

// UpdatePart changes quantity and/or unit price. For an approved part a
// quantity change applies the stock delta through the ledger and the billable
// cost follows; for an unapproved part only the availability of the new
// quantity is checked.
func (s *Service) UpdatePart(ctx context.Context, scope shared.Scope, partID int64, req UpdatePartRequest) (PartUsage, error) {
	if req.Quantity == nil && req.UnitPrice == nil {
		return PartUsage{}, fmt.Errorf("nothing to update: %w", shared.ErrValidation)
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return PartUsage{}, ErrInvalidQuantity
	}
	if req.UnitPrice != nil && req.UnitPrice.Sign() < 0 {
		return PartUsage{}, ErrNegativePrice
	}

	var result PartUsage
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		t, err := tx.GetTicketForUpdate(ctx, scope, part.TicketID)
		if err != nil {
			return err
		}

		oldQty := part.Quantity
		if req.Quantity != nil {
			part.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			part.UnitPrice = *req.UnitPrice
		}
		part.TotalPrice = LineTotal(part.Quantity, part.UnitPrice)

		if part.Ref.HasStock() && part.Quantity != oldQty {
			delta := part.Quantity - oldQty
			if part.IsApproved {
				if delta > 0 {
					inv, err := tx.GetInventory(ctx, part.Ref.InventoryID)
					if err != nil {
						return err
					}
					if inv.StockQuantity < delta {
						return availabilityError(inv, delta)
					}
				}
				if _, err := tx.AdjustStock(ctx, stock.Adjustment{
					InventoryID: part.Ref.InventoryID,
					Delta:       -delta,
					Type:        movementFor(delta),
					ReferenceID: partReference(part.ID),
					ActorID:     req.UpdatedBy,
					Note:        fmt.Sprintf("quantity %d -> %d on ticket %s", oldQty, part.Quantity, t.TicketNumber),
				}); err != nil {
					return err
				}
			} else {
				inv, err := tx.GetInventory(ctx, part.Ref.InventoryID)
				if err != nil {
					return err
				}
				if inv.StockQuantity < part.Quantity {
					return availabilityError(inv, part.Quantity)
				}
			}
		}

		part.UpdatedAt = s.now()
		if err := tx.UpdatePart(ctx, part); err != nil {
			return err
		}
		if part.IsApproved {
			if err := s.refreshCost(ctx, tx, &t); err != nil {
				return err
			}
		}
		result = part
		return nil
	})
	if err != nil {
		return PartUsage{}, err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: req.UpdatedBy, Action: "part:update", Entity: "part_usage",
		EntityID: fmt.Sprintf("%d", partID),
		Meta: map[string]any{
			"quantity": result.Quantity, "unit_price": result.UnitPrice.String(),
			"approved": result.IsApproved,
		},
	})
	return result, nil
}

// RemovePart deletes a part row. An approved part restores its full quantity
// to stock and leaves the billable cost; an unapproved one has no stock or
// cost effect. The audit entry records prior approval state, quantities and
// the resolved item name regardless of which reference the row carries.
func (s *Service) RemovePart(ctx context.Context, scope shared.Scope, partID int64, actorID int64) error {
	var removed PartUsage
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		part, err := tx.GetPartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		t, err := tx.GetTicketForUpdate(ctx, scope, part.TicketID)
		if err != nil {
			return err
		}

		if part.ItemName == "" && part.Ref.Source == PartSourceLegacy {
			if name, err := tx.LegacyPartName(ctx, part.Ref.LegacyPartID); err == nil {
				part.ItemName = name
			}
		}

		if part.IsApproved && part.Ref.HasStock() {
			if _, err := tx.AdjustStock(ctx, stock.Adjustment{
				InventoryID: part.Ref.InventoryID,
				Delta:       part.Quantity,
				Type:        stock.MovementRestore,
				ReferenceID: partReference(part.ID),
				ActorID:     actorID,
				Note:        fmt.Sprintf("part removed from ticket %s", t.TicketNumber),
			}); err != nil {
				return err
			}
		}
		if err := tx.DeletePart(ctx, part.ID); err != nil {
			return err
		}
		if part.IsApproved {
			if err := s.refreshCost(ctx, tx, &t); err != nil {
				return err
			}
		}
		removed = part
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: actorID, Action: "part:remove", Entity: "part_usage",
		EntityID: fmt.Sprintf("%d", partID),
		Meta: map[string]any{
			"item": removed.ItemName, "quantity": removed.Quantity,
			"was_approved": removed.IsApproved, "total_price": removed.TotalPrice.String(),
		},
	})
	return nil
}

// refreshCost recomputes the billable total from the current sub-ledger and
// persists it. Called inside the same transaction as the mutation.
func (s *Service) refreshCost(ctx context.Context, tx TxRepository, t *Ticket) error {
	parts, err := tx.ListParts(ctx, t.ID)
	if err != nil {
		return err
	}
	t.ActualCost = RecalculateActualCost(parts, t.LabourCharge)
	t.UpdatedAt = s.now()
	return tx.UpdateTicket(ctx, *t)
}

func availabilityError(inv stock.BranchInventory, requested int64) error {
	return fmt.Errorf("%s: requested %d, available %d: %w", inv.ItemName, requested, inv.StockQuantity, shared.ErrInsufficientStock)
}

func movementFor(delta int64) stock.MovementType {
	if delta > 0 {
		return stock.MovementConsume
	}
	return stock.MovementRestore
}
