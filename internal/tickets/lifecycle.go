package tickets

import (
	"context"
	"fmt"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// ChangeStatus moves the ticket through the state machine, writes the history
// entry, and dispatches whichever post-commit triggers the transition fires.
func (s *Service) ChangeStatus(ctx context.Context, scope shared.Scope, ticketID int64, req ChangeStatusRequest) (Ticket, error) {
	var updated Ticket
	var result TransitionResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		result, err = ApplyTransition(&t, req.Status, req.Reason, s.now())
		if err != nil {
			return err
		}
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		note := req.Note
		if note == "" && req.Reason != "" {
			note = req.Reason
		}
		if err := tx.InsertHistory(ctx, StatusHistory{
			TicketID: t.ID, Status: t.Status, ActorID: req.ChangedBy, Note: note, At: t.UpdatedAt,
		}); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}

	var effects []SideEffect
	technicianID := int64(0)
	if updated.TechnicianID != nil {
		technicianID = *updated.TechnicianID
	}
	if result.AwardCompletedPoints {
		effects = append(effects, SideEffect{Kind: EffectPointsCompleted, TicketID: updated.ID, ActorID: req.ChangedBy, TechnicianID: technicianID})
	}
	if result.AwardDeliveredPoints {
		effects = append(effects, SideEffect{Kind: EffectPointsDelivered, TicketID: updated.ID, ActorID: req.ChangedBy, TechnicianID: technicianID})
	}
	if result.CreateWarrantyRecord {
		effects = append(effects, SideEffect{Kind: EffectWarrantyRecord, TicketID: updated.ID, ActorID: req.ChangedBy})
	}
	s.dispatch(ctx, effects...)
	return updated, nil
}

// AssignTechnician sets or replaces the assigned technician. The first
// assignment on a PENDING ticket auto-transitions it to IN_PROGRESS; a
// reassignment writes a history entry at the current status without changing
// it. The technician is notified after commit.
func (s *Service) AssignTechnician(ctx context.Context, scope shared.Scope, ticketID int64, req AssignRequest) (Ticket, error) {
	var updated Ticket
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		now := s.now()
		firstAssignment := t.TechnicianID == nil
		t.TechnicianID = &req.TechnicianID

		note := fmt.Sprintf("technician %d assigned", req.TechnicianID)
		if firstAssignment && t.Status == StatusPending {
			if _, err := ApplyTransition(&t, StatusInProgress, "", now); err != nil {
				return err
			}
		} else if !firstAssignment {
			note = fmt.Sprintf("technician reassigned to %d", req.TechnicianID)
		}
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		if err := tx.InsertHistory(ctx, StatusHistory{
			TicketID: t.ID, Status: t.Status, ActorID: req.AssignedBy, Note: note, At: now,
		}); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}

	s.dispatch(ctx, SideEffect{Kind: EffectNotifyAssigned, TicketID: updated.ID, ActorID: req.AssignedBy, TechnicianID: req.TechnicianID})
	return updated, nil
}

// SetDeviceReturned marks the device handed back. The flag is one-way and only
// legal once the ticket is delivered, cancelled or not serviceable.
func (s *Service) SetDeviceReturned(ctx context.Context, scope shared.Scope, ticketID int64, req DeviceReturnRequest) (Ticket, error) {
	var updated Ticket
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		if t.DeviceReturnedAt != nil {
			return ErrDeviceAlreadyReturned
		}
		if !t.Status.AllowsDeviceReturn() {
			return ErrDeviceReturnTooEarly
		}
		now := s.now()
		t.DeviceReturnedAt = &now
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}
	return updated, nil
}

// AddNote appends staff commentary to the ticket.
func (s *Service) AddNote(ctx context.Context, scope shared.Scope, ticketID int64, req NoteRequest) (TicketNote, error) {
	var note TicketNote
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		note = TicketNote{TicketID: t.ID, AuthorID: req.AuthorID, Body: req.Body, CreatedAt: s.now()}
		id, err := tx.InsertNote(ctx, note)
		if err != nil {
			return err
		}
		note.ID = id
		return nil
	})
	if err != nil {
		return TicketNote{}, err
	}
	return note, nil
}

// AddPayments records one or more collected payments against the ticket.
func (s *Service) AddPayments(ctx context.Context, scope shared.Scope, ticketID int64, payments []PaymentRequest) ([]PaymentEntry, error) {
	if len(payments) == 0 {
		return nil, fmt.Errorf("at least one payment required: %w", shared.ErrValidation)
	}
	for _, p := range payments {
		if p.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("payment amount must be positive: %w", shared.ErrValidation)
		}
		if err := s.refs.PaymentMethodActive(ctx, scope, p.MethodID); err != nil {
			return nil, err
		}
	}

	var entries []PaymentEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		now := s.now()
		for _, p := range payments {
			entry := PaymentEntry{
				TicketID: t.ID, Amount: p.Amount, MethodID: p.MethodID,
				Reference: p.Reference, ReceivedBy: p.ReceivedBy, ReceivedAt: now,
			}
			id, err := tx.InsertPayment(ctx, entry)
			if err != nil {
				return err
			}
			entry.ID = id
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
