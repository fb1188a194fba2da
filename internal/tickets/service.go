package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

// Repository abstracts persistence for the ticket core.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetTicket(ctx context.Context, scope shared.Scope, id int64) (Ticket, error)
	ListDeviceTickets(ctx context.Context, scope shared.Scope, deviceID int64) ([]Ticket, error)
	ListTicketFaults(ctx context.Context, ticketID int64) ([]int64, error)
}

// TxRepository exposes the transactional operations the orchestrator composes.
// Stock adjustments route through the same ledger code path as the standalone
// stock service, so the movement log stays complete.
type TxRepository interface {
	GetTicketForUpdate(ctx context.Context, scope shared.Scope, id int64) (Ticket, error)
	InsertTicket(ctx context.Context, t Ticket) (int64, error)
	UpdateTicket(ctx context.Context, t Ticket) error
	DeleteTicket(ctx context.Context, id int64) error
	InsertHistory(ctx context.Context, h StatusHistory) error

	ListParts(ctx context.Context, ticketID int64) ([]PartUsage, error)
	GetPartForUpdate(ctx context.Context, partID int64) (PartUsage, error)
	FindMergeablePart(ctx context.Context, ticketID int64, ref PartRef, isExtraSpare bool, faultTag *int64) (*PartUsage, error)
	InsertPart(ctx context.Context, p PartUsage) (int64, error)
	UpdatePart(ctx context.Context, p PartUsage) error
	DeletePart(ctx context.Context, id int64) error

	GetInventory(ctx context.Context, inventoryID int64) (stock.BranchInventory, error)
	AdjustStock(ctx context.Context, adj stock.Adjustment) (stock.Movement, error)
	LegacyPartName(ctx context.Context, legacyPartID int64) (string, error)

	InsertPayment(ctx context.Context, p PaymentEntry) (int64, error)
	ListPayments(ctx context.Context, ticketID int64) ([]PaymentEntry, error)
	InsertNote(ctx context.Context, n TicketNote) (int64, error)

	LinkFaults(ctx context.Context, ticketID int64, faultIDs []int64) error
	LinkAccessories(ctx context.Context, ticketID int64, accessories []string) error
	LinkConditions(ctx context.Context, ticketID int64, conditions []string) error
	ListImageKeys(ctx context.Context, ticketID int64) ([]string, error)
}

// ErrDuplicateTicketNumber is returned by InsertTicket when the generated
// number collides; the orchestrator retries with a random suffix.
var ErrDuplicateTicketNumber = errors.New("ticket number already exists")

// ReferenceChecker validates referenced entities at intake time.
type ReferenceChecker interface {
	CustomerActive(ctx context.Context, scope shared.Scope, id int64) error
	DeviceActive(ctx context.Context, scope shared.Scope, id int64) error
	BranchActive(ctx context.Context, companyID, branchID int64) error
	FaultPrices(ctx context.Context, scope shared.Scope, ids []int64) (map[int64]decimal.Decimal, error)
	PaymentMethodActive(ctx context.Context, scope shared.Scope, id int64) error
}

// NumberGenerator issues document numbers; collisions are tolerated via the
// random-suffix fallback on insert.
type NumberGenerator interface {
	Generate(ctx context.Context, companyID int64, docType string, branchID int64) (string, error)
}

// DocTypeServiceTicket is the document type this module numbers.
const DocTypeServiceTicket = "SERVICE_TICKET"

// Service orchestrates the ticket lifecycle.
type Service struct {
	repo          Repository
	refs          ReferenceChecker
	numbers       NumberGenerator
	dispatcher    EffectDispatcher
	audit         shared.AuditRecorder
	logger        *slog.Logger
	createTimeout time.Duration
	now           func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// CreateTimeout bounds the intake transaction, which performs the most
	// validation steps. Zero means the caller's deadline applies unchanged.
	CreateTimeout time.Duration
}

// NewService builds Service.
func NewService(repo Repository, refs ReferenceChecker, numbers NumberGenerator, dispatcher EffectDispatcher, audit shared.AuditRecorder, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:          repo,
		refs:          refs,
		numbers:       numbers,
		dispatcher:    dispatcher,
		audit:         audit,
		logger:        logger,
		createTimeout: cfg.CreateTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Get loads one ticket with its parts and history.
func (s *Service) Get(ctx context.Context, scope shared.Scope, id int64) (Ticket, error) {
	if id <= 0 {
		return Ticket{}, ErrTicketNotFound
	}
	return s.repo.GetTicket(ctx, scope, id)
}

// CreateTicket validates referenced entities, generates the ticket number,
// detects repeat service, and persists the ticket with its fault, accessory
// and condition links plus any initial payments in one transaction. Job-sheet
// rendering is dispatched after commit.
func (s *Service) CreateTicket(ctx context.Context, scope shared.Scope, req CreateTicketRequest) (CreateTicketResponse, error) {
	if !scope.Valid() {
		return CreateTicketResponse{}, fmt.Errorf("company scope required: %w", shared.ErrValidation)
	}
	if scope.BranchID == 0 {
		scope.BranchID = req.BranchID
	}
	if scope.BranchID != req.BranchID {
		return CreateTicketResponse{}, fmt.Errorf("branch scope mismatch: %w", shared.ErrValidation)
	}

	if err := s.refs.BranchActive(ctx, scope.CompanyID, req.BranchID); err != nil {
		return CreateTicketResponse{}, err
	}
	if err := s.refs.CustomerActive(ctx, scope, req.CustomerID); err != nil {
		return CreateTicketResponse{}, err
	}
	if err := s.refs.DeviceActive(ctx, scope, req.DeviceID); err != nil {
		return CreateTicketResponse{}, err
	}
	faultPrices, err := s.refs.FaultPrices(ctx, scope, req.FaultIDs)
	if err != nil {
		return CreateTicketResponse{}, err
	}
	for _, p := range req.Payments {
		if p.Amount.Sign() <= 0 {
			return CreateTicketResponse{}, fmt.Errorf("payment amount must be positive: %w", shared.ErrValidation)
		}
		if err := s.refs.PaymentMethodActive(ctx, scope, p.MethodID); err != nil {
			return CreateTicketResponse{}, err
		}
	}
	if req.AdvancePayment.Sign() < 0 {
		return CreateTicketResponse{}, fmt.Errorf("advance payment must not be negative: %w", shared.ErrValidation)
	}

	estimated := decimal.Zero
	for _, id := range req.FaultIDs {
		estimated = estimated.Add(faultPrices[id])
	}

	previous, err := s.CheckPreviousServices(ctx, scope, CheckServicesRequest{DeviceID: req.DeviceID, FaultIDs: req.FaultIDs})
	if err != nil {
		return CreateTicketResponse{}, err
	}

	number, err := s.numbers.Generate(ctx, scope.CompanyID, DocTypeServiceTicket, req.BranchID)
	if err != nil {
		return CreateTicketResponse{}, fmt.Errorf("generate ticket number: %w", err)
	}

	now := s.now()
	ticket := Ticket{
		TicketNumber:      number,
		CompanyID:         scope.CompanyID,
		BranchID:          req.BranchID,
		CustomerID:        req.CustomerID,
		DeviceID:          req.DeviceID,
		Status:            StatusPending,
		Problem:           req.Problem,
		IsWarrantyRepair:  req.IsWarrantyRepair,
		PreviousServiceID: previous.PreviousServiceID,
		EstimatedCost:     estimated,
		ActualCost:        decimal.Zero,
		LabourCharge:      decimal.Zero,
		Discount:          decimal.Zero,
		AdvancePayment:    req.AdvancePayment,
		CreatedBy:         req.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	txCtx := ctx
	if s.createTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.createTimeout)
		defer cancel()
	}

	// One retry with a random suffix absorbs a sequence collision. This is
	// best-effort de-duplication, not a strict guarantee.
	for attempt := 0; ; attempt++ {
		err = s.repo.WithTx(txCtx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.InsertTicket(ctx, ticket)
			if err != nil {
				return err
			}
			ticket.ID = id
			if err := tx.LinkFaults(ctx, id, req.FaultIDs); err != nil {
				return err
			}
			if err := tx.LinkAccessories(ctx, id, req.Accessories); err != nil {
				return err
			}
			if err := tx.LinkConditions(ctx, id, req.DamageConditions); err != nil {
				return err
			}
			if err := tx.InsertHistory(ctx, StatusHistory{
				TicketID: id, Status: StatusPending, ActorID: req.CreatedBy,
				Note: "ticket created", At: now,
			}); err != nil {
				return err
			}
			for _, p := range req.Payments {
				if _, err := tx.InsertPayment(ctx, PaymentEntry{
					TicketID: id, Amount: p.Amount, MethodID: p.MethodID,
					Reference: p.Reference, ReceivedBy: p.ReceivedBy, ReceivedAt: now,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, ErrDuplicateTicketNumber) && attempt == 0 {
			ticket.TicketNumber = fmt.Sprintf("%s-%s", number, strings.ToUpper(uuid.NewString()[:4]))
			continue
		}
		return CreateTicketResponse{}, err
	}

	s.dispatch(ctx, SideEffect{Kind: EffectJobSheet, TicketID: ticket.ID, ActorID: req.CreatedBy})

	return CreateTicketResponse{Ticket: ticket, Previous: previous}, nil
}

// UpdateTicket applies diagnosis and charge updates. A labour change
// recomputes the billable total through the cost engine.
func (s *Service) UpdateTicket(ctx context.Context, scope shared.Scope, ticketID int64, req UpdateTicketRequest) (Ticket, error) {
	var updated Ticket
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		if req.Diagnosis != nil {
			t.Diagnosis = req.Diagnosis
		}
		if req.EstimatedCost != nil {
			if req.EstimatedCost.Sign() < 0 {
				return ErrNegativePrice
			}
			t.EstimatedCost = *req.EstimatedCost
		}
		if req.Discount != nil {
			if req.Discount.Sign() < 0 {
				return ErrNegativePrice
			}
			t.Discount = *req.Discount
		}
		if req.LabourCharge != nil {
			if req.LabourCharge.Sign() < 0 {
				return ErrNegativePrice
			}
			t.LabourCharge = *req.LabourCharge
			parts, err := tx.ListParts(ctx, t.ID)
			if err != nil {
				return err
			}
			t.ActualCost = RecalculateActualCost(parts, t.LabourCharge)
		}
		t.UpdatedAt = s.now()
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

// AddFault links one more diagnosed fault and raises the estimate by the
// fault's catalog price.
func (s *Service) AddFault(ctx context.Context, scope shared.Scope, ticketID int64, req AddFaultRequest) (Ticket, error) {
	prices, err := s.refs.FaultPrices(ctx, scope, []int64{req.FaultID})
	if err != nil {
		return Ticket{}, err
	}
	var updated Ticket
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		if err := tx.LinkFaults(ctx, t.ID, []int64{req.FaultID}); err != nil {
			return err
		}
		t.EstimatedCost = t.EstimatedCost.Add(prices[req.FaultID])
		t.UpdatedAt = s.now()
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

// DeleteTicket removes a ticket that has not reached COMPLETED/DELIVERED,
// restoring stock for every approved part and scheduling image cleanup.
func (s *Service) DeleteTicket(ctx context.Context, scope shared.Scope, ticketID int64, actorID int64) error {
	var imageKeys []string
	var ticketNumber string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		if !t.Status.CanDelete() {
			return ErrDeleteLocked
		}
		ticketNumber = t.TicketNumber

		parts, err := tx.ListParts(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, p := range parts {
			if !p.IsApproved || !p.Ref.HasStock() {
				continue
			}
			if _, err := tx.AdjustStock(ctx, stock.Adjustment{
				InventoryID: p.Ref.InventoryID,
				Delta:       p.Quantity,
				Type:        stock.MovementRestore,
				ReferenceID: partReference(p.ID),
				ActorID:     actorID,
				Note:        fmt.Sprintf("ticket %s deleted", t.TicketNumber),
			}); err != nil {
				return err
			}
		}

		imageKeys, err = tx.ListImageKeys(ctx, t.ID)
		if err != nil {
			return err
		}
		return tx.DeleteTicket(ctx, t.ID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: actorID, Action: "ticket:delete", Entity: "ticket",
		EntityID: fmt.Sprintf("%d", ticketID),
		Meta:     map[string]any{"ticket_number": ticketNumber, "images": len(imageKeys)},
	})
	if len(imageKeys) > 0 {
		s.dispatch(ctx, SideEffect{Kind: EffectImageCleanup, TicketID: ticketID, ActorID: actorID, ImageKeys: imageKeys})
	}
	return nil
}

// CheckPreviousServices reports whether the device had a non-cancelled ticket
// within the trailing repeat window, and which reported faults overlap with
// the most recent prior ticket.
func (s *Service) CheckPreviousServices(ctx context.Context, scope shared.Scope, req CheckServicesRequest) (PreviousServiceReport, error) {
	history, err := s.repo.ListDeviceTickets(ctx, scope, req.DeviceID)
	if err != nil {
		return PreviousServiceReport{}, err
	}

	var report PreviousServiceReport
	now := s.now()
	for _, t := range history {
		if t.Status == StatusCancelled {
			continue
		}
		age := now.Sub(t.CreatedAt)
		id := t.ID
		report.PreviousServiceID = &id
		if age <= RepeatWindow {
			report.IsRepeated = true
			report.DaysSinceLastService = int(age.Hours() / 24)
		}
		if len(req.FaultIDs) > 0 {
			prior, err := s.repo.ListTicketFaults(ctx, t.ID)
			if err != nil {
				return PreviousServiceReport{}, err
			}
			report.OverlappingFaults = intersect(req.FaultIDs, prior)
		}
		break // history is ordered most recent first
	}
	return report, nil
}

// CheckActiveServices reports prior tickets for the device not yet delivered
// or cancelled, so staff can avoid opening an overlapping ticket.
func (s *Service) CheckActiveServices(ctx context.Context, scope shared.Scope, req CheckServicesRequest) (ActiveServiceReport, error) {
	history, err := s.repo.ListDeviceTickets(ctx, scope, req.DeviceID)
	if err != nil {
		return ActiveServiceReport{}, err
	}
	var report ActiveServiceReport
	for _, t := range history {
		if t.Status.Open() {
			report.HasActive = true
			report.Tickets = append(report.Tickets, t)
		}
	}
	return report, nil
}

// ProcessRefund cancels the ticket and stamps refund metadata. It fails when
// the ticket is already cancelled or refunded, and requires that something was
// actually paid.
func (s *Service) ProcessRefund(ctx context.Context, scope shared.Scope, ticketID int64, req RefundRequest) (Ticket, error) {
	var updated Ticket
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTicketForUpdate(ctx, scope, ticketID)
		if err != nil {
			return err
		}
		if t.Status == StatusCancelled || t.Refunded() {
			return ErrAlreadyRefunded
		}

		payments, err := tx.ListPayments(ctx, t.ID)
		if err != nil {
			return err
		}
		paid := TotalPaid(payments, t.AdvancePayment)
		if paid.Sign() <= 0 {
			return ErrRefundNotDue
		}
		amount := req.Amount
		if amount.IsZero() {
			amount = paid
		}
		if amount.Sign() <= 0 || amount.GreaterThan(paid) {
			return fmt.Errorf("refund amount %s exceeds total paid %s: %w", amount, paid, shared.ErrValidation)
		}

		now := s.now()
		t.Status = StatusCancelled
		t.RefundAmount = &amount
		t.RefundReason = &req.Reason
		t.RefundMethod = &req.Method
		t.RefundedAt = &now
		t.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, t); err != nil {
			return err
		}
		if err := tx.InsertHistory(ctx, StatusHistory{
			TicketID: t.ID, Status: StatusCancelled, ActorID: req.ProcessedBy,
			Note: fmt.Sprintf("refunded %s via %s: %s", amount, req.Method, req.Reason), At: now,
		}); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}

	s.recordAudit(ctx, shared.AuditEntry{
		ActorID: req.ProcessedBy, Action: "ticket:refund", Entity: "ticket",
		EntityID: fmt.Sprintf("%d", ticketID),
		Meta:     map[string]any{"amount": updated.RefundAmount.String(), "method": req.Method, "reason": req.Reason},
	})
	return updated, nil
}

func (s *Service) dispatch(ctx context.Context, effects ...SideEffect) {
	if s.dispatcher == nil || len(effects) == 0 {
		return
	}
	s.dispatcher.Dispatch(ctx, effects)
}

func (s *Service) recordAudit(ctx context.Context, entry shared.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.String("action", entry.Action), slog.Any("error", err))
	}
}

func partReference(partID int64) string {
	return fmt.Sprintf("part:%d", partID)
}

func intersect(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(b))
	for _, id := range b {
		seen[id] = struct{}{}
	}
	var out []int64
	for _, id := range a {
		if _, ok := seen[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
