// Package tickets implements the service-ticket core: the status lifecycle,
// the parts sub-ledger and its stock interaction, cost recalculation, and the
// create/update/delete orchestration around them.
package tickets

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusWaitingParts   Status = "WAITING_PARTS"
	StatusCompleted      Status = "COMPLETED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusNotServiceable Status = "NOT_SERVICEABLE"
)

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusWaitingParts, StatusCompleted,
		StatusDelivered, StatusCancelled, StatusNotServiceable:
		return true
	default:
		return false
	}
}

// CanDelete reports whether a ticket in this status may be deleted.
func (s Status) CanDelete() bool {
	return s != StatusCompleted && s != StatusDelivered
}

// AllowsDeviceReturn reports whether the device-returned flag may be set.
func (s Status) AllowsDeviceReturn() bool {
	return s == StatusDelivered || s == StatusNotServiceable || s == StatusCancelled
}

// Open reports whether the ticket still counts as an active service for the
// device (not yet delivered or cancelled).
func (s Status) Open() bool {
	return s != StatusDelivered && s != StatusCancelled
}

// Ticket is a single device-repair job.
type Ticket struct {
	ID                int64   `json:"id"`
	TicketNumber      string  `json:"ticket_number"`
	CompanyID         int64   `json:"company_id"`
	BranchID          int64   `json:"branch_id"`
	CustomerID        int64   `json:"customer_id"`
	DeviceID          int64   `json:"device_id"`
	TechnicianID      *int64  `json:"technician_id,omitempty"`
	Status            Status  `json:"status"`
	Problem           string  `json:"problem"`
	Diagnosis         *string `json:"diagnosis,omitempty"`
	IsWarrantyRepair  bool    `json:"is_warranty_repair"`
	PreviousServiceID *int64  `json:"previous_service_id,omitempty"`

	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	ActualCost     decimal.Decimal `json:"actual_cost"`
	LabourCharge   decimal.Decimal `json:"labour_charge"`
	Discount       decimal.Decimal `json:"discount"`
	AdvancePayment decimal.Decimal `json:"advance_payment"`

	NotServiceableReason *string    `json:"not_serviceable_reason,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	DeliveredAt          *time.Time `json:"delivered_at,omitempty"`
	DeviceReturnedAt     *time.Time `json:"device_returned_at,omitempty"`

	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundReason *string          `json:"refund_reason,omitempty"`
	RefundMethod *string          `json:"refund_method,omitempty"`
	RefundedAt   *time.Time       `json:"refunded_at,omitempty"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Parts   []PartUsage     `json:"parts,omitempty"`
	History []StatusHistory `json:"history,omitempty"`
}

// Refunded reports whether refund metadata has been stamped.
func (t Ticket) Refunded() bool {
	return t.RefundedAt != nil
}

// PartSource distinguishes the two records a part row can reference.
type PartSource string

const (
	// PartSourceInventory references a branch_inventory counter row.
	PartSourceInventory PartSource = "INVENTORY"
	// PartSourceLegacy references an old catalog part with no stock backing.
	PartSourceLegacy PartSource = "LEGACY"
)

// PartRef is the tagged reference a part usage row carries: either an
// inventory-backed record or a legacy catalog part. Exactly one id is set.
type PartRef struct {
	Source       PartSource `json:"source"`
	InventoryID  int64      `json:"inventory_id,omitempty"`
	LegacyPartID int64      `json:"legacy_part_id,omitempty"`
}

// Valid reports whether the reference is well-formed.
func (r PartRef) Valid() bool {
	switch r.Source {
	case PartSourceInventory:
		return r.InventoryID > 0 && r.LegacyPartID == 0
	case PartSourceLegacy:
		return r.LegacyPartID > 0 && r.InventoryID == 0
	default:
		return false
	}
}

// HasStock reports whether the reference is backed by a stock counter.
func (r PartRef) HasStock() bool {
	return r.Source == PartSourceInventory
}

// ApprovalMethod records how a part was approved.
type ApprovalMethod string

const (
	// ApprovalTagged marks fault-linked parts auto-approved at add time.
	ApprovalTagged ApprovalMethod = "AUTO_TAGGED"
	// ApprovalCustomer marks extra-spare parts the customer approved.
	ApprovalCustomer ApprovalMethod = "CUSTOMER"
	// ApprovalPhone and ApprovalInPerson qualify customer approvals.
	ApprovalPhone    ApprovalMethod = "PHONE"
	ApprovalInPerson ApprovalMethod = "IN_PERSON"
	// ApprovalWarranty marks warranty consumption: stock deducted, not billed.
	ApprovalWarranty ApprovalMethod = "WARRANTY"
)

// BillsCustomer reports whether a part approved with this method counts toward
// the customer-facing actual cost.
func (m ApprovalMethod) BillsCustomer() bool {
	return m != ApprovalWarranty
}

// PartUsage is one row of the parts sub-ledger.
type PartUsage struct {
	ID           int64           `json:"id"`
	TicketID     int64           `json:"ticket_id"`
	Ref          PartRef         `json:"ref"`
	ItemName     string          `json:"item_name"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	IsExtraSpare bool            `json:"is_extra_spare"`
	FaultTag     *int64          `json:"fault_tag,omitempty"`

	IsApproved     bool            `json:"is_approved"`
	ApprovalMethod *ApprovalMethod `json:"approval_method,omitempty"`
	ApprovalNote   *string         `json:"approval_note,omitempty"`
	ApprovedBy     *int64          `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarrantyExempt reports whether the row is consumed under warranty and thus
// excluded from the customer bill.
func (p PartUsage) WarrantyExempt() bool {
	return p.ApprovalMethod != nil && *p.ApprovalMethod == ApprovalWarranty
}

// StatusHistory is one immutable record of a status the ticket passed through.
// Reassignment writes an entry at the current status without changing it.
type StatusHistory struct {
	ID       int64     `json:"id"`
	TicketID int64     `json:"ticket_id"`
	Status   Status    `json:"status"`
	ActorID  int64     `json:"actor_id"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// TicketNote is free-text staff commentary attached to a ticket.
type TicketNote struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentEntry is one collected payment against a ticket.
type PaymentEntry struct {
	ID         int64           `json:"id"`
	TicketID   int64           `json:"ticket_id"`
	Amount     decimal.Decimal `json:"amount"`
	MethodID   int64           `json:"method_id"`
	Reference  string          `json:"reference,omitempty"`
	ReceivedBy int64           `json:"received_by"`
	ReceivedAt time.Time       `json:"received_at"`
}

// RepeatWindow is the trailing window within which a non-cancelled prior
// ticket for the same device marks a new intake as a repeated service.
const RepeatWindow = 30 * 24 * time.Hour

// PreviousServiceReport is the intake-flow answer from CheckPreviousServices.
type PreviousServiceReport struct {
	IsRepeated           bool    `json:"is_repeated"`
	PreviousServiceID    *int64  `json:"previous_service_id,omitempty"`
	DaysSinceLastService int     `json:"days_since_last_service,omitempty"`
	OverlappingFaults    []int64 `json:"overlapping_faults,omitempty"`
}

// ActiveServiceReport is the intake-flow answer from CheckActiveServices.
type ActiveServiceReport struct {
	HasActive bool     `json:"has_active"`
	Tickets   []Ticket `json:"tickets,omitempty"`
}
