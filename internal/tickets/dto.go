package tickets

import "github.com/shopspring/decimal"

// CreateTicketRequest is the intake command.
type CreateTicketRequest struct {
	BranchID         int64            `json:"branch_id" validate:"required,gt=0"`
	CustomerID       int64            `json:"customer_id" validate:"required,gt=0"`
	DeviceID         int64            `json:"device_id" validate:"required,gt=0"`
	Problem          string           `json:"problem" validate:"required,min=3,max=2000"`
	FaultIDs         []int64          `json:"fault_ids" validate:"omitempty,dive,gt=0"`
	Accessories      []string         `json:"accessories" validate:"omitempty,dive,max=200"`
	DamageConditions []string         `json:"damage_conditions" validate:"omitempty,dive,max=200"`
	IsWarrantyRepair bool             `json:"is_warranty_repair"`
	AdvancePayment   decimal.Decimal  `json:"advance_payment"`
	Payments         []PaymentRequest `json:"payments" validate:"omitempty,dive"`
	CreatedBy        int64            `json:"created_by" validate:"required,gt=0"`
}

// PaymentRequest is one collected payment.
type PaymentRequest struct {
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	MethodID   int64           `json:"method_id" validate:"required,gt=0"`
	Reference  string          `json:"reference,omitempty" validate:"omitempty,max=100"`
	ReceivedBy int64           `json:"received_by" validate:"required,gt=0"`
}

// UpdateTicketRequest updates diagnosis and charge fields. Estimated cost
// moves only through this diagnosis path and AddFault, never through parts.
type UpdateTicketRequest struct {
	Diagnosis     *string          `json:"diagnosis,omitempty" validate:"omitempty,max=2000"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost,omitempty"`
	LabourCharge  *decimal.Decimal `json:"labour_charge,omitempty"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	UpdatedBy     int64            `json:"updated_by" validate:"required,gt=0"`
}

// AddFaultRequest links one more diagnosed fault to the ticket.
type AddFaultRequest struct {
	FaultID int64 `json:"fault_id" validate:"required,gt=0"`
	AddedBy int64 `json:"added_by" validate:"required,gt=0"`
}

// AddPartRequest attaches a part to the ticket. Tagged parts (IsExtraSpare
// false) are auto-approved and deduct stock immediately; extra-spare parts
// wait for customer approval.
type AddPartRequest struct {
	InventoryID  int64           `json:"inventory_id" validate:"required,gt=0"`
	Quantity     int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	IsExtraSpare bool            `json:"is_extra_spare"`
	FaultTag     *int64          `json:"fault_tag,omitempty" validate:"omitempty,gt=0"`
	AddedBy      int64           `json:"added_by" validate:"required,gt=0"`
}

// ApprovePartRequest approves an extra-spare part for billing.
type ApprovePartRequest struct {
	Method     ApprovalMethod `json:"method" validate:"required,oneof=CUSTOMER PHONE IN_PERSON"`
	Note       string         `json:"note,omitempty" validate:"omitempty,max=500"`
	ApprovedBy int64          `json:"approved_by" validate:"required,gt=0"`
}

// ApproveWarrantyRequest approves a part for warranty consumption.
type ApproveWarrantyRequest struct {
	Note       string `json:"note,omitempty" validate:"omitempty,max=500"`
	ApprovedBy int64  `json:"approved_by" validate:"required,gt=0"`
}

// UpdatePartRequest changes quantity and/or unit price of a part row.
type UpdatePartRequest struct {
	Quantity  *int64           `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	UpdatedBy int64            `json:"updated_by" validate:"required,gt=0"`
}

// ChangeStatusRequest moves the ticket through the state machine.
type ChangeStatusRequest struct {
	Status    Status `json:"status" validate:"required"`
	Reason    string `json:"reason,omitempty" validate:"omitempty,max=1000"`
	Note      string `json:"note,omitempty" validate:"omitempty,max=1000"`
	ChangedBy int64  `json:"changed_by" validate:"required,gt=0"`
}

// AssignRequest assigns or reassigns the technician.
type AssignRequest struct {
	TechnicianID int64 `json:"technician_id" validate:"required,gt=0"`
	AssignedBy   int64 `json:"assigned_by" validate:"required,gt=0"`
}

// NoteRequest appends a free-text note.
type NoteRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=4000"`
	AuthorID int64  `json:"author_id" validate:"required,gt=0"`
}

// RefundRequest cancels the ticket and stamps refund metadata. A zero amount
// refunds the full total paid.
type RefundRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason" validate:"required,min=3,max=1000"`
	Method      string          `json:"method" validate:"required,max=50"`
	ProcessedBy int64           `json:"processed_by" validate:"required,gt=0"`
}

// DeviceReturnRequest marks the device handed back to the customer.
type DeviceReturnRequest struct {
	ReturnedBy int64 `json:"returned_by" validate:"required,gt=0"`
}

// CheckServicesRequest is the intake pre-check lookup.
type CheckServicesRequest struct {
	DeviceID int64   `json:"device_id" validate:"required,gt=0"`
	FaultIDs []int64 `json:"fault_ids" validate:"omitempty,dive,gt=0"`
}

// CreateTicketResponse returns the persisted ticket plus intake warnings.
type CreateTicketResponse struct {
	Ticket   Ticket                `json:"ticket"`
	Previous PreviousServiceReport `json:"previous_services"`
}
