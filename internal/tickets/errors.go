package tickets

import (
	"fmt"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Sentinel errors for the ticket core. All wrap the shared taxonomy so the
// HTTP layer can map them to stable codes with errors.Is.
var (
	ErrTicketNotFound        = fmt.Errorf("ticket: %w", shared.ErrNotFound)
	ErrPartNotFound          = fmt.Errorf("part usage: %w", shared.ErrNotFound)
	ErrCustomerNotFound      = fmt.Errorf("customer: %w", shared.ErrNotFound)
	ErrDeviceNotFound        = fmt.Errorf("device: %w", shared.ErrNotFound)
	ErrBranchNotFound        = fmt.Errorf("branch: %w", shared.ErrNotFound)
	ErrFaultNotFound         = fmt.Errorf("fault: %w", shared.ErrNotFound)
	ErrPaymentMethodNotFound = fmt.Errorf("payment method: %w", shared.ErrNotFound)

	ErrBranchMismatch   = fmt.Errorf("inventory does not belong to ticket branch: %w", shared.ErrValidation)
	ErrInventoryDormant = fmt.Errorf("inventory record inactive: %w", shared.ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("quantity must be positive: %w", shared.ErrValidation)
	ErrNegativePrice    = fmt.Errorf("price must not be negative: %w", shared.ErrValidation)
	ErrReasonRequired   = fmt.Errorf("not-serviceable reason required: %w", shared.ErrValidation)
	ErrRefundNotDue     = fmt.Errorf("nothing paid to refund: %w", shared.ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("unknown status: %w", shared.ErrValidation)

	ErrIllegalTransition     = fmt.Errorf("status change not allowed: %w", shared.ErrInvalidState)
	ErrAlreadyApproved       = fmt.Errorf("part already approved: %w", shared.ErrInvalidState)
	ErrNotWarrantyRepair     = fmt.Errorf("ticket is not a warranty repair: %w", shared.ErrInvalidState)
	ErrLegacyPartNoStock     = fmt.Errorf("legacy part has no inventory backing: %w", shared.ErrInvalidState)
	ErrDeleteLocked          = fmt.Errorf("completed or delivered tickets cannot be deleted: %w", shared.ErrInvalidState)
	ErrAlreadyRefunded       = fmt.Errorf("ticket already cancelled or refunded: %w", shared.ErrInvalidState)
	ErrDeviceAlreadyReturned = fmt.Errorf("device already marked returned: %w", shared.ErrInvalidState)
	ErrDeviceReturnTooEarly  = fmt.Errorf("device can be returned only after delivery, cancellation or not-serviceable: %w", shared.ErrInvalidState)
)
