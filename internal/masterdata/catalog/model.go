package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stockable spare part in the company catalog. Per-branch counters
// live in branch_inventory and are provisioned from here.
type Item struct {
	ID        int64           `json:"id"`
	CompanyID int64           `json:"company_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemInput is the create/update payload.
type ItemInput struct {
	SKU       string          `json:"sku" validate:"required,min=2,max=60"`
	Name      string          `json:"name" validate:"required,min=2,max=200"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LegacyPart is a read-only entry of the pre-migration parts catalog. Ticket
// part rows may still reference these; they have no stock backing.
type LegacyPart struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
}
