package faults

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fault is one entry of the diagnosable-fault catalog. Its price feeds the
// initial repair estimate at ticket intake.
type Fault struct {
	ID        int64           `json:"id"`
	CompanyID int64           `json:"company_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FaultInput is the create/update payload.
type FaultInput struct {
	Name  string          `json:"name" validate:"required,min=2,max=150"`
	Price decimal.Decimal `json:"price"`
}
