package payments

import "time"

// Method is a configured way to collect money from customers.
type Method struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MethodInput is the create/update payload.
type MethodInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	Kind string `json:"kind" validate:"required,oneof=CASH CARD TRANSFER WALLET OTHER"`
}
