package customers

import "time"

// Customer represents a service customer.
type Customer struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerInput is the create/update payload.
type CustomerInput struct {
	Name    string `json:"name" validate:"required,min=2,max=150"`
	Phone   string `json:"phone" validate:"required,min=5,max=30"`
	Email   string `json:"email" validate:"omitempty,email,max=150"`
	Address string `json:"address" validate:"omitempty,max=500"`
}
