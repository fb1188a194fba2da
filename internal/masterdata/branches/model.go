package branches

import (
	"time"
)

// Branch represents a repair-shop branch.
type Branch struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchInput is the create/update payload.
type BranchInput struct {
	Code    string `json:"code" validate:"required,min=2,max=20"`
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Address string `json:"address" validate:"omitempty,max=500"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
}
