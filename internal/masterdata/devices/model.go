package devices

import "time"

// Device is a customer-owned unit brought in for service.
type Device struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"company_id"`
	CustomerID   int64     `json:"customer_id"`
	DeviceType   string    `json:"device_type"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serial_number,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeviceInput is the create/update payload.
type DeviceInput struct {
	CustomerID   int64  `json:"customer_id" validate:"required,gt=0"`
	DeviceType   string `json:"device_type" validate:"required,min=2,max=60"`
	Brand        string `json:"brand" validate:"required,min=1,max=60"`
	Model        string `json:"model" validate:"required,min=1,max=100"`
	SerialNumber string `json:"serial_number" validate:"omitempty,max=100"`
}
