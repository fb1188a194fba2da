package jobsheet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Repository loads sheet data and stores rendered sheets.
type Repository interface {
	SheetExists(ctx context.Context, ticketID int64) (bool, error)
	SaveSheet(ctx context.Context, ticketID int64, pdf []byte) error
	GetSheet(ctx context.Context, ticketID int64) ([]byte, error)
	LoadSheetData(ctx context.Context, ticketID int64) (SheetData, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SheetExists(ctx context.Context, ticketID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM job_sheets WHERE ticket_id = $1)`, ticketID).Scan(&exists)
	return exists, err
}

// SaveSheet keeps the first rendered sheet; a concurrent duplicate render is a
// no-op.
func (r *repository) SaveSheet(ctx context.Context, ticketID int64, pdf []byte) error {
	_, err := r.db.Exec(ctx, `INSERT INTO job_sheets (ticket_id, pdf, generated_at)
VALUES ($1, $2, now())
ON CONFLICT (ticket_id) DO NOTHING`, ticketID, pdf)
	return err
}

func (r *repository) GetSheet(ctx context.Context, ticketID int64) ([]byte, error) {
	var pdf []byte
	err := r.db.QueryRow(ctx, `SELECT pdf FROM job_sheets WHERE ticket_id = $1`, ticketID).Scan(&pdf)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return pdf, err
}

func (r *repository) LoadSheetData(ctx context.Context, ticketID int64) (SheetData, error) {
	var (
		data     SheetData
		estimate decimal.Decimal
		advance  decimal.Decimal
	)
	err := r.db.QueryRow(ctx, `SELECT t.ticket_number, t.created_at, t.problem, t.estimated_cost, t.advance_payment,
	b.name, c.name, c.phone, d.brand || ' ' || d.model, d.serial_number
FROM tickets t
JOIN branches b ON b.id = t.branch_id
JOIN customers c ON c.id = t.customer_id
JOIN devices d ON d.id = t.device_id
WHERE t.id = $1`, ticketID).Scan(
		&data.TicketNumber, &data.CreatedAt, &data.Problem, &estimate, &advance,
		&data.BranchName, &data.CustomerName, &data.CustomerPhone, &data.DeviceLabel, &data.SerialNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return SheetData{}, shared.ErrNotFound
	}
	if err != nil {
		return SheetData{}, err
	}
	data.EstimatedCost = estimate.StringFixed(2)
	data.Advance = advance.StringFixed(2)

	rows, err := r.db.Query(ctx, `SELECT f.name FROM ticket_faults tf JOIN faults f ON f.id = tf.fault_id
WHERE tf.ticket_id = $1 ORDER BY f.name`, ticketID)
	if err != nil {
		return SheetData{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return SheetData{}, err
		}
		data.Faults = append(data.Faults, name)
	}
	if err := rows.Err(); err != nil {
		return SheetData{}, err
	}

	partRows, err := r.db.Query(ctx, `SELECT item_name, quantity, unit_price, total_price
FROM part_usages WHERE ticket_id = $1 ORDER BY id`, ticketID)
	if err != nil {
		return SheetData{}, err
	}
	defer partRows.Close()
	for partRows.Next() {
		var (
			part  SheetPart
			unit  decimal.Decimal
			total decimal.Decimal
		)
		if err := partRows.Scan(&part.Name, &part.Quantity, &unit, &total); err != nil {
			return SheetData{}, err
		}
		part.UnitPrice = unit.StringFixed(2)
		part.Total = total.StringFixed(2)
		data.Parts = append(data.Parts, part)
	}
	return data, partRows.Err()
}
