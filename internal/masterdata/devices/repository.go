package devices

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Device, int, error)
	Get(ctx context.Context, companyID, id int64) (Device, error)
	FindBySerial(ctx context.Context, companyID int64, serial string) (Device, error)
	Create(ctx context.Context, device Device) (Device, error)
	Update(ctx context.Context, device Device) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, customer_id, device_type, brand, model, serial_number, is_active, created_at, updated_at`

func scan(row pgx.Row) (Device, error) {
	var d Device
	err := row.Scan(&d.ID, &d.CompanyID, &d.CustomerID, &d.DeviceType, &d.Brand, &d.Model, &d.SerialNumber, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Device, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.CompanyID != nil {
		args = append(args, *filters.CompanyID)
		where += ` AND company_id = $` + strconv.Itoa(len(args))
	}
	if filters.CustomerID != nil {
		args = append(args, *filters.CustomerID)
		where += ` AND customer_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (brand ILIKE $` + n + ` OR model ILIKE $` + n + ` OR serial_number ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM devices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM devices` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"brand": true, "model": true, "created_at": true}, "created_at")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		devices = append(devices, d)
	}
	return devices, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Device, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM devices WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Device{}, internalshared.ErrNotFound
	}
	return d, err
}

func (r *repository) FindBySerial(ctx context.Context, companyID int64, serial string) (Device, error) {
	d, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM devices WHERE serial_number = $1 AND company_id = $2`, serial, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Device{}, internalshared.ErrNotFound
	}
	return d, err
}

func (r *repository) Create(ctx context.Context, device Device) (Device, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO devices (company_id, customer_id, device_type, brand, model, serial_number, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		device.CompanyID, device.CustomerID, device.DeviceType, device.Brand, device.Model, device.SerialNumber).
		Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)
	device.IsActive = true
	return device, err
}

func (r *repository) Update(ctx context.Context, device Device) error {
	tag, err := r.db.Exec(ctx, `UPDATE devices SET customer_id = $1, device_type = $2, brand = $3, model = $4, serial_number = $5, updated_at = now()
WHERE id = $6 AND company_id = $7`,
		device.CustomerID, device.DeviceType, device.Brand, device.Model, device.SerialNumber, device.ID, device.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE devices SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}
