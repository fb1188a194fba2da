package faults

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/masterdata/shared"
	internalshared "github.com/fixpoint-erp/fixpoint/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Fault, int, error)
	Get(ctx context.Context, companyID, id int64) (Fault, error)
	ActivePrices(ctx context.Context, companyID int64) (map[int64]decimal.Decimal, error)
	Create(ctx context.Context, fault Fault) (Fault, error)
	Update(ctx context.Context, fault Fault) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, price, is_active, created_at, updated_at`

func scan(row pgx.Row) (Fault, error) {
	var f Fault
	err := row.Scan(&f.ID, &f.CompanyID, &f.Name, &f.Price, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Fault, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.CompanyID != nil {
		args = append(args, *filters.CompanyID)
		where += ` AND company_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM faults`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM faults` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"name": true, "price": true}, "name")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var faults []Fault
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		faults = append(faults, f)
	}
	return faults, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Fault, error) {
	f, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM faults WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Fault{}, internalshared.ErrNotFound
	}
	return f, err
}

func (r *repository) ActivePrices(ctx context.Context, companyID int64) (map[int64]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, price FROM faults WHERE company_id = $1 AND is_active = TRUE`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var id int64
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (r *repository) Create(ctx context.Context, fault Fault) (Fault, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO faults (company_id, name, price, is_active, created_at, updated_at)
VALUES ($1, $2, $3, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		fault.CompanyID, fault.Name, fault.Price).
		Scan(&fault.ID, &fault.CreatedAt, &fault.UpdatedAt)
	fault.IsActive = true
	return fault, err
}

func (r *repository) Update(ctx context.Context, fault Fault) error {
	tag, err := r.db.Exec(ctx, `UPDATE faults SET name = $1, price = $2, updated_at = now() WHERE id = $3 AND company_id = $4`,
		fault.Name, fault.Price, fault.ID, fault.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE faults SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}
