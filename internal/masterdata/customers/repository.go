package customers

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
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, companyID, id int64) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, customer Customer) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, phone, email, address, is_active, created_at, updated_at`

func scan(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.CompanyID != nil {
		args = append(args, *filters.CompanyID)
		where += ` AND company_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR phone ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM customers` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"name": true, "created_at": true}, "name")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Customer, error) {
	c, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, internalshared.ErrNotFound
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO customers (company_id, name, phone, email, address, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		customer.CompanyID, customer.Name, customer.Phone, customer.Email, customer.Address).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	customer.IsActive = true
	return customer, err
}

func (r *repository) Update(ctx context.Context, customer Customer) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, updated_at = now()
WHERE id = $5 AND company_id = $6`,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.ID, customer.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}
