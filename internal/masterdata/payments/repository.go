package payments

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
	List(ctx context.Context, filters shared.ListFilters) ([]Method, int, error)
	Get(ctx context.Context, companyID, id int64) (Method, error)
	Create(ctx context.Context, method Method) (Method, error)
	Update(ctx context.Context, method Method) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, name, kind, is_active, created_at, updated_at`

func scan(row pgx.Row) (Method, error) {
	var m Method
	err := row.Scan(&m.ID, &m.CompanyID, &m.Name, &m.Kind, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Method, int, error) {
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
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_methods`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM payment_methods` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"name": true, "kind": true}, "name")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var methods []Method
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		methods = append(methods, m)
	}
	return methods, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Method, error) {
	m, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM payment_methods WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Method{}, internalshared.ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, method Method) (Method, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO payment_methods (company_id, name, kind, is_active, created_at, updated_at)
VALUES ($1, $2, $3, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		method.CompanyID, method.Name, method.Kind).
		Scan(&method.ID, &method.CreatedAt, &method.UpdatedAt)
	method.IsActive = true
	return method, err
}

func (r *repository) Update(ctx context.Context, method Method) error {
	tag, err := r.db.Exec(ctx, `UPDATE payment_methods SET name = $1, kind = $2, updated_at = now() WHERE id = $3 AND company_id = $4`,
		method.Name, method.Kind, method.ID, method.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE payment_methods SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}
