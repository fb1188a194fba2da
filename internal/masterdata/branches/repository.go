package branches

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
	List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error)
	Get(ctx context.Context, companyID, id int64) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, branch Branch) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, code, name, address, phone, is_active, created_at, updated_at`

func scan(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.CompanyID, &b.Code, &b.Name, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.CompanyID != nil {
		args = append(args, *filters.CompanyID)
		where += ` AND company_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR code ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM branches`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM branches` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"code": true, "name": true, "created_at": true}, "name")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		branches = append(branches, b)
	}
	return branches, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Branch, error) {
	b, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM branches WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, internalshared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO branches (company_id, code, name, address, phone, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		branch.CompanyID, branch.Code, branch.Name, branch.Address, branch.Phone).
		Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
	branch.IsActive = true
	return branch, err
}

func (r *repository) Update(ctx context.Context, branch Branch) error {
	tag, err := r.db.Exec(ctx, `UPDATE branches SET code = $1, name = $2, address = $3, phone = $4, updated_at = now()
WHERE id = $5 AND company_id = $6`,
		branch.Code, branch.Name, branch.Address, branch.Phone, branch.ID, branch.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE branches SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}
