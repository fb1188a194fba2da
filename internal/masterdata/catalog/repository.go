package catalog

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
	List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error)
	Get(ctx context.Context, companyID, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) error
	SetActive(ctx context.Context, companyID, id int64, active bool) error
	EnsureInventory(ctx context.Context, companyID, branchID, itemID int64) (int64, error)
	ListLegacyParts(ctx context.Context, companyID int64, search string) ([]LegacyPart, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, company_id, sku, name, unit_price, is_active, created_at, updated_at`

func scan(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.CompanyID, &i.SKU, &i.Name, &i.UnitPrice, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.CompanyID != nil {
		args = append(args, *filters.CompanyID)
		where += ` AND company_id = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + `)`
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += ` AND is_active = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM catalog_items` + where
	query += ` ORDER BY ` + filters.SortOrder(map[string]bool{"sku": true, "name": true}, "name")
	args = append(args, filters.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Item, error) {
	i, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM catalog_items WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, internalshared.ErrNotFound
	}
	return i, err
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO catalog_items (company_id, sku, name, unit_price, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, TRUE, now(), now()) RETURNING id, created_at, updated_at`,
		item.CompanyID, item.SKU, item.Name, item.UnitPrice).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	item.IsActive = true
	return item, err
}

func (r *repository) Update(ctx context.Context, item Item) error {
	tag, err := r.db.Exec(ctx, `UPDATE catalog_items SET sku = $1, name = $2, unit_price = $3, updated_at = now()
WHERE id = $4 AND company_id = $5`,
		item.SKU, item.Name, item.UnitPrice, item.ID, item.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE catalog_items SET is_active = $1, updated_at = now() WHERE id = $2 AND company_id = $3`, active, id, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internalshared.ErrNotFound
	}
	return nil
}

// EnsureInventory creates the zero-quantity branch counter for the item if it
// does not exist yet and returns the counter id either way.
func (r *repository) EnsureInventory(ctx context.Context, companyID, branchID, itemID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO branch_inventory (company_id, branch_id, item_id, stock_quantity, is_active, updated_at)
VALUES ($1, $2, $3, 0, TRUE, now())
ON CONFLICT (branch_id, item_id) DO UPDATE SET updated_at = branch_inventory.updated_at
RETURNING id`, companyID, branchID, itemID).Scan(&id)
	return id, err
}

func (r *repository) ListLegacyParts(ctx context.Context, companyID int64, search string) ([]LegacyPart, error) {
	query := `SELECT id, company_id, name FROM legacy_parts WHERE company_id = $1`
	args := []any{companyID}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += ` AND name ILIKE $2`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []LegacyPart
	for rows.Next() {
		var p LegacyPart
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}
