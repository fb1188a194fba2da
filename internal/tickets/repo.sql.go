package tickets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

// PgRepository persists the ticket core in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PgRepository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *PgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("tickets repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const ticketColumns = `id, ticket_number, company_id, branch_id, customer_id, device_id, technician_id,
status, problem, diagnosis, is_warranty_repair, previous_service_id,
estimated_cost, actual_cost, labour_charge, discount, advance_payment,
not_serviceable_reason, completed_at, delivered_at, device_returned_at,
refund_amount, refund_reason, refund_method, refunded_at,
created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (Ticket, error) {
	var t Ticket
	var refund decimal.NullDecimal
	err := row.Scan(
		&t.ID, &t.TicketNumber, &t.CompanyID, &t.BranchID, &t.CustomerID, &t.DeviceID, &t.TechnicianID,
		&t.Status, &t.Problem, &t.Diagnosis, &t.IsWarrantyRepair, &t.PreviousServiceID,
		&t.EstimatedCost, &t.ActualCost, &t.LabourCharge, &t.Discount, &t.AdvancePayment,
		&t.NotServiceableReason, &t.CompletedAt, &t.DeliveredAt, &t.DeviceReturnedAt,
		&refund, &t.RefundReason, &t.RefundMethod, &t.RefundedAt,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Ticket{}, err
	}
	if refund.Valid {
		t.RefundAmount = &refund.Decimal
	}
	return t, nil
}

// GetTicket loads one ticket with parts and history, scoped to the company.
func (r *PgRepository) GetTicket(ctx context.Context, scope shared.Scope, id int64) (Ticket, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 AND company_id=$2`, id, scope.CompanyID)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrTicketNotFound
		}
		return Ticket{}, err
	}
	if t.Parts, err = listParts(ctx, r.pool, t.ID); err != nil {
		return Ticket{}, err
	}
	if t.History, err = listHistory(ctx, r.pool, t.ID); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// ListDeviceTickets returns the device's tickets, most recent first.
func (r *PgRepository) ListDeviceTickets(ctx context.Context, scope shared.Scope, deviceID int64) ([]Ticket, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE device_id=$1 AND company_id=$2 ORDER BY created_at DESC`, deviceID, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tickets []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// ListTicketFaults returns the fault ids linked to a ticket.
func (r *PgRepository) ListTicketFaults(ctx context.Context, ticketID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT fault_id FROM ticket_faults WHERE ticket_id=$1 ORDER BY fault_id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) GetTicketForUpdate(ctx context.Context, scope shared.Scope, id int64) (Ticket, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 AND company_id=$2 FOR UPDATE`, id, scope.CompanyID)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrTicketNotFound
		}
		return Ticket{}, err
	}
	return t, nil
}

func (r *txRepository) InsertTicket(ctx context.Context, t Ticket) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO tickets
(ticket_number, company_id, branch_id, customer_id, device_id, technician_id, status, problem, diagnosis,
 is_warranty_repair, previous_service_id, estimated_cost, actual_cost, labour_charge, discount, advance_payment,
 created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19) RETURNING id`,
		t.TicketNumber, t.CompanyID, t.BranchID, t.CustomerID, t.DeviceID, t.TechnicianID,
		string(t.Status), t.Problem, t.Diagnosis, t.IsWarrantyRepair, t.PreviousServiceID,
		t.EstimatedCost, t.ActualCost, t.LabourCharge, t.Discount, t.AdvancePayment,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateTicketNumber
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) UpdateTicket(ctx context.Context, t Ticket) error {
	var refund decimal.NullDecimal
	if t.RefundAmount != nil {
		refund = decimal.NewNullDecimal(*t.RefundAmount)
	}
	_, err := r.tx.Exec(ctx, `UPDATE tickets SET
technician_id=$1, status=$2, diagnosis=$3, estimated_cost=$4, actual_cost=$5, labour_charge=$6, discount=$7,
advance_payment=$8, not_serviceable_reason=$9, completed_at=$10, delivered_at=$11, device_returned_at=$12,
refund_amount=$13, refund_reason=$14, refund_method=$15, refunded_at=$16, updated_at=$17
WHERE id=$18`,
		t.TechnicianID, string(t.Status), t.Diagnosis, t.EstimatedCost, t.ActualCost, t.LabourCharge, t.Discount,
		t.AdvancePayment, t.NotServiceableReason, t.CompletedAt, t.DeliveredAt, t.DeviceReturnedAt,
		refund, t.RefundReason, t.RefundMethod, t.RefundedAt, t.UpdatedAt, t.ID)
	return err
}

func (r *txRepository) DeleteTicket(ctx context.Context, id int64) error {
	// part_usages, history, notes, payments, links and image rows cascade.
	_, err := r.tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	return err
}

func (r *txRepository) InsertHistory(ctx context.Context, h StatusHistory) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO ticket_status_history (ticket_id, status, actor_id, note, occurred_at)
VALUES ($1,$2,$3,$4,$5)`, h.TicketID, string(h.Status), h.ActorID, h.Note, h.At)
	return err
}

const partColumns = `id, ticket_id, inventory_id, legacy_part_id, item_name, quantity, unit_price, total_price,
is_extra_spare, fault_tag, is_approved, approval_method, approval_note, approved_by, approved_at,
created_at, updated_at`

func scanPart(row rowScanner) (PartUsage, error) {
	var p PartUsage
	var inventoryID, legacyID *int64
	var method *string
	err := row.Scan(
		&p.ID, &p.TicketID, &inventoryID, &legacyID, &p.ItemName, &p.Quantity, &p.UnitPrice, &p.TotalPrice,
		&p.IsExtraSpare, &p.FaultTag, &p.IsApproved, &method, &p.ApprovalNote, &p.ApprovedBy, &p.ApprovedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return PartUsage{}, err
	}
	switch {
	case inventoryID != nil:
		p.Ref = PartRef{Source: PartSourceInventory, InventoryID: *inventoryID}
	case legacyID != nil:
		p.Ref = PartRef{Source: PartSourceLegacy, LegacyPartID: *legacyID}
	}
	if method != nil {
		m := ApprovalMethod(*method)
		p.ApprovalMethod = &m
	}
	return p, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listParts(ctx context.Context, q querier, ticketID int64) ([]PartUsage, error) {
	rows, err := q.Query(ctx, `SELECT `+partColumns+` FROM part_usages WHERE ticket_id=$1 ORDER BY id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var parts []PartUsage
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func listHistory(ctx context.Context, q querier, ticketID int64) ([]StatusHistory, error) {
	rows, err := q.Query(ctx, `SELECT id, ticket_id, status, actor_id, note, occurred_at
FROM ticket_status_history WHERE ticket_id=$1 ORDER BY occurred_at, id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.TicketID, &h.Status, &h.ActorID, &h.Note, &h.At); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *txRepository) ListParts(ctx context.Context, ticketID int64) ([]PartUsage, error) {
	return listParts(ctx, r.tx, ticketID)
}

func (r *txRepository) GetPartForUpdate(ctx context.Context, partID int64) (PartUsage, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+partColumns+` FROM part_usages WHERE id=$1 FOR UPDATE`, partID)
	p, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartUsage{}, ErrPartNotFound
		}
		return PartUsage{}, err
	}
	return p, nil
}

func (r *txRepository) FindMergeablePart(ctx context.Context, ticketID int64, ref PartRef, isExtraSpare bool, faultTag *int64) (*PartUsage, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+partColumns+` FROM part_usages
WHERE ticket_id=$1 AND inventory_id=$2 AND is_extra_spare=$3 AND COALESCE(fault_tag, 0)=COALESCE($4, 0) AND is_approved=FALSE
ORDER BY id LIMIT 1 FOR UPDATE`, ticketID, ref.InventoryID, isExtraSpare, faultTag)
	p, err := scanPart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) InsertPart(ctx context.Context, p PartUsage) (int64, error) {
	var inventoryID, legacyID *int64
	switch p.Ref.Source {
	case PartSourceInventory:
		inventoryID = &p.Ref.InventoryID
	case PartSourceLegacy:
		legacyID = &p.Ref.LegacyPartID
	}
	var method *string
	if p.ApprovalMethod != nil {
		m := string(*p.ApprovalMethod)
		method = &m
	}
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO part_usages
(ticket_id, inventory_id, legacy_part_id, item_name, quantity, unit_price, total_price, is_extra_spare, fault_tag,
 is_approved, approval_method, approval_note, approved_by, approved_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16) RETURNING id`,
		p.TicketID, inventoryID, legacyID, p.ItemName, p.Quantity, p.UnitPrice, p.TotalPrice, p.IsExtraSpare, p.FaultTag,
		p.IsApproved, method, p.ApprovalNote, p.ApprovedBy, p.ApprovedAt, p.CreatedAt, p.UpdatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) UpdatePart(ctx context.Context, p PartUsage) error {
	var method *string
	if p.ApprovalMethod != nil {
		m := string(*p.ApprovalMethod)
		method = &m
	}
	_, err := r.tx.Exec(ctx, `UPDATE part_usages SET
quantity=$1, unit_price=$2, total_price=$3, is_approved=$4, approval_method=$5, approval_note=$6,
approved_by=$7, approved_at=$8, updated_at=$9
WHERE id=$10`,
		p.Quantity, p.UnitPrice, p.TotalPrice, p.IsApproved, method, p.ApprovalNote,
		p.ApprovedBy, p.ApprovedAt, p.UpdatedAt, p.ID)
	return err
}

func (r *txRepository) DeletePart(ctx context.Context, id int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM part_usages WHERE id=$1`, id)
	return err
}

func (r *txRepository) GetInventory(ctx context.Context, inventoryID int64) (stock.BranchInventory, error) {
	var inv stock.BranchInventory
	err := r.tx.QueryRow(ctx, `SELECT bi.id, bi.company_id, bi.branch_id, bi.item_id, ci.name, bi.stock_quantity, bi.is_active, bi.updated_at
FROM branch_inventory bi
JOIN catalog_items ci ON ci.id = bi.item_id
WHERE bi.id=$1`, inventoryID).
		Scan(&inv.ID, &inv.CompanyID, &inv.BranchID, &inv.ItemID, &inv.ItemName, &inv.StockQuantity, &inv.IsActive, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stock.BranchInventory{}, stock.ErrInventoryNotFound
		}
		return stock.BranchInventory{}, err
	}
	return inv, nil
}

func (r *txRepository) AdjustStock(ctx context.Context, adj stock.Adjustment) (stock.Movement, error) {
	return stock.Apply(ctx, r.tx, adj)
}

func (r *txRepository) LegacyPartName(ctx context.Context, legacyPartID int64) (string, error) {
	var name string
	err := r.tx.QueryRow(ctx, `SELECT name FROM legacy_parts WHERE id=$1`, legacyPartID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPartNotFound
		}
		return "", err
	}
	return name, nil
}

func (r *txRepository) InsertPayment(ctx context.Context, p PaymentEntry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO ticket_payments (ticket_id, amount, method_id, reference, received_by, received_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		p.TicketID, p.Amount, p.MethodID, p.Reference, p.ReceivedBy, p.ReceivedAt).Scan(&id)
	return id, err
}

func (r *txRepository) ListPayments(ctx context.Context, ticketID int64) ([]PaymentEntry, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, ticket_id, amount, method_id, reference, received_by, received_at
FROM ticket_payments WHERE ticket_id=$1 ORDER BY id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []PaymentEntry
	for rows.Next() {
		var p PaymentEntry
		if err := rows.Scan(&p.ID, &p.TicketID, &p.Amount, &p.MethodID, &p.Reference, &p.ReceivedBy, &p.ReceivedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *txRepository) InsertNote(ctx context.Context, n TicketNote) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO ticket_notes (ticket_id, author_id, body, created_at)
VALUES ($1,$2,$3,$4) RETURNING id`, n.TicketID, n.AuthorID, n.Body, n.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) LinkFaults(ctx context.Context, ticketID int64, faultIDs []int64) error {
	for _, faultID := range faultIDs {
		if _, err := r.tx.Exec(ctx, `INSERT INTO ticket_faults (ticket_id, fault_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, ticketID, faultID); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkAccessories(ctx context.Context, ticketID int64, accessories []string) error {
	for _, item := range accessories {
		if _, err := r.tx.Exec(ctx, `INSERT INTO ticket_accessories (ticket_id, label) VALUES ($1,$2)`, ticketID, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkConditions(ctx context.Context, ticketID int64, conditions []string) error {
	for _, item := range conditions {
		if _, err := r.tx.Exec(ctx, `INSERT INTO ticket_conditions (ticket_id, label) VALUES ($1,$2)`, ticketID, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ListImageKeys(ctx context.Context, ticketID int64) ([]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT storage_key FROM ticket_images WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
