package tickets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

// memRepo is the in-memory repository used across the ticket tests. It backs
// both the read side and the transactional side with the same maps; the tests
// that need rollback semantics fail before the first write.
type memRepo struct {
	tickets   map[int64]*Ticket
	parts     map[int64]*PartUsage
	inventory map[int64]*stock.BranchInventory
	movements []stock.Movement
	history   []StatusHistory
	payments  []PaymentEntry
	notes     []TicketNote
	faults    map[int64][]int64
	images    map[int64][]string
	legacy    map[int64]string
	taken     map[string]bool

	nextTicket, nextPart, nextPayment, nextNote, nextMovement int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		tickets:   make(map[int64]*Ticket),
		parts:     make(map[int64]*PartUsage),
		inventory: make(map[int64]*stock.BranchInventory),
		faults:    make(map[int64][]int64),
		images:    make(map[int64][]string),
		legacy:    make(map[int64]string),
		taken:     make(map[string]bool),
	}
}

type memTx struct {
	repo *memRepo
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memTx{repo: r})
}

func (r *memRepo) GetTicket(ctx context.Context, scope shared.Scope, id int64) (Ticket, error) {
	t, ok := r.tickets[id]
	if !ok || t.CompanyID != scope.CompanyID {
		return Ticket{}, ErrTicketNotFound
	}
	out := *t
	out.Parts = r.partsOf(id)
	out.History = r.historyOf(id)
	return out, nil
}

func (r *memRepo) ListDeviceTickets(ctx context.Context, scope shared.Scope, deviceID int64) ([]Ticket, error) {
	var out []Ticket
	for _, t := range r.tickets {
		if t.DeviceID == deviceID && t.CompanyID == scope.CompanyID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) ListTicketFaults(ctx context.Context, ticketID int64) ([]int64, error) {
	return r.faults[ticketID], nil
}

func (r *memRepo) partsOf(ticketID int64) []PartUsage {
	var out []PartUsage
	for _, p := range r.parts {
		if p.TicketID == ticketID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) historyOf(ticketID int64) []StatusHistory {
	var out []StatusHistory
	for _, h := range r.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out
}

func (tx *memTx) GetTicketForUpdate(ctx context.Context, scope shared.Scope, id int64) (Ticket, error) {
	t, ok := tx.repo.tickets[id]
	if !ok || t.CompanyID != scope.CompanyID {
		return Ticket{}, ErrTicketNotFound
	}
	return *t, nil
}

func (tx *memTx) InsertTicket(ctx context.Context, t Ticket) (int64, error) {
	if tx.repo.taken[t.TicketNumber] {
		return 0, ErrDuplicateTicketNumber
	}
	tx.repo.nextTicket++
	t.ID = tx.repo.nextTicket
	t.Parts, t.History = nil, nil
	tx.repo.tickets[t.ID] = &t
	tx.repo.taken[t.TicketNumber] = true
	return t.ID, nil
}

func (tx *memTx) UpdateTicket(ctx context.Context, t Ticket) error {
	if _, ok := tx.repo.tickets[t.ID]; !ok {
		return ErrTicketNotFound
	}
	t.Parts, t.History = nil, nil
	tx.repo.tickets[t.ID] = &t
	return nil
}

func (tx *memTx) DeleteTicket(ctx context.Context, id int64) error {
	delete(tx.repo.tickets, id)
	for partID, p := range tx.repo.parts {
		if p.TicketID == id {
			delete(tx.repo.parts, partID)
		}
	}
	delete(tx.repo.faults, id)
	delete(tx.repo.images, id)
	return nil
}

func (tx *memTx) InsertHistory(ctx context.Context, h StatusHistory) error {
	tx.repo.history = append(tx.repo.history, h)
	return nil
}

func (tx *memTx) ListParts(ctx context.Context, ticketID int64) ([]PartUsage, error) {
	return tx.repo.partsOf(ticketID), nil
}

func (tx *memTx) GetPartForUpdate(ctx context.Context, partID int64) (PartUsage, error) {
	p, ok := tx.repo.parts[partID]
	if !ok {
		return PartUsage{}, ErrPartNotFound
	}
	return *p, nil
}

func (tx *memTx) FindMergeablePart(ctx context.Context, ticketID int64, ref PartRef, isExtraSpare bool, faultTag *int64) (*PartUsage, error) {
	for _, p := range tx.repo.partsOf(ticketID) {
		if p.IsApproved || p.Ref != ref || p.IsExtraSpare != isExtraSpare {
			continue
		}
		if tagValue(p.FaultTag) != tagValue(faultTag) {
			continue
		}
		found := p
		return &found, nil
	}
	return nil, nil
}

func tagValue(tag *int64) int64 {
	if tag == nil {
		return 0
	}
	return *tag
}

func (tx *memTx) InsertPart(ctx context.Context, p PartUsage) (int64, error) {
	tx.repo.nextPart++
	p.ID = tx.repo.nextPart
	tx.repo.parts[p.ID] = &p
	return p.ID, nil
}

func (tx *memTx) UpdatePart(ctx context.Context, p PartUsage) error {
	if _, ok := tx.repo.parts[p.ID]; !ok {
		return ErrPartNotFound
	}
	tx.repo.parts[p.ID] = &p
	return nil
}

func (tx *memTx) DeletePart(ctx context.Context, id int64) error {
	delete(tx.repo.parts, id)
	return nil
}

func (tx *memTx) GetInventory(ctx context.Context, inventoryID int64) (stock.BranchInventory, error) {
	inv, ok := tx.repo.inventory[inventoryID]
	if !ok {
		return stock.BranchInventory{}, stock.ErrInventoryNotFound
	}
	return *inv, nil
}

func (tx *memTx) AdjustStock(ctx context.Context, adj stock.Adjustment) (stock.Movement, error) {
	inv, ok := tx.repo.inventory[adj.InventoryID]
	if !ok {
		return stock.Movement{}, stock.ErrInventoryNotFound
	}
	newQty := inv.StockQuantity + adj.Delta
	if newQty < 0 {
		return stock.Movement{}, stock.ErrInsufficient
	}
	tx.repo.nextMovement++
	m := stock.Movement{
		ID:          tx.repo.nextMovement,
		InventoryID: adj.InventoryID,
		Quantity:    adj.Delta,
		PreviousQty: inv.StockQuantity,
		NewQty:      newQty,
		Type:        adj.Type,
		ReferenceID: adj.ReferenceID,
		ActorID:     adj.ActorID,
		Note:        adj.Note,
		At:          time.Now().UTC(),
	}
	inv.StockQuantity = newQty
	tx.repo.movements = append(tx.repo.movements, m)
	return m, nil
}

func (tx *memTx) LegacyPartName(ctx context.Context, legacyPartID int64) (string, error) {
	name, ok := tx.repo.legacy[legacyPartID]
	if !ok {
		return "", ErrPartNotFound
	}
	return name, nil
}

func (tx *memTx) InsertPayment(ctx context.Context, p PaymentEntry) (int64, error) {
	tx.repo.nextPayment++
	p.ID = tx.repo.nextPayment
	tx.repo.payments = append(tx.repo.payments, p)
	return p.ID, nil
}

func (tx *memTx) ListPayments(ctx context.Context, ticketID int64) ([]PaymentEntry, error) {
	var out []PaymentEntry
	for _, p := range tx.repo.payments {
		if p.TicketID == ticketID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *memTx) InsertNote(ctx context.Context, n TicketNote) (int64, error) {
	tx.repo.nextNote++
	n.ID = tx.repo.nextNote
	tx.repo.notes = append(tx.repo.notes, n)
	return n.ID, nil
}

func (tx *memTx) LinkFaults(ctx context.Context, ticketID int64, faultIDs []int64) error {
	tx.repo.faults[ticketID] = append(tx.repo.faults[ticketID], faultIDs...)
	return nil
}

func (tx *memTx) LinkAccessories(ctx context.Context, ticketID int64, accessories []string) error {
	return nil
}

func (tx *memTx) LinkConditions(ctx context.Context, ticketID int64, conditions []string) error {
	return nil
}

func (tx *memTx) ListImageKeys(ctx context.Context, ticketID int64) ([]string, error) {
	return tx.repo.images[ticketID], nil
}

// fakeRefs treats every seeded id as active.
type fakeRefs struct {
	customers   map[int64]bool
	devices     map[int64]bool
	branches    map[int64]bool
	methods     map[int64]bool
	faultPrices map[int64]decimal.Decimal
}

func newFakeRefs() *fakeRefs {
	return &fakeRefs{
		customers:   map[int64]bool{1: true},
		devices:     map[int64]bool{1: true},
		branches:    map[int64]bool{1: true},
		methods:     map[int64]bool{1: true},
		faultPrices: map[int64]decimal.Decimal{},
	}
}

func (f *fakeRefs) check(m map[int64]bool, id int64, notFound error) error {
	active, ok := m[id]
	if !ok {
		return notFound
	}
	if !active {
		return fmt.Errorf("inactive: %w", shared.ErrValidation)
	}
	return nil
}

func (f *fakeRefs) CustomerActive(ctx context.Context, scope shared.Scope, id int64) error {
	return f.check(f.customers, id, ErrCustomerNotFound)
}

func (f *fakeRefs) DeviceActive(ctx context.Context, scope shared.Scope, id int64) error {
	return f.check(f.devices, id, ErrDeviceNotFound)
}

func (f *fakeRefs) BranchActive(ctx context.Context, companyID, branchID int64) error {
	return f.check(f.branches, branchID, ErrBranchNotFound)
}

func (f *fakeRefs) PaymentMethodActive(ctx context.Context, scope shared.Scope, id int64) error {
	return f.check(f.methods, id, ErrPaymentMethodNotFound)
}

func (f *fakeRefs) FaultPrices(ctx context.Context, scope shared.Scope, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		price, ok := f.faultPrices[id]
		if !ok {
			return nil, fmt.Errorf("fault %d: %w", id, ErrFaultNotFound)
		}
		out[id] = price
	}
	return out, nil
}

type fakeNumbers struct {
	n int
}

func (f *fakeNumbers) Generate(ctx context.Context, companyID int64, docType string, branchID int64) (string, error) {
	f.n++
	return fmt.Sprintf("SRV-%d-2026-%05d", branchID, f.n), nil
}

type captureDispatcher struct {
	effects []SideEffect
}

func (d *captureDispatcher) Dispatch(ctx context.Context, effects []SideEffect) {
	d.effects = append(d.effects, effects...)
}

func (d *captureDispatcher) kinds() []EffectKind {
	out := make([]EffectKind, 0, len(d.effects))
	for _, e := range d.effects {
		out = append(out, e.Kind)
	}
	return out
}

func newTestService(repo *memRepo, refs *fakeRefs) (*Service, *captureDispatcher) {
	dispatcher := &captureDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, refs, &fakeNumbers{}, dispatcher, nil, logger, ServiceConfig{})
	return svc, dispatcher
}

func seedInventory(repo *memRepo, id, branchID, qty int64, name string) {
	repo.inventory[id] = &stock.BranchInventory{
		ID: id, CompanyID: 1, BranchID: branchID, ItemID: id,
		ItemName: name, StockQuantity: qty, IsActive: true,
	}
}

func seedTicket(repo *memRepo, t Ticket) int64 {
	repo.nextTicket++
	if t.ID == 0 {
		t.ID = repo.nextTicket
	}
	if t.CompanyID == 0 {
		t.CompanyID = 1
	}
	if t.BranchID == 0 {
		t.BranchID = 1
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.TicketNumber == "" {
		t.TicketNumber = fmt.Sprintf("SRV-1-2026-%05d", t.ID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	repo.tickets[t.ID] = &t
	repo.taken[t.TicketNumber] = true
	return t.ID
}

func seedPart(repo *memRepo, p PartUsage) int64 {
	repo.nextPart++
	if p.ID == 0 {
		p.ID = repo.nextPart
	}
	repo.parts[p.ID] = &p
	return p.ID
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
