package tickets

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

var testScope = shared.Scope{CompanyID: 1, BranchID: 1}

func TestCreateTicket(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	refs.faultPrices[10] = money("150")
	refs.faultPrices[11] = money("100")
	svc, dispatcher := newTestService(repo, refs)
	ctx := context.Background()

	resp, err := svc.CreateTicket(ctx, testScope, CreateTicketRequest{
		BranchID: 1, CustomerID: 1, DeviceID: 1,
		Problem:        "screen cracked, does not power on",
		FaultIDs:       []int64{10, 11},
		Accessories:    []string{"charger"},
		AdvancePayment: money("50"),
		Payments:       []PaymentRequest{{Amount: money("100"), MethodID: 1, ReceivedBy: 2}},
		CreatedBy:      2,
	})
	require.NoError(t, err)

	ticket := resp.Ticket
	require.Equal(t, StatusPending, ticket.Status)
	require.True(t, money("250").Equal(ticket.EstimatedCost), "estimate is the sum of fault prices")
	require.True(t, ticket.ActualCost.IsZero())
	require.True(t, strings.HasPrefix(ticket.TicketNumber, "SRV-1-2026-"))
	require.False(t, resp.Previous.IsRepeated)

	stored, err := svc.Get(ctx, testScope, ticket.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 1)
	require.Equal(t, StatusPending, stored.History[0].Status)
	require.Equal(t, []int64{10, 11}, repo.faults[ticket.ID])
	require.Len(t, repo.payments, 1)

	require.Equal(t, []EffectKind{EffectJobSheet}, dispatcher.kinds())
}

func TestCreateTicketValidatesReferences(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	base := CreateTicketRequest{BranchID: 1, CustomerID: 1, DeviceID: 1, Problem: "no sound", CreatedBy: 2}

	req := base
	req.CustomerID = 99
	_, err := svc.CreateTicket(ctx, testScope, req)
	require.ErrorIs(t, err, shared.ErrNotFound)

	req = base
	req.FaultIDs = []int64{77}
	_, err = svc.CreateTicket(ctx, testScope, req)
	require.ErrorIs(t, err, ErrFaultNotFound)

	req = base
	req.BranchID = 2
	_, err = svc.CreateTicket(ctx, testScope, req)
	require.ErrorIs(t, err, shared.ErrValidation)

	req = base
	req.Payments = []PaymentRequest{{Amount: money("-5"), MethodID: 1, ReceivedBy: 2}}
	_, err = svc.CreateTicket(ctx, testScope, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateTicketRetriesOnNumberCollision(t *testing.T) {
	repo := newMemRepo()
	repo.taken["SRV-1-2026-00001"] = true
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)

	resp, err := svc.CreateTicket(context.Background(), testScope, CreateTicketRequest{
		BranchID: 1, CustomerID: 1, DeviceID: 1, Problem: "battery drains fast", CreatedBy: 2,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.Ticket.TicketNumber, "SRV-1-2026-00001-"))
	require.Len(t, resp.Ticket.TicketNumber, len("SRV-1-2026-00001")+5)
}

func TestCheckPreviousServices(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	priorID := seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusDelivered,
		CreatedAt: now.Add(-5 * 24 * time.Hour),
	})
	repo.faults[priorID] = []int64{10, 12}

	report, err := svc.CheckPreviousServices(ctx, testScope, CheckServicesRequest{DeviceID: 1, FaultIDs: []int64{10, 11}})
	require.NoError(t, err)
	require.True(t, report.IsRepeated)
	require.Equal(t, 5, report.DaysSinceLastService)
	require.Equal(t, priorID, *report.PreviousServiceID)
	require.Equal(t, []int64{10}, report.OverlappingFaults)
}

func TestCheckPreviousServicesOutsideWindow(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	priorID := seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusDelivered,
		CreatedAt: now.Add(-40 * 24 * time.Hour),
	})

	report, err := svc.CheckPreviousServices(ctx, testScope, CheckServicesRequest{DeviceID: 1})
	require.NoError(t, err)
	require.False(t, report.IsRepeated)
	require.Equal(t, priorID, *report.PreviousServiceID)
}

func TestCheckPreviousServicesIgnoresCancelled(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusCancelled,
		CreatedAt: now.Add(-2 * 24 * time.Hour),
	})

	report, err := svc.CheckPreviousServices(context.Background(), testScope, CheckServicesRequest{DeviceID: 1})
	require.NoError(t, err)
	require.False(t, report.IsRepeated)
	require.Nil(t, report.PreviousServiceID)
}

func TestCheckActiveServices(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusDelivered})
	activeID := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusWaitingParts})

	report, err := svc.CheckActiveServices(ctx, testScope, CheckServicesRequest{DeviceID: 1})
	require.NoError(t, err)
	require.True(t, report.HasActive)
	require.Len(t, report.Tickets, 1)
	require.Equal(t, activeID, report.Tickets[0].ID)

	report, err = svc.CheckActiveServices(ctx, testScope, CheckServicesRequest{DeviceID: 42})
	require.NoError(t, err)
	require.False(t, report.HasActive)
}

func TestProcessRefund(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusDelivered, AdvancePayment: money("50"),
	})
	repo.payments = append(repo.payments, PaymentEntry{TicketID: id, Amount: money("150"), MethodID: 1})

	// Zero amount means the full total paid.
	updated, err := svc.ProcessRefund(ctx, testScope, id, RefundRequest{
		Reason: "customer dissatisfied with repair", Method: "cash", ProcessedBy: 2,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, updated.Status)
	require.True(t, money("200").Equal(*updated.RefundAmount))
	require.NotNil(t, updated.RefundedAt)

	stored, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.Len(t, stored.History, 1)
	require.Equal(t, StatusCancelled, stored.History[0].Status)

	_, err = svc.ProcessRefund(ctx, testScope, id, RefundRequest{Reason: "again", Method: "cash", ProcessedBy: 2})
	require.ErrorIs(t, err, ErrAlreadyRefunded)
}

func TestProcessRefundGuards(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	unpaid := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusCompleted})
	_, err := svc.ProcessRefund(ctx, testScope, unpaid, RefundRequest{Reason: "nothing paid", Method: "cash", ProcessedBy: 2})
	require.ErrorIs(t, err, ErrRefundNotDue)

	paid := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusCompleted, AdvancePayment: money("100")})
	_, err = svc.ProcessRefund(ctx, testScope, paid, RefundRequest{
		Amount: money("150"), Reason: "too much", Method: "cash", ProcessedBy: 2,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteTicketRestoresApprovedStock(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, dispatcher := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Display Assembly")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	repo.images[id] = []string{"tickets/1/front.jpg"}
	method := ApprovalTagged
	seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 2, IsApproved: true, ApprovalMethod: &method,
	})
	seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 3, IsExtraSpare: true,
	})

	require.NoError(t, svc.DeleteTicket(ctx, testScope, id, 2))

	// Only the approved quantity comes back; the unapproved row never deducted.
	require.EqualValues(t, 7, repo.inventory[1].StockQuantity)
	require.Len(t, repo.movements, 1)
	require.Equal(t, stock.MovementRestore, repo.movements[0].Type)

	_, err := svc.Get(ctx, testScope, id)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Equal(t, []EffectKind{EffectImageCleanup}, dispatcher.kinds())
	require.Equal(t, []string{"tickets/1/front.jpg"}, dispatcher.effects[0].ImageKeys)
}

func TestDeleteTicketLockedAfterCompletion(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	for _, status := range []Status{StatusCompleted, StatusDelivered} {
		id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: status})
		err := svc.DeleteTicket(ctx, testScope, id, 2)
		require.ErrorIs(t, err, ErrDeleteLocked, "status %s", status)
	}
}

func TestUpdateTicketRecomputesCostOnLabourChange(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	method := ApprovalCustomer
	seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 1, TotalPrice: money("80"), IsApproved: true, ApprovalMethod: &method,
	})

	labour := money("100")
	updated, err := svc.UpdateTicket(ctx, testScope, id, UpdateTicketRequest{LabourCharge: &labour, UpdatedBy: 2})
	require.NoError(t, err)
	require.True(t, money("180").Equal(updated.ActualCost))

	negative := money("-1")
	_, err = svc.UpdateTicket(ctx, testScope, id, UpdateTicketRequest{Discount: &negative, UpdatedBy: 2})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAddFaultRaisesEstimate(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	refs.faultPrices[12] = money("60")
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress, EstimatedCost: money("150")})

	updated, err := svc.AddFault(ctx, testScope, id, AddFaultRequest{FaultID: 12, AddedBy: 2})
	require.NoError(t, err)
	require.True(t, money("210").Equal(updated.EstimatedCost))
	require.Equal(t, []int64{12}, repo.faults[id])
}
