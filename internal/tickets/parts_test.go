package tickets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
)

func TestAddPartTaggedDeductsImmediately(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 10, "Battery")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress, LabourCharge: money("100")})
	faultTag := int64(10)

	part, err := svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 2, UnitPrice: money("50"), FaultTag: &faultTag, AddedBy: 2,
	})
	require.NoError(t, err)
	require.True(t, part.IsApproved)
	require.Equal(t, ApprovalTagged, *part.ApprovalMethod)
	require.True(t, money("100").Equal(part.TotalPrice))

	require.EqualValues(t, 8, repo.inventory[1].StockQuantity)
	require.Len(t, repo.movements, 1)
	require.Equal(t, stock.MovementConsume, repo.movements[0].Type)
	require.Equal(t, "part:1", repo.movements[0].ReferenceID)

	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, money("200").Equal(ticket.ActualCost), "labour 100 + tagged 2x50")
}

func TestAddPartExtraSpareWaitsForApproval(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Speaker")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})

	part, err := svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 3, UnitPrice: money("30"), IsExtraSpare: true, AddedBy: 2,
	})
	require.NoError(t, err)
	require.False(t, part.IsApproved)

	// Availability was only checked, never deducted.
	require.EqualValues(t, 5, repo.inventory[1].StockQuantity)
	require.Empty(t, repo.movements)

	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, ticket.ActualCost.IsZero())
}

func TestAddPartChecks(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 2, "Camera")
	seedInventory(repo, 2, 9, 50, "Other Branch Camera")
	repo.inventory[3] = &stock.BranchInventory{ID: 3, CompanyID: 1, BranchID: 1, ItemName: "Dormant", StockQuantity: 4, IsActive: false}
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})

	_, err := svc.AddPart(ctx, testScope, id, AddPartRequest{InventoryID: 1, Quantity: 3, AddedBy: 2})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = svc.AddPart(ctx, testScope, id, AddPartRequest{InventoryID: 2, Quantity: 1, AddedBy: 2})
	require.ErrorIs(t, err, ErrBranchMismatch)

	_, err = svc.AddPart(ctx, testScope, id, AddPartRequest{InventoryID: 3, Quantity: 1, AddedBy: 2})
	require.ErrorIs(t, err, ErrInventoryDormant)

	_, err = svc.AddPart(ctx, testScope, id, AddPartRequest{InventoryID: 1, Quantity: 0, AddedBy: 2})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddPart(ctx, testScope, id, AddPartRequest{InventoryID: 99, Quantity: 1, AddedBy: 2})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddPartMergesUnapprovedDuplicate(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Flex Cable")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})

	first, err := svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 2, UnitPrice: money("25"), IsExtraSpare: true, AddedBy: 2,
	})
	require.NoError(t, err)

	second, err := svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 2, UnitPrice: money("25"), IsExtraSpare: true, AddedBy: 2,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 4, second.Quantity)
	require.True(t, money("100").Equal(second.TotalPrice))
	require.Len(t, repo.partsOf(id), 1)

	// The merged quantity must still fit the current stock.
	_, err = svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 2, UnitPrice: money("25"), IsExtraSpare: true, AddedBy: 2,
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestApprovePart(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Screen")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress, LabourCharge: money("40")})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 2, UnitPrice: money("60"), TotalPrice: money("120"), IsExtraSpare: true,
	})

	part, err := svc.ApprovePart(ctx, testScope, partID, ApprovePartRequest{Method: ApprovalPhone, ApprovedBy: 3})
	require.NoError(t, err)
	require.True(t, part.IsApproved)
	require.Equal(t, ApprovalPhone, *part.ApprovalMethod)
	require.NotNil(t, part.ApprovedAt)
	require.EqualValues(t, 3, *part.ApprovedBy)

	require.EqualValues(t, 3, repo.inventory[1].StockQuantity)
	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, money("160").Equal(ticket.ActualCost))

	// Approval is one-way.
	_, err = svc.ApprovePart(ctx, testScope, partID, ApprovePartRequest{Method: ApprovalCustomer, ApprovedBy: 3})
	require.ErrorIs(t, err, ErrAlreadyApproved)
}

func TestApprovePartRechecksStock(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Screen")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 4, UnitPrice: money("60"), TotalPrice: money("240"), IsExtraSpare: true,
	})

	// Another ticket consumed the stock between add and approval.
	repo.inventory[1].StockQuantity = 3

	_, err := svc.ApprovePart(ctx, testScope, partID, ApprovePartRequest{Method: ApprovalInPerson, ApprovedBy: 3})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.False(t, ticket.Parts[0].IsApproved)
	require.EqualValues(t, 3, repo.inventory[1].StockQuantity)
}

func TestApprovePartRejectsReservedMethods(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	for _, method := range []ApprovalMethod{ApprovalWarranty, ApprovalTagged} {
		_, err := svc.ApprovePart(ctx, testScope, 1, ApprovePartRequest{Method: method, ApprovedBy: 3})
		require.ErrorIs(t, err, shared.ErrValidation, "method %s", method)
	}
}

func TestApprovePartForWarranty(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Mainboard")
	id := seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusInProgress,
		IsWarrantyRepair: true, LabourCharge: money("0"),
	})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 1, UnitPrice: money("300"), TotalPrice: money("300"), IsExtraSpare: true,
	})

	part, err := svc.ApprovePartForWarranty(ctx, testScope, partID, ApproveWarrantyRequest{ApprovedBy: 3})
	require.NoError(t, err)
	require.Equal(t, ApprovalWarranty, *part.ApprovalMethod)

	// Stock moves, the bill does not.
	require.EqualValues(t, 4, repo.inventory[1].StockQuantity)
	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, ticket.ActualCost.IsZero())
}

func TestApprovePartForWarrantyRequiresWarrantyTicket(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 5, "Mainboard")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 1, IsExtraSpare: true,
	})

	_, err := svc.ApprovePartForWarranty(ctx, testScope, partID, ApproveWarrantyRequest{ApprovedBy: 3})
	require.ErrorIs(t, err, ErrNotWarrantyRepair)
	require.EqualValues(t, 5, repo.inventory[1].StockQuantity)
}

func TestApproveLegacyPartFails(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceLegacy, LegacyPartID: 7},
		Quantity: 1, IsExtraSpare: true,
	})

	_, err := svc.ApprovePart(ctx, testScope, partID, ApprovePartRequest{Method: ApprovalCustomer, ApprovedBy: 3})
	require.ErrorIs(t, err, ErrLegacyPartNoStock)
}

func TestUpdatePartQuantityOnApprovedPart(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 6, "Screen")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	method := ApprovalCustomer
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 2, UnitPrice: money("60"), TotalPrice: money("120"),
		IsApproved: true, ApprovalMethod: &method, IsExtraSpare: true,
	})

	// Raising the quantity deducts the delta.
	qty := int64(5)
	part, err := svc.UpdatePart(ctx, testScope, partID, UpdatePartRequest{Quantity: &qty, UpdatedBy: 2})
	require.NoError(t, err)
	require.True(t, money("300").Equal(part.TotalPrice))
	require.EqualValues(t, 3, repo.inventory[1].StockQuantity)
	require.Equal(t, stock.MovementConsume, repo.movements[len(repo.movements)-1].Type)

	// Lowering it restores the delta.
	qty = 1
	part, err = svc.UpdatePart(ctx, testScope, partID, UpdatePartRequest{Quantity: &qty, UpdatedBy: 2})
	require.NoError(t, err)
	require.EqualValues(t, 7, repo.inventory[1].StockQuantity)
	require.Equal(t, stock.MovementRestore, repo.movements[len(repo.movements)-1].Type)

	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, money("60").Equal(ticket.ActualCost))

	// The delta must fit the available stock.
	qty = 20
	_, err = svc.UpdatePart(ctx, testScope, partID, UpdatePartRequest{Quantity: &qty, UpdatedBy: 2})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestUpdatePartValidation(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	_, err := svc.UpdatePart(ctx, testScope, 1, UpdatePartRequest{UpdatedBy: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	zero := int64(0)
	_, err = svc.UpdatePart(ctx, testScope, 1, UpdatePartRequest{Quantity: &zero, UpdatedBy: 2})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemovePartRoundTrip(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 10, "Battery")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})

	part, err := svc.AddPart(ctx, testScope, id, AddPartRequest{
		InventoryID: 1, Quantity: 3, UnitPrice: money("40"), AddedBy: 2,
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, repo.inventory[1].StockQuantity)

	require.NoError(t, svc.RemovePart(ctx, testScope, part.ID, 2))

	// Add then remove leaves stock and cost where they started.
	require.EqualValues(t, 10, repo.inventory[1].StockQuantity)
	ticket, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.True(t, ticket.ActualCost.IsZero())
	require.Empty(t, ticket.Parts)
}

func TestRemoveUnapprovedPartNoStockEffect(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	seedInventory(repo, 1, 1, 10, "Battery")
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 3, IsExtraSpare: true,
	})

	require.NoError(t, svc.RemovePart(ctx, testScope, partID, 2))
	require.EqualValues(t, 10, repo.inventory[1].StockQuantity)
	require.Empty(t, repo.movements)
}

func TestRemoveLegacyPartResolvesName(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	repo.legacy[7] = "Old Stock LCD"
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partID := seedPart(repo, PartUsage{
		TicketID: id, Ref: PartRef{Source: PartSourceLegacy, LegacyPartID: 7},
		Quantity: 1, IsExtraSpare: true,
	})

	require.NoError(t, svc.RemovePart(ctx, testScope, partID, 2))
	require.Empty(t, repo.partsOf(id))
	require.Empty(t, repo.movements)
}

func TestConcurrentApprovalOnlyOneWins(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	// Two tickets reserve the same last unit; the ledger admits only one.
	seedInventory(repo, 1, 1, 1, "Rare IC")
	ticketA := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	ticketB := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	partA := seedPart(repo, PartUsage{
		TicketID: ticketA, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 1, UnitPrice: money("10"), TotalPrice: money("10"), IsExtraSpare: true,
	})
	partB := seedPart(repo, PartUsage{
		TicketID: ticketB, Ref: PartRef{Source: PartSourceInventory, InventoryID: 1},
		Quantity: 1, UnitPrice: money("10"), TotalPrice: money("10"), IsExtraSpare: true,
	})

	_, errA := svc.ApprovePart(ctx, testScope, partA, ApprovePartRequest{Method: ApprovalCustomer, ApprovedBy: 3})
	_, errB := svc.ApprovePart(ctx, testScope, partB, ApprovePartRequest{Method: ApprovalCustomer, ApprovedBy: 3})

	require.NoError(t, errA)
	require.ErrorIs(t, errB, shared.ErrInsufficientStock)
	require.EqualValues(t, 0, repo.inventory[1].StockQuantity)
}
