package tickets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

func TestChangeStatusWritesHistoryAndEffects(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, dispatcher := newTestService(repo, refs)
	ctx := context.Background()

	techID := int64(9)
	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress, TechnicianID: &techID})

	updated, err := svc.ChangeStatus(ctx, testScope, id, ChangeStatusRequest{Status: StatusCompleted, ChangedBy: 2})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.Equal(t, []EffectKind{EffectPointsCompleted}, dispatcher.kinds())

	updated, err = svc.ChangeStatus(ctx, testScope, id, ChangeStatusRequest{Status: StatusDelivered, ChangedBy: 2})
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, updated.Status)
	require.Equal(t, []EffectKind{EffectPointsCompleted, EffectPointsDelivered, EffectWarrantyRecord}, dispatcher.kinds())

	stored, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	require.Equal(t, StatusCompleted, stored.History[0].Status)
	require.Equal(t, StatusDelivered, stored.History[1].Status)
}

func TestChangeStatusRejectsIllegalEdge(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, dispatcher := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusPending})

	_, err := svc.ChangeStatus(ctx, testScope, id, ChangeStatusRequest{Status: StatusDelivered, ChangedBy: 2})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Empty(t, dispatcher.effects)

	stored, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.Equal(t, StatusPending, stored.Status)
	require.Empty(t, stored.History)
}

func TestChangeStatusNotServiceableNeedsReason(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{
		DeviceID: 1, CustomerID: 1, Status: StatusInProgress,
		EstimatedCost: money("200"), ActualCost: money("150"), LabourCharge: money("50"),
	})

	_, err := svc.ChangeStatus(ctx, testScope, id, ChangeStatusRequest{Status: StatusNotServiceable, ChangedBy: 2})
	require.ErrorIs(t, err, ErrReasonRequired)

	updated, err := svc.ChangeStatus(ctx, testScope, id, ChangeStatusRequest{
		Status: StatusNotServiceable, Reason: "board corrosion", ChangedBy: 2,
	})
	require.NoError(t, err)
	require.True(t, updated.EstimatedCost.IsZero())
	require.True(t, updated.ActualCost.IsZero())
	require.True(t, updated.LabourCharge.IsZero())
}

func TestAssignTechnician(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, dispatcher := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusPending})

	// First assignment moves a pending ticket into progress.
	updated, err := svc.AssignTechnician(ctx, testScope, id, AssignRequest{TechnicianID: 9, AssignedBy: 2})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
	require.EqualValues(t, 9, *updated.TechnicianID)
	require.Equal(t, []EffectKind{EffectNotifyAssigned}, dispatcher.kinds())
	require.EqualValues(t, 9, dispatcher.effects[0].TechnicianID)

	// Reassignment keeps the status and records the handover.
	updated, err = svc.AssignTechnician(ctx, testScope, id, AssignRequest{TechnicianID: 12, AssignedBy: 2})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
	require.EqualValues(t, 12, *updated.TechnicianID)

	stored, err := svc.Get(ctx, testScope, id)
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	require.Contains(t, stored.History[1].Note, "reassigned to 12")
}

func TestSetDeviceReturned(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	early := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})
	_, err := svc.SetDeviceReturned(ctx, testScope, early, DeviceReturnRequest{ReturnedBy: 2})
	require.ErrorIs(t, err, ErrDeviceReturnTooEarly)

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusDelivered})
	updated, err := svc.SetDeviceReturned(ctx, testScope, id, DeviceReturnRequest{ReturnedBy: 2})
	require.NoError(t, err)
	require.NotNil(t, updated.DeviceReturnedAt)

	_, err = svc.SetDeviceReturned(ctx, testScope, id, DeviceReturnRequest{ReturnedBy: 2})
	require.ErrorIs(t, err, ErrDeviceAlreadyReturned)
}

func TestAddNote(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusInProgress})

	note, err := svc.AddNote(ctx, testScope, id, NoteRequest{Body: "waiting on customer callback", AuthorID: 2})
	require.NoError(t, err)
	require.NotZero(t, note.ID)
	require.Len(t, repo.notes, 1)

	_, err = svc.AddNote(ctx, testScope, 999, NoteRequest{Body: "orphan", AuthorID: 2})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddPayments(t *testing.T) {
	repo := newMemRepo()
	refs := newFakeRefs()
	svc, _ := newTestService(repo, refs)
	ctx := context.Background()

	id := seedTicket(repo, Ticket{DeviceID: 1, CustomerID: 1, Status: StatusCompleted})

	entries, err := svc.AddPayments(ctx, testScope, id, []PaymentRequest{
		{Amount: money("120"), MethodID: 1, ReceivedBy: 2},
		{Amount: money("30"), MethodID: 1, ReceivedBy: 2},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Len(t, repo.payments, 2)

	_, err = svc.AddPayments(ctx, testScope, id, []PaymentRequest{{Amount: money("-10"), MethodID: 1, ReceivedBy: 2}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddPayments(ctx, testScope, id, []PaymentRequest{{Amount: money("10"), MethodID: 42, ReceivedBy: 2}})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
