package tickets

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// transitions is the allowed edge set of the status machine. COMPLETED may
// drop back to IN_PROGRESS for rework, which is why the completion timestamp
// is stamped only once.
var transitions = map[Status][]Status{
	StatusPending:        {StatusInProgress, StatusCancelled, StatusNotServiceable},
	StatusInProgress:     {StatusWaitingParts, StatusCompleted, StatusCancelled, StatusNotServiceable},
	StatusWaitingParts:   {StatusInProgress, StatusCancelled, StatusNotServiceable},
	StatusCompleted:      {StatusDelivered, StatusInProgress, StatusCancelled},
	StatusDelivered:      {},
	StatusCancelled:      {},
	StatusNotServiceable: {},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionResult names the post-commit side effects a transition triggers.
type TransitionResult struct {
	CreateWarrantyRecord bool
	AwardCompletedPoints bool
	AwardDeliveredPoints bool
}

// ApplyTransition mutates the ticket for a status change: validates the edge,
// stamps timestamps, zeroes charges on NOT_SERVICEABLE, and reports which
// post-commit triggers fire. It does not persist anything.
func ApplyTransition(t *Ticket, to Status, reason string, now time.Time) (TransitionResult, error) {
	var result TransitionResult
	if !to.IsValid() {
		return result, ErrInvalidStatus
	}
	if !CanTransition(t.Status, to) {
		return result, ErrIllegalTransition
	}

	switch to {
	case StatusCompleted:
		if t.CompletedAt == nil {
			stamp := now
			t.CompletedAt = &stamp
			result.AwardCompletedPoints = t.TechnicianID != nil
		}
	case StatusDelivered:
		stamp := now
		t.DeliveredAt = &stamp
		if t.CompletedAt == nil {
			t.CompletedAt = &stamp
		}
		result.CreateWarrantyRecord = true
		result.AwardDeliveredPoints = t.TechnicianID != nil
	case StatusNotServiceable:
		if strings.TrimSpace(reason) == "" {
			return TransitionResult{}, ErrReasonRequired
		}
		t.NotServiceableReason = &reason
		t.EstimatedCost = decimal.Zero
		t.ActualCost = decimal.Zero
		t.LabourCharge = decimal.Zero
	}

	t.Status = to
	t.UpdatedAt = now
	return result, nil
}
