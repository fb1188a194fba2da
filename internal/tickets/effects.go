package tickets

import "context"

// EffectKind names a post-commit side effect.
type EffectKind string

const (
	// EffectJobSheet renders and stores the printable job sheet.
	EffectJobSheet EffectKind = "jobsheet:generate"
	// EffectNotifyAssigned pushes an assignment notification to the technician.
	EffectNotifyAssigned EffectKind = "notify:assigned"
	// EffectPointsCompleted and EffectPointsDelivered award technician loyalty
	// points, once per transition into the respective state.
	EffectPointsCompleted EffectKind = "points:completed"
	EffectPointsDelivered EffectKind = "points:delivered"
	// EffectWarrantyRecord creates the warranty record after delivery.
	EffectWarrantyRecord EffectKind = "warranty:create"
	// EffectImageCleanup removes stored images after a ticket deletion.
	EffectImageCleanup EffectKind = "images:cleanup"
)

// SideEffect is one post-commit intent handed to the dispatcher. Effects run
// outside the transaction; their failure is logged and never rolls back the
// ticket mutation.
type SideEffect struct {
	Kind         EffectKind
	TicketID     int64
	ActorID      int64
	TechnicianID int64
	ImageKeys    []string
}

// EffectDispatcher executes side effects detached from the caller. Dispatch
// must not return an error; delivery is best-effort.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, effects []SideEffect)
}
