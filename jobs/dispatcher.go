package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/fixpoint-erp/fixpoint/internal/tickets"
)

// Dispatcher enqueues ticket side effects after the owning transaction has
// committed. Enqueue failures are logged and swallowed; the ticket mutation
// already happened and must not be rolled back by queue trouble.
type Dispatcher struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewDispatcher builds Dispatcher.
func NewDispatcher(client *asynq.Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

var _ tickets.EffectDispatcher = (*Dispatcher)(nil)

// Dispatch converts each side effect into a queued task.
func (d *Dispatcher) Dispatch(ctx context.Context, effects []tickets.SideEffect) {
	for _, effect := range effects {
		task, err := d.build(effect)
		if err != nil {
			d.logger.Error("build effect task",
				slog.String("kind", string(effect.Kind)),
				slog.Int64("ticket_id", effect.TicketID),
				slog.Any("error", err))
			continue
		}
		if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
			d.logger.Error("enqueue effect task",
				slog.String("kind", string(effect.Kind)),
				slog.Int64("ticket_id", effect.TicketID),
				slog.Any("error", err))
		}
	}
}

func (d *Dispatcher) build(effect tickets.SideEffect) (*asynq.Task, error) {
	switch effect.Kind {
	case tickets.EffectJobSheet:
		return NewTicketTask(TaskJobSheet, TicketPayload{TicketID: effect.TicketID, ActorID: effect.ActorID})
	case tickets.EffectNotifyAssigned:
		return NewAssignmentTask(TaskNotifyAssigned, AssignmentPayload{TicketID: effect.TicketID, TechnicianID: effect.TechnicianID})
	case tickets.EffectPointsCompleted:
		return NewAssignmentTask(TaskPointsCompleted, AssignmentPayload{TicketID: effect.TicketID, TechnicianID: effect.TechnicianID})
	case tickets.EffectPointsDelivered:
		return NewAssignmentTask(TaskPointsDelivered, AssignmentPayload{TicketID: effect.TicketID, TechnicianID: effect.TechnicianID})
	case tickets.EffectWarrantyRecord:
		return NewTicketTask(TaskWarrantyRecord, TicketPayload{TicketID: effect.TicketID, ActorID: effect.ActorID})
	case tickets.EffectImageCleanup:
		return NewCleanupTask(CleanupPayload{TicketID: effect.TicketID, ImageKeys: effect.ImageKeys})
	default:
		return nil, errUnknownEffect(effect.Kind)
	}
}

type errUnknownEffect tickets.EffectKind

func (e errUnknownEffect) Error() string {
	return "unknown effect kind " + string(e)
}
