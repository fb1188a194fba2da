package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixpoint-erp/fixpoint/internal/jobs"
)

// SheetGenerator renders and stores the job sheet for a ticket.
type SheetGenerator interface {
	Generate(ctx context.Context, ticketID int64) error
}

// NotificationSender delivers assignment notifications to technicians.
type NotificationSender interface {
	NotifyAssigned(ctx context.Context, ticketID, technicianID int64) error
}

// PointsAwarder credits technician loyalty points for a lifecycle event. The
// awarder deduplicates on (ticket, event) so redelivered tasks stay safe.
type PointsAwarder interface {
	Award(ctx context.Context, ticketID, technicianID int64, event string) error
}

// WarrantyRecorder creates the warranty record once a ticket is delivered.
type WarrantyRecorder interface {
	Record(ctx context.Context, ticketID, actorID int64) error
}

// ImageCleaner removes stored objects by key.
type ImageCleaner interface {
	Remove(ctx context.Context, keys []string) error
}

// Handlers bundles the collaborators the worker needs.
type Handlers struct {
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Sheets   SheetGenerator
	Notifier NotificationSender
	Points   PointsAwarder
	Warranty WarrantyRecorder
	Cleaner  ImageCleaner
}

func (h Handlers) handleJobSheet(ctx context.Context, t *asynq.Task) error {
	var payload TicketPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track(TaskJobSheet)
	return tracker.End(h.Sheets.Generate(ctx, payload.TicketID))
}

func (h Handlers) handleNotifyAssigned(ctx context.Context, t *asynq.Task) error {
	var payload AssignmentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track(TaskNotifyAssigned)
	return tracker.End(h.Notifier.NotifyAssigned(ctx, payload.TicketID, payload.TechnicianID))
}

func (h Handlers) handlePoints(event string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AssignmentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.TechnicianID == 0 {
			h.Logger.Warn("points task without technician", slog.Int64("ticket_id", payload.TicketID))
			return nil
		}
		tracker := h.Metrics.Track(t.Type())
		return tracker.End(h.Points.Award(ctx, payload.TicketID, payload.TechnicianID, event))
	}
}

func (h Handlers) handleWarranty(ctx context.Context, t *asynq.Task) error {
	var payload TicketPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track(TaskWarrantyRecord)
	return tracker.End(h.Warranty.Record(ctx, payload.TicketID, payload.ActorID))
}

func (h Handlers) handleImageCleanup(ctx context.Context, t *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.ImageKeys) == 0 {
		return nil
	}
	tracker := h.Metrics.Track(TaskImageCleanup)
	return tracker.End(h.Cleaner.Remove(ctx, payload.ImageKeys))
}
