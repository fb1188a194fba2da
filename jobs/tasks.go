// Package jobs carries the asynq task definitions and the worker that drains
// them. Every ticket side effect becomes one task; handlers are retried by
// asynq until they succeed or exhaust the queue policy.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskJobSheet renders and stores the printable job sheet for a ticket.
	TaskJobSheet = "jobsheet:generate"
	// TaskNotifyAssigned tells a technician a ticket landed on their bench.
	TaskNotifyAssigned = "notify:assigned"
	// TaskPointsCompleted and TaskPointsDelivered award technician points.
	TaskPointsCompleted = "points:completed"
	TaskPointsDelivered = "points:delivered"
	// TaskWarrantyRecord creates the warranty record after delivery.
	TaskWarrantyRecord = "warranty:create"
	// TaskImageCleanup removes stored images after a ticket deletion.
	TaskImageCleanup = "images:cleanup"
)

// TicketPayload carries tasks that only need the ticket reference.
type TicketPayload struct {
	TicketID int64 `json:"ticket_id"`
	ActorID  int64 `json:"actor_id,omitempty"`
}

// AssignmentPayload carries technician-facing tasks.
type AssignmentPayload struct {
	TicketID     int64 `json:"ticket_id"`
	TechnicianID int64 `json:"technician_id"`
}

// CleanupPayload carries the storage keys left behind by a deleted ticket.
type CleanupPayload struct {
	TicketID  int64    `json:"ticket_id"`
	ImageKeys []string `json:"image_keys"`
}

// NewTicketTask constructs a task of the given type around a TicketPayload.
func NewTicketTask(taskType string, payload TicketPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// NewAssignmentTask constructs a task around an AssignmentPayload.
func NewAssignmentTask(taskType string, payload AssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

// NewCleanupTask constructs an image-cleanup task.
func NewCleanupTask(payload CleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImageCleanup, data), nil
}
