package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type EventType string

const (
	EventShiftPublished     EventType = "shift.published"
	EventShiftFilled        EventType = "shift.filled"
	EventShiftInProgress    EventType = "shift.in_progress"
	EventShiftCompleted     EventType = "shift.completed"
	EventShiftCancelled     EventType = "shift.cancelled"
	EventApplicationApplied EventType = "application.applied"
	EventApplicationHired   EventType = "application.hired"
	EventApplicationClosed  EventType = "application.closed"
	EventWorkerNoShow       EventType = "worker.no_show"
	EventTimesheetFinalized EventType = "timesheet.finalized"
)

// Event is a status-change notification emitted after a core state
// transition commits. Payload is event-specific (a Timesheet for
// timesheet.finalized, nil for pure transitions).
type Event struct {
	Type       EventType  `json:"type"`
	ShiftID    uuid.UUID  `json:"shift_id"`
	WorkerID   *uuid.UUID `json:"worker_id,omitempty"`
	Payload    any        `json:"payload,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// EventDispatcher fans events out to external collaborators (push
// notifications, settlement, analytics). Dispatch must never block the
// calling request path and never fails the committed transition.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// LogEventDispatcher is the default sink: structured log lines only.
// Deployments layer notification delivery on top via NotificationService.
type LogEventDispatcher struct{}

func (d *LogEventDispatcher) Dispatch(ctx context.Context, event Event) {
	entry := utils.Logger.
		WithField("event", string(event.Type)).
		WithField("shiftID", event.ShiftID)
	if event.WorkerID != nil {
		entry = entry.WithField("workerID", *event.WorkerID)
	}
	entry.Info("Fulfillment event")
}
