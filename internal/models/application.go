package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatusType string

const (
	ApplicationStatusApplied   ApplicationStatusType = "APPLIED"
	ApplicationStatusCountered ApplicationStatusType = "COUNTERED"
	ApplicationStatusAccepted  ApplicationStatusType = "ACCEPTED"
	ApplicationStatusHired     ApplicationStatusType = "HIRED"
	ApplicationStatusRejected  ApplicationStatusType = "REJECTED"
	ApplicationStatusWithdrawn ApplicationStatusType = "WITHDRAWN"
)

// Application is one worker's request (or counter-offer) to fill one shift.
// ShiftID/WorkerID are immutable after creation; there is at most one
// application per (shift, worker) pair.
type Application struct {
	Versioned

	ID       uuid.UUID             `json:"id"`
	ShiftID  uuid.UUID             `json:"shift_id"`
	WorkerID uuid.UUID             `json:"worker_id"`
	Status   ApplicationStatusType `json:"status"`

	OfferedRate float64  `json:"offered_rate"`
	CounterRate *float64 `json:"counter_rate,omitempty"`
	HiredRate   *float64 `json:"hired_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Application) GetID() string {
	return a.ID.String()
}

func (a *Application) IsTerminal() bool {
	switch a.Status {
	case ApplicationStatusHired, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

// IsCommitted reports whether the application currently holds (or is about to
// hold) the worker's time: hired and accepted applications block overlapping
// candidacies.
func (a *Application) IsCommitted() bool {
	return a.Status == ApplicationStatusHired || a.Status == ApplicationStatusAccepted
}
