package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is one worker's availability for one calendar day. Absence
// of a slot means the worker is available by default. LockedBy is set when a
// hire reserves the day; a locked slot cannot be mutated by the worker until
// the locking shift releases it.
type AvailabilitySlot struct {
	Versioned

	WorkerID    uuid.UUID  `json:"worker_id"`
	Date        time.Time  `json:"date"`
	IsAvailable bool       `json:"is_available"`
	Reason      *string    `json:"reason,omitempty"`
	LockedBy    *uuid.UUID `json:"locked_by,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (s *AvailabilitySlot) GetID() string {
	return s.WorkerID.String() + "/" + s.Date.Format(DateLayout)
}

func (s *AvailabilitySlot) IsLocked() bool {
	return s.LockedBy != nil
}

// DateLayout is the canonical encoding for availability dates (no time
// component, always UTC).
const DateLayout = "2006-01-02"

// DateOnly truncates t to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
