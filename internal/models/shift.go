package models

import (
	"time"

	"github.com/google/uuid"
)

type ShiftStatusType string

const (
	ShiftStatusDraft      ShiftStatusType = "DRAFT"
	ShiftStatusLive       ShiftStatusType = "LIVE"
	ShiftStatusFilled     ShiftStatusType = "FILLED"
	ShiftStatusInProgress ShiftStatusType = "IN_PROGRESS"
	ShiftStatusCompleted  ShiftStatusType = "COMPLETED"
	ShiftStatusCancelled  ShiftStatusType = "CANCELLED"
)

// Shift is a venue-posted work opportunity with a time range, role, rate and
// worker capacity. Capacity and status are only ever mutated through the
// atomic repository operations so WorkersHired <= WorkersNeeded holds at all
// times.
type Shift struct {
	Versioned

	ID      uuid.UUID `json:"id"`
	VenueID uuid.UUID `json:"venue_id"`
	Role    string    `json:"role"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	HourlyRate    float64         `json:"hourly_rate"`
	WorkersNeeded int             `json:"workers_needed"`
	WorkersHired  int             `json:"workers_hired"`
	Status        ShiftStatusType `json:"status"`
	Boosted       bool            `json:"boosted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Shift) GetID() string {
	return s.ID.String()
}

// IsTerminal reports whether no further status transitions are possible.
func (s *Shift) IsTerminal() bool {
	return s.Status == ShiftStatusCompleted || s.Status == ShiftStatusCancelled
}

// ServiceDate is the calendar day the shift starts on, used as the
// availability-ledger key.
func (s *Shift) ServiceDate() time.Time {
	y, m, d := s.StartTime.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the shift's time range intersects [start, end).
func (s *Shift) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}
