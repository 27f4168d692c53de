package models

import (
	"time"

	"github.com/google/uuid"
)

// BreakEntry is one break taken during a shift. EndAt is nil while the break
// is active. Breaks are chronological and non-overlapping.
type BreakEntry struct {
	StartAt time.Time  `json:"start_at"`
	EndAt   *time.Time `json:"end_at,omitempty"`
}

// CheckInRecord tracks one worker's attendance at one shift, from geofenced
// check-in through breaks to checkout. WorkedMinutes/Earnings are written once
// at checkout and never recomputed.
type CheckInRecord struct {
	Versioned

	ID       uuid.UUID `json:"id"`
	ShiftID  uuid.UUID `json:"shift_id"`
	WorkerID uuid.UUID `json:"worker_id"`

	CheckInAt  time.Time `json:"check_in_at"`
	CheckInLat float64   `json:"check_in_lat"`
	CheckInLng float64   `json:"check_in_lng"`

	CheckOutAt  *time.Time `json:"check_out_at,omitempty"`
	CheckOutLat *float64   `json:"check_out_lat,omitempty"`
	CheckOutLng *float64   `json:"check_out_lng,omitempty"`

	Breaks []BreakEntry `json:"breaks"`
	Notes  string       `json:"notes,omitempty"`

	NoShow bool `json:"no_show"`

	WorkedMinutes *int     `json:"worked_minutes,omitempty"`
	Earnings      *float64 `json:"earnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *CheckInRecord) GetID() string {
	return r.ID.String()
}

// ActiveBreak returns the currently open break, or nil.
func (r *CheckInRecord) ActiveBreak() *BreakEntry {
	if len(r.Breaks) == 0 {
		return nil
	}
	last := &r.Breaks[len(r.Breaks)-1]
	if last.EndAt == nil {
		return last
	}
	return nil
}

// BreakMinutes sums the durations of all closed breaks.
func (r *CheckInRecord) BreakMinutes() int {
	total := time.Duration(0)
	for _, b := range r.Breaks {
		if b.EndAt != nil {
			total += b.EndAt.Sub(b.StartAt)
		}
	}
	return int(total.Minutes())
}

func (r *CheckInRecord) IsClosed() bool {
	return r.CheckOutAt != nil
}
