package models

import (
	"time"

	"github.com/google/uuid"
)

// Timesheet is the computed record of worked time and earnings for one
// worker's attendance at one shift. It is derived at checkout and handed to
// the settlement collaborator; it is not separately persisted before then.
type Timesheet struct {
	ShiftID  uuid.UUID `json:"shift_id"`
	WorkerID uuid.UUID `json:"worker_id"`

	CheckInAt  time.Time `json:"check_in_at"`
	CheckOutAt time.Time `json:"check_out_at"`

	BreakMinutes  int     `json:"break_minutes"`
	WorkedMinutes int     `json:"worked_minutes"`
	HourlyRate    float64 `json:"hourly_rate"`
	Earnings      float64 `json:"earnings"`
}

// MatchScore is a computed view of one worker's fit for one shift. Score and
// AcceptLikelihood are independent figures so a caller can optimize for
// quality-of-match or probability-of-fill.
type MatchScore struct {
	WorkerID uuid.UUID `json:"worker_id"`
	ShiftID  uuid.UUID `json:"shift_id"`

	Score            float64  `json:"score"`
	AcceptLikelihood float64  `json:"accept_likelihood"`
	ReasonTags       []string `json:"reason_tags"`
}
