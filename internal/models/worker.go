package models

import (
	"time"

	"github.com/google/uuid"
)

// Worker carries the read-only profile and history figures the engine
// consumes. Skill keywords and ratings originate from external account /
// CV-ingest services; the fulfillment engine only reads them and adjusts the
// history counters on no-shows and cancellations.
type Worker struct {
	Versioned

	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`

	// Skill/CV-summary keywords used by the match scorer.
	Skills []string `json:"skills"`

	// Reliability history.
	CompletedShiftCount int `json:"completed_shift_count"`
	NoShowCount         int `json:"no_show_count"`
	CancellationCount   int `json:"cancellation_count"`

	// Offer history for the acceptance-likelihood estimate.
	OffersReceived   int      `json:"offers_received"`
	OffersAccepted   int      `json:"offers_accepted"`
	LastAcceptedRate *float64 `json:"last_accepted_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Worker) GetID() string {
	return w.ID.String()
}

// HasHistory reports whether the worker has any completed, no-showed or
// cancelled shifts to base a reliability score on.
func (w *Worker) HasHistory() bool {
	return w.CompletedShiftCount+w.NoShowCount+w.CancellationCount > 0
}
