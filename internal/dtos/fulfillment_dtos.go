package dtos

import (
	"time"

	"github.com/google/uuid"
)

/*
CreateShiftRequest is the payload for POST /api/v1/shifts. Times are RFC3339;
the shift is created in DRAFT and opened with a separate publish call.
*/
type CreateShiftRequest struct {
	VenueID       uuid.UUID `json:"venue_id" validate:"required"`
	Role          string    `json:"role" validate:"required,min=2,max=80"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	Latitude      float64   `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64   `json:"longitude" validate:"min=-180,max=180"`
	HourlyRate    float64   `json:"hourly_rate" validate:"required,gt=0"`
	WorkersNeeded int       `json:"workers_needed" validate:"required,min=1,max=100"`
}

/*
ApplyRequest creates an application for a LIVE shift. CounterRate, when
present, puts the application in COUNTERED awaiting venue resolution.
*/
type ApplyRequest struct {
	ShiftID     uuid.UUID `json:"shift_id" validate:"required"`
	CounterRate *float64  `json:"counter_rate,omitempty" validate:"omitempty,gt=0"`
}

/*
LocationActionRequest carries the device location fix for geofenced
attendance actions (check-in, check-out):

  - lat, lng: WGS-84 coordinates (range-checked in the controller)
  - accuracy: 1-σ horizontal radius in meters
  - timestamp: Unix ms from the device
  - is_mock: OS-level location mocking/simulator flag
*/
type LocationActionRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
	IsMock    bool    `json:"is_mock"`
	Notes     string  `json:"notes,omitempty" validate:"max=500"`
}

/*
SetAvailabilityRequest upserts one day of the worker's calendar. Date uses
the 2006-01-02 layout.
*/
type SetAvailabilityRequest struct {
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool    `json:"is_available"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=200"`
}

// BulkSetAvailabilityRequest applies one value across many days.
type BulkSetAvailabilityRequest struct {
	Dates       []string `json:"dates" validate:"required,min=1,max=366,dive,datetime=2006-01-02"`
	IsAvailable bool     `json:"is_available"`
}

/*
RecurringPatternRequest seeds availability from a weekday map over the next
horizon_days days. Keys are lowercase English weekday names; weekdays
missing from the map are left untouched.
*/
type RecurringPatternRequest struct {
	Weekdays    map[string]bool `json:"weekdays" validate:"required,min=1"`
	HorizonDays int             `json:"horizon_days" validate:"required,min=1,max=366"`
}

// BulkSetAvailabilityResponse reports the locked days that were skipped.
type BulkSetAvailabilityResponse struct {
	SkippedDates []string `json:"skipped_dates"`
}
