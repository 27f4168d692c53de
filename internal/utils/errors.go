package utils

import (
	"errors"
	"fmt"
)

/*
   Sentinel errors for fulfillment domain logic, one per violated
   precondition. Controllers do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	// State errors: operation invoked outside the allowed transition or
	// time window.
	ErrInvalidState = errors.New("invalid_state")
	ErrTooEarly     = errors.New("too_early")
	ErrTooLate      = errors.New("too_late")

	// Conflict errors: a concurrent or prior action already consumed the
	// resource.
	ErrCapacityExceeded     = errors.New("capacity_exceeded")
	ErrDuplicateApplication = errors.New("duplicate")
	ErrAlreadyCheckedIn     = errors.New("already_checked_in")
	ErrDateLocked           = errors.New("date_locked")
	ErrBreakAlreadyActive   = errors.New("break_already_active")
	ErrNoActiveBreak        = errors.New("no_active_break")

	// Validation errors: caller input rejected before any state mutation.
	ErrPastDate       = errors.New("past_date")
	ErrInvalidPayload = errors.New("invalid_payload")

	// Attendance preconditions.
	ErrNotHired     = errors.New("not_hired")
	ErrNotCheckedIn = errors.New("not_checked_in")
	ErrOnBreak      = errors.New("on_break")

	// Application preconditions.
	ErrShiftNotOpen         = errors.New("shift_not_open")
	ErrAvailabilityConflict = errors.New("availability_conflict")

	ErrNotFound = errors.New("not_found")

	// Concurrency conflicts surfaced by repositories.
	ErrRowVersionConflict = errors.New("row_version_conflict")
	ErrNoRowsUpdated      = errors.New("no_rows_updated")
)

/*
   GeofenceError is returned when a check-in/out coordinate is too far from
   the venue. It carries the measured and allowed distances so the caller can
   self-correct; errors.Is(err, ErrOutOfRange) still works.
*/
var ErrOutOfRange = errors.New("out_of_range")

type GeofenceError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("out_of_range: %.0f m from venue (max %.0f m)", e.DistanceMeters, e.RadiusMeters)
}

func (e *GeofenceError) Unwrap() error { return ErrOutOfRange }

func NewGeofenceError(distanceMeters, radiusMeters float64) error {
	return &GeofenceError{DistanceMeters: distanceMeters, RadiusMeters: radiusMeters}
}
