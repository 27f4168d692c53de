package controllers

import (
	"errors"
	"net/http"

	"github.com/shiftloop/fulfillment-service/internal/utils"
)

// respondServiceError maps domain sentinels to HTTP status + stable error
// code. Geofence failures carry the measured distance in Details so the
// client can tell the worker how far off they are.
func respondServiceError(w http.ResponseWriter, err error, publicMessage string) {
	var geoErr *utils.GeofenceError
	if errors.As(err, &geoErr) {
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeOutOfRange,
			"Too far from the venue", map[string]float64{
				"distance_meters": geoErr.DistanceMeters,
				"radius_meters":   geoErr.RadiusMeters,
			})
		return
	}

	switch {
	case errors.Is(err, utils.ErrNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, publicMessage, nil)
	case errors.Is(err, utils.ErrInvalidPayload):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, publicMessage, nil)
	case errors.Is(err, utils.ErrPastDate):
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodePastDate, "Date is in the past", nil)
	case errors.Is(err, utils.ErrInvalidState):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeInvalidState, publicMessage, nil)
	case errors.Is(err, utils.ErrTooEarly):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeTooEarly, "Too early for this action", nil)
	case errors.Is(err, utils.ErrTooLate):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeTooLate, "Too late for this action", nil)
	case errors.Is(err, utils.ErrCapacityExceeded):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeCapacityExceeded, "Shift is already at capacity", nil)
	case errors.Is(err, utils.ErrDuplicateApplication):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeDuplicate, "Application already exists for this shift", nil)
	case errors.Is(err, utils.ErrAlreadyCheckedIn):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeAlreadyCheckedIn, "Already checked in", nil)
	case errors.Is(err, utils.ErrDateLocked):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeDateLocked, "Date is locked by a confirmed shift", nil)
	case errors.Is(err, utils.ErrBreakAlreadyActive):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeBreakAlreadyActive, "A break is already active", nil)
	case errors.Is(err, utils.ErrNoActiveBreak):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeNoActiveBreak, "No active break to end", nil)
	case errors.Is(err, utils.ErrNotHired):
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeNotHired, "Worker is not hired for this shift", nil)
	case errors.Is(err, utils.ErrNotCheckedIn):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeNotCheckedIn, "No check-in on record", nil)
	case errors.Is(err, utils.ErrOnBreak):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeOnBreak, "End the active break first", nil)
	case errors.Is(err, utils.ErrShiftNotOpen):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeShiftNotOpen, "Shift is not open for applications", nil)
	case errors.Is(err, utils.ErrAvailabilityConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeAvailabilityConflict, "Worker is unavailable on that date", nil)
	case errors.Is(err, utils.ErrRowVersionConflict):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeRowVersionConflict, "Resource changed concurrently, please retry", nil)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, publicMessage, nil, err)
	}
}
