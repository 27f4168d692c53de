package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	ErrCodeInvalidPayload       = "invalid_payload"
	ErrCodeValidation           = "validation_error"
	ErrCodeUnauthorized         = "unauthorized"
	ErrCodeForbidden            = "forbidden"
	ErrCodeTokenExpired         = "token_expired"
	ErrCodeInternal             = "internal_server_error"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidState         = "invalid_state"
	ErrCodeTooEarly             = "too_early"
	ErrCodeTooLate              = "too_late"
	ErrCodeCapacityExceeded     = "capacity_exceeded"
	ErrCodeDuplicate            = "duplicate"
	ErrCodeAlreadyCheckedIn     = "already_checked_in"
	ErrCodeDateLocked           = "date_locked"
	ErrCodeBreakAlreadyActive   = "break_already_active"
	ErrCodeNoActiveBreak        = "no_active_break"
	ErrCodePastDate             = "past_date"
	ErrCodeOutOfRange           = "out_of_range"
	ErrCodeNotHired             = "not_hired"
	ErrCodeNotCheckedIn         = "not_checked_in"
	ErrCodeOnBreak              = "on_break"
	ErrCodeShiftNotOpen         = "shift_not_open"
	ErrCodeAvailabilityConflict = "availability_conflict"
	ErrCodeLocationInaccurate   = "location_inaccurate"
	ErrCodeRowVersionConflict   = "row_version_conflict"
)

// ErrorResponse carries a stable machine code, a human message and an
// optional Details payload (e.g. the measured geofence distance).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondErrorWithCode builds a JSON error response with a standard code and
// message. The optional `details` is included if non-nil.
func RespondErrorWithCode(
	w http.ResponseWriter,
	status int,
	errorCode string,
	publicMessage string,
	details any,
	devErrs ...error,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errBody := ErrorResponse{
		Code:    errorCode,
		Message: publicMessage,
	}
	if details != nil {
		errBody.Details = details
	}
	_ = json.NewEncoder(w).Encode(errBody)

	if len(devErrs) > 0 && devErrs[0] != nil {
		Logger.WithFields(logrus.Fields{
			"status": status,
			"error":  devErrs[0].Error(),
		}).Error(publicMessage)
	} else {
		Logger.WithFields(logrus.Fields{
			"status": status,
		}).Error(publicMessage)
	}
}

// RespondWithJSON for successful cases
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
