package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/shiftloop/fulfillment-service/internal/dtos"
	"github.com/shiftloop/fulfillment-service/internal/services"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

var attendanceValidate = validator.New()

type AttendanceController struct {
	attendanceService *services.AttendanceService
}

func NewAttendanceController(as *services.AttendanceService) *AttendanceController {
	return &AttendanceController{attendanceService: as}
}

// decodeLocationAction parses and sanity-checks the device location fix
// shared by check-in and check-out.
func decodeLocationAction(w http.ResponseWriter, r *http.Request) (*dtos.LocationActionRequest, bool) {
	var body dtos.LocationActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for location payload", nil, err)
		return nil, false
	}
	if err := attendanceValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Location payload failed validation", nil, err)
		return nil, false
	}
	if code, msg := utils.ValidateLocationData(body.Lat, body.Lng, body.Accuracy, body.Timestamp, body.IsMock); code != "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, code, msg, nil)
		return nil, false
	}
	return &body, true
}

// ----------------------------------------------------------------
// POST /api/v1/shifts/{id}/checkin
// ----------------------------------------------------------------
func (c *AttendanceController) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	body, ok := decodeLocationAction(w, r)
	if !ok {
		return
	}

	rec, err := c.attendanceService.CheckIn(r.Context(), shiftID, workerID, body.Lat, body.Lng)
	if err != nil {
		respondServiceError(w, err, "Failed to check in")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, rec)
}

// ----------------------------------------------------------------
// POST /api/v1/attendance/{id}/break/start
// POST /api/v1/attendance/{id}/break/end
// ----------------------------------------------------------------
func (c *AttendanceController) StartBreakHandler(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rec, err := c.attendanceService.StartBreak(r.Context(), recordID)
	if err != nil {
		respondServiceError(w, err, "Failed to start break")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}

func (c *AttendanceController) EndBreakHandler(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rec, err := c.attendanceService.EndBreak(r.Context(), recordID)
	if err != nil {
		respondServiceError(w, err, "Failed to end break")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}

// ----------------------------------------------------------------
// POST /api/v1/shifts/{id}/checkout
// ----------------------------------------------------------------
func (c *AttendanceController) CheckOutHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	body, ok := decodeLocationAction(w, r)
	if !ok {
		return
	}

	timesheet, err := c.attendanceService.CheckOut(r.Context(), shiftID, workerID, body.Lat, body.Lng, body.Notes)
	if err != nil {
		respondServiceError(w, err, "Failed to check out")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, timesheet)
}
