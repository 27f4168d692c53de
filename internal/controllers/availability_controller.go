package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shiftloop/fulfillment-service/internal/dtos"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/services"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

var availValidate = validator.New()

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type AvailabilityController struct {
	availService *services.AvailabilityService
}

func NewAvailabilityController(as *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{availService: as}
}

// ----------------------------------------------------------------
// POST /api/v1/worker/availability
// ----------------------------------------------------------------
func (c *AvailabilityController) SetAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}

	var body dtos.SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for availability payload", nil, err)
		return
	}
	if err := availValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Availability payload failed validation", nil, err)
		return
	}

	date, _ := time.Parse(models.DateLayout, body.Date)
	if err := c.availService.SetAvailability(r.Context(), workerID, date, body.IsAvailable, body.Reason); err != nil {
		respondServiceError(w, err, "Failed to set availability")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// ----------------------------------------------------------------
// POST /api/v1/worker/availability/bulk
// ----------------------------------------------------------------
func (c *AvailabilityController) BulkSetHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}

	var body dtos.BulkSetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for bulk availability payload", nil, err)
		return
	}
	if err := availValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Bulk availability payload failed validation", nil, err)
		return
	}

	dates := make([]time.Time, 0, len(body.Dates))
	for _, d := range body.Dates {
		parsed, _ := time.Parse(models.DateLayout, d)
		dates = append(dates, parsed)
	}

	skipped, err := c.availService.BulkSet(r.Context(), workerID, dates, body.IsAvailable)
	if err != nil {
		respondServiceError(w, err, "Failed to bulk-set availability")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bulkResponse(skipped))
}

// ----------------------------------------------------------------
// POST /api/v1/worker/availability/recurring
// ----------------------------------------------------------------
func (c *AvailabilityController) RecurringPatternHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}

	var body dtos.RecurringPatternRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for recurring pattern payload", nil, err)
		return
	}
	if err := availValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Recurring pattern payload failed validation", nil, err)
		return
	}

	pattern := make(map[time.Weekday]bool, len(body.Weekdays))
	for name, isAvailable := range body.Weekdays {
		weekday, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unknown weekday: "+name, nil)
			return
		}
		pattern[weekday] = isAvailable
	}

	skipped, err := c.availService.ApplyRecurringPattern(r.Context(), workerID, pattern, body.HorizonDays)
	if err != nil {
		respondServiceError(w, err, "Failed to apply recurring pattern")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bulkResponse(skipped))
}

// ----------------------------------------------------------------
// GET /api/v1/worker/availability?start=2006-01-02&end=2006-01-02
// ----------------------------------------------------------------
func (c *AvailabilityController) ListAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}

	start, err := time.Parse(models.DateLayout, r.URL.Query().Get("start"))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid start query param", nil, err)
		return
	}
	end, err := time.Parse(models.DateLayout, r.URL.Query().Get("end"))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid end query param", nil, err)
		return
	}

	slots, err := c.availService.ListRange(r.Context(), workerID, start, end)
	if err != nil {
		respondServiceError(w, err, "Failed to list availability")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, slots)
}

func bulkResponse(skipped []time.Time) dtos.BulkSetAvailabilityResponse {
	out := dtos.BulkSetAvailabilityResponse{SkippedDates: []string{}}
	for _, d := range skipped {
		out.SkippedDates = append(out.SkippedDates, d.Format(models.DateLayout))
	}
	return out
}
