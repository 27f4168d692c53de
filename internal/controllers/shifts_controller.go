package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shiftloop/fulfillment-service/internal/dtos"
	"github.com/shiftloop/fulfillment-service/internal/middleware"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/services"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

var shiftValidate = validator.New()

type ShiftsController struct {
	shiftService *services.ShiftService
	matchService *services.MatchService
}

func NewShiftsController(ss *services.ShiftService, ms *services.MatchService) *ShiftsController {
	return &ShiftsController{shiftService: ss, matchService: ms}
}

// ----------------------------------------------------------------
// POST /api/v1/shifts
// ----------------------------------------------------------------
func (c *ShiftsController) CreateShiftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if ctx.Value(middleware.ContextKeyUserID) == nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil)
		return
	}

	var body dtos.CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for create-shift payload", nil, err)
		return
	}
	if err := shiftValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Shift payload failed validation", nil, err)
		return
	}

	shift := &models.Shift{
		VenueID:       body.VenueID,
		Role:          body.Role,
		StartTime:     body.StartTime.UTC(),
		EndTime:       body.EndTime.UTC(),
		Latitude:      body.Latitude,
		Longitude:     body.Longitude,
		HourlyRate:    body.HourlyRate,
		WorkersNeeded: body.WorkersNeeded,
	}
	created, err := c.shiftService.Create(ctx, shift)
	if err != nil {
		respondServiceError(w, err, "Failed to create shift")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/{id}
// ----------------------------------------------------------------
func (c *ShiftsController) GetShiftHandler(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	shift, err := c.shiftService.GetByID(r.Context(), shiftID)
	if err != nil {
		respondServiceError(w, err, "Failed to load shift")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shift)
}

// ----------------------------------------------------------------
// POST /api/v1/shifts/{id}/publish | begin | complete | cancel
// ----------------------------------------------------------------
func (c *ShiftsController) PublishShiftHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.shiftService.Publish, "Failed to publish shift")
}

func (c *ShiftsController) BeginShiftHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.shiftService.Begin, "Failed to begin shift")
}

func (c *ShiftsController) CompleteShiftHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.shiftService.Complete, "Failed to complete shift")
}

func (c *ShiftsController) CancelShiftHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.shiftService.Cancel, "Failed to cancel shift")
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/open?lat=..&lng=..&days=..
// ----------------------------------------------------------------
func (c *ShiftsController) ListOpenShiftsHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid lat query param", nil)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid lng query param", nil)
		return
	}
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		if days, err = strconv.Atoi(v); err != nil || days < 0 {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid days query param", nil)
			return
		}
	}

	listings, err := c.shiftService.ListOpenNearby(r.Context(), lat, lng, days)
	if err != nil {
		respondServiceError(w, err, "Failed to list open shifts")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, listings)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/venue/{venueId}
// ----------------------------------------------------------------
func (c *ShiftsController) ListVenueShiftsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, ok := pathUUID(w, r, "venueId")
	if !ok {
		return
	}
	shifts, err := c.shiftService.ListForVenue(r.Context(), venueID)
	if err != nil {
		respondServiceError(w, err, "Failed to list venue shifts")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shifts)
}

// ----------------------------------------------------------------
// GET /api/v1/shifts/{id}/matches
// ----------------------------------------------------------------
func (c *ShiftsController) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	scores, err := c.matchService.Rank(r.Context(), shiftID)
	if err != nil {
		respondServiceError(w, err, "Failed to rank candidates")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, scores)
}

func (c *ShiftsController) transitionHandler(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID) (*models.Shift, error),
	failMessage string,
) {
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	shift, err := op(r.Context(), shiftID)
	if err != nil {
		respondServiceError(w, err, failMessage)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, shift)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid "+name+" path param", nil, err)
		return uuid.Nil, false
	}
	return id, true
}
