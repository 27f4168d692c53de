package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/dtos"
	"github.com/shiftloop/fulfillment-service/internal/middleware"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/services"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

var appValidate = validator.New()

type ApplicationsController struct {
	appService *services.ApplicationService
}

func NewApplicationsController(as *services.ApplicationService) *ApplicationsController {
	return &ApplicationsController{appService: as}
}

// ----------------------------------------------------------------
// POST /api/v1/applications  (worker applies, optionally countering)
// ----------------------------------------------------------------
func (c *ApplicationsController) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, ok := contextUserUUID(w, ctx)
	if !ok {
		return
	}

	var body dtos.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON for apply payload", nil, err)
		return
	}
	if err := appValidate.Struct(body); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Apply payload failed validation", nil, err)
		return
	}

	app, err := c.appService.Apply(ctx, workerID, body.ShiftID, body.CounterRate)
	if err != nil {
		respondServiceError(w, err, "Failed to apply for shift")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, app)
}

// ----------------------------------------------------------------
// POST /api/v1/applications/{id}/accept         (worker)
// POST /api/v1/applications/{id}/counter-accept (venue)
// POST /api/v1/applications/{id}/counter-reject (venue)
// POST /api/v1/applications/{id}/hire           (venue)
// POST /api/v1/applications/{id}/withdraw       (worker)
// POST /api/v1/applications/{id}/reject         (venue)
// ----------------------------------------------------------------
func (c *ApplicationsController) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.Accept, "Failed to accept offer")
}

func (c *ApplicationsController) CounterAcceptHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.CounterAccept, "Failed to accept counter-offer")
}

func (c *ApplicationsController) CounterRejectHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.CounterReject, "Failed to reject counter-offer")
}

func (c *ApplicationsController) HireHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.Hire, "Failed to hire applicant")
}

func (c *ApplicationsController) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.Withdraw, "Failed to withdraw application")
}

func (c *ApplicationsController) RejectHandler(w http.ResponseWriter, r *http.Request) {
	c.transitionHandler(w, r, c.appService.Reject, "Failed to reject application")
}

// ----------------------------------------------------------------
// GET /api/v1/applications/my            (worker)
// GET /api/v1/applications/shift/{id}    (venue)
// ----------------------------------------------------------------
func (c *ApplicationsController) ListMyApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	workerID, ok := contextUserUUID(w, r.Context())
	if !ok {
		return
	}
	apps, err := c.appService.ListForWorker(r.Context(), workerID)
	if err != nil {
		respondServiceError(w, err, "Failed to list applications")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, apps)
}

func (c *ApplicationsController) ListShiftApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	shiftID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	apps, err := c.appService.ListForShift(r.Context(), shiftID)
	if err != nil {
		respondServiceError(w, err, "Failed to list applications")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, apps)
}

func (c *ApplicationsController) transitionHandler(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID) (*models.Application, error),
	failMessage string,
) {
	appID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	app, err := op(r.Context(), appID)
	if err != nil {
		respondServiceError(w, err, failMessage)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, app)
}

// contextUserUUID pulls the authenticated subject out of the context and
// parses it as a UUID.
func contextUserUUID(w http.ResponseWriter, ctx context.Context) (uuid.UUID, bool) {
	ctxUserID := ctx.Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No userID in context", nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(ctxUserID.(string))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Malformed userID in token", nil, err)
		return uuid.Nil, false
	}
	return userID, true
}
