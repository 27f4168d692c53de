package controllers

import (
	"context"
	"net/http"

	"github.com/shiftloop/fulfillment-service/internal/app"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

// HealthController checks DB connectivity, etc.
type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{app}
}

type healthCheckResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	store := "memory"
	if c.app.DB != nil {
		store = "postgres"
		if err := c.app.DB.Ping(context.Background()); err != nil {
			utils.Logger.WithError(err).Error("fulfillment-service DB unreachable")
			utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, healthCheckResponse{Status: "OK", Store: store})
}
