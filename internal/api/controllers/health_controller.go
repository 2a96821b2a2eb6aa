package controllers

import (
	"customermind/internal/models/request_models"
	"customermind/internal/realtime"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthController struct {
	healthService services.HealthServiceInterface
	hub           *realtime.Hub
	log           *zap.Logger
}

func NewHealthController(healthService services.HealthServiceInterface, hub *realtime.Hub, log *zap.Logger) *HealthController {
	return &HealthController{healthService: healthService, hub: hub, log: log}
}

// Scores godoc
// @Summary Latest health score per customer
// @Tags Customer Health
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-health/scores [get]
func (h *HealthController) Scores(c *gin.Context) {
	overview, err := h.healthService.Overview(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, overview, "Health scores fetched successfully")
}

// Score godoc
// @Summary Score one customer
// @Tags Customer Health
// @Produce json
// @Param customer_id path string true "Customer ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-health/score/{customer_id} [post]
func (h *HealthController) Score(c *gin.Context) {
	score, err := h.healthService.Score(c.Request.Context(), userID(c), c.Param("customer_id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, score, "Customer scored")
}

// Refresh godoc
// @Summary Re-score every customer
// @Tags Customer Health
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-health/refresh [post]
func (h *HealthController) Refresh(c *gin.Context) {
	result, err := h.healthService.Refresh(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Health scores refreshed")
}

// Alerts godoc
// @Summary List health alerts
// @Tags Customer Health
// @Produce json
// @Param unacknowledged query bool false "Only open alerts"
// @Param limit query int false "Max results (default 100)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-health/alerts [get]
func (h *HealthController) Alerts(c *gin.Context) {
	var q request_models.AlertsQuery
	if !bindQuery(c, &q) {
		return
	}
	alerts, err := h.healthService.Alerts(c.Request.Context(), userID(c), q.Unacknowledged, q.Limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, alerts, "Alerts fetched successfully")
}

// Acknowledge godoc
// @Summary Acknowledge an alert
// @Tags Customer Health
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-health/alerts/{id}/acknowledge [post]
func (h *HealthController) Acknowledge(c *gin.Context) {
	alert, err := h.healthService.Acknowledge(c.Request.Context(), userID(c), c.Param("id"), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, alert, "Alert acknowledged")
}

// Stream godoc
// @Summary Live health events
// @Description WebSocket stream of {type, data} messages. Authenticate with the token query parameter or a bearer header.
// @Tags Customer Health
// @Param token query string false "JWT"
// @Router /customer-health/ws [get]
func (h *HealthController) Stream(c *gin.Context) {
	t := tenantFrom(c)
	if err := h.hub.Serve(c.Writer, c.Request, t.ID, t.Role.IsAdmin()); err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("tenant_id", t.ID), zap.Error(err))
	}
}
