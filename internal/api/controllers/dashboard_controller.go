package controllers

import (
	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboardService services.DashboardService
}

func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
	}
}

// GetDashboard godoc
// @Summary Get admin dashboard report
// @Description KPI blocks (MRR, ARR, ARPU, churn), revenue/new account/subscription series, tier mix, affiliate totals and recent payments
// @Tags Admin
// @Accept json
// @Produce json
// @Param start    query int    false "Unix seconds start (default: end - 30 days)"
// @Param end      query int    false "Unix seconds end (default: now)"
// @Param interval query string false "Bucket size: day | week | month (default: day)"
// @Param tz       query string false "IANA timezone for bucketing (default: UTC)"
// @Param currency query string false "ISO 4217 currency code for labeling (default: USD)"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (p *DashboardController) GetDashboard(c *gin.Context) {
	var q request_models.DashboardQuery
	if !bindQuery(c, &q) {
		return
	}

	report, err := p.dashboardService.BuildFromQuery(c.Request.Context(), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report, "Dashboard data fetched successfully")
}
