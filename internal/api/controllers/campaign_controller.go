package controllers

import (
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CampaignController struct {
	campaigns services.CampaignServiceInterface
}

func NewCampaignController(campaigns services.CampaignServiceInterface) *CampaignController {
	return &CampaignController{campaigns: campaigns}
}

// ListCampaigns godoc
// @Summary List email campaigns
// @Tags Email
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns [get]
func (cc *CampaignController) ListCampaigns(c *gin.Context) {
	var q request_models.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := cc.campaigns.List(c.Request.Context(), userID(c), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Campaigns fetched successfully")
}

// CreateCampaign godoc
// @Summary Create a draft campaign
// @Description Recipients are de-duplicated and capped by the plan's contact limit
// @Tags Email
// @Accept json
// @Produce json
// @Param request body request_models.CreateCampaignRequest true "Campaign"
// @Success 201 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns [post]
func (cc *CampaignController) CreateCampaign(c *gin.Context) {
	var req request_models.CreateCampaignRequest
	if !bindJSON(c, &req) {
		return
	}
	campaign, err := cc.campaigns.Create(c.Request.Context(), tenantFrom(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, campaign, "Campaign created successfully")
}

// GetCampaign godoc
// @Summary Get a campaign
// @Tags Email
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns/{id} [get]
func (cc *CampaignController) GetCampaign(c *gin.Context) {
	campaign, err := cc.campaigns.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, campaign, "Campaign fetched successfully")
}

// DeleteCampaign godoc
// @Summary Delete a draft campaign
// @Tags Email
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns/{id} [delete]
func (cc *CampaignController) DeleteCampaign(c *gin.Context) {
	if err := cc.campaigns.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Campaign deleted successfully")
}

// SendCampaign godoc
// @Summary Send a draft campaign
// @Description Delivery runs in the background; poll the campaign or its logs for progress
// @Tags Email
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 202 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns/{id}/send [post]
func (cc *CampaignController) SendCampaign(c *gin.Context) {
	campaign, err := cc.campaigns.Send(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusAccepted, campaign, "Campaign is sending")
}

// CampaignLogs godoc
// @Summary Delivery log of a campaign
// @Tags Email
// @Produce json
// @Param id path string true "Campaign ID"
// @Param limit query int false "Max results (default 500)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/campaigns/{id}/logs [get]
func (cc *CampaignController) CampaignLogs(c *gin.Context) {
	logs, err := cc.campaigns.Logs(c.Request.Context(), userID(c), c.Param("id"), queryInt64(c, "limit", 500))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, logs, "Logs fetched successfully")
}

// Providers godoc
// @Summary Configured email providers in fallback order
// @Tags Email
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /email/providers [get]
func (cc *CampaignController) Providers(c *gin.Context) {
	utils.RespondSuccess(c, gin.H{"providers": cc.campaigns.Providers()}, "Providers fetched successfully")
}
