package controllers

import (
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AffiliateController struct {
	affiliates services.AffiliateServiceInterface
}

func NewAffiliateController(affiliates services.AffiliateServiceInterface) *AffiliateController {
	return &AffiliateController{affiliates: affiliates}
}

// Register godoc
// @Summary Join the affiliate program
// @Tags Affiliate
// @Accept json
// @Produce json
// @Param request body request_models.RegisterAffiliateRequest true "Optional custom referral code"
// @Success 201 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /affiliate/register [post]
func (a *AffiliateController) Register(c *gin.Context) {
	var req request_models.RegisterAffiliateRequest
	if !bindJSON(c, &req) {
		return
	}
	affiliate, err := a.affiliates.Register(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, affiliate, "Affiliate registered successfully")
}

// Me godoc
// @Summary Affiliate dashboard
// @Description Balances, counts and refund rate of the caller's affiliate account
// @Tags Affiliate
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /affiliate/me [get]
func (a *AffiliateController) Me(c *gin.Context) {
	dashboard, err := a.affiliates.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, dashboard, "Affiliate dashboard fetched successfully")
}

// Commissions godoc
// @Summary The caller's commissions
// @Tags Affiliate
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /affiliate/commissions [get]
func (a *AffiliateController) Commissions(c *gin.Context) {
	var q request_models.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.affiliates.MyCommissions(c.Request.Context(), userID(c), q.Page, q.PageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Commissions fetched successfully")
}
