package controllers

import (
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	admin      services.AdminServiceInterface
	plans      services.PlanServiceInterface
	payments   services.PaymentService
	affiliates services.AffiliateServiceInterface
}

func NewAdminController(
	admin services.AdminServiceInterface,
	plans services.PlanServiceInterface,
	payments services.PaymentService,
	affiliates services.AffiliateServiceInterface,
) *AdminController {
	return &AdminController{
		admin:      admin,
		plans:      plans,
		payments:   payments,
		affiliates: affiliates,
	}
}

// ---- users ----

// ListUsers godoc
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param search query string false "Name or email contains"
// @Param role query string false "user | admin | super_admin"
// @Param tier query string false "Tier"
// @Param active query bool false "Active flag"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (a *AdminController) ListUsers(c *gin.Context) {
	var q request_models.ListUsersQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.admin.ListUsers(c.Request.Context(), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Users fetched successfully")
}

// GetUser godoc
// @Summary Get an account
// @Tags Admin
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (a *AdminController) GetUser(c *gin.Context) {
	user, err := a.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, user, "User fetched successfully")
}

// UpdateUser godoc
// @Summary Update an account
// @Description Only super admins may grant or revoke admin roles
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param request body request_models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (a *AdminController) UpdateUser(c *gin.Context) {
	var req request_models.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := a.admin.UpdateUser(c.Request.Context(), userID(c), userRole(c), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, user, "User updated successfully")
}

// DeactivateUser godoc
// @Summary Deactivate an account
// @Tags Admin
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (a *AdminController) DeactivateUser(c *gin.Context) {
	if err := a.admin.DeactivateUser(c.Request.Context(), userID(c), userRole(c), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "User deactivated successfully")
}

// UnlockUser godoc
// @Summary Clear a login lockout
// @Tags Admin
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/{id}/unlock [post]
func (a *AdminController) UnlockUser(c *gin.Context) {
	if err := a.admin.UnlockUser(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "User unlocked successfully")
}

// AuditLogs godoc
// @Summary Query audit events
// @Tags Admin
// @Produce json
// @Param category query string false "auth | admin | billing | affiliate | data"
// @Param event_type query string false "Event type"
// @Param actor_id query string false "Actor"
// @Param subject_id query string false "Subject"
// @Param start query int false "Unix seconds"
// @Param end query int false "Unix seconds"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (a *AdminController) AuditLogs(c *gin.Context) {
	var q request_models.AuditLogQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.admin.AuditLogs(c.Request.Context(), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Audit logs fetched successfully")
}

// ---- plans ----

// ListPlans godoc
// @Summary List all plans including inactive ones
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/plans [get]
func (a *AdminController) ListPlans(c *gin.Context) {
	plans, err := a.plans.GetAllPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// CreatePlan godoc
// @Summary Create a plan
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.PlanRequest true "Plan"
// @Success 201 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/plans [post]
func (a *AdminController) CreatePlan(c *gin.Context) {
	var req request_models.PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := a.plans.CreatePlan(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, plan, "Plan created successfully")
}

// UpdatePlan godoc
// @Summary Update a plan
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param request body request_models.PlanRequest true "Plan"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/plans/{id} [put]
func (a *AdminController) UpdatePlan(c *gin.Context) {
	var req request_models.PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := a.plans.UpdatePlan(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plan, "Plan updated successfully")
}

// ---- billing ----

// ListTransactions godoc
// @Summary List payment transactions
// @Tags Admin
// @Produce json
// @Param status query string false "pending | paid | failed | refunded"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/transactions [get]
func (a *AdminController) ListTransactions(c *gin.Context) {
	var q request_models.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.payments.ListTransactions(c.Request.Context(), c.Query("status"), q.Page, q.PageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Transactions fetched successfully")
}

// RefundTransaction godoc
// @Summary Refund a paid transaction
// @Description Marks the transaction refunded and refunds the linked affiliate commission
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body request_models.RefundTransactionRequest false "Reason"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/transactions/{id}/refund [post]
func (a *AdminController) RefundTransaction(c *gin.Context) {
	var req request_models.RefundTransactionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	res, err := a.payments.RefundTransaction(c.Request.Context(), userID(c), c.Param("id"), req.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, res, "Transaction refunded")
}

// ---- affiliates ----

// ListAffiliates godoc
// @Summary List affiliates
// @Tags Admin Affiliates
// @Produce json
// @Param status query string false "active | paused"
// @Param flagged query bool false "Flagged only"
// @Param search query string false "Name, email or code contains"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates [get]
func (a *AdminController) ListAffiliates(c *gin.Context) {
	var q request_models.ListAffiliatesQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.affiliates.List(c.Request.Context(), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Affiliates fetched successfully")
}

// CreateAffiliate godoc
// @Summary Create an affiliate
// @Tags Admin Affiliates
// @Accept json
// @Produce json
// @Param request body request_models.AdminCreateAffiliateRequest true "Affiliate"
// @Success 201 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates [post]
func (a *AdminController) CreateAffiliate(c *gin.Context) {
	var req request_models.AdminCreateAffiliateRequest
	if !bindJSON(c, &req) {
		return
	}
	affiliate, err := a.affiliates.AdminCreate(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, affiliate, "Affiliate created successfully")
}

// GetAffiliate godoc
// @Summary Get an affiliate with balances
// @Tags Admin Affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/{id} [get]
func (a *AdminController) GetAffiliate(c *gin.Context) {
	dashboard, err := a.affiliates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, dashboard, "Affiliate fetched successfully")
}

// AffiliateCommissions godoc
// @Summary Commissions of an affiliate
// @Tags Admin Affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/{id}/commissions [get]
func (a *AdminController) AffiliateCommissions(c *gin.Context) {
	var q request_models.PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := a.affiliates.ListCommissions(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Commissions fetched successfully")
}

// PauseAffiliate godoc
// @Summary Pause an affiliate
// @Tags Admin Affiliates
// @Accept json
// @Produce json
// @Param id path string true "Affiliate ID"
// @Param request body request_models.PauseAffiliateRequest true "Reason"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/{id}/pause [post]
func (a *AdminController) PauseAffiliate(c *gin.Context) {
	var req request_models.PauseAffiliateRequest
	if !bindJSON(c, &req) {
		return
	}
	affiliate, err := a.affiliates.Pause(c.Request.Context(), userID(c), c.Param("id"), req.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, affiliate, "Affiliate paused")
}

// ResumeAffiliate godoc
// @Summary Resume a paused affiliate
// @Description Clears the pause; the flag stays while the refund rate is above the flag threshold
// @Tags Admin Affiliates
// @Produce json
// @Param id path string true "Affiliate ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/{id}/resume [post]
func (a *AdminController) ResumeAffiliate(c *gin.Context) {
	affiliate, err := a.affiliates.Resume(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, affiliate, "Affiliate resumed")
}

// CreateCommission godoc
// @Summary Record a commission manually
// @Tags Admin Affiliates
// @Accept json
// @Produce json
// @Param request body request_models.CreateCommissionRequest true "Commission"
// @Success 201 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/commissions [post]
func (a *AdminController) CreateCommission(c *gin.Context) {
	var req request_models.CreateCommissionRequest
	if !bindJSON(c, &req) {
		return
	}
	commission, err := a.affiliates.CreateCommission(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, commission, "Commission created successfully")
}

// RefundCommission godoc
// @Summary Refund a commission
// @Description Claws back available and held amounts and re-evaluates the affiliate's refund rate
// @Tags Admin Affiliates
// @Accept json
// @Produce json
// @Param id path string true "Commission ID"
// @Param request body request_models.RefundCommissionRequest true "Reason"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/commissions/{id}/refund [post]
func (a *AdminController) RefundCommission(c *gin.Context) {
	var req request_models.RefundCommissionRequest
	if !bindJSON(c, &req) {
		return
	}
	commission, err := a.affiliates.RefundCommission(c.Request.Context(), userID(c), c.Param("id"), req.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, commission, "Commission refunded")
}

// GetAffiliateSettings godoc
// @Summary Affiliate program settings
// @Tags Admin Affiliates
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/settings [get]
func (a *AdminController) GetAffiliateSettings(c *gin.Context) {
	settings, err := a.affiliates.GetSettings(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, settings, "Settings fetched successfully")
}

// UpdateAffiliateSettings godoc
// @Summary Update affiliate program settings
// @Tags Admin Affiliates
// @Accept json
// @Produce json
// @Param request body request_models.AffiliateSettingsRequest true "Settings"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/settings [put]
func (a *AdminController) UpdateAffiliateSettings(c *gin.Context) {
	var req request_models.AffiliateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := a.affiliates.UpdateSettings(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, settings, "Settings updated successfully")
}

// ReleaseHoldbacks godoc
// @Summary Release due holdbacks now
// @Tags Admin Affiliates
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/affiliates/release-holdbacks [post]
func (a *AdminController) ReleaseHoldbacks(c *gin.Context) {
	n, err := a.affiliates.ReleaseDueHoldbacks(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"released": n}, "Holdbacks released")
}
