package controllers

import (
	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AccountController struct {
	accountService services.AccountServiceInterface
}

func NewAccountController(accountService services.AccountServiceInterface) *AccountController {
	return &AccountController{
		accountService: accountService,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create a free-tier account, optionally attributed to an affiliate referral code
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.SignUpRequest true "Account registration payload"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /auth/register [post]
func (a *AccountController) Register(c *gin.Context) {
	var req request_models.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := a.accountService.Register(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondWithCode(c, http.StatusCreated, account, "Account created successfully")
}

// Login godoc
// @Summary Login to an account
// @Description Authenticate a user and return a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 423 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /auth/login [post]
func (a *AccountController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := a.accountService.Login(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, token, "Login successful")
}

// Me godoc
// @Summary Current account
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (a *AccountController) Me(c *gin.Context) {
	account, err := a.accountService.Me(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, account, "Account fetched successfully")
}

// ChangePassword godoc
// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Security BearerAuth
// @Router /auth/change-password [post]
func (a *AccountController) ChangePassword(c *gin.Context) {
	var req request_models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.accountService.ChangePassword(c.Request.Context(), userID(c), req, c.ClientIP()); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Password changed successfully")
}

// ForgotPassword handles the forgot password functionality.
// @Summary Request a password reset
// @Description Sends a password reset link to the provided email if it exists
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.RequestForgotPassword true "Forgot password payload"
// @Success 200 {object} utils.APIResponse
// @Router /auth/forgot-password [post]
func (a *AccountController) ForgotPassword(c *gin.Context) {
	var req request_models.RequestForgotPassword
	if !bindJSON(c, &req) {
		return
	}

	if err := a.accountService.ForgotPassword(c.Request.Context(), req); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "If the email exists, a reset link has been sent")
}

// ResetPassword godoc
// @Summary Reset password with a reset token
// @Description Consumes a single-use reset token and sets a new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.ResetPasswordRequest true "Password reset payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /auth/reset-password [post]
func (a *AccountController) ResetPassword(c *gin.Context) {
	var req request_models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.accountService.ResetPassword(c.Request.Context(), req, c.ClientIP()); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Password has been reset successfully")
}
