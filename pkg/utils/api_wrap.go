package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errorMapping struct {
	err     error
	code    int
	message string
}

// Checked in order; the first errors.Is match wins.
var serviceErrors = []errorMapping{
	{ErrInvalidPage, http.StatusBadRequest, "Page must be greater than 0"},
	{ErrInvalidPageSize, http.StatusBadRequest, "Page size must be between 1 and 100"},
	{ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{RecordNotFound, http.StatusNotFound, "Record not found"},

	{ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{ErrEmailAlreadyExists, http.StatusConflict, "Email already registered"},
	{ErrAccountLocked, http.StatusLocked, "Account temporarily locked after too many failed attempts"},
	{ErrAccountInactive, http.StatusForbidden, "Account is deactivated"},
	{ErrTooManyAttempts, http.StatusTooManyRequests, "Too many login attempts, try again later"},
	{ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired reset token"},
	{ErrForbidden, http.StatusForbidden, "Forbidden: insufficient permissions"},
	{ErrFeatureNotInPlan, http.StatusForbidden, "Upgrade your plan to use this feature"},

	{ErrPlanNotFound, http.StatusNotFound, "Plan not found"},
	{ErrPlanNotBillable, http.StatusBadRequest, "Plan is not billable"},
	{ErrTransactionNotFound, http.StatusNotFound, "Transaction not found"},
	{ErrNoActiveSubscription, http.StatusNotFound, "No active subscription"},
	{ErrPaymentProvider, http.StatusBadGateway, "Payment provider unavailable"},
	{ErrInvalidWebhook, http.StatusBadRequest, "Invalid webhook payload"},
	{ErrTransactionNotPaid, http.StatusConflict, "Only paid transactions can be refunded"},

	{ErrCampaignNotFound, http.StatusNotFound, "Campaign not found"},
	{ErrCampaignNotDraft, http.StatusConflict, "Campaign has already been sent"},
	{ErrRecipientLimitExceeded, http.StatusForbidden, "Recipient count exceeds your plan limit"},
	{ErrNoRecipients, http.StatusBadRequest, "Campaign has no recipients"},
	{ErrNoEmailProvider, http.StatusServiceUnavailable, "Email delivery is not configured"},

	{ErrAffiliateNotFound, http.StatusNotFound, "Affiliate not found"},
	{ErrAffiliateExists, http.StatusConflict, "Affiliate already registered"},
	{ErrReferralCodeTaken, http.StatusConflict, "Referral code already taken"},
	{ErrAffiliatePaused, http.StatusConflict, "Affiliate is paused"},
	{ErrCommissionNotFound, http.StatusNotFound, "Commission not found"},
	{ErrCommissionAlreadyRefunded, http.StatusConflict, "Commission already refunded"},
	{ErrInvalidAffiliateSettings, http.StatusBadRequest, "Invalid affiliate settings"},

	{ErrCustomerNotFound, http.StatusNotFound, "Customer not found"},
	{ErrDemoRecordImmutable, http.StatusForbidden, "Demo records cannot be deleted"},
	{ErrCRMUnavailable, http.StatusServiceUnavailable, "CRM is unavailable"},
	{ErrAlertNotFound, http.StatusNotFound, "Alert not found"},
	{ErrContactLimit, http.StatusForbidden, "Customer count reached your plan limit"},
	{ErrProductNotFound, http.StatusNotFound, "Product not found"},
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondWithCode(c, http.StatusOK, data, message)
}

func RespondWithCode(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

func RespondErrorWithData(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

// StatusForError maps a service error to its HTTP status and public message.
func StatusForError(err error) (int, string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.code, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

func HandleServiceError(c *gin.Context, err error) {
	code, message := StatusForError(err)
	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("trace_id", traceID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	RespondError(c, code, message)
}
