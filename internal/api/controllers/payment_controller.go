package controllers

import (
	"io"
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type PaymentController struct {
	paymentService services.PaymentService
	planService    services.PlanServiceInterface
	log            *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, planService services.PlanServiceInterface, log *zap.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		planService:    planService,
		log:            log,
	}
}

// GetPlans godoc
// @Summary List subscription plans
// @Description Active plans with prices in minor currency units
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /subscriptions/plans [get]
func (p *PaymentController) GetPlans(c *gin.Context) {
	plans, err := p.planService.GetPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// CreateCheckoutRequest godoc
// @Summary Create a checkout request for a subscription plan
// @Description Creates a pending transaction and a payment link at the gateway
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CreatePaymentRequest true "Create Payment Request"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/checkout [post]
func (p *PaymentController) CreateCheckoutRequest(c *gin.Context) {
	var request request_models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	checkout, err := p.paymentService.CreateCheckoutForPlan(c.Request.Context(), userID(c), request.PlanCode)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, checkout, "Checkout URL created successfully")
}

// MySubscription godoc
// @Summary Current subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/me [get]
func (p *PaymentController) MySubscription(c *gin.Context) {
	sub, err := p.paymentService.MySubscription(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sub, "Subscription fetched successfully")
}

// CancelSubscription godoc
// @Summary Cancel auto-renewal
// @Description The subscription stays active until the end of the paid period
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/cancel [post]
func (p *PaymentController) CancelSubscription(c *gin.Context) {
	sub, err := p.paymentService.CancelSubscription(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sub, "Subscription will not renew")
}

// HandleWebhook godoc
// @Summary Payment gateway webhook
// @Description Verifies the signature and applies the payment. Replays are acknowledged.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /payments/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Unable to read webhook body")
		return
	}

	if err := p.paymentService.HandleWebhook(c.Request.Context(), body); err != nil {
		p.log.Warn("webhook rejected", zap.Error(err))
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Webhook processed")
}
