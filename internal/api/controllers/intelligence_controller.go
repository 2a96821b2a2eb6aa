package controllers

import (
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type IntelligenceController struct {
	intelligence services.IntelligenceServiceInterface
	growth       services.GrowthServiceInterface
}

func NewIntelligenceController(intelligence services.IntelligenceServiceInterface, growth services.GrowthServiceInterface) *IntelligenceController {
	return &IntelligenceController{intelligence: intelligence, growth: growth}
}

// Dashboard godoc
// @Summary Customer intelligence dashboard
// @Description Segments, revenue and top customers. Falls back to sample data when the store is unavailable.
// @Tags Customer Intelligence
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-intelligence/dashboard [get]
func (ic *IntelligenceController) Dashboard(c *gin.Context) {
	utils.RespondSuccess(c, ic.intelligence.Dashboard(c.Request.Context(), userID(c)), "Dashboard fetched successfully")
}

// Analyze godoc
// @Summary Analyse one customer
// @Tags Customer Intelligence
// @Produce json
// @Param customer_id path string true "Customer ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customer-intelligence/analyze/{customer_id} [post]
func (ic *IntelligenceController) Analyze(c *gin.Context) {
	analysis, err := ic.intelligence.Analyze(c.Request.Context(), userID(c), c.Param("customer_id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, analysis, "Customer analysed")
}

// ListProducts godoc
// @Summary List catalog products
// @Tags Products
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products [get]
func (ic *IntelligenceController) ListProducts(c *gin.Context) {
	products, err := ic.growth.ListProducts(c.Request.Context(), userID(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, products, "Products fetched successfully")
}

// AddProduct godoc
// @Summary Add a catalog product
// @Description Stores the product with its embedding for cross-sell matching
// @Tags Products
// @Accept json
// @Produce json
// @Param request body request_models.ProductRequest true "Product"
// @Success 201 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products [post]
func (ic *IntelligenceController) AddProduct(c *gin.Context) {
	var req request_models.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := ic.growth.AddProduct(c.Request.Context(), userID(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, product, "Product created successfully")
}

// CrossSellOpportunities godoc
// @Summary Active cross-sell opportunities
// @Tags Growth
// @Produce json
// @Param limit query int false "Max results (default 100)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /growth/cross-sell [get]
func (ic *IntelligenceController) CrossSellOpportunities(c *gin.Context) {
	ops, err := ic.growth.Opportunities(c.Request.Context(), userID(c), queryInt64(c, "limit", 100))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, ops, "Opportunities fetched successfully")
}

// GenerateCrossSell godoc
// @Summary Generate cross-sell opportunities for a customer
// @Description Replaces the customer's previous opportunities; they expire after seven days
// @Tags Growth
// @Produce json
// @Param customer_id path string true "Customer ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /growth/cross-sell/{customer_id} [post]
func (ic *IntelligenceController) GenerateCrossSell(c *gin.Context) {
	ops, err := ic.growth.CrossSell(c.Request.Context(), userID(c), c.Param("customer_id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, ops, "Opportunities generated")
}
