package controllers

import (
	"net/http"

	"customermind/internal/models/request_models"
	"customermind/internal/services"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CustomerController struct {
	customerService services.CustomerServiceInterface
}

func NewCustomerController(customerService services.CustomerServiceInterface) *CustomerController {
	return &CustomerController{customerService: customerService}
}

// ListCustomers godoc
// @Summary List customers
// @Description Seeds demo customers on the first call for a new tenant
// @Tags Customers
// @Produce json
// @Param search query string false "Name, email or company contains"
// @Param source query string false "demo | manual | odoo"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers [get]
func (cc *CustomerController) ListCustomers(c *gin.Context) {
	var q request_models.ListCustomersQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := cc.customerService.List(c.Request.Context(), userID(c), q)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, page, "Customers fetched successfully")
}

// CreateCustomer godoc
// @Summary Add a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body request_models.CustomerRequest true "Customer"
// @Success 201 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers [post]
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req request_models.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := cc.customerService.Create(c.Request.Context(), tenantFrom(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondWithCode(c, http.StatusCreated, customer, "Customer created successfully")
}

// GetCustomer godoc
// @Summary Get a customer
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers/{id} [get]
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	customer, err := cc.customerService.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, customer, "Customer fetched successfully")
}

// UpdateCustomer godoc
// @Summary Update a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param request body request_models.CustomerRequest true "Customer"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers/{id} [put]
func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	var req request_models.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := cc.customerService.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, customer, "Customer updated successfully")
}

// DeleteCustomer godoc
// @Summary Delete a customer
// @Description Demo customers cannot be deleted
// @Tags Customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	if err := cc.customerService.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Customer deleted successfully")
}

// SyncOdoo godoc
// @Summary Import customers from Odoo
// @Tags Customers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /customers/sync-odoo [post]
func (cc *CustomerController) SyncOdoo(c *gin.Context) {
	result, err := cc.customerService.SyncOdoo(c.Request.Context(), tenantFrom(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Customers synced from Odoo")
}
