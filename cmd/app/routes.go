package main

import (
	"customermind/internal/api/controllers"
	"customermind/internal/models/db_models"
	"customermind/internal/permissions"
	"customermind/pkg/middleware"
	"customermind/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type RouteDeps struct {
	fx.In

	Tokens       *utils.TokenManager
	Tiers        middleware.TierResolver
	Accounts     *controllers.AccountController
	Payments     *controllers.PaymentController
	Customers    *controllers.CustomerController
	Intelligence *controllers.IntelligenceController
	Health       *controllers.HealthController
	Campaigns    *controllers.CampaignController
	Affiliates   *controllers.AffiliateController
	Dashboard    *controllers.DashboardController
	Admin        *controllers.AdminController
	System       *controllers.SystemController
}

func RegisterRoutes(r *gin.Engine, d RouteDeps) {
	r.GET("/health", d.System.Health)

	api := r.Group("/api")
	auth := middleware.JWTAuthMiddleware(d.Tokens)
	feature := func(f permissions.Feature) gin.HandlerFunc {
		return middleware.FeatureMiddleware(d.Tiers, f)
	}

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Accounts.Register)
	authGroup.POST("/login", d.Accounts.Login)
	authGroup.POST("/forgot-password", d.Accounts.ForgotPassword)
	authGroup.POST("/reset-password", d.Accounts.ResetPassword)
	authGroup.GET("/me", auth, d.Accounts.Me)
	authGroup.POST("/change-password", auth, d.Accounts.ChangePassword)

	api.POST("/payments/webhook", d.Payments.HandleWebhook)

	subs := api.Group("/subscriptions")
	subs.GET("/plans", d.Payments.GetPlans)
	subs.POST("/checkout", auth, d.Payments.CreateCheckoutRequest)
	subs.GET("/me", auth, d.Payments.MySubscription)
	subs.POST("/cancel", auth, d.Payments.CancelSubscription)

	customers := api.Group("/customers", auth, feature(permissions.FeatureCustomerIntelligence))
	customers.GET("", d.Customers.ListCustomers)
	customers.POST("", d.Customers.CreateCustomer)
	customers.POST("/sync-odoo", feature(permissions.FeatureOdooIntegration), d.Customers.SyncOdoo)
	customers.GET("/:id", d.Customers.GetCustomer)
	customers.PUT("/:id", d.Customers.UpdateCustomer)
	customers.DELETE("/:id", d.Customers.DeleteCustomer)

	intelligence := api.Group("/customer-intelligence", auth, feature(permissions.FeatureCustomerIntelligence))
	intelligence.GET("/dashboard", d.Intelligence.Dashboard)
	intelligence.POST("/analyze/:customer_id", d.Intelligence.Analyze)

	products := api.Group("/products", auth, feature(permissions.FeatureCrossSell))
	products.GET("", d.Intelligence.ListProducts)
	products.POST("", d.Intelligence.AddProduct)

	crossSell := api.Group("/growth/cross-sell", auth, feature(permissions.FeatureCrossSell))
	crossSell.GET("", d.Intelligence.CrossSellOpportunities)
	crossSell.POST("/:customer_id", d.Intelligence.GenerateCrossSell)

	health := api.Group("/customer-health", auth, feature(permissions.FeatureCustomerHealth))
	health.GET("/scores", d.Health.Scores)
	health.POST("/score/:customer_id", d.Health.Score)
	health.POST("/refresh", d.Health.Refresh)
	health.GET("/alerts", d.Health.Alerts)
	health.POST("/alerts/:id/acknowledge", d.Health.Acknowledge)
	health.GET("/ws", d.Health.Stream)

	email := api.Group("/email", auth, feature(permissions.FeatureEmailCampaigns))
	email.GET("/providers", d.Campaigns.Providers)
	email.GET("/campaigns", d.Campaigns.ListCampaigns)
	email.POST("/campaigns", d.Campaigns.CreateCampaign)
	email.GET("/campaigns/:id", d.Campaigns.GetCampaign)
	email.DELETE("/campaigns/:id", d.Campaigns.DeleteCampaign)
	email.POST("/campaigns/:id/send", d.Campaigns.SendCampaign)
	email.GET("/campaigns/:id/logs", d.Campaigns.CampaignLogs)

	affiliate := api.Group("/affiliate", auth, feature(permissions.FeatureAffiliateProgram))
	affiliate.POST("/register", d.Affiliates.Register)
	affiliate.GET("/me", d.Affiliates.Me)
	affiliate.GET("/commissions", d.Affiliates.Commissions)

	admin := api.Group("/admin", auth, middleware.RoleMiddleware(db_models.RoleAdmin, db_models.RoleSuperAdmin))
	can := middleware.PermissionMiddleware
	admin.GET("/dashboard", can(permissions.PermViewDashboard), d.Dashboard.GetDashboard)
	admin.GET("/audit-logs", can(permissions.PermViewAudit), d.Admin.AuditLogs)

	users := admin.Group("/users", can(permissions.PermManageUsers))
	users.GET("", d.Admin.ListUsers)
	users.GET("/:id", d.Admin.GetUser)
	users.PUT("/:id", d.Admin.UpdateUser)
	users.DELETE("/:id", d.Admin.DeactivateUser)
	users.POST("/:id/unlock", d.Admin.UnlockUser)

	plans := admin.Group("/plans", can(permissions.PermManagePlans))
	plans.GET("", d.Admin.ListPlans)
	plans.POST("", d.Admin.CreatePlan)
	plans.PUT("/:id", d.Admin.UpdatePlan)

	admin.GET("/transactions", can(permissions.PermViewDashboard), d.Admin.ListTransactions)
	admin.POST("/transactions/:id/refund", can(permissions.PermRefundPayments), d.Admin.RefundTransaction)

	affiliates := admin.Group("/affiliates", can(permissions.PermManageAffiliates))
	affiliates.GET("", d.Admin.ListAffiliates)
	affiliates.POST("", d.Admin.CreateAffiliate)
	affiliates.GET("/settings", d.Admin.GetAffiliateSettings)
	affiliates.PUT("/settings", d.Admin.UpdateAffiliateSettings)
	affiliates.POST("/commissions", d.Admin.CreateCommission)
	affiliates.POST("/commissions/:id/refund", can(permissions.PermRefundPayments), d.Admin.RefundCommission)
	affiliates.POST("/release-holdbacks", d.Admin.ReleaseHoldbacks)
	affiliates.GET("/:id", d.Admin.GetAffiliate)
	affiliates.GET("/:id/commissions", d.Admin.AffiliateCommissions)
	affiliates.POST("/:id/pause", d.Admin.PauseAffiliate)
	affiliates.POST("/:id/resume", d.Admin.ResumeAffiliate)
}
