package controllers_fx

import (
	"context"

	"customermind/internal/api/controllers"
	"customermind/internal/infra"
	"customermind/internal/realtime"
	"customermind/internal/services"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewCustomerController),
	fx.Provide(controllers.NewIntelligenceController),
	fx.Provide(controllers.NewCampaignController),
	fx.Provide(controllers.NewAffiliateController),
	fx.Provide(controllers.NewDashboardController),
	fx.Provide(controllers.NewAdminController),
	fx.Provide(providePaymentController),
	fx.Provide(provideHealthController),
	fx.Provide(provideSystemController))

func providePaymentController(paymentService services.PaymentService, planService services.PlanServiceInterface, log *zap.Logger) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService, planService, log.Named("payments"))
}

func provideHealthController(healthService services.HealthServiceInterface, hub *realtime.Hub, log *zap.Logger) *controllers.HealthController {
	return controllers.NewHealthController(healthService, hub, log.Named("health"))
}

// provideSystemController checks every backing store; Redis is skipped when disabled.
func provideSystemController(db *gorm.DB, mongoClient *mongo.Client, redisClient *redis.Client) *controllers.SystemController {
	deps := []controllers.Dependency{
		{Name: "postgres", Ping: func(ctx context.Context) error { return infra.PingPostgresql(ctx, db) }},
		{Name: "mongo", Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }},
	}
	if redisClient != nil {
		deps = append(deps, controllers.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return controllers.NewSystemController(deps)
}
