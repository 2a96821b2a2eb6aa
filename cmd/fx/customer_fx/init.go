package customer_fx

import (
	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"
	"customermind/pkg/odoo"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(
	provideCustomerStore, provideOdooClient, provideCustomerService)

func provideCustomerStore(db *mongo.Database) repositories.CustomerStore {
	return repositories.NewCustomerStore(db)
}

func provideOdooClient(cfg *config.Config) services.CRMClient {
	return odoo.NewClient(cfg.Odoo)
}

func provideCustomerService(store repositories.CustomerStore, crm services.CRMClient, audit services.AuditServiceInterface, log *zap.Logger) services.CustomerServiceInterface {
	return services.NewCustomerService(store, crm, audit, log)
}
