package payment_service_fx

import (
	"context"

	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideGateway, provideBillingRepo, providePlanRepo, providePlanService, providePaymentService,
)

func provideGateway(cfg *config.Config, log *zap.Logger) services.PaymentGateway {
	return services.NewPayOSGateway(cfg.Payment, log)
}

func provideBillingRepo(db *gorm.DB) repositories.BillingRepository {
	return repositories.NewBillingRepository(db)
}

func providePlanRepo(db *gorm.DB) repositories.IPlanRepository {
	return repositories.NewPlanRepository(db)
}

// providePlanService seeds the default catalog before the server accepts traffic.
func providePlanService(lc fx.Lifecycle, planRepo repositories.IPlanRepository, audit services.AuditServiceInterface, log *zap.Logger) services.PlanServiceInterface {
	svc := services.NewPlanService(planRepo, audit, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.SeedCatalog(ctx)
		},
	})
	return svc
}

func providePaymentService(
	billing repositories.BillingRepository,
	plans repositories.IPlanRepository,
	accounts repositories.AccountRepository,
	affiliates services.AffiliateServiceInterface,
	gateway services.PaymentGateway,
	mail services.IMailService,
	audit services.AuditServiceInterface,
	log *zap.Logger,
) services.PaymentService {
	return services.NewPaymentService(billing, plans, accounts, affiliates, gateway, mail, audit, log)
}
