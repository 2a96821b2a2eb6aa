package affiliate_fx

import (
	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideAffiliateRepo, provideAffiliateService)

func provideAffiliateRepo(db *gorm.DB) repositories.AffiliateRepository {
	return repositories.NewAffiliateRepository(db)
}

func provideAffiliateService(
	repo repositories.AffiliateRepository,
	accounts repositories.AccountRepository,
	audit services.AuditServiceInterface,
	cfg *config.Config,
	log *zap.Logger,
) services.AffiliateServiceInterface {
	return services.NewAffiliateService(repo, accounts, audit, cfg, log)
}
