package account_fx

import (
	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"
	mem "customermind/pkg/memcache"
	"customermind/pkg/middleware"
	"customermind/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo, provideTokenManager,
	provideAuditStore, provideAuditService, provideAdminService, provideTierResolver)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideTokenManager(cfg *config.Config) *utils.TokenManager {
	return utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func provideAuditStore(db *mongo.Database) repositories.AuditStore {
	return repositories.NewAuditStore(db)
}

func provideAuditService(store repositories.AuditStore, log *zap.Logger) services.AuditServiceInterface {
	return services.NewAuditService(store, log)
}

func provideAccountService(
	accountRepo repositories.AccountRepository,
	affiliates repositories.AffiliateRepository,
	tokens *utils.TokenManager,
	resetTokens mem.ResetTokenStore,
	limiter mem.RateLimiter,
	mailService services.IMailService,
	audit services.AuditServiceInterface,
	cfg *config.Config,
	log *zap.Logger,
) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, affiliates, tokens, resetTokens, limiter, mailService, audit, cfg, log)
}

func provideAdminService(accountRepo repositories.AccountRepository, audit services.AuditServiceInterface, log *zap.Logger) services.AdminServiceInterface {
	return services.NewAdminService(accountRepo, audit, log)
}

func provideTierResolver(accounts services.AccountServiceInterface) middleware.TierResolver {
	return accounts
}
