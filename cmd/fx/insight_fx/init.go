package insight_fx

import (
	"context"

	"customermind/internal/realtime"
	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"
	mem "customermind/pkg/memcache"
	"customermind/pkg/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideAnalysisStore, provideCrossSellStore, provideHealthStore, provideProductRepo,
	provideHub, providePublisher,
	provideIntelligenceService, provideGrowthService, provideHealthService)

func provideAnalysisStore(db *mongo.Database) repositories.AnalysisStore {
	return repositories.NewAnalysisStore(db)
}

func provideCrossSellStore(db *mongo.Database) repositories.CrossSellStore {
	return repositories.NewCrossSellStore(db)
}

func provideHealthStore(db *mongo.Database) repositories.HealthStore {
	return repositories.NewHealthStore(db)
}

func provideProductRepo(db *gorm.DB) repositories.IProductRepository {
	return repositories.NewProductRepository(db)
}

func provideHub(lc fx.Lifecycle, log *zap.Logger) *realtime.Hub {
	hub := realtime.NewHub(log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}

func providePublisher(hub *realtime.Hub) services.Publisher {
	return hub
}

func provideIntelligenceService(
	customers repositories.CustomerStore,
	analyses repositories.AnalysisStore,
	llm utils.LLMClientInterface,
	cache mem.Cache,
	log *zap.Logger,
) services.IntelligenceServiceInterface {
	return services.NewIntelligenceService(customers, analyses, llm, cache, log)
}

func provideGrowthService(
	products repositories.IProductRepository,
	customers repositories.CustomerStore,
	crossSell repositories.CrossSellStore,
	llm utils.LLMClientInterface,
	log *zap.Logger,
) services.GrowthServiceInterface {
	return services.NewGrowthService(products, customers, crossSell, llm, log)
}

func provideHealthService(
	customers repositories.CustomerStore,
	store repositories.HealthStore,
	accounts repositories.AccountRepository,
	llm utils.LLMClientInterface,
	hub services.Publisher,
	mail services.IMailService,
	cfg *config.Config,
	log *zap.Logger,
) services.HealthServiceInterface {
	return services.NewHealthService(customers, store, accounts, llm, hub, mail, cfg.Health, log)
}
