package mail_fx

import (
	"context"

	"customermind/internal/repositories"
	"customermind/internal/services"
	"customermind/pkg/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(
	provideDispatcher, provideCampaignStore, provideMailService,
	provideCampaignService, provideCampaignServiceInterface)

func provideDispatcher(cfg *config.Config, log *zap.Logger) services.EmailDispatcherInterface {
	providers := services.NewEmailProviders(cfg.Email, log)
	if len(providers) == 0 {
		log.Warn("no email provider configured; outgoing mail will fail")
	}
	return services.NewEmailDispatcher(providers, cfg.Email.FromEmail, cfg.Email.FromName, log)
}

func provideCampaignStore(db *mongo.Database) repositories.CampaignStore {
	return repositories.NewCampaignStore(db)
}

func provideMailService(dispatcher services.EmailDispatcherInterface, logs repositories.CampaignStore, cfg *config.Config, log *zap.Logger) services.IMailService {
	return services.NewMailService(dispatcher, logs, services.MailBranding{
		AppName:    cfg.Email.AppName,
		AppBaseURL: cfg.Email.AppBaseURL,
	}, log)
}

// provideCampaignService waits for in-flight sends on shutdown.
func provideCampaignService(lc fx.Lifecycle, store repositories.CampaignStore, dispatcher services.EmailDispatcherInterface, cfg *config.Config, log *zap.Logger) *services.CampaignService {
	svc := services.NewCampaignService(store, dispatcher, cfg.Email.SendTimeout, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return svc.Wait(ctx)
		},
	})
	return svc
}

func provideCampaignServiceInterface(svc *services.CampaignService) services.CampaignServiceInterface {
	return svc
}
