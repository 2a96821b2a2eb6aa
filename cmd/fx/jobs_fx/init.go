package jobs_fx

import (
	"context"

	"customermind/internal/jobs"
	"customermind/internal/services"
	"customermind/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(provideScheduler),
	fx.Invoke(startScheduler),
)

func provideScheduler(
	affiliates services.AffiliateServiceInterface,
	payments services.PaymentService,
	health services.HealthServiceInterface,
	cfg *config.Config,
	log *zap.Logger,
) (*jobs.Scheduler, error) {
	return jobs.NewScheduler(affiliates, payments, health, cfg.Scheduler, log.Named("jobs"))
}

func startScheduler(lc fx.Lifecycle, s *jobs.Scheduler, cfg *config.Config, log *zap.Logger) {
	if !cfg.Scheduler.Enabled {
		log.Info("background jobs disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop()
		},
	})
}
