package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"customermind/cmd/fx/account_fx"
	"customermind/cmd/fx/affiliate_fx"
	"customermind/cmd/fx/controllers_fx"
	"customermind/cmd/fx/customer_fx"
	"customermind/cmd/fx/dashboard"
	"customermind/cmd/fx/db_fx"
	"customermind/cmd/fx/insight_fx"
	"customermind/cmd/fx/jobs_fx"
	"customermind/cmd/fx/llm_fx"
	"customermind/cmd/fx/mail_fx"
	"customermind/cmd/fx/memcache_fx"
	"customermind/cmd/fx/payment_service_fx"
	"customermind/internal/repositories"
	"customermind/pkg/config"
	"customermind/pkg/logger"
	"customermind/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	app := fx.New(
		fx.Supply(cfg, zl),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		db_fx.Module,
		memcache_fx.Module,
		llm_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		affiliate_fx.Module,
		payment_service_fx.Module,
		customer_fx.Module,
		insight_fx.Module,
		dashboard.Module,
		jobs_fx.Module,
		controllers_fx.Module,

		fx.Invoke(EnsureIndexes),
		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

// EnsureIndexes creates the Mongo indexes before the server accepts traffic.
func EnsureIndexes(
	lc fx.Lifecycle,
	customers repositories.CustomerStore,
	analyses repositories.AnalysisStore,
	crossSell repositories.CrossSellStore,
	health repositories.HealthStore,
	campaigns repositories.CampaignStore,
	audit repositories.AuditStore,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repositories.EnsureIndexes(ctx, customers, analyses, crossSell, health, campaigns, audit)
		},
	})
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(cfg *config.Config, log *zap.Logger, deps RouteDeps) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.HTTP.CORSOrigins...))

	RegisterRoutes(r, deps)

	return r
}
