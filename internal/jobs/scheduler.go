// Package jobs runs the periodic maintenance work: holdback release,
// subscription expiry and customer health refresh.
package jobs

import (
	"context"
	"fmt"
	"time"

	"customermind/internal/repositories"
	"customermind/pkg/config"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	JobHoldbackRelease    = "affiliate-holdback-release"
	JobSubscriptionExpiry = "subscription-expiry"
	JobHealthRefresh      = "customer-health-refresh"

	jobTimeout = 10 * time.Minute
)

type HoldbackReleaser interface {
	ReleaseDueHoldbacks(ctx context.Context) (int, error)
}

type SubscriptionExpirer interface {
	ExpireSubscriptions(ctx context.Context) (repositories.ExpiryResult, error)
}

type HealthRefresher interface {
	RefreshEligible(ctx context.Context) (int, error)
}

type Scheduler struct {
	scheduler gocron.Scheduler
	holdbacks HoldbackReleaser
	billing   SubscriptionExpirer
	health    HealthRefresher
	cfg       config.SchedulerConfig
	log       *zap.Logger
}

func NewScheduler(holdbacks HoldbackReleaser, billing SubscriptionExpirer, health HealthRefresher, cfg config.SchedulerConfig, log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &Scheduler{
		scheduler: s,
		holdbacks: holdbacks,
		billing:   billing,
		health:    health,
		cfg:       cfg,
		log:       log,
	}
	if err := js.registerJobs(); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *Scheduler) registerJobs() error {
	defs := []struct {
		name  string
		every time.Duration
		run   func(context.Context) error
	}{
		{JobHoldbackRelease, orDefault(js.cfg.HoldbackReleaseEvery, time.Hour), js.releaseHoldbacks},
		{JobSubscriptionExpiry, orDefault(js.cfg.SubscriptionSweepEvery, 15*time.Minute), js.expireSubscriptions},
		{JobHealthRefresh, orDefault(js.cfg.HealthRefreshEvery, 6*time.Hour), js.refreshHealth},
	}

	for _, d := range defs {
		run := d.run
		name := d.name
		_, err := js.scheduler.NewJob(
			gocron.DurationJob(d.every),
			gocron.NewTask(func() { js.execute(name, run) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	js.log.Info("background jobs registered", zap.Int("count", len(defs)))
	return nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (js *Scheduler) execute(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	if err := run(ctx); err != nil {
		js.log.Error("background job failed", zap.String("job", name), zap.Error(err))
		return
	}
	js.log.Debug("background job done", zap.String("job", name), zap.Duration("took", time.Since(started)))
}

func (js *Scheduler) releaseHoldbacks(ctx context.Context) error {
	n, err := js.holdbacks.ReleaseDueHoldbacks(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		js.log.Info("holdbacks released", zap.Int("commissions", n))
	}
	return nil
}

func (js *Scheduler) expireSubscriptions(ctx context.Context) error {
	res, err := js.billing.ExpireSubscriptions(ctx)
	if err != nil {
		return err
	}
	if res.Expired > 0 || res.PastDue > 0 {
		js.log.Info("subscriptions swept",
			zap.Int64("past_due", res.PastDue),
			zap.Int64("expired", res.Expired),
			zap.Int("downgraded", len(res.Downgraded)))
	}
	return nil
}

func (js *Scheduler) refreshHealth(ctx context.Context) error {
	n, err := js.health.RefreshEligible(ctx)
	if err != nil {
		return err
	}
	js.log.Info("customer health refreshed", zap.Int("tenants", n))
	return nil
}

func (js *Scheduler) Start() {
	js.log.Info("starting background job scheduler")
	js.scheduler.Start()
}

func (js *Scheduler) Stop() error {
	js.log.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}
