// Package scheduler runs the periodic subscription activation sweep.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/atshybrid/kaburlu-media-backend-sub003/internal/clock"
	obsmetrics "github.com/atshybrid/kaburlu-media-backend-sub003/internal/observability/metrics"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobActivateSubscriptions = "activate_subscriptions"

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	Metrics         *obsmetrics.SchedulerMetrics

	Config Config `optional:"true"`
}

type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = time.Minute
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	return c
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	metrics         *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil || p.Metrics == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		metrics:         p.Metrics,
	}, nil
}

// RunOnce executes one sweep with a per-job timeout. Safe to invoke
// concurrently across process instances: the per-row status guard makes
// redundant activation a no-op.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	s.metrics.IncJobRun(jobActivateSubscriptions)
	report, err := s.subscriptionSvc.ActivateScheduled(ctx)
	if err != nil {
		s.metrics.IncJobError(jobActivateSubscriptions)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("activation sweep timed out",
				zap.Duration("timeout", s.cfg.JobTimeout),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	if report.Activated > 0 {
		s.metrics.AddActivated(report.Activated)
	}
	if report.Failed > 0 {
		s.metrics.IncJobError(jobActivateSubscriptions)
	}
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
