package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultRefreshConcurrency bounds how many dashboard views reload at once.
const DefaultRefreshConcurrency = 4

// DashboardRefreshJob reloads every visible dashboard view. Views whose page
// reported itself hidden are skipped. Failed loads surface in the view's
// error state and do not fail the job.
func DashboardRefreshJob(reg *dashboard.Registry, interval time.Duration, concurrency int, logger *zap.Logger) Job {
	if concurrency <= 0 {
		concurrency = DefaultRefreshConcurrency
	}
	return Job{
		Name:     "dashboard-refresh",
		Interval: interval,
		Run: func(ctx context.Context) error {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)

			refreshed, skipped := 0, 0
			for _, v := range reg.Views() {
				if v.Hidden() {
					skipped++
					continue
				}
				refreshed++
				g.Go(func() error {
					if err := v.Controller.Load(gctx); err != nil {
						logger.Debug("dashboard auto-refresh failed",
							zap.String("view_id", v.ID),
							zap.Error(err))
					}
					return nil
				})
			}
			err := g.Wait()
			if refreshed > 0 || skipped > 0 {
				logger.Debug("dashboard views refreshed",
					zap.Int("refreshed", refreshed),
					zap.Int("hidden", skipped))
			}
			return err
		},
	}
}

// IdleViewEvictionJob drops dashboard views not used for ttl.
func IdleViewEvictionJob(reg *dashboard.Registry, ttl time.Duration, logger *zap.Logger) Job {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return Job{
		Name:     "dashboard-view-eviction",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := reg.EvictIdle(ttl); n > 0 {
				logger.Info("evicted idle dashboard views",
					zap.Int("count", n),
					zap.Duration("ttl", ttl))
			}
			return nil
		},
	}
}
