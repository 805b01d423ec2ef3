// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/projectdash/internal/app/resources"
	accountstore "github.com/dalemusser/projectdash/internal/app/store/accounts"
	"github.com/dalemusser/projectdash/internal/app/store/audit"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/fetcher"
	"github.com/dalemusser/projectdash/internal/app/system/seed"
	"github.com/dalemusser/projectdash/internal/app/system/tasks"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It loads the shared templates, applies the configured timeouts, seeds an
// empty database when a seed file is configured, and starts the dashboard
// registry with its refresh and eviction jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	t := timeouts.Current()
	logger.Debug("handler timeouts",
		zap.Duration("ping", t.Ping),
		zap.Duration("short", t.Short),
		zap.Duration("medium", t.Medium),
		zap.Duration("long", t.Long))

	if appCfg.SeedFile != "" {
		if err := applySeed(ctx, appCfg.SeedFile, deps, logger); err != nil {
			return err
		}
	}

	rt := deps.Runtime
	rt.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth: appCfg.AuditLogAuth,
		Data: appCfg.AuditLogData,
	})

	client := fetcher.New(fetcher.Config{
		URL:     appCfg.ResolvedDataURL(),
		Token:   appCfg.APIToken,
		Timeout: appCfg.FetchTimeout,
	}, nil, logger)

	rt.Views = dashboard.NewRegistry(LoaderFor(client), dashboard.Options{
		Currency:          appCfg.Currency,
		DetailURLTemplate: appCfg.DetailURLTemplate,
	}, appCfg.ResizeDebounce, logger)

	rt.Scheduler = tasks.NewScheduler(logger)
	rt.Scheduler.Add(tasks.DashboardRefreshJob(rt.Views, appCfg.RefreshInterval, tasks.DefaultRefreshConcurrency, logger))
	rt.Scheduler.Add(tasks.IdleViewEvictionJob(rt.Views, appCfg.ViewIdleTTL, logger))
	// The scheduler outlives the startup context; Shutdown stops it.
	rt.Scheduler.Start(context.Background())

	logger.Info("dashboard runtime started",
		zap.String("data_url", appCfg.ResolvedDataURL()),
		zap.Duration("refresh_interval", appCfg.RefreshInterval),
		zap.Duration("view_idle_ttl", appCfg.ViewIdleTTL))
	return nil
}

// CompanyLoader is the fetch side of the dashboard-data client.
type CompanyLoader interface {
	Load(ctx context.Context, companyID string) ([]models.Project, error)
}

// LoaderFor binds a loader to each company's dashboard views.
func LoaderFor(l CompanyLoader) dashboard.LoaderFor {
	return func(companyID string) dashboard.LoadFunc {
		return func(ctx context.Context) ([]models.Project, error) {
			return l.Load(ctx, companyID)
		}
	}
}

func applySeed(ctx context.Context, path string, deps DBDeps, logger *zap.Logger) error {
	f, err := seed.Load(path)
	if err != nil {
		logger.Error("seed file load failed", zap.String("path", path), zap.Error(err))
		return err
	}
	res, err := seed.Apply(ctx, f, accountstore.New(deps.MongoDatabase), deps.Ledger, logger)
	if err != nil {
		logger.Error("seed apply failed", zap.String("path", path), zap.Error(err))
		return err
	}
	if res.Skipped {
		logger.Info("seed skipped; admin already exists", zap.String("path", path))
		return nil
	}
	logger.Info("seed applied",
		zap.String("company_id", res.CompanyID),
		zap.Int("projects", res.Projects))
	return nil
}
