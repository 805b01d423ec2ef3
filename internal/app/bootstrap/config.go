// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for projectdash.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PROJECTDASH_MONGO_URI, PROJECTDASH_CURRENCY, etc.
//   - Command-line flags: --mongo_uri, --currency, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "projectdash", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Project ledger
	{Name: "ledger_backend", Default: LedgerMongo, Desc: "Project ledger backend: 'mongo' or 'sqlite'"},
	{Name: "sqlite_path", Default: "projects.db", Desc: "sqlite ledger file (ledger_backend=sqlite)"},

	// Sessions and CSRF
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "projectdash-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},
	{Name: "csrf_key", Default: "dev-only-csrf-key-0123456789abcd", Desc: "CSRF token key (32 bytes)"},

	// Dashboard data source
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL"},
	{Name: "data_url", Default: "", Desc: "Dashboard-data endpoint (blank means base_url + /api/project-dashboard-data)"},
	{Name: "api_token", Default: "dev-only-api-token", Desc: "Bearer token the dashboard fetcher presents to the data endpoint"},
	{Name: "fetch_timeout", Default: "10s", Desc: "Dashboard fetch timeout"},

	// Dashboard behavior
	{Name: "refresh_interval", Default: "5m", Desc: "Auto-refresh period for open dashboards"},
	{Name: "resize_debounce", Default: "250ms", Desc: "Viewport resize debounce"},
	{Name: "view_idle_ttl", Default: "30m", Desc: "Idle dashboard views are dropped after this"},
	{Name: "detail_url_template", Default: "/project/{id}", Desc: "Per-project detail link; {id} is replaced"},
	{Name: "currency", Default: "PLN", Desc: "Currency code shown on the dashboard and export"},
	{Name: "seed_file", Default: "", Desc: "Optional YAML seed file loaded at startup"},

	// Handler timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Short handler timeout (single lookups)"},
	{Name: "timeout_medium", Default: "10s", Desc: "Medium handler timeout (writes, list queries)"},
	{Name: "timeout_long", Default: "30s", Desc: "Long handler timeout (dashboard loads)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_data", Default: "all", Desc: "Data event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, PROJECTDASH_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PROJECTDASH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		LedgerBackend: appValues.String("ledger_backend"),
		SQLitePath:    appValues.String("sqlite_path"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),
		CSRFKey:       appValues.String("csrf_key"),

		BaseURL:      appValues.String("base_url"),
		DataURL:      appValues.String("data_url"),
		APIToken:     appValues.String("api_token"),
		FetchTimeout: appValues.Duration("fetch_timeout", 10*time.Second),

		RefreshInterval:   appValues.Duration("refresh_interval", 5*time.Minute),
		ResizeDebounce:    appValues.Duration("resize_debounce", 250*time.Millisecond),
		ViewIdleTTL:       appValues.Duration("view_idle_ttl", 30*time.Minute),
		DetailURLTemplate: appValues.String("detail_url_template"),
		Currency:          appValues.String("currency"),
		SeedFile:          appValues.String("seed_file"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		AuditLogAuth: appValues.String("audit_log_auth"),
		AuditLogData: appValues.String("audit_log_data"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI, an unknown ledger backend or audit
// destination, a data URL that is not absolute http(s), a CSRF key of the
// wrong length, and non-positive durations.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

// validateApp holds the checks that need no WAFFLE state.
func validateApp(c AppConfig) error {
	switch c.LedgerBackend {
	case LedgerMongo:
	case LedgerSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("ledger_backend=sqlite requires sqlite_path")
		}
	default:
		return fmt.Errorf("ledger_backend must be %q or %q, got %q", LedgerMongo, LedgerSQLite, c.LedgerBackend)
	}

	u, err := url.Parse(c.ResolvedDataURL())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("data_url %q is not an absolute http(s) URL", c.ResolvedDataURL())
	}

	if len(c.CSRFKey) != 32 {
		return fmt.Errorf("csrf_key must be exactly 32 bytes, got %d", len(c.CSRFKey))
	}

	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"session_max_age", c.SessionMaxAge},
		{"fetch_timeout", c.FetchTimeout},
		{"refresh_interval", c.RefreshInterval},
		{"resize_debounce", c.ResizeDebounce},
		{"view_idle_ttl", c.ViewIdleTTL},
		{"timeout_short", c.TimeoutShort},
		{"timeout_medium", c.TimeoutMedium},
		{"timeout_long", c.TimeoutLong},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.v)
		}
	}

	for name, dest := range map[string]string{"audit_log_auth": c.AuditLogAuth, "audit_log_data": c.AuditLogData} {
		if !auditlog.ValidDestination(dest) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, dest)
		}
	}

	if c.Currency == "" {
		return fmt.Errorf("currency must not be empty")
	}
	return nil
}
