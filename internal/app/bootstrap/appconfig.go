// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, CORS); everything the
// dashboard itself needs lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Project ledger
	LedgerBackend string // "mongo" or "sqlite"
	SQLitePath    string // sqlite ledger file, used when LedgerBackend is "sqlite"

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: projectdash-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session cookie lifetime

	CSRFKey string // 32-byte key for gorilla/csrf tokens

	// Dashboard data source
	BaseURL      string        // e.g., "https://dash.example.com" or "http://localhost:8080"
	DataURL      string        // dashboard-data endpoint; derived from BaseURL when blank
	APIToken     string        // bearer token the fetcher presents to the data endpoint
	FetchTimeout time.Duration // per fetch

	// Dashboard behavior
	RefreshInterval   time.Duration // auto-refresh period
	ResizeDebounce    time.Duration // viewport sample debounce
	ViewIdleTTL       time.Duration // idle view states are evicted after this
	DetailURLTemplate string        // "{id}" is replaced by the project id
	Currency          string        // currency code shown on cards, table and export

	SeedFile string // optional YAML seed loaded at startup

	// Handler timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Audit logging destinations: all, db, log or off
	AuditLogAuth string
	AuditLogData string
}

// Ledger backends accepted by LedgerBackend.
const (
	LedgerMongo  = "mongo"
	LedgerSQLite = "sqlite"
)

// DataEndpointPath is where the dashboard-data endpoint is mounted.
const DataEndpointPath = "/api/project-dashboard-data"

// ResolvedDataURL returns DataURL, or the local endpoint under BaseURL.
func (c AppConfig) ResolvedDataURL() string {
	if c.DataURL != "" {
		return c.DataURL
	}
	base := c.BaseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + DataEndpointPath
}
