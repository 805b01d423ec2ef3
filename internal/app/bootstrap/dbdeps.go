// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/projectdash/internal/app/store/ledger"
	"github.com/dalemusser/projectdash/internal/app/store/sqliteledger"
	"github.com/dalemusser/projectdash/internal/app/system/auditlog"
	"github.com/dalemusser/projectdash/internal/app/system/dashboard"
	"github.com/dalemusser/projectdash/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Ledger is the configured project ledger backend.
	Ledger ledger.Store
	// SQLite is set only when the ledger lives in sqlite.
	SQLite *sqliteledger.DB

	// Runtime is filled in by Startup and shared with BuildHandler and
	// Shutdown.
	Runtime *Runtime
}

// Runtime holds the long-lived objects Startup builds.
type Runtime struct {
	Audit     *auditlog.Logger
	Views     *dashboard.Registry
	Scheduler *tasks.Scheduler
}
