// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/projectdash/internal/app/store/audit"
	projectstore "github.com/dalemusser/projectdash/internal/app/store/projects"
	"github.com/dalemusser/projectdash/internal/app/store/sqliteledger"
	"github.com/dalemusser/projectdash/internal/app/system/indexes"
	"github.com/dalemusser/projectdash/internal/app/system/timeouts"
	"github.com/dalemusser/projectdash/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens MongoDB (accounts, audit events and, by default, the
// project ledger) and, when ledger_backend is "sqlite", the sqlite ledger.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Runtime:       &Runtime{},
	}

	switch appCfg.LedgerBackend {
	case LedgerSQLite:
		sq, err := sqliteledger.Open(appCfg.SQLitePath)
		if err != nil {
			_ = client.Disconnect(context.Background())
			logger.Error("sqlite ledger open failed", zap.String("path", appCfg.SQLitePath), zap.Error(err))
			return DBDeps{}, err
		}
		deps.SQLite = sq
		deps.Ledger = sqliteledger.New(sq)
	default:
		deps.Ledger = projectstore.New(db)
	}

	logger.Info("connected to backends",
		zap.String("mongo_database", appCfg.MongoDatabase),
		zap.String("ledger_backend", appCfg.LedgerBackend))
	return deps, nil
}

// EnsureSchema sets up collection validators and indexes. The sqlite schema
// is applied when the database is opened.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure collection validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := audit.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		logger.Error("ensure audit indexes failed", zap.Error(err))
		return err
	}
	return nil
}
