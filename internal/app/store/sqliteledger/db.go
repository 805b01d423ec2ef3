// Package sqliteledger is the sqlite ledger backend. Its schema follows the
// legacy projects.db layout with a company_id column added to projects.
package sqliteledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sqlite connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	d := &DB{db}
	if err := d.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    end_date TEXT
);
CREATE INDEX IF NOT EXISTS idx_projects_company ON projects(company_id);

CREATE TABLE IF NOT EXISTS income (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL,
    amount REAL NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects (id)
);
CREATE INDEX IF NOT EXISTS idx_income_project ON income(project_id);

CREATE TABLE IF NOT EXISTS expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL,
    amount REAL NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects (id)
);
CREATE INDEX IF NOT EXISTS idx_expenses_project ON expenses(project_id);

CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    due_date TEXT,
    status TEXT NOT NULL DEFAULT 'To Do',
    FOREIGN KEY (project_id) REFERENCES projects (id)
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
`

// Migrate creates any missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
