package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runai/stackctl/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLite Ledger
// =============================================================================

// SQLiteLedger implements Ledger on an embedded SQLite database. Same
// contract as the file backend; insertion order is the rowid order.
// SQLite's own locking replaces the advisory lock file.
type SQLiteLedger struct {
	db *sqlx.DB
}

// NewSQLiteLedger opens (or creates) the ledger database and runs
// migrations.
func NewSQLiteLedger(dsn string) (*SQLiteLedger, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewLedgerError("NewSQLiteLedger", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewLedgerError("NewSQLiteLedger", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewLedgerError("NewSQLiteLedger", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteLedger{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// =============================================================================
// Ledger Operations
// =============================================================================

// entryRow represents a ledger row in the database.
type entryRow struct {
	ID           int64  `db:"id"`
	DeploymentID string `db:"deployment_id"`
	ConfigPath   string `db:"config_path"`
	CreatedAt    string `db:"created_at"`
}

// Append records a deployment.
func (l *SQLiteLedger) Append(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.DeploymentID == "" {
		return NewLedgerError("Append", "", "invalid id", ErrInvalidDeploymentID)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (deployment_id, config_path, created_at) VALUES (?, ?, ?)`,
		entry.DeploymentID, entry.ConfigPath, entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return NewLedgerError("Append", entry.DeploymentID, err.Error(), err)
	}
	return nil
}

// List returns entries in insertion order, soft-skipping entries whose
// config file no longer exists (same contract as the file backend).
func (l *SQLiteLedger) List(ctx context.Context) ([]domain.LedgerEntry, error) {
	var rows []entryRow
	err := l.db.SelectContext(ctx, &rows,
		`SELECT id, deployment_id, config_path, created_at FROM ledger_entries ORDER BY id`,
	)
	if err != nil {
		return nil, NewLedgerError("List", "", err.Error(), err)
	}

	var entries []domain.LedgerEntry
	for _, row := range rows {
		if _, err := os.Stat(row.ConfigPath); err != nil {
			continue // soft-delete: missing config file hides the entry
		}
		createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
		if err != nil {
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			DeploymentID: row.DeploymentID,
			ConfigPath:   row.ConfigPath,
			CreatedAt:    createdAt,
		})
	}
	return entries, nil
}

// Remove drops every entry with the given deployment ID and deletes the
// associated config files.
func (l *SQLiteLedger) Remove(ctx context.Context, deploymentID string) error {
	if deploymentID == "" {
		return NewLedgerError("Remove", "", "invalid id", ErrInvalidDeploymentID)
	}

	var paths []string
	err := l.db.SelectContext(ctx, &paths,
		`SELECT config_path FROM ledger_entries WHERE deployment_id = ?`, deploymentID)
	if err != nil {
		return NewLedgerError("Remove", deploymentID, err.Error(), err)
	}

	if _, err := l.db.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE deployment_id = ?`, deploymentID); err != nil {
		return NewLedgerError("Remove", deploymentID, err.Error(), err)
	}

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return NewLedgerError("Remove", deploymentID, err.Error(), err)
		}
	}
	return nil
}
