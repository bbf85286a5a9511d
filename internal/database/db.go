// Package database provides the sqlite setup, models, and data access layer (Store)
// for the Telegram message log and the database-backed tracked-user list.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/cotebot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Open connects to the sqlite file at path, switches it to WAL mode and
// brings the schema up to date. A nil logger discards output.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "database")

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	// One writer at a time; the message log and tracked users share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		log.WarnContext(ctx, "Could not enable WAL journal mode", "error", err)
	}

	if err := migrateUp(db.DB, databaseName(path), log); err != nil {
		Close(db, log)
		return nil, err
	}

	log.InfoContext(ctx, "Database ready", "path", path)
	return db, nil
}

// Close closes the pool, logging instead of returning the error.
func Close(db *sqlx.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing database", "error", err)
		return
	}
	logger.Debug("Database closed")
}

// migrateUp applies the embedded migrations. An up-to-date schema is not an error.
func migrateUp(db *sql.DB, name string, log *slog.Logger) error {
	if name == "" {
		return errors.New("database name for migration driver is empty")
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	target, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: name})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Debug("Schema already up to date", "database", name)
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	log.Info("Applied migrations", "database", name, "version", version, "dirty", dirty, "version_error", verr)
	return nil
}

// databaseName strips a "file:" prefix and query string from a DSN and
// unescapes what remains.
func databaseName(dsn string) string {
	name := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}
