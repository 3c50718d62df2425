// Package database provides the glossary store: connection setup, schema
// migrations, models, and the data access layer (Store).
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/glossarybot/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

var (
	// ErrStoreNotFound is returned by Open when the store file does not exist.
	ErrStoreNotFound = errors.New("glossary store not found")
	// ErrStoreExists is returned by Create when the target file already exists.
	ErrStoreExists = errors.New("glossary store already exists")
)

// Open connects to an existing glossary store. The file is never
// created: a missing path yields ErrStoreNotFound and an unreadable one
// a wrapped driver error.
func Open(dbPath string) (*sqlx.DB, error) {
	filePath := ExtractDBNameFromPath(dbPath)
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to stat glossary store %s: %w", filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("glossary store %s is a directory", filePath)
	}

	db, err := connect(filePath)
	if err != nil {
		return nil, err
	}

	// sqlx.Connect pings, but the ping does not touch the file. Reading the
	// schema does, and fails on files that are not SQLite databases.
	var tables int
	if err := db.Get(&tables, "SELECT count(*) FROM sqlite_master"); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to read glossary store %s: %w", filePath, err)
	}

	slog.Info("Glossary store opened", "path", filePath, "tables", tables)
	return db, nil
}

// Create lays out a new, empty glossary store at dbPath by applying the
// embedded migrations. It refuses to touch an existing file.
func Create(dbPath string) (*sqlx.DB, error) {
	filePath := ExtractDBNameFromPath(dbPath)
	if _, err := os.Stat(filePath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreExists, filePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat glossary store %s: %w", filePath, err)
	}

	db, err := connect(filePath)
	if err != nil {
		return nil, err
	}

	if err := ApplyMigrations(db.DB); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Glossary store created", "path", filePath)
	return db, nil
}

func connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support concurrent writes, so max open conns = 1
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sqlx.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	} else {
		slog.Info("Database connection closed successfully.")
	}
}

func closeQuietly(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		slog.Error("Error closing database after setup failure", "error", err)
	}
}

// ApplyMigrations runs the embedded schema migrations against db.
func ApplyMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	slog.Info("Applying database migrations...")

	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite database driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No database migrations to apply.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database migrations applied successfully.")
	return nil
}

// ExtractDBNameFromPath extracts the database file path from a possibly
// URL-formatted path.
func ExtractDBNameFromPath(path string) string {
	path = strings.TrimPrefix(path, "file:")

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if decoded, err := url.PathUnescape(path); err == nil {
		return decoded
	}

	return path
}
