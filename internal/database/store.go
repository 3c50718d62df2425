package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ErrTermNotFound is returned by LookupTerm when no entry matches.
var ErrTermNotFound = errors.New("glossary term not found")

// Store defines the interface for glossary store operations.
// Methods accept context.Context for cancellation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// LookupTerm returns the entry whose term equals term exactly.
	// Returns ErrTermNotFound if there is none.
	LookupTerm(ctx context.Context, term string) (*GlossaryEntry, error)

	// GetRunInfo returns the INFO record called name. Returns nil, nil if
	// not found.
	GetRunInfo(ctx context.Context, name string) (*RunInfo, error)

	// InsertRunInfo creates the INFO record called name.
	InsertRunInfo(ctx context.Context, name, value string) error

	// UpdateRunInfo sets the value of the existing INFO record called name.
	UpdateRunInfo(ctx context.Context, name, value string) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LookupTerm fetches description and prerequisites for term.
func (s *sqlxStore) LookupTerm(ctx context.Context, term string) (*GlossaryEntry, error) {
	var entry GlossaryEntry
	query := `SELECT TERM, DESCRIPTION, PREREQS FROM ` + glossaryTable + ` WHERE TERM = ?`

	err := s.db.GetContext(ctx, &entry, query, term)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No glossary entry found", "term", term)
		return nil, ErrTermNotFound
	case err != nil:
		s.logger.ErrorContext(ctx, "Error looking up glossary term", "term", term, "error", err)
		return nil, fmt.Errorf("failed to look up term %q: %w", term, err)
	}

	s.logger.DebugContext(ctx, "Glossary entry found", "term", term)
	return &entry, nil
}

// GetRunInfo retrieves an INFO record by name.
func (s *sqlxStore) GetRunInfo(ctx context.Context, name string) (*RunInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("run info name cannot be empty")
	}

	var info RunInfo
	query := `SELECT NAME, VAL FROM ` + infoTable + ` WHERE NAME = ?`

	err := s.db.GetContext(ctx, &info, query, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No run info record found", "name", name)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting run info", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get run info %q: %w", name, err)
	}

	return &info, nil
}

// InsertRunInfo inserts a new INFO record.
func (s *sqlxStore) InsertRunInfo(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("run info name cannot be empty")
	}

	query := `INSERT INTO ` + infoTable + ` (NAME, VAL) VALUES (:name, :val)`
	_, err := s.db.NamedExecContext(ctx, query, map[string]any{"name": name, "val": value})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting run info", "name", name, "error", err)
		return fmt.Errorf("failed to insert run info %q: %w", name, err)
	}

	s.logger.DebugContext(ctx, "Run info inserted", "name", name, "value", value)
	return nil
}

// UpdateRunInfo updates an existing INFO record. Updating a record that
// does not exist is an error.
func (s *sqlxStore) UpdateRunInfo(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("run info name cannot be empty")
	}

	query := `UPDATE ` + infoTable + ` SET VAL = ? WHERE NAME = ?`
	result, err := s.db.ExecContext(ctx, query, value, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating run info", "name", name, "error", err)
		return fmt.Errorf("failed to update run info %q: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read rows affected after updating run info", "name", name, "error", err)
		return nil
	}
	if affected == 0 {
		return fmt.Errorf("failed to update run info %q: no such record", name)
	}

	s.logger.DebugContext(ctx, "Run info updated", "name", name, "value", value)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
