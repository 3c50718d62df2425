// Package tasks implements the scheduled maintenance tasks of GlossaryBot.
package tasks

import (
	"log/slog"

	"github.com/edgard/glossarybot/internal/config"
	"github.com/edgard/glossarybot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
