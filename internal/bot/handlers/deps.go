// Package handlers contains the glossary bot's event handlers: the
// startup sequence run when the transport connects, and the message
// pipeline that answers glossary queries.
package handlers

import (
	"log/slog"
	"time"

	"github.com/edgard/glossarybot/internal/config"
	"github.com/edgard/glossarybot/internal/database"
	"github.com/edgard/glossarybot/internal/port/chat"
)

// HandlerDeps provides dependencies for the glossary handler.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Transport chat.Transport

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}
