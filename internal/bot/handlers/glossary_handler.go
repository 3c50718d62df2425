package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/glossarybot/internal/port/chat"
)

// LastRunLayout formats the lastrun record: ISO-8601, UTC, milliseconds.
const LastRunLayout = "2006-01-02T15:04:05.000Z07:00"

// GlossaryHandler answers glossary queries seen on a chat transport.
// It implements chat.EventHandler. The roster and identity are set once
// by OnConnected and only read afterwards.
type GlossaryHandler struct {
	deps    HandlerDeps
	log     *slog.Logger
	name    string
	trigger string

	roster    *chat.Roster
	self      chat.User
	selfKnown bool
}

// NewGlossaryHandler creates the handler from its dependencies.
func NewGlossaryHandler(deps HandlerDeps) *GlossaryHandler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &GlossaryHandler{
		deps:    deps,
		log:     deps.Logger.With("component", "glossary_handler", "transport", deps.Transport.Name()),
		name:    deps.Config.Bot.Name,
		trigger: strings.ToLower(deps.Config.Bot.Trigger),
		roster:  &chat.Roster{},
	}
}

// Identity returns the bot's own roster entry and whether it was found.
func (h *GlossaryHandler) Identity() (chat.User, bool) {
	return h.self, h.selfKnown
}

// OnConnected runs the startup sequence: load the roster, resolve the
// bot identity, then record this activation and greet on the first one.
func (h *GlossaryHandler) OnConnected(ctx context.Context) {
	h.log.InfoContext(ctx, "Transport connected, running startup sequence")

	roster, err := h.deps.Transport.Roster(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "Failed to load roster", "error", err)
	} else if roster != nil {
		h.roster = roster
	}
	h.log.InfoContext(ctx, "Roster loaded", "users", len(h.roster.Users), "channels", len(h.roster.Channels))

	h.resolveIdentity(ctx)
	h.recordActivation(ctx)
}

func (h *GlossaryHandler) resolveIdentity(ctx context.Context) {
	user, ok := h.roster.UserByName(h.name)
	if !ok {
		// Without an identity the self filter cannot match anything.
		h.log.WarnContext(ctx, "Bot identity not found in roster, self-authored messages cannot be filtered", "bot_name", h.name)
		return
	}
	h.self = user
	h.selfKnown = true
	if !user.IsBot {
		h.log.WarnContext(ctx, "Resolved bot identity is not a bot account, check bot.name", "bot_id", user.ID, "bot_name", user.Name)
		return
	}
	h.log.InfoContext(ctx, "Resolved bot identity", "bot_id", user.ID, "bot_name", user.Name)
}

// recordActivation sends the welcome message when no lastrun record
// exists and creates it; otherwise it refreshes the record.
func (h *GlossaryHandler) recordActivation(ctx context.Context) {
	log := h.log.With("step", "record_activation")
	now := h.deps.Now().UTC().Format(LastRunLayout)

	info, err := h.deps.Store.GetRunInfo(ctx, lastRunKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to query last run", "error", err)
		return
	}

	if info != nil {
		if err := h.deps.Store.UpdateRunInfo(ctx, lastRunKey, now); err != nil {
			log.ErrorContext(ctx, "Failed to update last run", "error", err)
			return
		}
		log.InfoContext(ctx, "Updated last run", "previous", info.Value.String, "lastrun", now)
		return
	}

	log.InfoContext(ctx, "First activation, sending welcome message")
	h.sendWelcome(ctx, log)

	if err := h.deps.Store.InsertRunInfo(ctx, lastRunKey, now); err != nil {
		log.ErrorContext(ctx, "Failed to record last run", "error", err)
		return
	}
	log.InfoContext(ctx, "Recorded last run", "lastrun", now)
}

func (h *GlossaryHandler) sendWelcome(ctx context.Context, log *slog.Logger) {
	channel, ok := h.roster.FirstChannel()
	if !ok {
		log.WarnContext(ctx, "No channel available for the welcome message")
		return
	}

	err := h.deps.Transport.PostMessage(ctx, channel, h.deps.Config.Bot.Messages.Welcome, chat.PostOptions{AsBot: true})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "channel_id", channel.ID, "error", err)
		return
	}
	log.InfoContext(ctx, "Sent welcome message", "channel_id", channel.ID, "channel_name", channel.Name)
}
