package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/edgard/glossarybot/internal/database"
	"github.com/edgard/glossarybot/internal/logger"
	"github.com/edgard/glossarybot/internal/port/chat"
)

const (
	lastRunKey = database.LastRunKey

	termPlaceholder = "%s"
	unnamedTerm     = "that term"
)

// OnMessage filters an inbound message and, when it is a glossary query,
// looks the term up and replies in the same channel.
func (h *GlossaryHandler) OnMessage(ctx context.Context, msg chat.Message) {
	log := h.log.With(
		"event_id", uuid.NewString(),
		"channel_id", msg.Channel,
		"user_id", msg.User,
	)

	if reason, ok := h.accept(msg); !ok {
		log.DebugContext(ctx, "Ignoring message", "reason", reason)
		return
	}

	term := QueryTerm(msg.Text)
	if term == "" {
		log.DebugContext(ctx, "Ignoring query without a term", "text", logger.Truncate(msg.Text, 50))
		return
	}

	log.InfoContext(ctx, "Handling glossary query", "term", term)
	h.lookupAndReply(ctx, log.With("term", term), msg.Channel, term)
}

// accept applies the message filters in order and reports the first one
// that rejects msg.
func (h *GlossaryHandler) accept(msg chat.Message) (string, bool) {
	switch {
	case !IsChatMessage(msg):
		return "not a chat message", false
	case !IsChannelConversation(msg):
		return "not a channel conversation", false
	case !h.isNotSelf(msg):
		return "self-authored", false
	case !MentionsTrigger(msg.Text, h.trigger, h.name):
		return "no trigger", false
	}
	return "", true
}

func (h *GlossaryHandler) isNotSelf(msg chat.Message) bool {
	return !h.selfKnown || msg.User != h.self.ID
}

func (h *GlossaryHandler) lookupAndReply(ctx context.Context, log *slog.Logger, channelID, term string) {
	entry, err := h.deps.Store.LookupTerm(ctx, term)
	var reply string
	switch {
	case errors.Is(err, database.ErrTermNotFound):
		log.InfoContext(ctx, "Term not in glossary")
		reply = h.notFoundReply(term)
	case err != nil:
		log.ErrorContext(ctx, "Glossary lookup failed", "error", err)
		return
	default:
		reply = h.formatEntry(entry)
		if reply == "" {
			log.WarnContext(ctx, "Glossary entry has no description, not replying")
			return
		}
	}

	channel, ok := h.roster.ChannelByID(channelID)
	if !ok {
		channel = chat.Channel{ID: channelID}
	}

	if err := h.deps.Transport.PostMessage(ctx, channel, reply, chat.PostOptions{AsBot: true}); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "channel_name", channel.Name, "error", err)
		return
	}
	log.InfoContext(ctx, "Sent reply", "channel_name", channel.Name)
}

func (h *GlossaryHandler) formatEntry(entry *database.GlossaryEntry) string {
	reply := entry.Description.String
	if reply == "" {
		return ""
	}
	if h.deps.Config.Bot.IncludePrerequisites && entry.Prerequisites.String != "" {
		reply += "\nPrerequisites: " + entry.Prerequisites.String
	}
	return reply
}

// notFoundReply fills the not-found template with term. A reply that
// would mention the trigger or the bot name is rendered with a neutral
// placeholder instead, so the bot never queries itself with it.
func (h *GlossaryHandler) notFoundReply(term string) string {
	tmpl := h.deps.Config.Bot.Messages.NotFound
	if !strings.Contains(tmpl, termPlaceholder) {
		return tmpl
	}

	var reply string
	for _, candidate := range []string{term, unnamedTerm, ""} {
		reply = strings.Replace(tmpl, termPlaceholder, candidate, 1)
		if !MentionsTrigger(reply, h.trigger, h.name) {
			break
		}
	}
	return reply
}
