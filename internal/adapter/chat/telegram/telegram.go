// Package telegram provides a Telegram implementation of the chat
// transport port on top of go-telegram/bot long polling.
//
// Telegram chat ids are mapped to the canonical conversation format:
// groups, supergroups and channels become "C<chat id>", private chats
// "D<chat id>".
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/glossarybot/internal/logger"
	"github.com/edgard/glossarybot/internal/port/chat"
)

const directPrefix = "D"

// botAPI is the part of *tgbot.Bot the transport calls.
type botAPI interface {
	Start(ctx context.Context)
	GetMe(ctx context.Context) (*models.User, error)
	GetChat(ctx context.Context, params *tgbot.GetChatParams) (*models.ChatFullInfo, error)
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// Transport implements chat.Transport for Telegram.
type Transport struct {
	api    botAPI
	chats  []int64
	logger *slog.Logger

	mu      sync.Mutex
	handler chat.EventHandler
}

var _ chat.Transport = (*Transport)(nil)

// New creates a Telegram transport. The token is checked against the Bot
// API right away. chats lists the group chats that form the channel
// roster, in order.
func New(token string, chats []int64, log *slog.Logger, opts ...tgbot.Option) (*Transport, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	t := &Transport{
		chats:  chats,
		logger: log.With("component", "telegram_transport"),
	}

	botOpts := append([]tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(t.logger)),
		tgbot.WithDefaultHandler(t.dispatch),
		tgbot.WithNotAsyncHandlers(),
	}, opts...)

	b, err := tgbot.New(token, botOpts...)
	if err != nil {
		t.logger.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	t.api = b

	return t, nil
}

// Name identifies the platform in logs.
func (t *Transport) Name() string { return "telegram" }

// Run reports the connection to h, then long-polls for updates until ctx
// is cancelled. Updates are handled one at a time.
func (t *Transport) Run(ctx context.Context, h chat.EventHandler) error {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "Telegram transport ready")
	h.OnConnected(ctx)

	t.logger.InfoContext(ctx, "Starting Telegram long polling...")
	t.api.Start(ctx)

	if ctx.Err() == nil {
		return fmt.Errorf("telegram polling stopped unexpectedly")
	}
	t.logger.InfoContext(ctx, "Telegram transport stopping", "reason", ctx.Err())
	return ctx.Err()
}

func (t *Transport) dispatch(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()

	if h == nil {
		t.logger.DebugContext(ctx, "Dropping update received before Run", "update_id", update.ID)
		return
	}
	h.OnMessage(ctx, toMessage(update))
}

func toMessage(update *models.Update) chat.Message {
	switch {
	case update.Message != nil:
		return fromTelegram(chat.MessageType, update.Message)
	case update.EditedMessage != nil:
		return fromTelegram("message_changed", update.EditedMessage)
	default:
		return chat.Message{Type: "other"}
	}
}

func fromTelegram(typ string, m *models.Message) chat.Message {
	msg := chat.Message{
		Type:    typ,
		Text:    m.Text,
		Channel: EncodeChatID(m.Chat.ID, m.Chat.Type),
	}
	if m.From != nil {
		msg.User = strconv.FormatInt(m.From.ID, 10)
	}
	return msg
}

// Roster returns the bot's own account as the only user, and the
// configured chats as channels.
func (t *Transport) Roster(ctx context.Context) (*chat.Roster, error) {
	me, err := t.api.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get telegram bot info: %w", err)
	}

	roster := &chat.Roster{
		Users: []chat.User{{ID: strconv.FormatInt(me.ID, 10), Name: me.Username, IsBot: me.IsBot}},
	}

	for _, id := range t.chats {
		info, err := t.api.GetChat(ctx, &tgbot.GetChatParams{ChatID: id})
		if err != nil {
			// Keep the configured order even when a title cannot be resolved.
			t.logger.WarnContext(ctx, "Failed to resolve telegram chat", "chat_id", id, "error", err)
			roster.Channels = append(roster.Channels, chat.Channel{ID: EncodeChatID(id, models.ChatTypeGroup)})
			continue
		}
		name := info.Title
		if name == "" {
			name = info.Username
		}
		roster.Channels = append(roster.Channels, chat.Channel{ID: EncodeChatID(info.ID, info.Type), Name: name})
	}

	return roster, nil
}

// PostMessage sends text to the chat encoded in channel.ID. Telegram bots
// always post as themselves, so opts.AsBot needs no handling.
func (t *Transport) PostMessage(ctx context.Context, channel chat.Channel, text string, _ chat.PostOptions) error {
	chatID, err := DecodeChatID(channel.ID)
	if err != nil {
		return err
	}

	if _, err := t.api.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// EncodeChatID maps a Telegram chat to a conversation id.
func EncodeChatID(id int64, typ models.ChatType) string {
	prefix := chat.ChannelPrefix
	if typ == models.ChatTypePrivate {
		prefix = directPrefix
	}
	return prefix + strconv.FormatInt(id, 10)
}

// DecodeChatID recovers the Telegram chat id from a conversation id.
func DecodeChatID(id string) (int64, error) {
	if len(id) < 2 {
		return 0, fmt.Errorf("invalid telegram conversation id %q", id)
	}
	if p := id[:1]; p != chat.ChannelPrefix && p != directPrefix {
		return 0, fmt.Errorf("invalid telegram conversation id %q", id)
	}
	chatID, err := strconv.ParseInt(id[1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram conversation id %q: %w", id, err)
	}
	return chatID, nil
}
