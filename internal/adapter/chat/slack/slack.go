// Package slack provides a Slack implementation of the chat transport port
// on top of the slack-go RTM client.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/edgard/glossarybot/internal/port/chat"
)

var (
	// ErrInvalidAuth is returned by Run when Slack rejects the token.
	ErrInvalidAuth = errors.New("slack rejected the bot token")
	// ErrConnectionClosed is returned by Run when the event stream ends.
	ErrConnectionClosed = errors.New("slack event stream closed")
)

const conversationsPageSize = 200

// api is the part of *slack.Client the transport calls.
type api interface {
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// eventSource is a live RTM connection.
type eventSource interface {
	ManageConnection()
	Disconnect() error
	Events() <-chan slack.RTMEvent
}

type rtmSource struct {
	*slack.RTM
}

func (r rtmSource) Events() <-chan slack.RTMEvent {
	return r.IncomingEvents
}

// Transport implements chat.Transport for Slack.
type Transport struct {
	client  api
	connect func() eventSource
	logger  *slog.Logger
}

var _ chat.Transport = (*Transport)(nil)

// New creates a Slack transport authenticating with token.
func New(token string, logger *slog.Logger, opts ...slack.Option) (*Transport, error) {
	if token == "" {
		return nil, fmt.Errorf("slack bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := slack.New(token, opts...)
	return &Transport{
		client:  client,
		connect: func() eventSource { return rtmSource{client.NewRTM()} },
		logger:  logger.With("component", "slack_transport"),
	}, nil
}

// Name identifies the platform in logs.
func (t *Transport) Name() string { return "slack" }

// Run opens the RTM connection and feeds its events to h until ctx is
// cancelled. The RTM client reconnects on its own; h.OnConnected is only
// called for the first connection.
func (t *Transport) Run(ctx context.Context, h chat.EventHandler) error {
	src := t.connect()
	go src.ManageConnection()
	defer func() {
		if err := src.Disconnect(); err != nil {
			t.logger.Debug("Error disconnecting from Slack", "error", err)
		}
	}()

	t.logger.InfoContext(ctx, "Connecting to Slack RTM...")
	connected := false

	for {
		select {
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Slack transport stopping", "reason", ctx.Err())
			return ctx.Err()

		case ev, ok := <-src.Events():
			if !ok {
				return ErrConnectionClosed
			}

			switch data := ev.Data.(type) {
			case *slack.ConnectedEvent:
				if connected {
					t.logger.InfoContext(ctx, "Reconnected to Slack", "connection_count", data.ConnectionCount)
					continue
				}
				connected = true
				if data.Info != nil && data.Info.User != nil {
					t.logger.InfoContext(ctx, "Connected to Slack", "user_id", data.Info.User.ID, "user_name", data.Info.User.Name)
				} else {
					t.logger.InfoContext(ctx, "Connected to Slack")
				}
				h.OnConnected(ctx)

			case *slack.MessageEvent:
				if !connected {
					t.logger.DebugContext(ctx, "Dropping message received before connection was established")
					continue
				}
				h.OnMessage(ctx, toMessage(data))

			case *slack.InvalidAuthEvent:
				t.logger.ErrorContext(ctx, "Slack authentication failed")
				return ErrInvalidAuth

			case *slack.ConnectionErrorEvent:
				t.logger.WarnContext(ctx, "Slack connection error", "attempt", data.Attempt, "backoff", data.Backoff, "error", data.ErrorObj)

			case *slack.RTMError:
				t.logger.ErrorContext(ctx, "Slack RTM error", "error", data.Error())

			default:
				t.logger.DebugContext(ctx, "Ignoring Slack event", "type", ev.Type)
			}
		}
	}
}

func toMessage(ev *slack.MessageEvent) chat.Message {
	return chat.Message{
		Type:    ev.Type,
		Text:    ev.Text,
		User:    ev.User,
		Channel: ev.Channel,
	}
}

// Roster lists workspace users and public, unarchived channels.
func (t *Transport) Roster(ctx context.Context) (*chat.Roster, error) {
	users, err := t.client.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list slack users: %w", err)
	}

	roster := &chat.Roster{Users: make([]chat.User, 0, len(users))}
	for _, u := range users {
		if u.Deleted {
			continue
		}
		roster.Users = append(roster.Users, chat.User{ID: u.ID, Name: u.Name, IsBot: u.IsBot})
	}

	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel"},
		ExcludeArchived: true,
		Limit:           conversationsPageSize,
	}
	for {
		channels, cursor, err := t.client.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list slack channels: %w", err)
		}
		for _, c := range channels {
			roster.Channels = append(roster.Channels, chat.Channel{ID: c.ID, Name: c.Name})
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	t.logger.DebugContext(ctx, "Fetched Slack roster", "users", len(roster.Users), "channels", len(roster.Channels))
	return roster, nil
}

// PostMessage sends text to channel as plain text: &, < and > are
// escaped so user-supplied text cannot produce mentions, broadcasts or
// links. The id is preferred; the name is used when the id is unknown.
func (t *Transport) PostMessage(ctx context.Context, channel chat.Channel, text string, opts chat.PostOptions) error {
	target := channel.ID
	if target == "" {
		target = channel.Name
	}
	if target == "" {
		return fmt.Errorf("cannot post to a channel without id or name")
	}

	msgOpts := []slack.MsgOption{slack.MsgOptionText(text, true)}
	if opts.AsBot {
		msgOpts = append(msgOpts, slack.MsgOptionAsUser(true))
	}

	if _, _, err := t.client.PostMessageContext(ctx, target, msgOpts...); err != nil {
		return fmt.Errorf("failed to post message to %s: %w", target, err)
	}
	return nil
}
