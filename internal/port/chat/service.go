// Package chat defines the transport port: the small surface the glossary
// handler needs from a chat platform.
package chat

import (
	"context"
	"strings"
)

// MessageType is the type tag of plain chat messages.
const MessageType = "message"

// ChannelPrefix marks shared channel ids. Ids with any other first
// character (direct messages, group DMs) are not channel conversations.
const ChannelPrefix = "C"

// Transport connects to a chat platform and delivers its events.
type Transport interface {
	// Name identifies the platform in logs.
	Name() string

	// Run connects and authenticates, then delivers events to h one at a
	// time until ctx is cancelled or the connection fails for good.
	// OnConnected is called before any OnMessage.
	Run(ctx context.Context, h EventHandler) error

	// Roster returns the users and channels known to the platform. It is
	// only meaningful after OnConnected.
	Roster(ctx context.Context) (*Roster, error)

	// PostMessage sends plain text to channel.
	PostMessage(ctx context.Context, channel Channel, text string, opts PostOptions) error
}

// EventHandler receives transport events. Calls are never concurrent.
type EventHandler interface {
	OnConnected(ctx context.Context)
	OnMessage(ctx context.Context, msg Message)
}

// PostOptions tune PostMessage.
type PostOptions struct {
	// AsBot posts under the bot's own identity.
	AsBot bool
}

// Message is an inbound message event. It is not persisted.
type Message struct {
	Type    string
	Text    string
	User    string
	Channel string
}

// User is a roster entry for an account.
type User struct {
	ID    string
	Name  string
	IsBot bool
}

// Channel is a roster entry for a conversation.
type Channel struct {
	ID   string
	Name string
}

// Roster lists users and channels in the order the platform returned them.
type Roster struct {
	Users    []User
	Channels []Channel
}

// UserByName returns the first user whose name equals name.
func (r *Roster) UserByName(name string) (User, bool) {
	if r == nil {
		return User{}, false
	}
	for _, u := range r.Users {
		if u.Name == name {
			return u, true
		}
	}
	return User{}, false
}

// ChannelByID returns the channel with the given id.
func (r *Roster) ChannelByID(id string) (Channel, bool) {
	if r == nil {
		return Channel{}, false
	}
	for _, c := range r.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// FirstChannel returns the first channel of the roster.
func (r *Roster) FirstChannel() (Channel, bool) {
	if r == nil || len(r.Channels) == 0 {
		return Channel{}, false
	}
	return r.Channels[0], true
}

// IsChannelID reports whether id names a shared channel.
func IsChannelID(id string) bool {
	return strings.HasPrefix(id, ChannelPrefix)
}
