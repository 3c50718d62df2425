// Package config provides configuration loading, validation, and defaults
// for GlossaryBot. Values come from an optional YAML file and from
// GLOSSARYBOT_* environment variables.
package config

import "errors"

// ErrConfiguration is wrapped by every error returned from Load.
var ErrConfiguration = errors.New("configuration error")

// Transport kinds understood by the bot.
const (
	TransportSlack    = "slack"
	TransportTelegram = "telegram"
)

// Config defines the application configuration parameters for all
// components of the bot.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Transport TransportConfig `mapstructure:"transport"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TransportConfig selects and authenticates the chat platform.
type TransportConfig struct {
	Kind  string `mapstructure:"kind"  validate:"oneof=slack telegram"`
	Token string `mapstructure:"token" validate:"required"`

	// TelegramChats lists the chats that make up the Telegram channel
	// roster, in order. The first one receives the welcome message.
	TelegramChats []int64 `mapstructure:"telegram_chats"`
}

// BotConfig holds the glossary bot's behaviour settings.
type BotConfig struct {
	Name                 string      `mapstructure:"name"                  validate:"required"`
	Trigger              string      `mapstructure:"trigger"               validate:"required"`
	IncludePrerequisites bool        `mapstructure:"include_prerequisites"`
	Messages             BotMessages `mapstructure:"messages"`
}

// BotMessages are the fixed texts the bot sends. NotFound is literal text
// in which the first %s, if any, is replaced by the queried term.
type BotMessages struct {
	Welcome  string `mapstructure:"welcome"   validate:"required"`
	NotFound string `mapstructure:"not_found" validate:"required"`
}

// DatabaseConfig points at the glossary store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
