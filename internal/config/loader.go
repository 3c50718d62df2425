package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "GLOSSARYBOT"

// Load loads and validates configuration from:
//  1. Default values
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. GLOSSARYBOT_* environment variables
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

// Read loads configuration the same way as Load without validating it.
// Offline commands use it since they never contact the chat platform.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers defaults for optional parameters. Every key is
// registered so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("transport.kind", DefaultTransportKind)
	v.SetDefault("transport.token", "")
	v.SetDefault("transport.telegram_chats", []int64{})

	v.SetDefault("bot.name", DefaultBotName)
	v.SetDefault("bot.trigger", DefaultBotTrigger)
	v.SetDefault("bot.include_prerequisites", false)
	v.SetDefault("bot.messages.welcome", DefaultBotMessages.Welcome)
	v.SetDefault("bot.messages.not_found", DefaultBotMessages.NotFound)

	v.SetDefault("database.path", DefaultDBPath)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
