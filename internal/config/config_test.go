package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GLOSSARYBOT_TRANSPORT_TOKEN", "xoxb-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, TransportSlack, cfg.Transport.Kind)
	assert.Equal(t, "xoxb-test", cfg.Transport.Token)
	assert.Equal(t, DefaultBotName, cfg.Bot.Name)
	assert.Equal(t, DefaultBotTrigger, cfg.Bot.Trigger)
	assert.False(t, cfg.Bot.IncludePrerequisites)
	assert.Equal(t, DefaultBotMessages, cfg.Bot.Messages)
	assert.Equal(t, DefaultDBPath, cfg.Database.Path)

	task, ok := cfg.Scheduler.Tasks["sql_maintenance"]
	require.True(t, ok)
	assert.False(t, task.Enabled)
	assert.Equal(t, DefaultSQLMaintenanceSchedule, task.Schedule)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: false
transport:
  kind: telegram
  token: from-file
  telegram_chats: [-1001, -1002]
bot:
  name: termbot
  include_prerequisites: true
database:
  path: /tmp/terms.db
scheduler:
  tasks:
    sql_maintenance:
      enabled: true
      schedule: "0 30 4 * * *"
`)
	t.Setenv("GLOSSARYBOT_TRANSPORT_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, TransportTelegram, cfg.Transport.Kind)
	assert.Equal(t, "from-env", cfg.Transport.Token)
	assert.Equal(t, []int64{-1001, -1002}, cfg.Transport.TelegramChats)
	assert.Equal(t, "termbot", cfg.Bot.Name)
	assert.Equal(t, DefaultBotTrigger, cfg.Bot.Trigger)
	assert.True(t, cfg.Bot.IncludePrerequisites)
	assert.Equal(t, "/tmp/terms.db", cfg.Database.Path)
	assert.Equal(t, TaskConfig{Enabled: true, Schedule: "0 30 4 * * *"}, cfg.Scheduler.Tasks["sql_maintenance"])
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing token",
			body: "bot:\n  name: glossarybot\n",
		},
		{
			name: "unknown transport",
			body: "transport:\n  kind: irc\n  token: t\n",
		},
		{
			name: "bad log level",
			body: "log:\n  level: loud\ntransport:\n  token: t\n",
		},
		{
			name: "telegram without chats",
			body: "transport:\n  kind: telegram\n  token: t\n",
		},
		{
			name: "enabled task without schedule",
			body: "transport:\n  token: t\nscheduler:\n  tasks:\n    sql_maintenance:\n      enabled: true\n      schedule: \"\"\n",
		},
		{
			name: "not found message with two placeholders",
			body: "transport:\n  token: t\nbot:\n  messages:\n    not_found: \"%s %s\"\n",
		},
		{
			name: "welcome mentions the trigger",
			body: "transport:\n  token: t\nbot:\n  messages:\n    welcome: \"Type VRA and a term\"\n",
		},
		{
			name: "not found message mentions the bot name",
			body: "transport:\n  token: t\nbot:\n  messages:\n    not_found: \"glossarybot does not know %s\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), "error should wrap ErrConfiguration: %v", err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "transport: [unterminated"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestReadSkipsValidation(t *testing.T) {
	cfg, err := Read(writeConfig(t, "database:\n  path: /srv/glossary.db\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Transport.Token)
	assert.Equal(t, "/srv/glossary.db", cfg.Database.Path)

	_, err = Load(writeConfig(t, "database:\n  path: /srv/glossary.db\n"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDefaultMessagesDoNotMentionTrigger(t *testing.T) {
	t.Setenv("GLOSSARYBOT_TRANSPORT_TOKEN", "xoxb-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, cfg.Bot.Messages.Welcome, DefaultBotTrigger)
}

func TestNotFoundAllowsOtherPercentSigns(t *testing.T) {
	path := writeConfig(t, "transport:\n  token: t\nbot:\n  messages:\n    not_found: \"100%% unknown: %s (%d)\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "100%% unknown: %s (%d)", cfg.Bot.Messages.NotFound)
}
