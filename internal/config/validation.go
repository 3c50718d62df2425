package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Transport.Kind == TransportTelegram && len(c.Transport.TelegramChats) == 0 {
		return fmt.Errorf("transport.telegram_chats must list at least one chat for the telegram transport")
	}

	if strings.Count(c.Bot.Messages.NotFound, "%s") > 1 {
		return fmt.Errorf("bot.messages.not_found may contain at most one %%s placeholder")
	}

	// The bot reads its own posts back when its identity is not resolved.
	fixed := map[string]string{
		"bot.messages.welcome":   c.Bot.Messages.Welcome,
		"bot.messages.not_found": strings.Replace(c.Bot.Messages.NotFound, "%s", "", 1),
	}
	for key, text := range fixed {
		if mentions(text, c.Bot.Trigger, c.Bot.Name) {
			return fmt.Errorf("%s must not contain the trigger %q or the bot name %q", key, c.Bot.Trigger, c.Bot.Name)
		}
	}

	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			return fmt.Errorf("scheduler task %q is enabled but has no schedule", name)
		}
	}

	return nil
}

func mentions(text, trigger, name string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, strings.ToLower(trigger)) || strings.Contains(lower, strings.ToLower(name))
}
