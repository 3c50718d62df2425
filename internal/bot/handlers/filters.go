package handlers

import (
	"strings"

	"github.com/edgard/glossarybot/internal/port/chat"
)

// CommandPrefixLength is how many leading characters of a query are
// dropped to obtain the term ("vra cloud" -> "cloud").
const CommandPrefixLength = 4

// IsChatMessage reports whether msg is a plain message with text.
func IsChatMessage(msg chat.Message) bool {
	return msg.Type == chat.MessageType && msg.Text != ""
}

// IsChannelConversation reports whether msg was posted in a shared channel.
func IsChannelConversation(msg chat.Message) bool {
	return chat.IsChannelID(msg.Channel)
}

// MentionsTrigger reports whether the lowercased text contains trigger
// or the lowercased bot name. trigger must already be lowercase.
func MentionsTrigger(text, trigger, botName string) bool {
	lower := strings.ToLower(text)
	if trigger != "" && strings.Contains(lower, trigger) {
		return true
	}
	name := strings.ToLower(botName)
	return name != "" && strings.Contains(lower, name)
}

// QueryTerm drops the first CommandPrefixLength characters of text and
// returns the rest unchanged. Text that is not longer than the prefix
// yields an empty term.
func QueryTerm(text string) string {
	runes := []rune(text)
	if len(runes) <= CommandPrefixLength {
		return ""
	}
	return string(runes[CommandPrefixLength:])
}
