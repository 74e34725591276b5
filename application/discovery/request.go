package discovery

import (
	"strings"
	"unicode/utf8"

	"clarityos-backend/application/ports"
	"clarityos-backend/domain/conversation"
)

// Bounds applied to every outbound model request. Overflow is trimmed
// and truncated rather than rejected: a long-winded user should never
// have a whole turn bounced.
const (
	MaxHistoryMessages = 50
	MaxMessageChars    = 2000
)

// TaskGuidedDiscovery is the task identifier sent with every turn.
const TaskGuidedDiscovery = "guided_discovery"

// BuildTurnRequest assembles the outbound model request: the card's
// system prompt, the bounded prior history, and the new utterance
// appended as a user message.
func BuildTurnRequest(cardSlug string, biz ports.BusinessContext, history []conversation.Message, utterance string, userID string) ports.ModelRequest {
	messages := make([]conversation.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, boundMessage(m))
	}
	messages = append(messages, boundMessage(conversation.Message{
		Role:    conversation.RoleUser,
		Content: utterance,
	}))

	if len(messages) > MaxHistoryMessages {
		messages = messages[len(messages)-MaxHistoryMessages:]
	}

	return ports.ModelRequest{
		System:   SelectPrompt(cardSlug, biz),
		Messages: messages,
		Task:     TaskGuidedDiscovery,
		UserID:   userID,
	}
}

// boundMessage trims whitespace, truncates oversized content, and
// coerces any role that is not exactly user or assistant to user.
func boundMessage(m conversation.Message) conversation.Message {
	content := strings.TrimSpace(truncateRunes(m.Content, MaxMessageChars))

	role := m.Role
	if role != conversation.RoleUser && role != conversation.RoleAssistant {
		role = conversation.RoleUser
	}

	return conversation.Message{Role: role, Content: content}
}

// truncateRunes caps s at limit characters. The limit counts runes,
// not bytes, so multibyte text is never cut mid-sequence.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
