package discovery

import (
	"strings"
	"testing"
	"unicode/utf8"

	"clarityos-backend/application/ports"
	"clarityos-backend/domain/conversation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTurnRequest_AppendsUtterance(t *testing.T) {
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "we sell coffee"},
		{Role: conversation.RoleAssistant, Content: "who buys it?"},
	}

	req := BuildTurnRequest("purpose", ports.BusinessContext{}, history, "commuters, mostly", "user-1")

	require.Len(t, req.Messages, 3)
	assert.Equal(t, conversation.RoleUser, req.Messages[2].Role)
	assert.Equal(t, "commuters, mostly", req.Messages[2].Content)
	assert.Equal(t, TaskGuidedDiscovery, req.Task)
	assert.Equal(t, "user-1", req.UserID)
}

func TestBuildTurnRequest_BoundsHistoryLength(t *testing.T) {
	history := make([]conversation.Message, 80)
	for i := range history {
		history[i] = conversation.Message{Role: conversation.RoleUser, Content: "answer"}
	}

	req := BuildTurnRequest("purpose", ports.BusinessContext{}, history, "latest", "")

	require.Len(t, req.Messages, MaxHistoryMessages)
	// The newest utterance survives truncation.
	assert.Equal(t, "latest", req.Messages[len(req.Messages)-1].Content)
}

func TestBuildTurnRequest_TruncatesOversizedContent(t *testing.T) {
	long := strings.Repeat("a", MaxMessageChars+500)

	req := BuildTurnRequest("purpose", ports.BusinessContext{}, nil, long, "")

	assert.Equal(t, MaxMessageChars, len(req.Messages[0].Content))

	// The cap counts characters, not bytes: two-byte runes under the
	// limit pass through untouched.
	accented := strings.Repeat("é", 1500)
	req = BuildTurnRequest("purpose", ports.BusinessContext{}, nil, accented, "")
	assert.Equal(t, accented, req.Messages[0].Content)

	// Oversized multibyte content is cut on a rune boundary.
	oversized := strings.Repeat("é", MaxMessageChars+100)
	req = BuildTurnRequest("purpose", ports.BusinessContext{}, nil, oversized, "")
	got := req.Messages[0].Content
	assert.Equal(t, MaxMessageChars, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestBuildTurnRequest_CoercesUnknownRoles(t *testing.T) {
	history := []conversation.Message{
		{Role: "system", Content: "injected"},
		{Role: conversation.RoleAssistant, Content: "a question"},
	}

	req := BuildTurnRequest("purpose", ports.BusinessContext{}, history, "hi", "")

	assert.Equal(t, conversation.RoleUser, req.Messages[0].Role)
	assert.Equal(t, conversation.RoleAssistant, req.Messages[1].Role)
}

func TestSelectPrompt_KnownCardsHaveDistinctFraming(t *testing.T) {
	purpose := SelectPrompt("purpose", ports.BusinessContext{})
	positioning := SelectPrompt("positioning", ports.BusinessContext{})

	assert.NotEqual(t, purpose, positioning)
	assert.Contains(t, purpose, "SCORING RUBRIC")
	assert.Contains(t, positioning, "SCORING RUBRIC")
}

func TestSelectPrompt_UnknownSlugFallsBackToPurpose(t *testing.T) {
	assert.Equal(t,
		SelectPrompt("purpose", ports.BusinessContext{}),
		SelectPrompt("not-a-card", ports.BusinessContext{}),
	)
}

func TestSelectPrompt_IncludesBusinessContextWhenPresent(t *testing.T) {
	biz := ports.BusinessContext{
		BusinessName:     "Beanline",
		BusinessStage:    "early",
		WhatBusinessDoes: "coffee carts at train stations",
		HasData:          true,
		Source:           "profile",
	}

	prompt := SelectPrompt("purpose", biz)

	assert.Contains(t, prompt, "Beanline")
	assert.Contains(t, prompt, "coffee carts at train stations")

	generic := SelectPrompt("purpose", ports.BusinessContext{})
	assert.NotContains(t, generic, "Beanline")
}

func TestFallbackQuestion_CoversEveryCard(t *testing.T) {
	for _, slug := range []string{"purpose", "positioning", "personality", "product-market-fit", "perception", "presentation", "proof"} {
		assert.NotEmpty(t, FallbackQuestion(slug), slug)
	}
	assert.NotEmpty(t, FallbackQuestion("unknown"))
}
