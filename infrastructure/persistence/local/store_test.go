package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clarityos-backend/domain/cards"
	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing, err := store.GetConversation(ctx, "purpose")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state, err := conversation.New("purpose")
	require.NoError(t, err)
	require.NoError(t, state.RecordUserUtterance("we run a bakery"))
	require.NoError(t, state.ApplyFollowUpTurn(conversation.DimensionScores{Audience: 1, Belief: 2}, "why bread?"))

	require.NoError(t, store.SaveConversation(ctx, state))

	loaded, err := store.GetConversation(ctx, "purpose")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, conversation.PhaseFollowUp, loaded.Phase())
	assert.Equal(t, state.Scores(), loaded.Scores())

	messages := loaded.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "we run a bakery", messages[0].Content)
	assert.Equal(t, "why bread?", messages[1].Content)
}

func TestStore_SaveConversationIsUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	state, _ := conversation.New("purpose")
	require.NoError(t, state.RecordUserUtterance("first"))
	require.NoError(t, store.SaveConversation(ctx, state))

	require.NoError(t, state.ApplyFollowUpTurn(conversation.DimensionScores{Impact: 1}, "next?"))
	require.NoError(t, store.SaveConversation(ctx, state))

	records, err := store.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Messages, 2)
	assert.Equal(t, 1, records[0].Scores.Impact)
}

func TestStore_StatementVersioning(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	current, err := store.GetCurrentStatement(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	first, err := conversation.NewScoredStatement("purpose", "version one",
		conversation.DimensionScores{Audience: 2, Benefit: 1, Belief: 2, Impact: 1})
	require.NoError(t, err)
	require.NoError(t, store.SaveStatement(ctx, first))
	assert.Equal(t, 1, first.Version)

	second, err := conversation.NewScoredStatement("purpose", "version two",
		conversation.DimensionScores{Audience: 2, Benefit: 2, Belief: 2, Impact: 2})
	require.NoError(t, err)
	require.NoError(t, store.SaveStatement(ctx, second))
	assert.Equal(t, 2, second.Version)

	// Only the newest statement is current; the old version survives.
	current, err = store.GetCurrentStatement(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "version two", current.Text)
	assert.Equal(t, 2, current.Version)

	all, err := store.ListStatements(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsCurrent)
	assert.True(t, all[1].IsCurrent)
}

func TestStore_CardProgressUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	p := progress.CardProgress{
		CardSlug:  "purpose",
		Section:   cards.SectionGuidedDiscovery,
		Status:    progress.StatusInProgress,
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.SaveCardProgress(ctx, p))

	p.Status = progress.StatusCompleted
	require.NoError(t, store.SaveCardProgress(ctx, p))

	list, err := store.ListCardProgress(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, progress.StatusCompleted, list[0].Status)
}

func TestStore_QuestionAttemptRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := progress.QuestionAttempt{
		ID:             "attempt-1",
		CardSlug:       "positioning",
		QuestionID:     "q3",
		SelectedAnswer: "b",
		IsCorrect:      true,
		Points:         10,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.SaveQuestionAttempt(ctx, a))

	list, err := store.ListQuestionAttempts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "attempt-1", list[0].ID)
	assert.True(t, list[0].IsCorrect)
	assert.Equal(t, 10, list[0].Points)
}

func TestStore_ResetCard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	state, _ := conversation.New("purpose")
	require.NoError(t, state.RecordUserUtterance("hello"))
	require.NoError(t, store.SaveConversation(ctx, state))
	require.NoError(t, store.SaveCardProgress(ctx, progress.CardProgress{
		CardSlug: "purpose", Section: cards.SectionGuidedDiscovery,
		Status: progress.StatusInProgress, UpdatedAt: time.Now(),
	}))

	other, _ := conversation.New("proof")
	require.NoError(t, other.RecordUserUtterance("untouched"))
	require.NoError(t, store.SaveConversation(ctx, other))

	require.NoError(t, store.ResetCard(ctx, "purpose"))

	gone, err := store.GetConversation(ctx, "purpose")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.GetConversation(ctx, "proof")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	list, err := store.ListCardProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Resetting an already-empty card is a no-op.
	assert.NoError(t, store.ResetCard(ctx, "purpose"))
}

func TestStore_ClearAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	state, _ := conversation.New("purpose")
	require.NoError(t, state.RecordUserUtterance("hello"))
	require.NoError(t, store.SaveConversation(ctx, state))

	st, err := conversation.NewScoredStatement("purpose", "text", conversation.DimensionScores{})
	require.NoError(t, err)
	require.NoError(t, store.SaveStatement(ctx, st))

	require.NoError(t, store.ClearAll(ctx))

	conversations, err := store.ListConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, conversations)

	statements, err := store.ListStatements(ctx)
	require.NoError(t, err)
	assert.Empty(t, statements)
}
