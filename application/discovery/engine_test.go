package discovery

import (
	"context"
	"fmt"
	"testing"

	"clarityos-backend/application/ports"
	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"
	"clarityos-backend/pkg/auth"
	apperrors "clarityos-backend/pkg/errors"
	"clarityos-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory ProgressStore.
type fakeStore struct {
	conversations map[string]conversation.Record
	statement     *conversation.ScoredStatement
	progress      []progress.CardProgress
	attempts      []progress.QuestionAttempt

	saveConversationErr error
	saveStatementErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: map[string]conversation.Record{}}
}

func (f *fakeStore) GetConversation(ctx context.Context, cardSlug string) (*conversation.State, error) {
	rec, ok := f.conversations[cardSlug]
	if !ok {
		return nil, nil
	}
	return conversation.Reconstruct(rec)
}

func (f *fakeStore) SaveConversation(ctx context.Context, state *conversation.State) error {
	if f.saveConversationErr != nil {
		return f.saveConversationErr
	}
	f.conversations[state.CardSlug()] = state.Record()
	return nil
}

func (f *fakeStore) GetCurrentStatement(ctx context.Context) (*conversation.ScoredStatement, error) {
	return f.statement, nil
}

func (f *fakeStore) SaveStatement(ctx context.Context, statement *conversation.ScoredStatement) error {
	if f.saveStatementErr != nil {
		return f.saveStatementErr
	}
	version := 1
	if f.statement != nil {
		version = f.statement.Version + 1
	}
	statement.Version = version
	statement.IsCurrent = true
	f.statement = statement
	return nil
}

func (f *fakeStore) SaveCardProgress(ctx context.Context, p progress.CardProgress) error {
	f.progress = append(f.progress, p)
	return nil
}

func (f *fakeStore) SaveQuestionAttempt(ctx context.Context, a progress.QuestionAttempt) error {
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeStore) ResetCard(ctx context.Context, cardSlug string) error {
	delete(f.conversations, cardSlug)
	return nil
}

// fakeProvider always returns the same store.
type fakeProvider struct{ store ports.ProgressStore }

func (f fakeProvider) For(scope auth.Scope) ports.ProgressStore { return f.store }

// fakeModel replays scripted responses in order.
type fakeModel struct {
	responses []modelReply
	calls     int
}

type modelReply struct {
	body []byte
	err  error
}

func (f *fakeModel) CreateTurn(ctx context.Context, req ports.ModelRequest) ([]byte, error) {
	if f.calls >= len(f.responses) {
		return nil, apperrors.NewModelUnavailableError("script exhausted", nil)
	}
	reply := f.responses[f.calls]
	f.calls++
	return reply.body, reply.err
}

type noBusiness struct{}

func (noBusiness) GetBusinessContext(ctx context.Context, scope auth.Scope) ports.BusinessContext {
	return ports.BusinessContext{Source: "none"}
}

func newTestEngine(store ports.ProgressStore, model ports.ModelClient) *Engine {
	return NewEngine(
		fakeProvider{store: store},
		model,
		noBusiness{},
		conversation.NewKeywordDetector(),
		zap.NewNop(),
		observability.NewNopMetrics(),
	)
}

func followUpBody(question string, audience, benefit, belief, impact int) []byte {
	return []byte(fmt.Sprintf(
		`{"question":%q,"isComplete":false,"scores":{"audience":%d,"benefit":%d,"belief":%d,"impact":%d}}`,
		question, audience, benefit, belief, impact))
}

func completionBody(draft string) []byte {
	return []byte(fmt.Sprintf(
		`{"question":"","isComplete":true,"scores":{"audience":2,"benefit":2,"belief":2,"impact":2},"draftStatement":%q}`,
		draft))
}

var testScope = auth.Scope{SessionID: "session-abc"}

func TestSubmitUtterance_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: followUpBody("Who do you serve?", 1, 0, 0, 0)},
		{body: followUpBody("What do they gain?", 1, 1, 1, 0)},
		{body: completionBody("We exist to fix payroll because we believe founders should build.")},
	}}
	engine := newTestEngine(store, model)

	// Opening turn.
	result, err := engine.SubmitUtterance(ctx, testScope, "purpose", "I run a payroll startup")
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseFollowUp, result.Phase)
	assert.Equal(t, "Who do you serve?", result.Question)
	assert.Equal(t, 1, result.Total)
	assert.False(t, result.IsComplete)

	// Follow-up turn.
	result, err = engine.SubmitUtterance(ctx, testScope, "purpose", "small agencies drowning in admin")
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseFollowUp, result.Phase)
	assert.Equal(t, 3, result.Total)

	// Model declares completion; the draft comes back with a validation
	// prompt, not the model's raw question.
	result, err = engine.SubmitUtterance(ctx, testScope, "purpose", "because founders should build, not file")
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseSynthesis, result.Phase)
	assert.Contains(t, result.DraftStatement, "We exist to fix payroll")
	assert.Contains(t, result.Question, result.DraftStatement)
	assert.Equal(t, 8, result.Total)
	assert.False(t, result.IsComplete)

	// User affirms: the conversation finalizes without another model call.
	callsBefore := model.calls
	result, err = engine.SubmitUtterance(ctx, testScope, "purpose", "yes, love it")
	require.NoError(t, err)
	assert.Equal(t, model.calls, callsBefore)
	assert.True(t, result.IsComplete)
	assert.Equal(t, conversation.PhaseComplete, result.Phase)
	require.NotNil(t, result.Statement)
	assert.Equal(t, 1, result.Statement.Version)
	assert.True(t, result.Statement.IsCurrent)

	// Statement, conversation and section progress were all committed.
	require.NotNil(t, store.statement)
	assert.True(t, store.conversations["purpose"].IsCompleted)
	require.Len(t, store.progress, 1)
	assert.Equal(t, progress.StatusCompleted, store.progress[0].Status)
}

func TestSubmitUtterance_NonAffirmationEntersValidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: completionBody("draft one")},
		{body: completionBody("draft two, shorter")},
	}}
	engine := newTestEngine(store, model)

	_, err := engine.SubmitUtterance(ctx, testScope, "purpose", "here is everything about my business")
	require.NoError(t, err)

	// Asking for edits loops back through the model with a revised draft.
	result, err := engine.SubmitUtterance(ctx, testScope, "purpose", "can you make it shorter?")
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseValidation, result.Phase)
	assert.Equal(t, "draft two, shorter", result.DraftStatement)
	assert.False(t, result.IsComplete)
}

func TestSubmitUtterance_FallbackAfterRetriesExhausted(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: []byte("not json at all")},
		{body: []byte(`{"scores":{"audience":5}}`)},
		{err: apperrors.NewModelUnavailableError("provider down", nil)},
	}}
	engine := newTestEngine(store, model)

	result, err := engine.SubmitUtterance(ctx, testScope, "positioning", "we sell artisan soap")

	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, FallbackQuestion("positioning"), result.Question)
	assert.Equal(t, 3, model.calls)

	// The failed turn does not advance anything.
	assert.Equal(t, conversation.PhaseOpening, result.Phase)
	assert.Equal(t, 0, result.Total)

	// The exchange is still persisted so history is not lost.
	rec := store.conversations["positioning"]
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, FallbackQuestion("positioning"), rec.Messages[1].Content)
}

func TestSubmitUtterance_CancellationDiscardsTurn(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: followUpBody("who buys it?", 1, 0, 0, 0)},
	}}
	engine := newTestEngine(store, model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.SubmitUtterance(ctx, testScope, "purpose", "we sell coffee")

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, model.calls)

	// Not a fallback: nothing is written, the last persisted snapshot
	// stays authoritative.
	assert.Empty(t, store.conversations)
}

func TestSubmitUtterance_RetryRecoversFromOneBadResponse(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: []byte("garbage")},
		{body: followUpBody("And who is that for?", 0, 1, 0, 0)},
	}}
	engine := newTestEngine(store, model)

	result, err := engine.SubmitUtterance(ctx, testScope, "purpose", "we make candles")

	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, "And who is that for?", result.Question)
	assert.Equal(t, 2, model.calls)
}

func TestSubmitUtterance_CompletedConversationReturnsCompletion(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: completionBody("final draft")},
	}}
	engine := newTestEngine(store, model)

	_, err := engine.SubmitUtterance(ctx, testScope, "purpose", "all the answers")
	require.NoError(t, err)
	_, err = engine.SubmitUtterance(ctx, testScope, "purpose", "yes")
	require.NoError(t, err)

	// Further utterances take no model turn and echo the completion.
	callsBefore := model.calls
	result, err := engine.SubmitUtterance(ctx, testScope, "purpose", "what now?")
	require.NoError(t, err)
	assert.Equal(t, callsBefore, model.calls)
	assert.True(t, result.IsComplete)
	require.NotNil(t, result.Statement)
	assert.Equal(t, "final draft", result.Statement.Text)
}

func TestSubmitUtterance_EmptyUtteranceRejected(t *testing.T) {
	engine := newTestEngine(newFakeStore(), &fakeModel{})

	_, err := engine.SubmitUtterance(context.Background(), testScope, "purpose", "   ")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSubmitUtterance_UnknownSlugFallsBackToDefaultCard(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: followUpBody("q", 0, 0, 0, 0)},
	}}
	engine := newTestEngine(store, model)

	result, err := engine.SubmitUtterance(ctx, testScope, "no-such-card", "hello")

	require.NoError(t, err)
	assert.Equal(t, "purpose", result.CardSlug)
	_, ok := store.conversations["purpose"]
	assert.True(t, ok)
}

func TestSubmitUtterance_PersistFailureSurfacesStoreError(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.saveConversationErr = fmt.Errorf("disk full")
	model := &fakeModel{responses: []modelReply{
		{body: followUpBody("q", 1, 0, 0, 0)},
	}}
	engine := newTestEngine(store, model)

	_, err := engine.SubmitUtterance(ctx, testScope, "purpose", "hello")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStore))
}

func TestStartOver_DeletesConversation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	model := &fakeModel{responses: []modelReply{
		{body: followUpBody("q", 1, 1, 1, 1)},
	}}
	engine := newTestEngine(store, model)

	_, err := engine.SubmitUtterance(ctx, testScope, "purpose", "hello")
	require.NoError(t, err)

	require.NoError(t, engine.StartOver(ctx, testScope, "purpose"))

	rec, err := engine.GetConversation(ctx, testScope, "purpose")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Resetting again is a no-op, not an error.
	assert.NoError(t, engine.StartOver(ctx, testScope, "purpose"))
}
