package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"clarityos-backend/application/ports"
	"clarityos-backend/domain/cards"
	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"
	"clarityos-backend/pkg/auth"
	apperrors "clarityos-backend/pkg/errors"
	"clarityos-backend/pkg/observability"

	"go.uber.org/zap"
)

// modelRetries is how many times a failed model call is re-attempted
// with the same input before the fallback question is used.
const modelRetries = 2

// Engine drives the guided-discovery protocol: it owns the turn loop,
// the completion decision, and the commit ordering. It holds no
// long-lived conversation state; every turn loads a snapshot, applies
// one transition and hands it back to the store.
type Engine struct {
	stores   ports.StoreProvider
	model    ports.ModelClient
	business ports.BusinessContextProvider
	detector conversation.AffirmationDetector
	logger   *zap.Logger
	metrics  *observability.Metrics

	// One turn in flight at a time per (scope, card). The state machine
	// is not designed for concurrent mutation of the same record.
	locks keyedMutex
}

// NewEngine creates the discovery engine.
func NewEngine(
	stores ports.StoreProvider,
	model ports.ModelClient,
	business ports.BusinessContextProvider,
	detector conversation.AffirmationDetector,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		stores:   stores,
		model:    model,
		business: business,
		detector: detector,
		logger:   logger,
		metrics:  metrics,
	}
}

// TurnResult is what the UI renders after a turn: the next question or
// the completion payload.
type TurnResult struct {
	CardSlug       string                       `json:"card_slug"`
	Phase          conversation.Phase           `json:"phase"`
	Question       string                       `json:"question,omitempty"`
	DraftStatement string                       `json:"draft_statement,omitempty"`
	Scores         conversation.DimensionScores `json:"scores"`
	Total          int                          `json:"total"`
	IsComplete     bool                         `json:"is_complete"`
	UsedFallback   bool                         `json:"used_fallback,omitempty"`
	Statement      *conversation.ScoredStatement `json:"statement,omitempty"`
}

// SubmitUtterance is the only entry point that advances the state
// machine. It validates the input, runs at most one model turn, and
// commits the new snapshot only after both model validation and
// persistence succeed.
func (e *Engine) SubmitUtterance(ctx context.Context, scope auth.Scope, cardSlug, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("utterance cannot be empty")
	}
	text = strings.TrimSpace(truncateRunes(text, MaxMessageChars))

	slug := cards.Normalize(cardSlug)

	unlock := e.locks.lock(scope.Key() + "/" + slug)
	defer unlock()

	store := e.stores.For(scope)

	state, err := store.GetConversation(ctx, slug)
	if err != nil {
		return nil, apperrors.Wrap(err, "load conversation")
	}
	if state == nil {
		state, err = conversation.New(slug)
		if err != nil {
			return nil, err
		}
	}

	// Terminal conversations take no further scoring turns; surface the
	// completion payload instead of erroring.
	if state.Completed() {
		statement, err := store.GetCurrentStatement(ctx)
		if err != nil {
			return nil, err
		}
		return &TurnResult{
			CardSlug:       slug,
			Phase:          state.Phase(),
			DraftStatement: state.Draft(),
			Scores:         state.Scores(),
			Total:          state.Scores().Total(),
			IsComplete:     true,
			Statement:      statement,
		}, nil
	}

	// Draft on the table: the user is reacting to it. Explicit
	// affirmation finalizes; anything else loops back into refinement.
	if state.HasDraft() {
		if e.detector.IsAffirmation(text) {
			return e.finalize(ctx, scope, store, state, text)
		}
		if state.Phase() == conversation.PhaseSynthesis {
			if err := state.EnterValidation(); err != nil {
				return nil, err
			}
		}
	}

	history := state.Messages()
	if err := state.RecordUserUtterance(text); err != nil {
		return nil, err
	}

	biz := e.business.GetBusinessContext(ctx, scope)
	req := BuildTurnRequest(slug, biz, history, text, scope.UserID)

	resp, err := e.callModel(ctx, req)
	if err != nil {
		if !apperrors.IsRetryable(err) {
			return nil, err
		}
		return e.fallbackTurn(ctx, store, state, slug, err)
	}

	question := resp.Question
	if resp.IsComplete {
		question = validationPrompt(resp.DraftStatement)
		err = state.ApplySynthesisTurn(resp.Scores, resp.DraftStatement, question)
	} else {
		err = state.ApplyFollowUpTurn(resp.Scores, resp.Question)
	}
	if err != nil {
		return nil, err
	}

	if err := e.saveConversation(ctx, store, state); err != nil {
		return nil, err
	}

	e.metrics.TurnsTotal.WithLabelValues(slug, "advanced").Inc()
	e.logger.Info("discovery turn applied",
		zap.String("card", slug),
		zap.String("scope", scope.Key()),
		zap.String("phase", string(state.Phase())),
		zap.Int("total_score", state.Scores().Total()),
	)

	return &TurnResult{
		CardSlug:       slug,
		Phase:          state.Phase(),
		Question:       question,
		DraftStatement: state.Draft(),
		Scores:         state.Scores(),
		Total:          state.Scores().Total(),
		IsComplete:     false,
	}, nil
}

// finalize commits a completed conversation: the scored statement is
// persisted first (the store demotes the prior current version), then
// the terminal conversation snapshot and section progress.
func (e *Engine) finalize(ctx context.Context, scope auth.Scope, store ports.ProgressStore, state *conversation.State, text string) (*TurnResult, error) {
	if err := state.RecordUserUtterance(text); err != nil {
		return nil, err
	}

	statement, err := state.Complete()
	if err != nil {
		return nil, err
	}

	if err := withRetry(func() error { return store.SaveStatement(ctx, statement) }); err != nil {
		return nil, apperrors.NewStoreError("save statement", err)
	}
	if err := e.saveConversation(ctx, store, state); err != nil {
		return nil, err
	}
	if err := withRetry(func() error {
		return store.SaveCardProgress(ctx, progress.CardProgress{
			CardSlug:  state.CardSlug(),
			Section:   cards.SectionGuidedDiscovery,
			Status:    progress.StatusCompleted,
			UpdatedAt: time.Now(),
		})
	}); err != nil {
		// The statement and conversation are committed; progress is
		// derivable and will be rewritten on the next completion.
		e.logger.Warn("failed to record card progress",
			zap.String("card", state.CardSlug()), zap.Error(err))
	}

	e.metrics.TurnsTotal.WithLabelValues(state.CardSlug(), "completed").Inc()
	e.logger.Info("discovery conversation completed",
		zap.String("card", state.CardSlug()),
		zap.String("scope", scope.Key()),
		zap.Int("total_score", statement.Total),
	)

	return &TurnResult{
		CardSlug:       state.CardSlug(),
		Phase:          state.Phase(),
		DraftStatement: state.Draft(),
		Scores:         state.Scores(),
		Total:          state.Scores().Total(),
		IsComplete:     true,
		Statement:      statement,
	}, nil
}

// fallbackTurn answers with the hand-authored question after model
// retries are exhausted. Scores and phase are untouched; the turn is
// not advanced.
func (e *Engine) fallbackTurn(ctx context.Context, store ports.ProgressStore, state *conversation.State, slug string, cause error) (*TurnResult, error) {
	question := FallbackQuestion(slug)
	state.RecordFallback(question)

	if err := e.saveConversation(ctx, store, state); err != nil {
		return nil, err
	}

	e.metrics.TurnsTotal.WithLabelValues(slug, "fallback").Inc()
	e.metrics.FallbacksTotal.WithLabelValues(slug).Inc()
	e.logger.Warn("model turn failed, using fallback question",
		zap.String("card", slug), zap.Error(cause))

	return &TurnResult{
		CardSlug:       slug,
		Phase:          state.Phase(),
		Question:       question,
		DraftStatement: state.Draft(),
		Scores:         state.Scores(),
		Total:          state.Scores().Total(),
		IsComplete:     false,
		UsedFallback:   true,
	}, nil
}

// callModel runs the model call with the fixed retry bound, validating
// every response against the structured contract.
func (e *Engine) callModel(ctx context.Context, req ports.ModelRequest) (*StructuredResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= modelRetries; attempt++ {
		if attempt > 0 {
			e.metrics.ModelRetries.Inc()
		}
		if err := ctx.Err(); err != nil {
			// Cancellation discards the in-flight turn; the last
			// persisted snapshot stays authoritative. Not a model
			// failure, so no fallback question is recorded.
			return nil, err
		}

		start := time.Now()
		raw, err := e.model.CreateTurn(ctx, req)
		e.metrics.ModelCallSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			if !apperrors.IsRetryable(err) {
				return nil, err
			}
			continue
		}

		resp, err := ParseStructuredResponse(raw)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}

	return nil, apperrors.Wrapf(lastErr, "model call failed after %d retries", modelRetries)
}

// saveConversation persists the snapshot with a single retry. Repeated
// failure surfaces a recoverable store error; previously persisted
// state is never corrupted.
func (e *Engine) saveConversation(ctx context.Context, store ports.ProgressStore, state *conversation.State) error {
	if err := withRetry(func() error { return store.SaveConversation(ctx, state) }); err != nil {
		return apperrors.NewStoreError("save conversation", err)
	}
	return nil
}

// GetConversation returns the resumable snapshot for a card, or nil
// when none exists.
func (e *Engine) GetConversation(ctx context.Context, scope auth.Scope, cardSlug string) (*conversation.Record, error) {
	state, err := e.stores.For(scope).GetConversation(ctx, cards.Normalize(cardSlug))
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	rec := state.Record()
	return &rec, nil
}

// StartOver deletes all records for a card. Idempotent: resetting a
// card with no records is a no-op.
func (e *Engine) StartOver(ctx context.Context, scope auth.Scope, cardSlug string) error {
	slug := cards.Normalize(cardSlug)

	unlock := e.locks.lock(scope.Key() + "/" + slug)
	defer unlock()

	if err := e.stores.For(scope).ResetCard(ctx, slug); err != nil {
		return apperrors.NewStoreError("reset card", err)
	}

	e.logger.Info("card reset", zap.String("card", slug), zap.String("scope", scope.Key()))
	return nil
}

// GetCurrentStatement returns the scope's current scored statement, or
// nil when none exists.
func (e *Engine) GetCurrentStatement(ctx context.Context, scope auth.Scope) (*conversation.ScoredStatement, error) {
	return e.stores.For(scope).GetCurrentStatement(ctx)
}

// validationPrompt is surfaced instead of the model's raw question
// once a draft exists.
func validationPrompt(draft string) string {
	return fmt.Sprintf("Here's the brand statement taking shape:\n\n%q\n\nDoes this feel right to you?", draft)
}

// withRetry runs fn, retrying exactly once on failure.
func withRetry(fn func() error) error {
	if err := fn(); err != nil {
		return fn()
	}
	return nil
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
