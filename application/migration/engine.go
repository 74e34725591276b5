// Package migration drains the anonymous on-device store into the
// account-backed remote store when a session signs up or signs in.
package migration

import (
	"context"
	"fmt"

	"clarityos-backend/application/ports"
	apperrors "clarityos-backend/pkg/errors"
	"clarityos-backend/pkg/observability"

	"go.uber.org/zap"
)

// Record categories, in migration order.
const (
	CategoryProgress      = "progress"
	CategoryConversations = "conversations"
	CategoryStatements    = "statements"
	CategoryAttempts      = "question_attempts"
)

// ItemError records one failed record without aborting the batch.
type ItemError struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Message  string `json:"message"`
}

// Result is the aggregate outcome of one migration run.
type Result struct {
	Success        bool           `json:"success"`
	MigratedCounts map[string]int `json:"migrated_counts"`
	Errors         []ItemError    `json:"errors"`
	LocalCleared   bool           `json:"local_cleared"`
}

// Engine performs the one-shot local-to-remote transfer. Remote writes
// are upserts by natural key, so re-running after a partial failure
// overwrites already-migrated records harmlessly instead of
// duplicating them.
type Engine struct {
	local   ports.LocalStore
	remote  ports.MigrationTarget
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEngine creates a migration engine.
func NewEngine(local ports.LocalStore, remote ports.MigrationTarget, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{local: local, remote: remote, logger: logger, metrics: metrics}
}

// MigrateAll transfers every local record to the remote store for the
// given user. One bad record never blocks the rest; per-item failures
// are collected into the result. Local storage is cleared strictly
// after all writes succeed, and only when the error list is empty, so
// a killed or failed run loses nothing and can simply be re-run.
func (e *Engine) MigrateAll(ctx context.Context, userID string) (*Result, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userID cannot be empty")
	}
	if e.remote == nil {
		return nil, apperrors.NewInternalError("remote tier is not configured")
	}

	result := &Result{
		MigratedCounts: map[string]int{},
		Errors:         []ItemError{},
	}

	e.migrateProgress(ctx, userID, result)
	e.migrateConversations(ctx, userID, result)
	e.migrateStatements(ctx, userID, result)
	e.migrateAttempts(ctx, userID, result)

	result.Success = len(result.Errors) == 0

	if result.Success {
		if err := e.local.ClearAll(ctx); err != nil {
			// Data now exists in both tiers; the next run's upserts will
			// overwrite and clear again.
			result.Success = false
			result.Errors = append(result.Errors, ItemError{
				Category: "cleanup",
				Message:  err.Error(),
			})
		} else {
			result.LocalCleared = true
		}
	} else {
		e.logger.Warn("migration completed with errors; local data left intact for retry",
			zap.String("user_id", userID),
			zap.Int("error_count", len(result.Errors)),
		)
	}

	e.logger.Info("migration finished",
		zap.String("user_id", userID),
		zap.Bool("success", result.Success),
		zap.Bool("local_cleared", result.LocalCleared),
		zap.Any("migrated_counts", result.MigratedCounts),
	)

	return result, nil
}

func (e *Engine) migrateProgress(ctx context.Context, userID string, result *Result) {
	items, err := e.local.ListCardProgress(ctx)
	if err != nil {
		e.recordFailure(result, CategoryProgress, "list", err)
		return
	}
	for _, item := range items {
		key := fmt.Sprintf("%s/%s", item.CardSlug, item.Section)
		if err := e.remote.UpsertCardProgress(ctx, userID, item); err != nil {
			e.recordFailure(result, CategoryProgress, key, err)
			continue
		}
		e.recordSuccess(result, CategoryProgress)
	}
}

func (e *Engine) migrateConversations(ctx context.Context, userID string, result *Result) {
	items, err := e.local.ListConversations(ctx)
	if err != nil {
		e.recordFailure(result, CategoryConversations, "list", err)
		return
	}
	for _, item := range items {
		if err := e.remote.UpsertConversation(ctx, userID, item); err != nil {
			e.recordFailure(result, CategoryConversations, item.CardSlug, err)
			continue
		}
		e.recordSuccess(result, CategoryConversations)
	}
}

func (e *Engine) migrateStatements(ctx context.Context, userID string, result *Result) {
	items, err := e.local.ListStatements(ctx)
	if err != nil {
		e.recordFailure(result, CategoryStatements, "list", err)
		return
	}
	for _, item := range items {
		key := fmt.Sprintf("v%d", item.Version)
		if err := e.remote.UpsertStatement(ctx, userID, item); err != nil {
			e.recordFailure(result, CategoryStatements, key, err)
			continue
		}
		e.recordSuccess(result, CategoryStatements)
	}
}

func (e *Engine) migrateAttempts(ctx context.Context, userID string, result *Result) {
	items, err := e.local.ListQuestionAttempts(ctx)
	if err != nil {
		e.recordFailure(result, CategoryAttempts, "list", err)
		return
	}
	for _, item := range items {
		if err := e.remote.UpsertQuestionAttempt(ctx, userID, item); err != nil {
			e.recordFailure(result, CategoryAttempts, item.ID, err)
			continue
		}
		e.recordSuccess(result, CategoryAttempts)
	}
}

func (e *Engine) recordSuccess(result *Result, category string) {
	result.MigratedCounts[category]++
	e.metrics.MigratedItems.WithLabelValues(category, "ok").Inc()
}

func (e *Engine) recordFailure(result *Result, category, key string, err error) {
	result.Errors = append(result.Errors, ItemError{
		Category: category,
		Key:      key,
		Message:  err.Error(),
	})
	e.metrics.MigratedItems.WithLabelValues(category, "error").Inc()
	e.logger.Warn("migration item failed",
		zap.String("category", category),
		zap.String("key", key),
		zap.Error(err),
	)
}
