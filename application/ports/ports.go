// Package ports declares the interfaces the application layer depends
// on. Infrastructure supplies the implementations; the engine never
// knows which tier it is talking to.
package ports

import (
	"context"

	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"
	"clarityos-backend/pkg/auth"
)

// ProgressStore persists conversation state, statements, progress and
// quiz attempts for one scope. Two implementations exist: the local
// on-device tier (anonymous sessions) and the remote account-backed
// tier (authenticated users). Selection happens once per request via
// StoreProvider, never inline at call sites.
type ProgressStore interface {
	// GetConversation returns the conversation for a card, or nil when
	// none exists yet.
	GetConversation(ctx context.Context, cardSlug string) (*conversation.State, error)

	// SaveConversation upserts the conversation snapshot.
	SaveConversation(ctx context.Context, state *conversation.State) error

	// GetCurrentStatement returns the statement flagged current, or nil
	// when the user has none.
	GetCurrentStatement(ctx context.Context) (*conversation.ScoredStatement, error)

	// SaveStatement stores a new statement version: the prior current
	// record is demoted and the version counter incremented.
	SaveStatement(ctx context.Context, statement *conversation.ScoredStatement) error

	// SaveCardProgress upserts section progress for a card.
	SaveCardProgress(ctx context.Context, p progress.CardProgress) error

	// SaveQuestionAttempt stores one quiz attempt.
	SaveQuestionAttempt(ctx context.Context, a progress.QuestionAttempt) error

	// ResetCard deletes all conversation and progress records for a
	// card. Calling it on a card with no records is a no-op.
	ResetCard(ctx context.Context, cardSlug string) error
}

// StoreProvider selects the persistence tier for a request scope.
type StoreProvider interface {
	For(scope auth.Scope) ProgressStore
}

// LocalStore is the on-device tier with the enumeration and cleanup
// operations the migration engine drains it through.
type LocalStore interface {
	ProgressStore

	ListConversations(ctx context.Context) ([]conversation.Record, error)
	ListStatements(ctx context.Context) ([]conversation.ScoredStatement, error)
	ListCardProgress(ctx context.Context) ([]progress.CardProgress, error)
	ListQuestionAttempts(ctx context.Context) ([]progress.QuestionAttempt, error)

	// ClearAll wipes the local namespace. Only called after every record
	// migrated without error.
	ClearAll(ctx context.Context) error
}

// MigrationTarget is the remote tier's upsert surface. Writes use
// upsert-by-natural-key semantics so re-migrating an already-migrated
// record is a harmless overwrite.
type MigrationTarget interface {
	UpsertConversation(ctx context.Context, userID string, rec conversation.Record) error
	UpsertStatement(ctx context.Context, userID string, st conversation.ScoredStatement) error
	UpsertCardProgress(ctx context.Context, userID string, p progress.CardProgress) error
	UpsertQuestionAttempt(ctx context.Context, userID string, a progress.QuestionAttempt) error
}

// ModelRequest is the wire request for one conversation turn, POSTed
// to the language-model provider as JSON.
type ModelRequest struct {
	System   string                 `json:"system"`
	Messages []conversation.Message `json:"messages"`
	Task     string                 `json:"task"`
	UserID   string                 `json:"userId"`
}

// ModelClient performs the model call. The raw response body is
// returned so the contract layer owns parsing and validation; any
// transport or non-2xx failure surfaces as a retryable model error.
type ModelClient interface {
	CreateTurn(ctx context.Context, req ModelRequest) ([]byte, error)
}

// BusinessContext carries the personalization data appended to the
// system prompt when available.
type BusinessContext struct {
	BusinessName     string `json:"businessName,omitempty"`
	BusinessStage    string `json:"businessStage,omitempty"`
	WhatBusinessDoes string `json:"whatBusinessDoes,omitempty"`
	HasData          bool   `json:"hasData"`
	Source           string `json:"source"`
}

// BusinessContextProvider supplies personalization. Absence of data is
// "no personalization", never an error.
type BusinessContextProvider interface {
	GetBusinessContext(ctx context.Context, scope auth.Scope) BusinessContext
}
