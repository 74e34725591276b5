// Package supabase implements the remote, account-backed persistence
// tier on Supabase (postgrest). Records are keyed by user id and use
// upsert-by-natural-key semantics so migration re-runs are harmless.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"
	apperrors "clarityos-backend/pkg/errors"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

const (
	tableConversations = "conversations"
	tableStatements    = "brand_statements"
	tableProgress      = "card_progress"
	tableAttempts      = "question_attempts"
	tableProfiles      = "profiles"
)

// conversationRow is the postgrest row shape for a conversation.
type conversationRow struct {
	UserID         string          `json:"user_id"`
	CardSlug       string          `json:"card_slug"`
	Phase          string          `json:"phase"`
	Audience       int             `json:"audience"`
	Benefit        int             `json:"benefit"`
	Belief         int             `json:"belief"`
	Impact         int             `json:"impact"`
	Messages       json.RawMessage `json:"messages"`
	DraftStatement string          `json:"draft_statement"`
	IsCompleted    bool            `json:"is_completed"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// statementRow is the postgrest row shape for a scored statement.
type statementRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CardSlug  string    `json:"card_slug"`
	Text      string    `json:"text"`
	Audience  int       `json:"audience"`
	Benefit   int       `json:"benefit"`
	Belief    int       `json:"belief"`
	Impact    int       `json:"impact"`
	Total     int       `json:"total"`
	Version   int       `json:"version"`
	IsCurrent bool      `json:"is_current"`
	CreatedAt time.Time `json:"created_at"`
}

// progressRow is the postgrest row shape for card progress.
type progressRow struct {
	UserID    string    `json:"user_id"`
	CardSlug  string    `json:"card_slug"`
	Section   string    `json:"section"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// attemptRow is the postgrest row shape for a quiz attempt.
type attemptRow struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CardSlug       string    `json:"card_slug"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Points         int       `json:"points"`
	CreatedAt      time.Time `json:"created_at"`
}

// Remote owns the supabase client. It is the migration target and the
// factory for per-user ProgressStore views.
type Remote struct {
	client *supa.Client
	logger *zap.Logger
}

// NewRemote creates the remote tier against a supabase project, using
// the service role key so row-level security is bypassed server-side.
func NewRemote(url, serviceKey string, logger *zap.Logger) (*Remote, error) {
	client, err := supa.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return &Remote{client: client, logger: logger}, nil
}

// ForUser returns the ProgressStore view scoped to one user.
func (r *Remote) ForUser(userID string) *Store {
	return &Store{remote: r, userID: userID}
}

// UpsertConversation writes one conversation record keyed by
// (user_id, card_slug).
func (r *Remote) UpsertConversation(ctx context.Context, userID string, rec conversation.Record) error {
	messages, err := json.Marshal(rec.Messages)
	if err != nil {
		return apperrors.NewStoreError("encode messages", err)
	}

	row := conversationRow{
		UserID:         userID,
		CardSlug:       rec.CardSlug,
		Phase:          string(rec.Phase),
		Audience:       rec.Scores.Audience,
		Benefit:        rec.Scores.Benefit,
		Belief:         rec.Scores.Belief,
		Impact:         rec.Scores.Impact,
		Messages:       messages,
		DraftStatement: rec.DraftStatement,
		IsCompleted:    rec.IsCompleted,
		UpdatedAt:      rec.UpdatedAt,
	}

	_, _, err = r.client.From(tableConversations).
		Insert(row, true, "user_id,card_slug", "", "").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("upsert conversation", err)
	}
	return nil
}

// UpsertStatement writes one statement version keyed by
// (user_id, version).
func (r *Remote) UpsertStatement(ctx context.Context, userID string, st conversation.ScoredStatement) error {
	row := statementRow{
		ID:        st.ID,
		UserID:    userID,
		CardSlug:  st.CardSlug,
		Text:      st.Text,
		Audience:  st.Scores.Audience,
		Benefit:   st.Scores.Benefit,
		Belief:    st.Scores.Belief,
		Impact:    st.Scores.Impact,
		Total:     st.Total,
		Version:   st.Version,
		IsCurrent: st.IsCurrent,
		CreatedAt: st.CreatedAt,
	}

	_, _, err := r.client.From(tableStatements).
		Insert(row, true, "user_id,version", "", "").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("upsert statement", err)
	}
	return nil
}

// UpsertCardProgress writes one progress record keyed by
// (user_id, card_slug, section).
func (r *Remote) UpsertCardProgress(ctx context.Context, userID string, p progress.CardProgress) error {
	row := progressRow{
		UserID:    userID,
		CardSlug:  p.CardSlug,
		Section:   string(p.Section),
		Status:    string(p.Status),
		UpdatedAt: p.UpdatedAt,
	}

	_, _, err := r.client.From(tableProgress).
		Insert(row, true, "user_id,card_slug,section", "", "").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("upsert card progress", err)
	}
	return nil
}

// UpsertQuestionAttempt writes one quiz attempt keyed by id.
func (r *Remote) UpsertQuestionAttempt(ctx context.Context, userID string, a progress.QuestionAttempt) error {
	row := attemptRow{
		ID:             a.ID,
		UserID:         userID,
		CardSlug:       a.CardSlug,
		QuestionID:     a.QuestionID,
		SelectedAnswer: a.SelectedAnswer,
		IsCorrect:      a.IsCorrect,
		Points:         a.Points,
		CreatedAt:      a.CreatedAt,
	}

	_, _, err := r.client.From(tableAttempts).
		Insert(row, true, "id", "", "").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("upsert question attempt", err)
	}
	return nil
}

// Store is the remote ProgressStore view for one user.
type Store struct {
	remote *Remote
	userID string
}

// GetConversation returns the user's conversation for a card, or nil.
func (s *Store) GetConversation(ctx context.Context, cardSlug string) (*conversation.State, error) {
	data, _, err := s.remote.client.From(tableConversations).
		Select("*", "", false).
		Eq("user_id", s.userID).
		Eq("card_slug", cardSlug).
		Execute()
	if err != nil {
		return nil, apperrors.NewStoreError("get conversation", err)
	}

	var rows []conversationRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperrors.NewStoreError("decode conversation", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	var messages []conversation.Message
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &messages); err != nil {
			return nil, apperrors.NewStoreError("decode messages", err)
		}
	}

	return conversation.Reconstruct(conversation.Record{
		CardSlug: row.CardSlug,
		Phase:    conversation.Phase(row.Phase),
		Scores: conversation.DimensionScores{
			Audience: row.Audience,
			Benefit:  row.Benefit,
			Belief:   row.Belief,
			Impact:   row.Impact,
		},
		Messages:       messages,
		DraftStatement: row.DraftStatement,
		IsCompleted:    row.IsCompleted,
		UpdatedAt:      row.UpdatedAt,
	})
}

// SaveConversation upserts the conversation snapshot.
func (s *Store) SaveConversation(ctx context.Context, state *conversation.State) error {
	return s.remote.UpsertConversation(ctx, s.userID, state.Record())
}

// GetCurrentStatement returns the user's current statement, or nil.
func (s *Store) GetCurrentStatement(ctx context.Context) (*conversation.ScoredStatement, error) {
	data, _, err := s.remote.client.From(tableStatements).
		Select("*", "", false).
		Eq("user_id", s.userID).
		Eq("is_current", "true").
		Execute()
	if err != nil {
		return nil, apperrors.NewStoreError("get current statement", err)
	}

	var rows []statementRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperrors.NewStoreError("decode statement", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// The persistence layer owns the single-current invariant; if a
	// race ever left two flagged rows, prefer the highest version.
	best := rows[0]
	for _, row := range rows[1:] {
		if row.Version > best.Version {
			best = row
		}
	}

	return &conversation.ScoredStatement{
		ID:       best.ID,
		CardSlug: best.CardSlug,
		Text:     best.Text,
		Scores: conversation.DimensionScores{
			Audience: best.Audience,
			Benefit:  best.Benefit,
			Belief:   best.Belief,
			Impact:   best.Impact,
		},
		Total:     best.Total,
		Version:   best.Version,
		IsCurrent: best.IsCurrent,
		CreatedAt: best.CreatedAt,
	}, nil
}

// SaveStatement demotes the prior current statement, assigns the next
// version and inserts the new row.
func (s *Store) SaveStatement(ctx context.Context, statement *conversation.ScoredStatement) error {
	data, _, err := s.remote.client.From(tableStatements).
		Select("version", "", false).
		Eq("user_id", s.userID).
		Order("version", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("read statement version", err)
	}

	var versions []struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &versions); err != nil {
		return apperrors.NewStoreError("decode statement version", err)
	}

	maxVersion := 0
	for _, v := range versions {
		if v.Version > maxVersion {
			maxVersion = v.Version
		}
	}

	_, _, err = s.remote.client.From(tableStatements).
		Update(map[string]interface{}{"is_current": false}, "", "").
		Eq("user_id", s.userID).
		Eq("is_current", "true").
		Execute()
	if err != nil {
		return apperrors.NewStoreError("demote current statement", err)
	}

	statement.Version = maxVersion + 1
	statement.IsCurrent = true

	return s.remote.UpsertStatement(ctx, s.userID, *statement)
}

// SaveCardProgress upserts section progress.
func (s *Store) SaveCardProgress(ctx context.Context, p progress.CardProgress) error {
	return s.remote.UpsertCardProgress(ctx, s.userID, p)
}

// SaveQuestionAttempt stores one quiz attempt.
func (s *Store) SaveQuestionAttempt(ctx context.Context, a progress.QuestionAttempt) error {
	return s.remote.UpsertQuestionAttempt(ctx, s.userID, a)
}

// ResetCard deletes all of the user's records for a card. A card with
// no records is a no-op.
func (s *Store) ResetCard(ctx context.Context, cardSlug string) error {
	for _, table := range []string{tableConversations, tableProgress, tableAttempts} {
		_, _, err := s.remote.client.From(table).
			Delete("", "").
			Eq("user_id", s.userID).
			Eq("card_slug", cardSlug).
			Execute()
		if err != nil {
			return apperrors.NewStoreError("reset card", err)
		}
	}
	return nil
}
