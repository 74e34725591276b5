// Package local implements the on-device persistence tier backing
// anonymous sessions: a single-namespace sqlite database with the same
// record shapes as the remote tier, so migration is a structural copy.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clarityos-backend/domain/cards"
	"clarityos-backend/domain/conversation"
	"clarityos-backend/domain/progress"
	apperrors "clarityos-backend/pkg/errors"

	_ "modernc.org/sqlite"
)

// Store is the anonymous-session ProgressStore plus the enumeration
// surface the migration engine drains it through.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the local database.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS conversations (
		card_slug TEXT PRIMARY KEY,
		phase TEXT NOT NULL,
		audience INTEGER NOT NULL,
		benefit INTEGER NOT NULL,
		belief INTEGER NOT NULL,
		impact INTEGER NOT NULL,
		messages TEXT NOT NULL,
		draft_statement TEXT NOT NULL DEFAULT '',
		is_completed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS statements (
		id TEXT PRIMARY KEY,
		card_slug TEXT NOT NULL,
		text TEXT NOT NULL,
		audience INTEGER NOT NULL,
		benefit INTEGER NOT NULL,
		belief INTEGER NOT NULL,
		impact INTEGER NOT NULL,
		total INTEGER NOT NULL,
		version INTEGER NOT NULL,
		is_current INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_statements_current ON statements(is_current);

	CREATE TABLE IF NOT EXISTS card_progress (
		card_slug TEXT NOT NULL,
		section TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (card_slug, section)
	);

	CREATE TABLE IF NOT EXISTS question_attempts (
		id TEXT PRIMARY KEY,
		card_slug TEXT NOT NULL,
		question_id TEXT NOT NULL,
		selected_answer TEXT NOT NULL,
		is_correct INTEGER NOT NULL,
		points INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// GetConversation returns the conversation for a card, or nil when
// none exists.
func (s *Store) GetConversation(ctx context.Context, cardSlug string) (*conversation.State, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT card_slug, phase, audience, benefit, belief, impact,
		       messages, draft_statement, is_completed, updated_at
		FROM conversations WHERE card_slug = ?`, cardSlug)

	rec, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get conversation", err)
	}

	return conversation.Reconstruct(*rec)
}

// SaveConversation upserts the conversation snapshot.
func (s *Store) SaveConversation(ctx context.Context, state *conversation.State) error {
	rec := state.Record()
	messages, err := json.Marshal(rec.Messages)
	if err != nil {
		return apperrors.NewStoreError("encode messages", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations
			(card_slug, phase, audience, benefit, belief, impact,
			 messages, draft_statement, is_completed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(card_slug) DO UPDATE SET
			phase = excluded.phase,
			audience = excluded.audience,
			benefit = excluded.benefit,
			belief = excluded.belief,
			impact = excluded.impact,
			messages = excluded.messages,
			draft_statement = excluded.draft_statement,
			is_completed = excluded.is_completed,
			updated_at = excluded.updated_at`,
		rec.CardSlug, string(rec.Phase),
		rec.Scores.Audience, rec.Scores.Benefit, rec.Scores.Belief, rec.Scores.Impact,
		string(messages), rec.DraftStatement, boolToInt(rec.IsCompleted), rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return apperrors.NewStoreError("save conversation", err)
	}
	return nil
}

// GetCurrentStatement returns the statement flagged current, or nil.
func (s *Store) GetCurrentStatement(ctx context.Context) (*conversation.ScoredStatement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, card_slug, text, audience, benefit, belief, impact,
		       total, version, is_current, created_at
		FROM statements WHERE is_current = 1
		ORDER BY version DESC LIMIT 1`)

	st, err := scanStatement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get current statement", err)
	}
	return st, nil
}

// SaveStatement stores a new statement version inside one transaction:
// the prior current record is demoted, the version counter advances.
func (s *Store) SaveStatement(ctx context.Context, statement *conversation.ScoredStatement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("begin statement tx", err)
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM statements`).Scan(&maxVersion); err != nil {
		return apperrors.NewStoreError("read statement version", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE statements SET is_current = 0 WHERE is_current = 1`); err != nil {
		return apperrors.NewStoreError("demote current statement", err)
	}

	statement.Version = int(maxVersion.Int64) + 1
	statement.IsCurrent = true

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO statements
			(id, card_slug, text, audience, benefit, belief, impact, total, version, is_current, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		statement.ID, statement.CardSlug, statement.Text,
		statement.Scores.Audience, statement.Scores.Benefit, statement.Scores.Belief, statement.Scores.Impact,
		statement.Total, statement.Version, statement.CreatedAt.Unix(),
	); err != nil {
		return apperrors.NewStoreError("insert statement", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit statement", err)
	}
	return nil
}

// SaveCardProgress upserts section progress for a card.
func (s *Store) SaveCardProgress(ctx context.Context, p progress.CardProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO card_progress (card_slug, section, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(card_slug, section) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		p.CardSlug, string(p.Section), string(p.Status), p.UpdatedAt.Unix(),
	)
	if err != nil {
		return apperrors.NewStoreError("save card progress", err)
	}
	return nil
}

// SaveQuestionAttempt stores one quiz attempt.
func (s *Store) SaveQuestionAttempt(ctx context.Context, a progress.QuestionAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_attempts
			(id, card_slug, question_id, selected_answer, is_correct, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_answer = excluded.selected_answer,
			is_correct = excluded.is_correct,
			points = excluded.points`,
		a.ID, a.CardSlug, a.QuestionID, a.SelectedAnswer, boolToInt(a.IsCorrect), a.Points, a.CreatedAt.Unix(),
	)
	if err != nil {
		return apperrors.NewStoreError("save question attempt", err)
	}
	return nil
}

// ResetCard deletes all conversation and progress records for a card.
// Resetting a card with no records is a no-op.
func (s *Store) ResetCard(ctx context.Context, cardSlug string) error {
	for _, q := range []string{
		`DELETE FROM conversations WHERE card_slug = ?`,
		`DELETE FROM card_progress WHERE card_slug = ?`,
		`DELETE FROM question_attempts WHERE card_slug = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, cardSlug); err != nil {
			return apperrors.NewStoreError("reset card", err)
		}
	}
	return nil
}

// ListConversations returns every stored conversation record.
func (s *Store) ListConversations(ctx context.Context) ([]conversation.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT card_slug, phase, audience, benefit, belief, impact,
		       messages, draft_statement, is_completed, updated_at
		FROM conversations`)
	if err != nil {
		return nil, apperrors.NewStoreError("list conversations", err)
	}
	defer rows.Close()

	var out []conversation.Record
	for rows.Next() {
		rec, err := scanConversation(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("scan conversation", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ListStatements returns every stored statement, oldest version first.
func (s *Store) ListStatements(ctx context.Context) ([]conversation.ScoredStatement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_slug, text, audience, benefit, belief, impact,
		       total, version, is_current, created_at
		FROM statements ORDER BY version ASC`)
	if err != nil {
		return nil, apperrors.NewStoreError("list statements", err)
	}
	defer rows.Close()

	var out []conversation.ScoredStatement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("scan statement", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// ListCardProgress returns every stored progress record.
func (s *Store) ListCardProgress(ctx context.Context) ([]progress.CardProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT card_slug, section, status, updated_at FROM card_progress`)
	if err != nil {
		return nil, apperrors.NewStoreError("list card progress", err)
	}
	defer rows.Close()

	var out []progress.CardProgress
	for rows.Next() {
		var p progress.CardProgress
		var section, status string
		var updatedAt int64
		if err := rows.Scan(&p.CardSlug, &section, &status, &updatedAt); err != nil {
			return nil, apperrors.NewStoreError("scan card progress", err)
		}
		p.Section = cards.SectionKind(section)
		p.Status = progress.Status(status)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListQuestionAttempts returns every stored quiz attempt.
func (s *Store) ListQuestionAttempts(ctx context.Context) ([]progress.QuestionAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_slug, question_id, selected_answer, is_correct, points, created_at
		FROM question_attempts`)
	if err != nil {
		return nil, apperrors.NewStoreError("list question attempts", err)
	}
	defer rows.Close()

	var out []progress.QuestionAttempt
	for rows.Next() {
		var a progress.QuestionAttempt
		var isCorrect int
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.CardSlug, &a.QuestionID, &a.SelectedAnswer, &isCorrect, &a.Points, &createdAt); err != nil {
			return nil, apperrors.NewStoreError("scan question attempt", err)
		}
		a.IsCorrect = isCorrect != 0
		a.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ClearAll wipes the local namespace after a fully successful migration.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, q := range []string{
		`DELETE FROM conversations`,
		`DELETE FROM statements`,
		`DELETE FROM card_progress`,
		`DELETE FROM question_attempts`,
	} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return apperrors.NewStoreError("clear local store", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row rowScanner) (*conversation.Record, error) {
	var rec conversation.Record
	var phase, messages string
	var isCompleted int
	var updatedAt int64

	if err := row.Scan(
		&rec.CardSlug, &phase,
		&rec.Scores.Audience, &rec.Scores.Benefit, &rec.Scores.Belief, &rec.Scores.Impact,
		&messages, &rec.DraftStatement, &isCompleted, &updatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(messages), &rec.Messages); err != nil {
		return nil, err
	}
	rec.Phase = conversation.Phase(phase)
	rec.IsCompleted = isCompleted != 0
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

func scanStatement(row rowScanner) (*conversation.ScoredStatement, error) {
	var st conversation.ScoredStatement
	var isCurrent int
	var createdAt int64

	if err := row.Scan(
		&st.ID, &st.CardSlug, &st.Text,
		&st.Scores.Audience, &st.Scores.Benefit, &st.Scores.Belief, &st.Scores.Impact,
		&st.Total, &st.Version, &isCurrent, &createdAt,
	); err != nil {
		return nil, err
	}

	st.IsCurrent = isCurrent != 0
	st.CreatedAt = time.Unix(createdAt, 0)
	return &st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
