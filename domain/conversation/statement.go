package conversation

import (
	"strings"
	"time"

	apperrors "clarityos-backend/pkg/errors"

	"github.com/google/uuid"
)

// ScoredStatement is the final artifact of a completed conversation:
// the synthesized brand statement plus the dimension scores at the
// time of completion. Statements are versioned per user; the store
// keeps exactly one record flagged current.
type ScoredStatement struct {
	ID        string          `json:"id"`
	CardSlug  string          `json:"card_slug"`
	Text      string          `json:"text"`
	Scores    DimensionScores `json:"scores"`
	Total     int             `json:"total"`
	Version   int             `json:"version"`
	IsCurrent bool            `json:"is_current"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewScoredStatement builds a statement artifact. Version is assigned
// by the store on save; the statement starts flagged current and the
// store demotes any prior current record.
func NewScoredStatement(cardSlug, text string, scores DimensionScores) (*ScoredStatement, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("statement text cannot be empty")
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}

	return &ScoredStatement{
		ID:        uuid.New().String(),
		CardSlug:  cardSlug,
		Text:      text,
		Scores:    scores,
		Total:     scores.Total(),
		IsCurrent: true,
		CreatedAt: time.Now(),
	}, nil
}
