package progress

import (
	"time"

	"clarityos-backend/domain/cards"
)

// Status of one card section for one user.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// CardProgress tracks how far a user has moved through one card
// section. Written when a conversation or quiz section finishes;
// read by the client home screen.
type CardProgress struct {
	CardSlug  string            `json:"card_slug"`
	Section   cards.SectionKind `json:"section"`
	Status    Status            `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// QuestionAttempt records one answered multiple-choice question from
// the educational-quiz flow. The discovery core never grades these; it
// only carries them across the anonymous-to-authenticated migration.
type QuestionAttempt struct {
	ID             string    `json:"id"`
	CardSlug       string    `json:"card_slug"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	Points         int       `json:"points"`
	CreatedAt      time.Time `json:"created_at"`
}
