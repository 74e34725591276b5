package conversation

import (
	"strings"
	"time"

	apperrors "clarityos-backend/pkg/errors"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the append-only conversation history.
// Insertion order is meaningful and preserved across persistence.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the guided-discovery conversation for one (scope, card)
// pair. It is a rich entity: callers mutate it only through intent
// methods, which enforce phase monotonicity and the draft-statement
// gate. The engine receives a snapshot from the store, applies one
// turn, and hands it back for persistence.
type State struct {
	cardSlug  string
	phase     Phase
	scores    DimensionScores
	messages  []Message
	draft     string
	completed bool
	updatedAt time.Time
}

// New creates a fresh conversation in the opening phase. Created on
// the first user utterance for a card.
func New(cardSlug string) (*State, error) {
	if cardSlug == "" {
		return nil, apperrors.NewValidationError("cardSlug cannot be empty")
	}
	return &State{
		cardSlug:  cardSlug,
		phase:     PhaseOpening,
		messages:  []Message{},
		updatedAt: time.Now(),
	}, nil
}

// Record is the persisted snapshot of a conversation. Field names and
// types are identical across the local and remote tiers so migration
// is a straight structural copy.
type Record struct {
	CardSlug       string          `json:"card_slug"`
	Phase          Phase           `json:"phase"`
	Scores         DimensionScores `json:"scores"`
	Messages       []Message       `json:"messages"`
	DraftStatement string          `json:"draft_statement,omitempty"`
	IsCompleted    bool            `json:"is_completed"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Reconstruct rebuilds a conversation from a persisted record,
// re-checking the invariants the entity normally enforces.
func Reconstruct(rec Record) (*State, error) {
	if rec.CardSlug == "" {
		return nil, apperrors.NewValidationError("record missing card slug")
	}
	if !rec.Phase.Valid() {
		return nil, apperrors.NewValidationError("record has unknown phase " + string(rec.Phase))
	}
	if err := rec.Scores.Validate(); err != nil {
		return nil, err
	}
	if rec.DraftStatement != "" && !rec.Phase.AtLeast(PhaseSynthesis) {
		return nil, apperrors.NewValidationError("draft statement present before synthesis phase")
	}
	if rec.IsCompleted && rec.Phase != PhaseComplete {
		return nil, apperrors.NewValidationError("completed flag set on non-terminal phase")
	}
	if rec.Phase == PhaseComplete && !rec.IsCompleted {
		return nil, apperrors.NewValidationError("terminal phase without completed flag")
	}

	messages := make([]Message, len(rec.Messages))
	copy(messages, rec.Messages)

	return &State{
		cardSlug:  rec.CardSlug,
		phase:     rec.Phase,
		scores:    rec.Scores,
		messages:  messages,
		draft:     rec.DraftStatement,
		completed: rec.IsCompleted,
		updatedAt: rec.UpdatedAt,
	}, nil
}

// Record returns the persistable snapshot of the conversation.
func (s *State) Record() Record {
	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)

	return Record{
		CardSlug:       s.cardSlug,
		Phase:          s.phase,
		Scores:         s.scores,
		Messages:       messages,
		DraftStatement: s.draft,
		IsCompleted:    s.completed,
		UpdatedAt:      s.updatedAt,
	}
}

// CardSlug returns the card this conversation belongs to.
func (s *State) CardSlug() string { return s.cardSlug }

// Phase returns the current protocol phase.
func (s *State) Phase() Phase { return s.phase }

// Scores returns the cumulative dimension scores.
func (s *State) Scores() DimensionScores { return s.scores }

// Messages returns a copy of the conversation history.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Draft returns the draft statement, empty before synthesis.
func (s *State) Draft() string { return s.draft }

// HasDraft reports whether a draft statement has been synthesized.
func (s *State) HasDraft() bool { return s.draft != "" }

// Completed reports whether the conversation reached its terminal state.
func (s *State) Completed() bool { return s.completed }

// UpdatedAt returns the last mutation time.
func (s *State) UpdatedAt() time.Time { return s.updatedAt }

// RecordUserUtterance appends the user's message to the history.
func (s *State) RecordUserUtterance(text string) error {
	if s.completed {
		return apperrors.NewValidationError("conversation is complete; start over to continue")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.NewValidationError("utterance cannot be empty")
	}
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text})
	s.touch()
	return nil
}

// ApplyFollowUpTurn records a validated model turn that did not finish
// discovery: scores ratchet upward and the model's question is surfaced
// verbatim. From opening this advances to follow_up; in later phases
// (a user asking for draft edits) the phase holds steady.
func (s *State) ApplyFollowUpTurn(scores DimensionScores, question string) error {
	if s.completed {
		return apperrors.NewInternalError("cannot apply turn to completed conversation")
	}
	if err := scores.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(question) == "" {
		return apperrors.NewValidationError("follow-up question cannot be empty")
	}

	s.scores = s.scores.Merge(scores)
	if s.phase == PhaseOpening {
		s.phase = PhaseFollowUp
	}
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: question})
	s.touch()
	return nil
}

// ApplySynthesisTurn records a model turn that declared discovery
// complete: the draft statement is stored (or revised, when the user
// asked for edits) and the given validation prompt is surfaced instead
// of the model's raw question.
func (s *State) ApplySynthesisTurn(scores DimensionScores, draft, validationPrompt string) error {
	if s.completed {
		return apperrors.NewInternalError("cannot apply turn to completed conversation")
	}
	if err := scores.Validate(); err != nil {
		return err
	}
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return apperrors.NewValidationError("draft statement cannot be empty")
	}

	s.scores = s.scores.Merge(scores)
	s.draft = draft
	if !s.phase.AtLeast(PhaseSynthesis) {
		s.phase = PhaseSynthesis
	}
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: validationPrompt})
	s.touch()
	return nil
}

// RecordFallback appends a hand-authored fallback question after model
// retries were exhausted. The turn is not advanced: scores and phase
// are untouched.
func (s *State) RecordFallback(question string) {
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: question})
	s.touch()
}

// EnterValidation moves a synthesis conversation into validation after
// the user's first non-affirmative reaction to the draft.
func (s *State) EnterValidation() error {
	if s.phase != PhaseSynthesis && s.phase != PhaseValidation {
		return apperrors.NewInternalError("validation requires a synthesized draft")
	}
	if err := s.phase.checkAdvance(PhaseValidation); err != nil {
		return err
	}
	s.phase = PhaseValidation
	s.touch()
	return nil
}

// Complete finalizes the conversation after explicit user affirmation
// and returns the scored statement to persist. Terminal: no further
// scoring turns occur.
func (s *State) Complete() (*ScoredStatement, error) {
	if s.completed {
		return nil, apperrors.NewInternalError("conversation already complete")
	}
	if s.phase != PhaseSynthesis && s.phase != PhaseValidation {
		return nil, apperrors.NewInternalError("cannot complete before a draft is synthesized")
	}
	if s.draft == "" {
		return nil, apperrors.NewInternalError("cannot complete without a draft statement")
	}

	s.phase = PhaseComplete
	s.completed = true
	s.touch()

	return NewScoredStatement(s.cardSlug, s.draft, s.scores)
}

func (s *State) touch() {
	s.updatedAt = time.Now()
}
