package conversation

import (
	"fmt"

	apperrors "clarityos-backend/pkg/errors"
)

// Phase is the protocol stage of a guided-discovery conversation.
// Progression is strictly forward; the only way back is a reset, which
// deletes the conversation record entirely.
type Phase string

const (
	PhaseOpening    Phase = "opening"
	PhaseFollowUp   Phase = "follow_up"
	PhaseSynthesis  Phase = "synthesis"
	PhaseValidation Phase = "validation"
	PhaseComplete   Phase = "complete"
)

var phaseRank = map[Phase]int{
	PhaseOpening:    0,
	PhaseFollowUp:   1,
	PhaseSynthesis:  2,
	PhaseValidation: 3,
	PhaseComplete:   4,
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := phaseRank[p]
	return ok
}

// AtLeast reports whether p has reached the given phase.
func (p Phase) AtLeast(other Phase) bool {
	return phaseRank[p] >= phaseRank[other]
}

// checkAdvance returns an error when moving from p to next would
// regress the conversation.
func (p Phase) checkAdvance(next Phase) error {
	if !next.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown phase %q", next))
	}
	if phaseRank[next] < phaseRank[p] {
		return apperrors.NewInternalError(fmt.Sprintf("phase cannot regress from %q to %q", p, next))
	}
	return nil
}
