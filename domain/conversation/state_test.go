package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsInOpeningPhase(t *testing.T) {
	state, err := New("purpose")

	require.NoError(t, err)
	assert.Equal(t, PhaseOpening, state.Phase())
	assert.Equal(t, "purpose", state.CardSlug())
	assert.Empty(t, state.Messages())
	assert.False(t, state.HasDraft())
	assert.False(t, state.Completed())
	assert.Equal(t, 0, state.Scores().Total())
}

func TestNew_EmptySlugRejected(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestApplyFollowUpTurn_AdvancesOpeningToFollowUp(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.RecordUserUtterance("We make shoes"))

	err := state.ApplyFollowUpTurn(DimensionScores{Audience: 1}, "Who buys them?")

	require.NoError(t, err)
	assert.Equal(t, PhaseFollowUp, state.Phase())

	messages := state.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "Who buys them?", messages[1].Content)
}

func TestApplyFollowUpTurn_ScoresRatchetUpward(t *testing.T) {
	state, _ := New("purpose")

	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Audience: 2, Benefit: 1}, "q1"))
	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Audience: 0, Benefit: 2, Belief: 1}, "q2"))

	// A weak later answer never lowers a dimension already covered.
	assert.Equal(t, DimensionScores{Audience: 2, Benefit: 2, Belief: 1, Impact: 0}, state.Scores())
	assert.Equal(t, 5, state.Scores().Total())
}

func TestApplyFollowUpTurn_RejectsOutOfRangeScores(t *testing.T) {
	state, _ := New("purpose")

	err := state.ApplyFollowUpTurn(DimensionScores{Audience: 3}, "q")
	assert.Error(t, err)

	err = state.ApplyFollowUpTurn(DimensionScores{Benefit: -1}, "q")
	assert.Error(t, err)
}

func TestApplySynthesisTurn_SetsDraftAndPhase(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Audience: 1}, "q1"))

	err := state.ApplySynthesisTurn(
		DimensionScores{Audience: 2, Benefit: 2, Belief: 2, Impact: 2},
		"We exist to keep feet happy because we believe comfort matters.",
		"Does this feel right?",
	)

	require.NoError(t, err)
	assert.Equal(t, PhaseSynthesis, state.Phase())
	assert.True(t, state.HasDraft())
	assert.Equal(t, 8, state.Scores().Total())

	messages := state.Messages()
	assert.Equal(t, "Does this feel right?", messages[len(messages)-1].Content)
}

func TestApplySynthesisTurn_RevisionKeepsLaterPhase(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.ApplySynthesisTurn(DimensionScores{Audience: 2}, "draft one", "ok?"))
	require.NoError(t, state.EnterValidation())

	// The user asked for edits; a revised draft must not regress the phase.
	require.NoError(t, state.ApplySynthesisTurn(DimensionScores{Audience: 2}, "draft two", "better?"))

	assert.Equal(t, PhaseValidation, state.Phase())
	assert.Equal(t, "draft two", state.Draft())
}

func TestEnterValidation_RequiresSynthesis(t *testing.T) {
	state, _ := New("purpose")
	assert.Error(t, state.EnterValidation())
}

func TestComplete_ReturnsScoredStatement(t *testing.T) {
	state, _ := New("positioning")
	require.NoError(t, state.ApplySynthesisTurn(
		DimensionScores{Audience: 2, Benefit: 1, Belief: 2, Impact: 1}, "the draft", "ok?"))

	statement, err := state.Complete()

	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, state.Phase())
	assert.True(t, state.Completed())
	assert.Equal(t, "positioning", statement.CardSlug)
	assert.Equal(t, "the draft", statement.Text)
	assert.Equal(t, 6, statement.Total)
	assert.NotEmpty(t, statement.ID)
}

func TestComplete_RequiresDraft(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Audience: 2}, "q"))

	_, err := state.Complete()
	assert.Error(t, err)
}

func TestComplete_TerminalStateRejectsFurtherTurns(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.ApplySynthesisTurn(DimensionScores{}, "draft", "ok?"))
	_, err := state.Complete()
	require.NoError(t, err)

	assert.Error(t, state.RecordUserUtterance("more"))
	assert.Error(t, state.ApplyFollowUpTurn(DimensionScores{}, "q"))
	_, err = state.Complete()
	assert.Error(t, err)
}

func TestRecordFallback_DoesNotAdvanceTurn(t *testing.T) {
	state, _ := New("purpose")
	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Audience: 1}, "q1"))
	before := state.Scores()
	phase := state.Phase()

	state.RecordFallback("What does your business do?")

	assert.Equal(t, before, state.Scores())
	assert.Equal(t, phase, state.Phase())
	messages := state.Messages()
	assert.Equal(t, "What does your business do?", messages[len(messages)-1].Content)
}

func TestReconstruct_RoundTrip(t *testing.T) {
	state, _ := New("perception")
	require.NoError(t, state.RecordUserUtterance("hello"))
	require.NoError(t, state.ApplyFollowUpTurn(DimensionScores{Belief: 2}, "why?"))

	rebuilt, err := Reconstruct(state.Record())

	require.NoError(t, err)
	assert.Equal(t, state.Record(), rebuilt.Record())
}

func TestReconstruct_RejectsInvalidRecords(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		rec  Record
	}{
		{
			name: "missing card slug",
			rec:  Record{Phase: PhaseOpening, UpdatedAt: now},
		},
		{
			name: "unknown phase",
			rec:  Record{CardSlug: "purpose", Phase: "drifting", UpdatedAt: now},
		},
		{
			name: "out of range score",
			rec: Record{CardSlug: "purpose", Phase: PhaseFollowUp,
				Scores: DimensionScores{Audience: 9}, UpdatedAt: now},
		},
		{
			name: "draft before synthesis",
			rec: Record{CardSlug: "purpose", Phase: PhaseFollowUp,
				DraftStatement: "too early", UpdatedAt: now},
		},
		{
			name: "completed flag on non-terminal phase",
			rec: Record{CardSlug: "purpose", Phase: PhaseSynthesis,
				DraftStatement: "draft", IsCompleted: true, UpdatedAt: now},
		},
		{
			name: "terminal phase without completed flag",
			rec: Record{CardSlug: "purpose", Phase: PhaseComplete,
				DraftStatement: "draft", IsCompleted: false, UpdatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(tt.rec)
			assert.Error(t, err)
		})
	}
}
