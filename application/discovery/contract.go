package discovery

import (
	"encoding/json"
	"strings"

	"clarityos-backend/domain/conversation"
	apperrors "clarityos-backend/pkg/errors"
)

// StructuredResponse is the exact shape the model must return every
// turn. Anything else is a retryable contract violation.
type StructuredResponse struct {
	Question       string                       `json:"question"`
	IsComplete     bool                         `json:"isComplete"`
	Scores         conversation.DimensionScores `json:"scores"`
	DraftStatement string                       `json:"draftStatement,omitempty"`
}

// ParseStructuredResponse decodes and validates a raw model response
// body. All failures return a MODEL_INVALID error so the caller's
// retry policy applies uniformly.
func ParseStructuredResponse(raw []byte) (*StructuredResponse, error) {
	var resp StructuredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewModelInvalidError("not valid JSON").WithCause(err)
	}

	if err := resp.validate(); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (r *StructuredResponse) validate() error {
	if err := r.Scores.Validate(); err != nil {
		return apperrors.NewModelInvalidError(err.Error())
	}

	if strings.TrimSpace(r.DraftStatement) != "" && !r.IsComplete {
		return apperrors.NewModelInvalidError("draftStatement present but isComplete is false")
	}

	if !r.IsComplete && strings.TrimSpace(r.Question) == "" {
		return apperrors.NewModelInvalidError("question empty while isComplete is false")
	}

	if r.IsComplete && strings.TrimSpace(r.DraftStatement) == "" {
		return apperrors.NewModelInvalidError("isComplete is true without a draftStatement")
	}

	return nil
}
