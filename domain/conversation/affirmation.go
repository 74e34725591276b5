package conversation

import "strings"

// AffirmationDetector decides whether a user utterance explicitly
// approves the draft statement. Only explicit affirmation advances the
// conversation to complete.
//
// The default implementation is an English keyword heuristic and is
// known to misfire on indirect or non-English phrasing. It is kept
// behind this interface so a model-driven yes/no classification turn
// can be substituted without touching the engine.
type AffirmationDetector interface {
	IsAffirmation(text string) bool
}

// KeywordDetector matches affirmative tokens and phrases,
// case-insensitively.
type KeywordDetector struct {
	tokens  map[string]struct{}
	phrases []string
}

// NewKeywordDetector returns the default keyword-based detector.
func NewKeywordDetector() *KeywordDetector {
	tokens := []string{
		"yes", "yeah", "yep", "yup", "perfect", "correct", "exactly", "absolutely",
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}

	return &KeywordDetector{
		tokens: set,
		phrases: []string{
			"looks good",
			"sounds good",
			"sounds right",
			"that's right",
			"thats right",
			"that's it",
			"love it",
			"love this",
			"feels right",
			"that works",
			"i like it",
		},
	}
}

// IsAffirmation reports whether text contains affirmative language.
func (d *KeywordDetector) IsAffirmation(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}

	for _, phrase := range d.phrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}

	for _, word := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	}) {
		if _, ok := d.tokens[word]; ok {
			return true
		}
	}

	return false
}
