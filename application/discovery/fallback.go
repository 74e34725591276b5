package discovery

import "clarityos-backend/domain/cards"

// Hand-authored fallback questions, one per card, shown when model
// retries are exhausted. The conversation never dead-ends on a bad
// model response; the turn simply does not advance.
var fallbackQuestions = map[string]string{
	"purpose":            "Let's keep it simple: what made you start this business in the first place?",
	"positioning":        "When a customer compares you to the obvious alternative, what do you do differently?",
	"personality":        "If your brand walked into a room, how would people describe it after five minutes?",
	"product-market-fit": "Tell me about the last customer who really needed what you sell. What was going on for them?",
	"perception":         "How do you want customers to describe your business to a friend?",
	"presentation":       "What's the first thing a stranger sees or hears from your brand, and what should it say?",
	"proof":              "What's one result or story that shows your work actually delivers?",
}

// FallbackQuestion returns the card's fallback question, defaulting to
// the purpose card for unknown slugs.
func FallbackQuestion(cardSlug string) string {
	if q, ok := fallbackQuestions[cardSlug]; ok {
		return q
	}
	return fallbackQuestions[cards.DefaultSlug]
}
