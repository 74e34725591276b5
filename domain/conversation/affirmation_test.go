package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordDetector_IsAffirmation(t *testing.T) {
	detector := NewKeywordDetector()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain yes", "yes", true},
		{"yes with punctuation", "Yes!", true},
		{"yeah", "yeah that's what I meant", true},
		{"perfect", "Perfect.", true},
		{"phrase looks good", "this looks good to me", true},
		{"phrase love it", "I love it", true},
		{"phrase feels right", "honestly that feels right", true},
		{"contraction that's right", "that's right", true},
		{"mixed case", "EXACTLY", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"rejection", "no, not quite", false},
		{"request for change", "can you make it shorter", false},
		{"token inside a word", "eyesight is important to us", false},
		{"question about the draft", "what does belief mean here", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.IsAffirmation(tt.text))
		})
	}
}
