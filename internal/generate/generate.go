// Package generate turns pasted study material into flashcards using an
// external text generation service.
package generate

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/conorfennell/studydeck/internal/domain"
)

const (
	DefaultMaxCards = 10
	// DefaultCount is the number of cards asked for when a request names none.
	DefaultCount  = 5
	maxTextLength = 20000
)

// ErrDisabled is returned when no generator is configured.
var ErrDisabled = errors.New("card generation is disabled")

// Generator creates up to n question/answer cards from text.
type Generator interface {
	Generate(ctx context.Context, text string, n int) ([]domain.Flashcard, error)
}

// Disabled is the Generator used when generation is switched off.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, int) ([]domain.Flashcard, error) {
	return nil, ErrDisabled
}

func cardLimit(limit int) int {
	if limit <= 0 {
		return DefaultMaxCards
	}
	return limit
}

// clampCount keeps a requested card count within 1..limit.
func clampCount(n, limit int) int {
	return min(max(n, 1), cardLimit(limit))
}

func prepareText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxTextLength {
		return text
	}
	cut := maxTextLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// cleanCards drops cards missing a question or answer and trims the rest.
func cleanCards(cards []domain.Flashcard, limit int) []domain.Flashcard {
	out := make([]domain.Flashcard, 0, len(cards))
	for _, c := range cards {
		q, a := strings.TrimSpace(c.Question), strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			continue
		}
		out = append(out, domain.Flashcard{Question: q, Answer: a})
		if len(out) == limit {
			break
		}
	}
	return out
}
