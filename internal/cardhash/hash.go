package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Normalize joins the question and answer after lowercasing, trimming and
// normalizing line endings of each part.
func Normalize(card domain.Flashcard) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// The newline keeps "question" + "answer" from colliding with "questionanswer".
	return normalizePart(card.Question) + "\n" + normalizePart(card.Answer)
}

// Hash returns the hex SHA-256 of the normalized card content. Two cards that
// differ only in case or surrounding whitespace share a hash.
func Hash(card domain.Flashcard) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
