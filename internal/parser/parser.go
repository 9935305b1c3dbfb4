package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a markdown file and extracts all cards.
func ParseFile(path string) ([]domain.Flashcard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse extracts cards from Q:/A: blocks. A card ends at a "---" line, at the
// next Q: line, or at end of input. C: blocks are author notes and are skipped.
// Cards without both a question and an answer are dropped.
func Parse(r io.Reader) ([]domain.Flashcard, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Flashcard
	var current domain.Flashcard
	var block []string
	currentState := seeking

	flushBlock := func() {
		content := strings.TrimRight(strings.Join(block, "\n"), "\n")
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" && current.Answer != "" {
			cards = append(cards, current)
		}
		current = domain.Flashcard{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishCard()
			continue
		}

		var prefix string
		var next state
		switch {
		case strings.HasPrefix(line, questionPrefix):
			prefix, next = questionPrefix, readingQuestion
		case strings.HasPrefix(line, answerPrefix):
			prefix, next = answerPrefix, readingAnswer
		case strings.HasPrefix(line, contextPrefix):
			prefix, next = contextPrefix, readingContext
		}

		if prefix == "" {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingQuestion && currentState != seeking {
			finishCard()
		} else {
			flushBlock()
		}
		currentState = next
		block = append(block, strings.TrimPrefix(line[len(prefix):], " "))
	}

	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}
