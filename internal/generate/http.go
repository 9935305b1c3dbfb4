package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/samber/lo"
)

// HTTPGenerator calls a card generation backend that accepts
// {"text", "num_questions"} and answers {"flashcards": [...], "error"}.
type HTTPGenerator struct {
	url      string
	client   *http.Client
	maxCards int
}

func NewHTTPGenerator(url string, maxCards int, client *http.Client) *HTTPGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPGenerator{
		url:      strings.TrimRight(url, "/") + "/generate",
		client:   client,
		maxCards: cardLimit(maxCards),
	}
}

type generateRequest struct {
	Text         string `json:"text"`
	NumQuestions int    `json:"num_questions"`
}

type generatedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type generateResponse struct {
	Flashcards []generatedCard `json:"flashcards"`
	Error      string          `json:"error"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, text string, n int) ([]domain.Flashcard, error) {
	text = prepareText(text)
	if text == "" {
		return nil, nil
	}
	n = clampCount(n, g.maxCards)

	body, err := json.Marshal(generateRequest{Text: text, NumQuestions: n})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call generator: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode generator response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("generator error: %s", out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	cards := lo.Map(out.Flashcards, func(c generatedCard, _ int) domain.Flashcard {
		return domain.Flashcard{Question: c.Question, Answer: c.Answer}
	})
	return cleanCards(cards, n), nil
}
