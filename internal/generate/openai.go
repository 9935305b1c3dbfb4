package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI backed generator.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxCards   int
	MaxRetries int
	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration
}

// OpenAIGenerator asks a chat completion model for a JSON array of cards.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	cfg.MaxCards = cardLimit(cfg.MaxCards)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(clientConfig), cfg: cfg}
}

const systemPrompt = `You write study flashcards. Reply with a JSON array only, no prose.
Each element is an object with "question" and "answer" string fields.
Questions must be answerable from the given text alone. Keep answers short.`

func (g *OpenAIGenerator) Generate(ctx context.Context, text string, n int) ([]domain.Flashcard, error) {
	text = prepareText(text)
	if text == "" {
		return nil, nil
	}
	n = clampCount(n, g.cfg.MaxCards)

	var cards []domain.Flashcard
	err := g.doWithRetry(ctx, func() error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Write %d flashcards from this text:\n\n%s", n, text)},
			},
			Temperature: 0.3,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		parsed, err := parseCardJSON(resp.Choices[0].Message.Content)
		if err != nil {
			return err
		}
		cards = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}
	return cleanCards(cards, n), nil
}

// parseCardJSON reads the model reply, tolerating a fenced code block.
func parseCardJSON(content string) ([]domain.Flashcard, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var raw []generatedCard
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		var wrapped generateResponse
		if err2 := json.Unmarshal([]byte(content), &wrapped); err2 != nil || wrapped.Flashcards == nil {
			return nil, fmt.Errorf("failed to parse model reply: %w", err)
		}
		raw = wrapped.Flashcards
	}
	return lo.Map(raw, func(c generatedCard, _ int) domain.Flashcard {
		return domain.Flashcard{Question: c.Question, Answer: c.Answer}
	}), nil
}

// doWithRetry executes fn with exponential backoff.
func (g *OpenAIGenerator) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == g.cfg.MaxRetries-1 {
			break
		}
		wait := time.Duration(math.Pow(2, float64(attempt))) * g.cfg.RetryBase
		slog.Debug("generation request failed, retrying", "attempt", attempt+1, "wait_time", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
