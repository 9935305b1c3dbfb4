package study

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// CardFetcher lists the cards of a deck. A missing deck is reported as
// domain.ErrDeckNotFound.
type CardFetcher interface {
	ListFlashcards(ctx context.Context, deckID string) ([]domain.Flashcard, error)
}

// Options configure a session. Zero values fall back to the defaults.
type Options struct {
	CardSeconds int
	TimeBudget  int
}

func (o Options) withDefaults() Options {
	if o.CardSeconds <= 0 {
		o.CardSeconds = DefaultCardSeconds
	}
	if o.TimeBudget == 0 {
		o.TimeBudget = DefaultTimeBudget
	}
	return o
}

// Loader builds freshly shuffled sessions from a card store.
type Loader struct {
	store CardFetcher
	clock Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLoader creates a Loader. A nil clock uses SystemClock and a nil rng is
// seeded from the current time.
func NewLoader(store CardFetcher, clock Clock, rng *rand.Rand) *Loader {
	if clock == nil {
		clock = SystemClock
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	return &Loader{store: store, clock: clock, rng: rng}
}

// Load fetches the cards of a deck and returns a new session over a uniform
// shuffle of them. A deck without cards yields an empty session, not an error.
func (l *Loader) Load(ctx context.Context, deckID string, opts Options) (*Session, error) {
	cards, err := l.store.ListFlashcards(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards for deck %s: %w", deckID, err)
	}

	shuffled := make([]domain.Flashcard, len(cards))
	copy(shuffled, cards)
	l.mu.Lock()
	l.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	l.mu.Unlock()

	return newSession(deckID, shuffled, opts.withDefaults(), l.clock.Now()), nil
}

// Load is a one-off load using the system clock.
func Load(ctx context.Context, store CardFetcher, deckID string, opts Options) (*Session, error) {
	return NewLoader(store, nil, nil).Load(ctx, deckID, opts)
}
