package study

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock { return &fakeClock{now: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time), stop: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves time without firing tickers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Tick moves time by one second and delivers a tick to every live ticker,
// returning once each tick was received or its ticker stopped.
func (c *fakeClock) Tick() {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		select {
		case t.c <- now:
		case <-t.stop:
		}
	}
}

func (c *fakeClock) liveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped() {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	c    chan time.Time
	stop chan struct{}
	once sync.Once
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.once.Do(func() { close(t.stop) }) }

func (t *fakeTicker) stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

type fakeStore struct {
	mu    sync.Mutex
	decks map[string][]domain.Flashcard
	err   error
}

func (s *fakeStore) ListFlashcards(_ context.Context, deckID string) ([]domain.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cards, ok := s.decks[deckID]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	return cards, nil
}

func (s *fakeStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type fakeSink struct {
	got chan Completion
	err error
}

func newFakeSink() *fakeSink { return &fakeSink{got: make(chan Completion, 4)} }

func (s *fakeSink) RecordCompletion(_ context.Context, c Completion) error {
	s.got <- c
	return s.err
}

func makeCards(n int) []domain.Flashcard {
	cards := make([]domain.Flashcard, n)
	for i := range cards {
		cards[i] = domain.Flashcard{
			ID:       fmt.Sprintf("card-%d", i),
			DeckID:   "deck",
			Question: fmt.Sprintf("Q%d?", i),
			Answer:   fmt.Sprintf("A%d", i),
		}
	}
	return cards
}

func testSession(n int) *Session {
	return newSession("deck", makeCards(n), Options{}.withDefaults(), t0)
}
