package study

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderShufflesAPermutation(t *testing.T) {
	cards := makeCards(10)
	store := &fakeStore{decks: map[string][]domain.Flashcard{"deck": cards}}
	loader := NewLoader(store, newFakeClock(), rand.New(rand.NewPCG(7, 7)))

	s, err := loader.Load(context.Background(), "deck", Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, cards, s.cards)
	assert.Equal(t, "card-0", cards[0].ID, "the fetched slice is not reordered")

	snap := s.Snapshot()
	assert.Equal(t, StatusActive.String(), snap.Status)
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.Flipped)
	assert.Equal(t, DefaultCardSeconds, snap.CardRemaining)
	assert.Equal(t, DefaultTimeBudget, s.opts.TimeBudget)
	assert.Equal(t, t0, s.start)
}

func TestLoaderReachesDifferentOrders(t *testing.T) {
	store := &fakeStore{decks: map[string][]domain.Flashcard{"deck": makeCards(3)}}
	loader := NewLoader(store, newFakeClock(), rand.New(rand.NewPCG(1, 1)))

	orders := map[string]bool{}
	for i := 0; i < 200; i++ {
		s, err := loader.Load(context.Background(), "deck", Options{})
		require.NoError(t, err)
		key := ""
		for _, c := range s.cards {
			key += c.ID + ","
		}
		orders[key] = true
	}
	assert.Len(t, orders, 6, "every permutation of three cards should appear")
}

func TestLoaderEmptyDeck(t *testing.T) {
	store := &fakeStore{decks: map[string][]domain.Flashcard{"empty": {}}}
	s, err := NewLoader(store, newFakeClock(), nil).Load(context.Background(), "empty", Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, s.Status())
}

func TestLoaderErrors(t *testing.T) {
	store := &fakeStore{decks: map[string][]domain.Flashcard{}}
	_, err := Load(context.Background(), store, "missing", Options{})
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)

	boom := errors.New("connection reset")
	store.fail(boom)
	_, err = Load(context.Background(), store, "missing", Options{})
	assert.ErrorIs(t, err, boom)
}
