package study

import (
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusActive Status = iota
	StatusCompleted
	// StatusEmpty is a session over a deck without cards. Navigation and
	// classification do nothing.
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusEmpty:
		return "empty"
	}
	return "unknown"
}

// Session is the state of one study pass through a shuffled deck.
//
// A Session is not safe for concurrent use; a Runner owns it and serialises
// every intent and tick through its loop.
type Session struct {
	deckID string
	cards  []domain.Flashcard
	opts   Options

	index     int
	flipped   bool
	known     map[string]struct{}
	streak    int
	maxStreak int

	start         time.Time
	pausedAt      time.Time
	pausedTotal   time.Duration
	paused        bool
	elapsed       int
	cardRemaining int
}

func newSession(deckID string, cards []domain.Flashcard, opts Options, now time.Time) *Session {
	return &Session{
		deckID:        deckID,
		cards:         cards,
		opts:          opts,
		known:         make(map[string]struct{}),
		start:         now,
		cardRemaining: opts.CardSeconds,
	}
}

func (s *Session) DeckID() string { return s.deckID }

func (s *Session) Status() Status {
	switch {
	case len(s.cards) == 0:
		return StatusEmpty
	case s.index >= len(s.cards):
		return StatusCompleted
	default:
		return StatusActive
	}
}

// Elapsed returns the whole seconds studied as of the last update.
func (s *Session) Elapsed() int { return s.elapsed }

// sync recomputes the global clock from the wall clock. It is frozen while
// paused and once the session is no longer active.
func (s *Session) sync(now time.Time) {
	if s.paused || s.Status() != StatusActive {
		return
	}
	d := now.Sub(s.start) - s.pausedTotal
	if d < 0 {
		d = 0
	}
	s.elapsed = int(d / time.Second)
}

// Tick advances the per-card countdown by one second. When the countdown
// runs out it is reset and the intent the expiry stands for is returned:
// IntentReveal for an unflipped card, IntentAdvance once the answer shows.
func (s *Session) Tick(now time.Time) (Intent, bool) {
	if s.paused || s.Status() != StatusActive {
		return IntentNone, false
	}
	s.sync(now)

	s.cardRemaining--
	if s.cardRemaining > 0 {
		return IntentNone, false
	}
	s.resetCard()
	if s.flipped {
		return IntentAdvance, true
	}
	return IntentReveal, true
}

// Apply performs an intent. Out of range navigation is clamped and intents
// that do not apply to the current status are ignored. IntentRestart and
// IntentExit concern the whole session and are handled by the Runner.
func (s *Session) Apply(intent Intent, now time.Time) {
	s.sync(now)

	if intent == IntentPause {
		s.togglePause(now)
		return
	}
	if s.Status() != StatusActive {
		return
	}

	switch intent {
	case IntentFlip:
		s.flipped = !s.flipped
		s.resetCard()
	case IntentReveal:
		s.flipped = true
		s.resetCard()
	case IntentNext, IntentAdvance:
		s.next(now)
	case IntentPrev:
		if s.index > 0 {
			s.index--
			s.flipped = false
			s.resetCard()
		}
	case IntentKnown:
		s.classify(true, now)
	case IntentUnknown:
		s.classify(false, now)
	}
}

func (s *Session) togglePause(now time.Time) {
	if s.Status() == StatusCompleted {
		return
	}
	if s.paused {
		s.pausedTotal += now.Sub(s.pausedAt)
		s.paused = false
		return
	}
	s.paused = true
	s.pausedAt = now
}

// classify records the latest verdict for the current card and moves on.
// Revisiting a card with prev and classifying it again counts again.
func (s *Session) classify(known bool, now time.Time) {
	id := s.cards[s.index].ID
	if known {
		s.known[id] = struct{}{}
		s.streak++
		s.maxStreak = max(s.maxStreak, s.streak)
	} else {
		delete(s.known, id)
		s.streak = 0
	}
	s.next(now)
}

func (s *Session) next(now time.Time) {
	s.index = min(s.index+1, len(s.cards))
	s.flipped = false
	s.resetCard()
	if s.Status() == StatusCompleted && s.paused {
		// elapsed already holds the reading taken when the pause began.
		s.pausedTotal += now.Sub(s.pausedAt)
		s.paused = false
	}
}

func (s *Session) resetCard() {
	s.cardRemaining = s.opts.CardSeconds
}

// Snapshot is a read-only view of a session for presentation.
type Snapshot struct {
	ID             string  `json:"id"`
	DeckID         string  `json:"deck_id"`
	Status         string  `json:"status"`
	CardID         string  `json:"card_id,omitempty"`
	Question       string  `json:"question,omitempty"`
	Answer         string  `json:"answer,omitempty"`
	Index          int     `json:"index"`
	Total          int     `json:"total"`
	Flipped        bool    `json:"flipped"`
	KnownCount     int     `json:"known_count"`
	Streak         int     `json:"streak"`
	MaxStreak      int     `json:"max_streak"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	CardRemaining  int     `json:"card_remaining"`
	CardSeconds    int     `json:"card_seconds"`
	Paused         bool    `json:"paused"`
	Completed      bool    `json:"completed"`
	Empty          bool    `json:"empty"`
	Score          int     `json:"score"`
	Accuracy       float64 `json:"accuracy"`
}

// Progress is the share of cards already passed, in percent.
func (s Snapshot) Progress() int {
	if s.Total == 0 {
		return 0
	}
	return s.Index * 100 / s.Total
}

func (s *Session) Snapshot() Snapshot {
	status := s.Status()
	snap := Snapshot{
		DeckID:         s.deckID,
		Status:         status.String(),
		Index:          s.index,
		Total:          len(s.cards),
		Flipped:        s.flipped,
		KnownCount:     len(s.known),
		Streak:         s.streak,
		MaxStreak:      s.maxStreak,
		ElapsedSeconds: s.elapsed,
		CardRemaining:  s.cardRemaining,
		CardSeconds:    s.opts.CardSeconds,
		Paused:         s.paused,
		Completed:      status == StatusCompleted,
		Empty:          status == StatusEmpty,
	}
	if status == StatusActive {
		card := s.cards[s.index]
		snap.CardID = card.ID
		snap.Question = card.Question
		snap.Answer = card.Answer
	}
	if status == StatusCompleted {
		snap.Score = s.score()
		snap.Accuracy = s.accuracy()
	}
	return snap
}

func (s *Session) score() int {
	return Score(s.maxStreak, s.elapsed, len(s.cards), s.opts.TimeBudget)
}

// accuracy is the share of known cards in percent, truncated to two decimals.
func (s *Session) accuracy() float64 {
	if len(s.cards) == 0 {
		return 0
	}
	return float64(len(s.known)*10000/len(s.cards)) / 100
}

// Completion is the summary handed to a CompletionSink when a session ends.
type Completion struct {
	DeckID          string
	UserID          string
	KnownCount      int
	TotalCount      int
	Accuracy        float64
	DurationSeconds int
	MaxStreak       int
	Score           int
}

func (s *Session) Completion() Completion {
	return Completion{
		DeckID:          s.deckID,
		KnownCount:      len(s.known),
		TotalCount:      len(s.cards),
		Accuracy:        s.accuracy(),
		DurationSeconds: s.elapsed,
		MaxStreak:       s.maxStreak,
		Score:           s.score(),
	}
}
