package domain

import "time"

// Flashcard is a single question/answer entry belonging to a deck.
type Flashcard struct {
	ID        string    `db:"id" json:"id"`
	DeckID    string    `db:"deck_id" json:"deck_id"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	Hash      string    `db:"hash" json:"-"`
	SourceID  string    `db:"source_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Deck is a named collection of flashcards owned by a user.
type Deck struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	ShareSlug   string    `db:"share_slug" json:"share_slug,omitempty"`
	CardCount   int       `db:"card_count" json:"card_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Source is a local directory or git repository that cards of a deck are imported from.
type Source struct {
	ID          string     `db:"id" json:"id"`
	DeckID      string     `db:"deck_id" json:"deck_id"`
	Path        string     `db:"path" json:"path"`
	Type        string     `db:"type" json:"type"` // "local" or "git"
	LastScanned *time.Time `db:"last_scanned" json:"last_scanned,omitempty"`
}

const (
	SourceLocal = "local"
	SourceGit   = "git"
)
