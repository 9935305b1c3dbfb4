package domain

import "time"

// StudyRecord is the summary of one completed study session.
type StudyRecord struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DeckID      string    `db:"deck_id" json:"deck_id"`
	DeckName    string    `db:"deck_name" json:"deck_name,omitempty"`
	KnownCount  int       `db:"known_count" json:"known_count"`
	TotalCount  int       `db:"total_count" json:"total_count"`
	Accuracy    float64   `db:"accuracy" json:"accuracy"`
	DurationSec int       `db:"duration_sec" json:"duration_sec"`
	MaxStreak   int       `db:"max_streak" json:"max_streak"`
	Score       int       `db:"score" json:"score"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserStats aggregates study activity across sessions.
// LastStudy is a UTC calendar date (YYYY-MM-DD), empty before the first session.
type UserStats struct {
	UserID        string    `db:"user_id" json:"-"`
	Sessions      int       `db:"sessions" json:"sessions"`
	CardsReviewed int       `db:"cards_reviewed" json:"cards_reviewed"`
	CurrentStreak int       `db:"current_streak" json:"current_streak"`
	LongestStreak int       `db:"longest_streak" json:"longest_streak"`
	Points        int       `db:"points" json:"points"`
	LastStudy     string    `db:"last_study" json:"last_study"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// LeaderboardEntry ranks a user by the points earned across sessions.
type LeaderboardEntry struct {
	Rank          int    `db:"-" json:"rank"`
	UserID        string `db:"user_id" json:"-"`
	Username      string `db:"username" json:"username"`
	Points        int    `db:"points" json:"points"`
	Sessions      int    `db:"sessions" json:"sessions"`
	CurrentStreak int    `db:"current_streak" json:"current_streak"`
}
