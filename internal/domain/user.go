package domain

import "time"

// User is an application user, keyed by the subject of the identity provider.
type User struct {
	ID         string    `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Profile struct {
	UserID    string    `db:"user_id" json:"-"`
	Username  string    `db:"username" json:"username"`
	FullName  string    `db:"full_name" json:"full_name"`
	Bio       string    `db:"bio" json:"bio"`
	Location  string    `db:"location" json:"location"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Settings holds per-user study preferences.
// SpacedRepetition is stored for the settings page only; nothing schedules reviews from it.
type Settings struct {
	UserID           string    `db:"user_id" json:"-"`
	DarkMode         bool      `db:"dark_mode" json:"dark_mode"`
	DailyGoal        int       `db:"daily_goal" json:"daily_goal"`
	CardSeconds      int       `db:"card_seconds" json:"card_seconds"`
	SpacedRepetition bool      `db:"spaced_repetition" json:"spaced_repetition"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSettings mirrors the values a new user starts with.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:      userID,
		DailyGoal:   20,
		CardSeconds: 30,
	}
}
