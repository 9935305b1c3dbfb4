package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
)

// GetProfile returns the profile of a user, inserting an empty one on first access.
func (db *DB) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO profiles (user_id, updated_at) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`), userID, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create profile for user %s: %w", userID, err)
	}

	var p domain.Profile
	err = db.conn.GetContext(ctx, &p, db.q(`
		SELECT user_id, username, full_name, bio, location, image_url, updated_at
		FROM profiles WHERE user_id = ?
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return &p, nil
}

// UpsertProfile saves a profile. A username held by another user is rejected
// with domain.ErrUsernameTaken.
func (db *DB) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	if p.Username != "" {
		free, err := db.UsernameAvailable(ctx, p.Username, p.UserID)
		if err != nil {
			return err
		}
		if !free {
			return domain.ErrUsernameTaken
		}
	}

	p.UpdatedAt = db.now()
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO profiles (user_id, username, full_name, bio, location, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			bio = excluded.bio,
			location = excluded.location,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`), p.UserID, p.Username, p.FullName, p.Bio, p.Location, p.ImageURL, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", p.UserID, err)
	}
	return nil
}

// UsernameAvailable reports whether username is unused or already owned by userID.
func (db *DB) UsernameAvailable(ctx context.Context, username, userID string) (bool, error) {
	var owner string
	err := db.conn.GetContext(ctx, &owner, db.q(`SELECT user_id FROM profiles WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username %s: %w", username, err)
	}
	return owner == userID, nil
}

// GetSettings returns the study settings of a user, inserting defaults on first access.
func (db *DB) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	def := domain.DefaultSettings(userID)
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO settings (user_id, dark_mode, daily_goal, card_seconds, spaced_repetition, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`), userID, def.DarkMode, def.DailyGoal, def.CardSeconds, def.SpacedRepetition, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create settings for user %s: %w", userID, err)
	}

	var s domain.Settings
	err = db.conn.GetContext(ctx, &s, db.q(`
		SELECT user_id, dark_mode, daily_goal, card_seconds, spaced_repetition, updated_at
		FROM settings WHERE user_id = ?
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings for user %s: %w", userID, err)
	}
	return &s, nil
}

// UpdateSettings saves the study settings of a user.
func (db *DB) UpdateSettings(ctx context.Context, s *domain.Settings) error {
	s.UpdatedAt = db.now()
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO settings (user_id, dark_mode, daily_goal, card_seconds, spaced_repetition, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			dark_mode = excluded.dark_mode,
			daily_goal = excluded.daily_goal,
			card_seconds = excluded.card_seconds,
			spaced_repetition = excluded.spaced_repetition,
			updated_at = excluded.updated_at
	`), s.UserID, s.DarkMode, s.DailyGoal, s.CardSeconds, s.SpacedRepetition, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update settings for user %s: %w", s.UserID, err)
	}
	return nil
}
