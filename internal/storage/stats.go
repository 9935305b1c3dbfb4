package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const dateLayout = "2006-01-02"

// RecordStudySession stores a completed session and rolls it into the
// user's aggregate stats and daily streak. The session score is added to
// the user's leaderboard points.
func (db *DB) RecordStudySession(ctx context.Context, rec domain.StudyRecord) error {
	if rec.UserID == "" || rec.DeckID == "" {
		return fmt.Errorf("record study session: %w", domain.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := db.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, db.q(`
			INSERT INTO study_sessions
				(id, user_id, deck_id, known_count, total_count, accuracy, duration_sec, max_streak, score, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), rec.ID, rec.UserID, rec.DeckID, rec.KnownCount, rec.TotalCount, rec.Accuracy,
			rec.DurationSec, rec.MaxStreak, rec.Score, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record study session: %w", err)
		}

		var prev struct {
			CurrentStreak int    `db:"current_streak"`
			LongestStreak int    `db:"longest_streak"`
			LastStudy     string `db:"last_study"`
		}
		err = tx.GetContext(ctx, &prev, db.q(`
			SELECT current_streak, longest_streak, last_study FROM user_stats WHERE user_id = ?
		`+db.forUpdate()), rec.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read stats for user %s: %w", rec.UserID, err)
		}
		today := rec.CreatedAt.UTC()
		streak := nextDailyStreak(prev.CurrentStreak, prev.LastStudy, today)

		// Counters are added up in SQL so concurrent completions all count.
		_, err = tx.ExecContext(ctx, db.q(`
			INSERT INTO user_stats
				(user_id, sessions, cards_reviewed, points, current_streak, longest_streak, last_study, updated_at)
			VALUES (?, 1, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				sessions = user_stats.sessions + 1,
				cards_reviewed = user_stats.cards_reviewed + excluded.cards_reviewed,
				points = user_stats.points + excluded.points,
				current_streak = excluded.current_streak,
				longest_streak = excluded.longest_streak,
				last_study = excluded.last_study,
				updated_at = excluded.updated_at
		`), rec.UserID, rec.TotalCount, max(rec.Score, 0), streak,
			max(prev.LongestStreak, streak), today.Format(dateLayout), now)
		if err != nil {
			return fmt.Errorf("failed to update stats for user %s: %w", rec.UserID, err)
		}
		return nil
	})
}

// nextDailyStreak advances a day streak: studying again on the same day keeps
// it, the following day extends it, and any longer gap restarts it at 1.
func nextDailyStreak(current int, lastStudy string, today time.Time) int {
	if lastStudy == "" {
		return 1
	}
	last, err := time.Parse(dateLayout, lastStudy)
	if err != nil {
		return 1
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch diff := int(day.Sub(last).Hours() / 24); {
	case diff <= 0:
		return max(current, 1)
	case diff == 1:
		return current + 1
	default:
		return 1
	}
}

// GetUserStats returns the aggregate stats of a user; a user who never
// finished a session gets zero values.
func (db *DB) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	return getUserStats(ctx, db.conn, db.q, userID)
}

func getUserStats(ctx context.Context, q sqlx.QueryerContext, rebind func(string) string, userID string) (*domain.UserStats, error) {
	var stats domain.UserStats
	err := sqlx.GetContext(ctx, q, &stats, rebind(`
		SELECT user_id, sessions, cards_reviewed, current_streak, longest_streak, points, last_study, updated_at
		FROM user_stats WHERE user_id = ?
	`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for user %s: %w", userID, err)
	}
	return &stats, nil
}

// ListStudySessions returns a user's completed sessions, newest first.
func (db *DB) ListStudySessions(ctx context.Context, userID string, limit int) ([]domain.StudyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	records := []domain.StudyRecord{}
	err := db.conn.SelectContext(ctx, &records, db.q(`
		SELECT s.id, s.user_id, s.deck_id, COALESCE(d.name, '') AS deck_name,
			s.known_count, s.total_count, s.accuracy, s.duration_sec, s.max_streak, s.score, s.created_at
		FROM study_sessions s
		LEFT JOIN decks d ON d.id = s.deck_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC, s.id
		LIMIT ?
	`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list study sessions for user %s: %w", userID, err)
	}
	return records, nil
}

// Leaderboard ranks users by points, most first. Users without a username
// are listed with an empty one.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries := []domain.LeaderboardEntry{}
	err := db.conn.SelectContext(ctx, &entries, db.q(`
		SELECT s.user_id, COALESCE(p.username, '') AS username, s.points, s.sessions, s.current_streak
		FROM user_stats s
		LEFT JOIN profiles p ON p.user_id = s.user_id
		ORDER BY s.points DESC, s.sessions DESC, s.user_id
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
