package web

import (
	"context"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
)

// StatsSink stores completed study sessions and rolls them into user stats.
type StatsSink struct {
	DB *storage.DB
}

func (s StatsSink) RecordCompletion(ctx context.Context, c study.Completion) error {
	return s.DB.RecordStudySession(ctx, domain.StudyRecord{
		UserID:      c.UserID,
		DeckID:      c.DeckID,
		KnownCount:  c.KnownCount,
		TotalCount:  c.TotalCount,
		Accuracy:    c.Accuracy,
		DurationSec: c.DurationSeconds,
		MaxStreak:   c.MaxStreak,
		Score:       c.Score,
	})
}
