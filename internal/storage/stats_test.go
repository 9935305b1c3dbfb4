package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNextDailyStreak(t *testing.T) {
	today := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	testCases := []struct {
		name      string
		current   int
		lastStudy string
		expected  int
	}{
		{"first session", 0, "", 1},
		{"same day keeps streak", 4, "2024-03-10", 4},
		{"next day extends", 4, "2024-03-09", 5},
		{"gap restarts", 4, "2024-03-07", 1},
		{"garbage date restarts", 4, "yesterday", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, nextDailyStreak(tc.current, tc.lastStudy, today))
		})
	}
}

func TestRecordStudySession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.SyncUser(ctx, "user_stats")
	require.NoError(t, err)
	deck, err := db.CreateDeck(ctx, user.ID, "Biology", "")
	require.NoError(t, err)

	stats, err := db.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Sessions)

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	fixedClock(db, day1)
	record := domain.StudyRecord{
		UserID: user.ID, DeckID: deck.ID, KnownCount: 2, TotalCount: 3,
		Accuracy: 66.67, DurationSec: 20, MaxStreak: 2, Score: 60,
	}
	require.NoError(t, db.RecordStudySession(ctx, record))
	require.NoError(t, db.RecordStudySession(ctx, record))

	stats, err = db.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 6, stats.CardsReviewed)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, "2024-05-01", stats.LastStudy)

	fixedClock(db, day1.Add(24*time.Hour))
	require.NoError(t, db.RecordStudySession(ctx, record))
	stats, err = db.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.LongestStreak)

	fixedClock(db, day1.Add(5*24*time.Hour))
	require.NoError(t, db.RecordStudySession(ctx, record))
	stats, err = db.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.LongestStreak)

	records, err := db.ListStudySessions(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Biology", records[0].DeckName)
	assert.Equal(t, 60, records[0].Score)
}

func TestRecordStudySessionRejectsMissingIDs(t *testing.T) {
	db := newTestDB(t)
	err := db.RecordStudySession(context.Background(), domain.StudyRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordStudySessionConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.SyncUser(ctx, "busy")
	require.NoError(t, err)
	deck, err := db.CreateDeck(ctx, user.ID, "Chemistry", "")
	require.NoError(t, err)

	const n = 8
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return db.RecordStudySession(ctx, domain.StudyRecord{
				UserID: user.ID, DeckID: deck.ID, KnownCount: 1, TotalCount: 2, Score: 10,
			})
		})
	}
	require.NoError(t, g.Wait())

	stats, err := db.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stats.Sessions)
	assert.Equal(t, 2*n, stats.CardsReviewed)
	assert.Equal(t, 10*n, stats.Points)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestForUpdate(t *testing.T) {
	testCases := []struct {
		driver   string
		expected string
	}{
		{DriverPostgres, " FOR UPDATE"},
		{DriverSQLite, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.driver, func(t *testing.T) {
			db := &DB{driver: tc.driver}
			assert.Equal(t, tc.expected, db.forUpdate())
		})
	}
}

func TestLeaderboard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	deckOwner, err := db.SyncUser(ctx, "owner")
	require.NoError(t, err)
	deck, err := db.CreateDeck(ctx, deckOwner.ID, "Shared", "")
	require.NoError(t, err)

	scores := map[string][]int{
		"ada":   {90, 80},
		"bob":   {95},
		"carol": {40, 30, 20},
	}
	ids := map[string]string{}
	for name, sessions := range scores {
		user, err := db.SyncUser(ctx, name)
		require.NoError(t, err)
		ids[name] = user.ID
		for _, score := range sessions {
			require.NoError(t, db.RecordStudySession(ctx, domain.StudyRecord{
				UserID: user.ID, DeckID: deck.ID, TotalCount: 1, Score: score,
			}))
		}
	}
	require.NoError(t, db.UpsertProfile(ctx, &domain.Profile{UserID: ids["ada"], Username: "ada"}))
	require.NoError(t, db.UpsertProfile(ctx, &domain.Profile{UserID: ids["bob"], Username: "bob"}))

	board, err := db.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)

	got := make([]string, len(board))
	for i, e := range board {
		got[i] = fmt.Sprintf("%d:%s:%d", e.Rank, e.Username, e.Points)
	}
	assert.Equal(t, []string{"1:ada:170", "2:bob:95", "3::90"}, got)
	assert.Equal(t, ids["carol"], board[2].UserID)
	assert.Equal(t, 3, board[2].Sessions)

	top, err := db.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "ada", top[0].Username)
}
