package study

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFixture struct {
	clock  *fakeClock
	store  *fakeStore
	sink   *fakeSink
	runner *Runner
}

func startTestRunner(t *testing.T, n int, opts Options, tweaks ...func(*RunnerConfig)) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		clock: newFakeClock(),
		store: &fakeStore{decks: map[string][]domain.Flashcard{"deck": makeCards(n)}},
		sink:  newFakeSink(),
	}
	loader := NewLoader(f.store, f.clock, rand.New(rand.NewPCG(3, 4)))
	session, err := loader.Load(context.Background(), "deck", opts)
	require.NoError(t, err)

	cfg := RunnerConfig{
		ID:      "sid",
		UserID:  "user",
		Options: opts,
		Loader:  loader,
		Sink:    f.sink,
		Clock:   f.clock,
	}
	for _, tweak := range tweaks {
		tweak(&cfg)
	}
	f.runner = StartRunner(context.Background(), session, cfg)
	t.Cleanup(f.runner.Close)

	// The loop has created its ticker once it answers.
	_, err = f.runner.Snapshot(context.Background())
	require.NoError(t, err)
	return f
}

func (f *runnerFixture) dispatch(t *testing.T, intent Intent) Snapshot {
	t.Helper()
	snap, err := f.runner.Dispatch(context.Background(), intent)
	require.NoError(t, err)
	return snap
}

func TestRunnerTimerDrivesSession(t *testing.T) {
	f := startTestRunner(t, 2, Options{CardSeconds: 2})

	f.clock.Tick()
	f.clock.Tick()
	snap := f.dispatch(t, IntentNone)
	assert.True(t, snap.Flipped)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 2, snap.ElapsedSeconds)
	assert.Equal(t, "sid", snap.ID)

	f.clock.Tick()
	f.clock.Tick()
	snap = f.dispatch(t, IntentNone)
	assert.False(t, snap.Flipped)
	assert.Equal(t, 1, snap.Index)
}

func TestRunnerCompletionStopsClocksAndReports(t *testing.T) {
	f := startTestRunner(t, 3, Options{})
	require.Equal(t, 1, f.clock.liveTickers())

	f.clock.Advance(30 * time.Second)
	f.dispatch(t, IntentKnown)
	f.dispatch(t, IntentKnown)
	snap := f.dispatch(t, IntentKnown)
	require.True(t, snap.Completed)
	assert.Equal(t, 97, snap.Score)
	assert.Equal(t, 0, f.clock.liveTickers())

	select {
	case c := <-f.sink.got:
		assert.Equal(t, Completion{
			DeckID: "deck", UserID: "user", KnownCount: 3, TotalCount: 3,
			Accuracy: 100, DurationSeconds: 30, MaxStreak: 3, Score: 97,
		}, c)
	case <-time.After(time.Second):
		t.Fatal("completion was not delivered")
	}

	f.clock.Advance(time.Minute)
	after := f.dispatch(t, IntentNone)
	assert.Equal(t, 30, after.ElapsedSeconds)

	// Further intents do not complete the session again.
	f.dispatch(t, IntentNext)
	select {
	case c := <-f.sink.got:
		t.Fatalf("unexpected second completion %+v", c)
	default:
	}
}

func TestRunnerSinkFailureKeepsSnapshot(t *testing.T) {
	f := startTestRunner(t, 1, Options{})
	f.sink.err = errors.New("database is locked")

	snap := f.dispatch(t, IntentUnknown)
	require.True(t, snap.Completed)
	<-f.sink.got

	again := f.dispatch(t, IntentNone)
	assert.Equal(t, snap.Score, again.Score)
	assert.True(t, again.Completed)
}

func TestRunnerRestart(t *testing.T) {
	f := startTestRunner(t, 10, Options{})

	f.clock.Advance(12 * time.Second)
	f.dispatch(t, IntentKnown)
	f.dispatch(t, IntentKnown)
	f.dispatch(t, IntentUnknown)
	f.dispatch(t, IntentPause)
	before := f.dispatch(t, IntentNone)
	require.Equal(t, 3, before.Index)
	require.True(t, before.Paused)

	snap := f.dispatch(t, IntentRestart)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.Streak)
	assert.Equal(t, 0, snap.MaxStreak)
	assert.Equal(t, 0, snap.KnownCount)
	assert.Equal(t, 0, snap.ElapsedSeconds)
	assert.False(t, snap.Paused)
	assert.Equal(t, 1, f.clock.liveTickers())

	f.clock.Tick()
	assert.Equal(t, 1, f.dispatch(t, IntentNone).ElapsedSeconds)
}

func TestRunnerRestartFailureKeepsSession(t *testing.T) {
	f := startTestRunner(t, 4, Options{})
	f.dispatch(t, IntentKnown)

	f.store.fail(errors.New("store offline"))
	snap, err := f.runner.Dispatch(context.Background(), IntentRestart)
	require.ErrorIs(t, err, ErrRestart)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 1, snap.Streak)

	assert.Equal(t, 1, f.dispatch(t, IntentNone).Index)
}

func TestRunnerRestartAfterCompletion(t *testing.T) {
	f := startTestRunner(t, 1, Options{})
	f.dispatch(t, IntentKnown)
	<-f.sink.got
	require.Equal(t, 0, f.clock.liveTickers())

	snap := f.dispatch(t, IntentRestart)
	assert.False(t, snap.Completed)
	assert.Equal(t, 1, f.clock.liveTickers())

	f.dispatch(t, IntentKnown)
	select {
	case <-f.sink.got:
	case <-time.After(time.Second):
		t.Fatal("second completion was not delivered")
	}
}

func TestRunnerExit(t *testing.T) {
	f := startTestRunner(t, 2, Options{})
	f.dispatch(t, IntentKnown)

	snap := f.dispatch(t, IntentExit)
	assert.Equal(t, 1, snap.Index)

	<-f.runner.Done()
	assert.Equal(t, 0, f.clock.liveTickers())
	_, err := f.runner.Dispatch(context.Background(), IntentNone)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunnerCloseStopsLoop(t *testing.T) {
	f := startTestRunner(t, 2, Options{})
	f.runner.Close()

	_, err := f.runner.Dispatch(context.Background(), IntentFlip)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, f.clock.liveTickers())
}

func TestRunnerEmptySessionHasNoTicker(t *testing.T) {
	f := startTestRunner(t, 0, Options{})
	assert.Equal(t, 0, f.clock.liveTickers())
	snap := f.dispatch(t, IntentKnown)
	assert.True(t, snap.Empty)
}

func noHeartbeat(cfg *RunnerConfig) { cfg.HeartbeatTimeout = -1 }

func TestRunnerTimerOnlySessionIsNotRecorded(t *testing.T) {
	f := startTestRunner(t, 3, Options{}, noHeartbeat)

	// Each card is revealed after 30s and advanced after another 30s.
	for i := 0; i < 180; i++ {
		f.clock.Tick()
	}
	snap := f.dispatch(t, IntentNone)
	require.True(t, snap.Completed)
	assert.Equal(t, 0, f.clock.liveTickers())
	assert.Empty(t, f.sink.got)
}

func TestRunnerRecordsTimerFinishAfterInput(t *testing.T) {
	f := startTestRunner(t, 3, Options{}, noHeartbeat)
	f.dispatch(t, IntentKnown)

	for i := 0; i < 120; i++ {
		f.clock.Tick()
	}
	select {
	case c := <-f.sink.got:
		assert.Equal(t, 1, c.KnownCount)
		assert.Equal(t, 3, c.TotalCount)
	case <-time.After(time.Second):
		t.Fatal("completion was not delivered")
	}
}

func TestRunnerPausesWithoutClientActivity(t *testing.T) {
	f := startTestRunner(t, 3, Options{})

	// The last request was at t0; the eleventh tick is past the heartbeat.
	for i := 0; i < 11; i++ {
		f.clock.Tick()
	}
	// Time passing with nobody watching changes nothing.
	for i := 0; i < 300; i++ {
		f.clock.Tick()
	}
	assert.Equal(t, 0, f.clock.liveTickers())
	assert.Empty(t, f.sink.got)

	snap := f.dispatch(t, IntentNone)
	assert.False(t, snap.Paused)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 11, snap.ElapsedSeconds)
	assert.Equal(t, 20, snap.CardRemaining)
	assert.Equal(t, 1, f.clock.liveTickers())

	f.clock.Tick()
	assert.Equal(t, 12, f.dispatch(t, IntentNone).ElapsedSeconds)
}

func TestRunnerManualPauseSurvivesHeartbeat(t *testing.T) {
	f := startTestRunner(t, 2, Options{})
	f.dispatch(t, IntentPause)

	for i := 0; i < 30; i++ {
		f.clock.Tick()
	}
	snap := f.dispatch(t, IntentNone)
	assert.True(t, snap.Paused)
	assert.Equal(t, 0, snap.ElapsedSeconds)
}
