package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

var (
	// ErrClosed is returned by Dispatch once a runner has shut down.
	ErrClosed = errors.New("study session closed")
	// ErrRestart wraps a failed reload. The running session is left as it was.
	ErrRestart  = errors.New("study session restart failed")
	errNoLoader = errors.New("study session cannot be restarted without a loader")
)

// DefaultHeartbeatTimeout is how long a session keeps its clocks running
// without any request from its client.
const DefaultHeartbeatTimeout = 10 * time.Second

// CompletionSink receives the summary of every completed session.
type CompletionSink interface {
	RecordCompletion(ctx context.Context, c Completion) error
}

// RunnerConfig holds the collaborators of a Runner.
type RunnerConfig struct {
	ID     string
	UserID string
	// Options are reused when the session is restarted.
	Options Options
	Loader  *Loader
	Sink    CompletionSink
	Clock   Clock
	Logger  *slog.Logger
	// SinkTimeout bounds a single completion delivery. Defaults to 5s.
	SinkTimeout time.Duration
	// HeartbeatTimeout pauses the session when no request arrived for this
	// long; the next request resumes it. Zero uses DefaultHeartbeatTimeout,
	// a negative value never pauses.
	HeartbeatTimeout time.Duration
}

type request struct {
	intent Intent
	reply  chan result
}

type result struct {
	snap Snapshot
	err  error
}

// Runner owns a Session and drives it from one goroutine: the one second
// ticker, dispatched intents and snapshot requests all pass through its loop.
type Runner struct {
	cfg      RunnerConfig
	session  *Session
	requests chan request
	done     chan struct{}
	cancel   context.CancelFunc

	// lastActive is the unix nano time of the last dispatched intent.
	lastActive atomic.Int64

	// Owned by the loop goroutine.
	autoPaused bool
	interacted bool
}

// StartRunner starts the loop for a loaded session. The runner stops when ctx
// is cancelled, Close is called or IntentExit is dispatched.
func StartRunner(ctx context.Context, session *Session, cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 5 * time.Second
	}
	if cfg.HeartbeatTimeout == 0 {
		cfg.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	cfg.Logger = cfg.Logger.With("session_id", cfg.ID, "deck_id", session.DeckID())

	ctx, cancel := context.WithCancel(ctx)
	r := &Runner{
		cfg:      cfg,
		session:  session,
		requests: make(chan request),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	r.touch()
	go r.loop(ctx)
	return r
}

func (r *Runner) ID() string     { return r.cfg.ID }
func (r *Runner) UserID() string { return r.cfg.UserID }

// Done is closed when the loop has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

// LastActive reports when an intent was last dispatched.
func (r *Runner) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Runner) touch() {
	r.lastActive.Store(r.cfg.Clock.Now().UnixNano())
}

// Dispatch hands an intent to the loop and returns the resulting snapshot.
// IntentNone only reads the current state.
func (r *Runner) Dispatch(ctx context.Context, intent Intent) (Snapshot, error) {
	req := request{intent: intent, reply: make(chan result, 1)}
	select {
	case r.requests <- req:
	case <-r.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	// A received request is always answered.
	select {
	case res := <-req.reply:
		return res.snap, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Snapshot returns the current state.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	return r.Dispatch(ctx, IntentNone)
}

// Close stops the loop and waits for it to exit.
func (r *Runner) Close() {
	r.cancel()
	<-r.done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	log := r.cfg.Logger

	var ticker Ticker
	var tickC <-chan time.Time
	startTicker := func() {
		if ticker == nil {
			ticker = r.cfg.Clock.NewTicker(time.Second)
			tickC = ticker.C()
		}
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer stopTicker()

	if r.session.Status() == StatusActive {
		startTicker()
	}
	log.Debug("study session started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("study session stopped", "reason", ctx.Err())
			return

		case now := <-tickC:
			if r.unattended(now) {
				r.session.Apply(IntentPause, now)
				r.autoPaused = true
				stopTicker()
				log.Info("study session paused without client activity", "idle", now.Sub(r.LastActive()))
				continue
			}
			if intent, ok := r.session.Tick(now); ok {
				r.apply(intent, now)
			}
			if r.session.Status() != StatusActive {
				stopTicker()
			}

		case req := <-r.requests:
			r.touch()
			now := r.cfg.Clock.Now()
			if r.autoPaused {
				// The client is back. A pause toggle of its own resumes too.
				r.autoPaused = false
				if req.intent != IntentPause {
					r.session.Apply(IntentPause, now)
				}
				if r.session.Status() == StatusActive {
					startTicker()
				}
			}

			switch req.intent {
			case IntentExit:
				r.session.Apply(IntentNone, now)
				req.reply <- result{snap: r.snapshot()}
				log.Debug("study session exited")
				return

			case IntentRestart:
				fresh, err := r.reload(ctx)
				if err != nil {
					log.Warn("failed to restart study session", "error", err)
					req.reply <- result{snap: r.snapshot(), err: err}
					continue
				}
				r.session = fresh
				r.interacted = false
				stopTicker()
				if fresh.Status() == StatusActive {
					startTicker()
				}
				log.Debug("study session restarted", "cards", fresh.Snapshot().Total)

			default:
				if req.intent != IntentNone {
					r.interacted = true
				}
				r.apply(req.intent, now)
				if r.session.Status() != StatusActive {
					stopTicker()
				}
			}
			req.reply <- result{snap: r.snapshot()}
		}
	}
}

func (r *Runner) reload(ctx context.Context) (*Session, error) {
	if r.cfg.Loader == nil {
		return nil, fmt.Errorf("%w: %w", ErrRestart, errNoLoader)
	}
	fresh, err := r.cfg.Loader.Load(ctx, r.session.DeckID(), r.cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRestart, err)
	}
	return fresh, nil
}

// unattended reports whether the clocks are running with no client asking
// for the session.
func (r *Runner) unattended(now time.Time) bool {
	if r.cfg.HeartbeatTimeout < 0 || r.session.paused {
		return false
	}
	return now.Sub(r.LastActive()) > r.cfg.HeartbeatTimeout
}

// apply performs an intent and reports the session when it just completed.
func (r *Runner) apply(intent Intent, now time.Time) {
	wasCompleted := r.session.Status() == StatusCompleted
	r.session.Apply(intent, now)
	if !wasCompleted && r.session.Status() == StatusCompleted {
		r.complete()
	}
}

func (r *Runner) snapshot() Snapshot {
	snap := r.session.Snapshot()
	snap.ID = r.cfg.ID
	return snap
}

// complete hands the summary to the sink without blocking the loop. A failed
// delivery is logged and does not affect the session.
func (r *Runner) complete() {
	c := r.session.Completion()
	c.UserID = r.cfg.UserID
	log := r.cfg.Logger
	log.Info("study session completed",
		"known", c.KnownCount,
		"total", c.TotalCount,
		"duration_sec", c.DurationSeconds,
		"score", c.Score,
	)

	if r.cfg.Sink == nil {
		return
	}
	if !r.interacted {
		// Only the timers moved this session along.
		log.Info("study session finished without input, not recorded")
		return
	}
	sink, timeout := r.cfg.Sink, r.cfg.SinkTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := sink.RecordCompletion(ctx, c); err != nil {
			log.Error("failed to record study completion", "error", err)
		}
	}()
}
