package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/lithammer/shortuuid/v4"
)

var ErrSessionNotFound = errors.New("study session not found")

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Defaults    Options
	IdleTimeout time.Duration
	// HeartbeatTimeout is handed to every runner, see RunnerConfig.
	HeartbeatTimeout time.Duration
	Clock            Clock
	Logger           *slog.Logger
}

// Registry keeps the live study sessions, keyed by a short random ID.
type Registry struct {
	loader *Loader
	sink   CompletionSink
	cfg    RegistryConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	runners map[string]*Runner
}

func NewRegistry(loader *Loader, sink CompletionSink, cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		loader:  loader,
		sink:    sink,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		runners: make(map[string]*Runner),
	}
}

// Start loads a deck into a new session and starts its runner. Zero fields of
// opts take the registry defaults.
func (r *Registry) Start(ctx context.Context, userID, deckID string, opts Options) (*Runner, error) {
	if opts.CardSeconds <= 0 {
		opts.CardSeconds = r.cfg.Defaults.CardSeconds
	}
	if opts.TimeBudget == 0 {
		opts.TimeBudget = r.cfg.Defaults.TimeBudget
	}
	opts = opts.withDefaults()

	session, err := r.loader.Load(ctx, deckID, opts)
	if err != nil {
		return nil, err
	}

	runner := StartRunner(r.ctx, session, RunnerConfig{
		ID:      shortuuid.New(),
		UserID:  userID,
		Options: opts,
		Loader:  r.loader,
		Sink:    r.sink,
		Clock:   r.cfg.Clock,
		Logger:  r.cfg.Logger,

		HeartbeatTimeout: r.cfg.HeartbeatTimeout,
	})

	r.mu.Lock()
	r.runners[runner.ID()] = runner
	r.mu.Unlock()
	return runner, nil
}

// Get returns a live runner. Runners that already exited are dropped.
func (r *Registry) Get(id string) (*Runner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runner, ok := r.runners[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	select {
	case <-runner.Done():
		delete(r.runners, id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	default:
		return runner, nil
	}
}

// Exit ends a session and removes it from the registry, returning its final state.
func (r *Registry) Exit(ctx context.Context, id string) (Snapshot, error) {
	runner, err := r.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := runner.Dispatch(ctx, IntentExit)

	r.mu.Lock()
	delete(r.runners, id)
	r.mu.Unlock()
	return snap, err
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runners)
}

// Reap closes sessions idle for longer than the idle timeout, and forgets
// sessions whose runner already exited. It returns how many were removed.
func (r *Registry) Reap(now time.Time) int {
	r.mu.Lock()
	var stale []*Runner
	for id, runner := range r.runners {
		select {
		case <-runner.Done():
		default:
			if now.Sub(runner.LastActive()) <= r.cfg.IdleTimeout {
				continue
			}
		}
		stale = append(stale, runner)
		delete(r.runners, id)
	}
	r.mu.Unlock()

	for _, runner := range stale {
		runner.Close()
	}
	return len(stale)
}

// StartReaper schedules Reap at the given interval. Stop the returned
// scheduler on shutdown.
func (r *Registry) StartReaper(interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(interval).Do(func() {
		if n := r.Reap(r.cfg.Clock.Now()); n > 0 {
			r.cfg.Logger.Info("reaped idle study sessions", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session reaper: %w", err)
	}
	s.StartAsync()
	return s, nil
}

// CloseAll stops every session.
func (r *Registry) CloseAll() {
	r.cancel()
	r.mu.Lock()
	runners := r.runners
	r.runners = make(map[string]*Runner)
	r.mu.Unlock()

	for _, runner := range runners {
		<-runner.Done()
	}
}
