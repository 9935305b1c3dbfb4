package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conorfennell/studydeck/internal/config"
	"github.com/conorfennell/studydeck/internal/generate"
	"github.com/conorfennell/studydeck/internal/importer"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/study"
	"github.com/conorfennell/studydeck/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage:
  studydeck [serve] [flags]
  studydeck import --deck <id> --source <path|git-url> [flags]

Flags:
`

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("studydeck", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	deckID := fs.String("deck", "", "deck to import into (import)")
	source := fs.String("source", "", "directory or git URL to import from (import)")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := fs.Arg(0); cmd {
	case "", "serve":
		err = serve(ctx, cfg, logger)
	case "import":
		err = runImport(ctx, cfg, logger, *deckID, *source)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		logger.Error("studydeck failed", "error", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN, storage.Options{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	logger.Info("database opened", "driver", cfg.DB.Driver)
	return db, nil
}

func newGenerator(cfg config.GeneratorConfig) generate.Generator {
	switch cfg.Provider {
	case "http":
		return generate.NewHTTPGenerator(cfg.URL, cfg.MaxCards, nil)
	case "openai":
		return generate.NewOpenAIGenerator(generate.OpenAIConfig{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			MaxCards: cfg.MaxCards,
		})
	default:
		return generate.Disabled{}
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := study.NewRegistry(study.NewLoader(db, nil, nil), web.StatsSink{DB: db}, study.RegistryConfig{
		Defaults: study.Options{
			CardSeconds: cfg.Study.CardSeconds,
			TimeBudget:  cfg.Study.TimeBudget,
		},
		IdleTimeout:      cfg.Study.IdleTimeout,
		HeartbeatTimeout: cfg.Study.HeartbeatTimeout,
		Logger:           logger.With("component", "study"),
	})
	defer registry.CloseAll()

	reaper, err := registry.StartReaper(time.Minute)
	if err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	defer reaper.Stop()

	server, err := web.NewServer(web.Options{
		DB:           db,
		Studies:      registry,
		Generator:    newGenerator(cfg.Generator),
		Importer:     importer.New(db, cfg.Import.ReposDir, logger.With("component", "importer")),
		Auth:         web.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.DevUser),
		GenerateRate: cfg.Generator.RatePerMinute,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if cfg.Auth.DevUser != "" {
		logger.Warn("development user enabled; every request is authenticated", "subject", cfg.Auth.DevUser)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runImport(ctx context.Context, cfg *config.Config, logger *slog.Logger, deckID, source string) error {
	if deckID == "" || source == "" {
		return errors.New("import needs --deck and --source")
	}
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := importer.New(db, cfg.Import.ReposDir, logger).Import(ctx, deckID, source)
	if err != nil {
		return err
	}
	fmt.Printf("Parsed %d cards: %d inserted, %d deleted, %d errors.\n", res.Parsed, res.Inserted, res.Deleted, len(res.Errors))
	if len(res.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range res.Errors {
			fmt.Printf("- %s\n", e)
		}
	}
	return nil
}
