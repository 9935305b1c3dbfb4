// Package importer loads flashcards from local directories and git
// repositories into decks and keeps them in step with their source.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conorfennell/studydeck/internal/cardhash"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/gitsource"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/storage"
)

// Importer reconciles sources against the cards stored for them.
type Importer struct {
	db       *storage.DB
	reposDir string
	log      *slog.Logger
}

// Result summarises one reconciliation.
type Result struct {
	SourceID string   `json:"source_id"`
	Path     string   `json:"path"`
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
}

func New(db *storage.DB, reposDir string, log *slog.Logger) *Importer {
	if reposDir == "" {
		reposDir = "repos"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{db: db, reposDir: reposDir, log: log}
}

// Import registers path as a source of the deck and reconciles it. path is a
// local directory or a git URL.
func (im *Importer) Import(ctx context.Context, deckID, path string) (*Result, error) {
	if _, err := im.db.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}

	sourceType := domain.SourceLocal
	if gitsource.IsGitURL(path) {
		sourceType = domain.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory: %w", path, domain.ErrInvalidInput)
		}
		path = abs
	}

	source, err := im.db.UpsertSource(ctx, deckID, path, sourceType)
	if err != nil {
		return nil, err
	}
	return im.SyncSource(ctx, source)
}

// SyncDeck reconciles every source of a deck. A failing source is logged and
// the remaining ones still run.
func (im *Importer) SyncDeck(ctx context.Context, deckID string) ([]Result, error) {
	sources, err := im.db.ListSources(ctx, deckID)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(sources))
	for i := range sources {
		res, err := im.SyncSource(ctx, &sources[i])
		if err != nil {
			im.log.Error("Error syncing source", "source_id", sources[i].ID, "path", sources[i].Path, "error", err)
			results = append(results, Result{SourceID: sources[i].ID, Path: sources[i].Path, Errors: []string{err.Error()}})
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// SyncSource fetches a git source if needed and reconciles its cards.
func (im *Importer) SyncSource(ctx context.Context, source *domain.Source) (*Result, error) {
	im.log.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		localRepoPath, err := gitsource.LocalPath(im.reposDir, source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to determine local path for %s: %w", source.Path, err)
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath); err != nil {
			return nil, err
		}
		dir = localRepoPath
	}
	return im.reconcile(ctx, source, dir)
}

func (im *Importer) reconcile(ctx context.Context, source *domain.Source, dir string) (*Result, error) {
	res := &Result{SourceID: source.ID, Path: source.Path}

	found := make(map[string]domain.Flashcard)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) {
			return nil
		}

		fileCards, parseErr := parser.ParsePath(path)
		if parseErr != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
			return nil
		}
		for _, card := range fileCards {
			card.Hash = cardhash.Hash(card)
			found[card.Hash] = card
			res.Parsed++
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, walkErr)
	}

	existing, err := im.db.SourceCardHashes(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	var fresh []domain.Flashcard
	for hash, card := range found {
		if _, ok := existing[hash]; !ok {
			fresh = append(fresh, card)
		}
	}
	var orphaned []string
	for hash, id := range existing {
		if _, ok := found[hash]; !ok {
			orphaned = append(orphaned, id)
		}
	}

	if err := im.db.InsertSourceCards(ctx, source, fresh); err != nil {
		return nil, err
	}
	if err := im.db.DeleteFlashcards(ctx, orphaned); err != nil {
		return nil, err
	}
	res.Inserted, res.Deleted = len(fresh), len(orphaned)

	if err := im.db.UpdateSourceLastScanned(ctx, source.ID); err != nil {
		im.log.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	im.log.Info("reconciliation complete",
		"path", source.Path,
		"parsed_cards", res.Parsed,
		"inserted", res.Inserted,
		"orphaned_deleted", res.Deleted,
		"errors", len(res.Errors),
	)
	return res, nil
}
