package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/studydeck/internal/cardhash"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// UpsertSource registers a source path for a deck and returns it. Adding
// the same path twice returns the existing source.
func (db *DB) UpsertSource(ctx context.Context, deckID, path, sourceType string) (*domain.Source, error) {
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO sources (id, deck_id, path, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (deck_id, path) DO NOTHING
	`), uuid.NewString(), deckID, path, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source %s: %w", path, err)
	}

	var s domain.Source
	err = db.conn.GetContext(ctx, &s, db.q(`
		SELECT id, deck_id, path, type, last_scanned FROM sources WHERE deck_id = ? AND path = ?
	`), deckID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to find source %s: %w", path, notFound(err, domain.ErrSourceNotFound))
	}
	return &s, nil
}

// ListSources returns all sources configured for a deck.
func (db *DB) ListSources(ctx context.Context, deckID string) ([]domain.Source, error) {
	sources := []domain.Source{}
	err := db.conn.SelectContext(ctx, &sources, db.q(`
		SELECT id, deck_id, path, type, last_scanned FROM sources WHERE deck_id = ? ORDER BY path
	`), deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources for deck %s: %w", deckID, err)
	}
	return sources, nil
}

type hashRow struct {
	ID   string `db:"id"`
	Hash string `db:"hash"`
}

// SourceCardHashes maps content hash to card ID for every card imported from a source.
func (db *DB) SourceCardHashes(ctx context.Context, sourceID string) (map[string]string, error) {
	var rows []hashRow
	err := db.conn.SelectContext(ctx, &rows, db.q(`SELECT id, hash FROM flashcards WHERE source_id = ?`), sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source %s: %w", sourceID, err)
	}
	return lo.Associate(rows, func(r hashRow) (string, string) {
		return r.Hash, r.ID
	}), nil
}

// InsertSourceCards adds cards imported from a source to its deck.
func (db *DB) InsertSourceCards(ctx context.Context, source *domain.Source, cards []domain.Flashcard) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		now := db.now()
		for _, card := range cards {
			card.ID = uuid.NewString()
			card.DeckID = source.DeckID
			card.SourceID = source.ID
			if card.Hash == "" {
				card.Hash = cardhash.Hash(card)
			}
			card.CreatedAt = now
			if err := insertFlashcard(ctx, tx, db.q, card); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteFlashcards removes cards by ID.
func (db *DB) DeleteFlashcards(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM flashcards WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, db.q(query), args...); err != nil {
		return fmt.Errorf("failed to delete %d flashcards: %w", len(ids), err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID string) error {
	_, err := db.conn.ExecContext(ctx, db.q(`UPDATE sources SET last_scanned = ? WHERE id = ?`), db.now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source %s: %w", sourceID, err)
	}
	return nil
}
