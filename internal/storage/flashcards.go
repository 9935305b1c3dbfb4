package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/studydeck/internal/cardhash"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const flashcardColumns = `id, deck_id, question, answer, hash, source_id, created_at`

// ListFlashcards returns every card of a deck, newest first. A missing deck
// is reported as domain.ErrDeckNotFound rather than an empty list.
func (db *DB) ListFlashcards(ctx context.Context, deckID string) ([]domain.Flashcard, error) {
	var exists int
	if err := db.conn.GetContext(ctx, &exists, db.q(`SELECT COUNT(*) FROM decks WHERE id = ?`), deckID); err != nil {
		return nil, fmt.Errorf("failed to check deck %s: %w", deckID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("failed to list flashcards: %w", domain.ErrDeckNotFound)
	}

	cards := []domain.Flashcard{}
	err := db.conn.SelectContext(ctx, &cards, db.q(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE deck_id = ? ORDER BY created_at DESC, id
	`), deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards for deck %s: %w", deckID, err)
	}
	return cards, nil
}

// GetFlashcard retrieves a card that belongs to the given deck.
func (db *DB) GetFlashcard(ctx context.Context, deckID, id string) (*domain.Flashcard, error) {
	var card domain.Flashcard
	err := db.conn.GetContext(ctx, &card, db.q(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE id = ? AND deck_id = ?
	`), id, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcard %s: %w", id, notFound(err, domain.ErrFlashcardNotFound))
	}
	return &card, nil
}

// CreateFlashcards inserts cards into a deck in one transaction. IDs, hashes
// and timestamps are assigned here; the returned slice carries them.
func (db *DB) CreateFlashcards(ctx context.Context, deckID string, cards []domain.Flashcard) ([]domain.Flashcard, error) {
	created := make([]domain.Flashcard, 0, len(cards))
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		now := db.now()
		for _, card := range cards {
			card.ID = uuid.NewString()
			card.DeckID = deckID
			card.Hash = cardhash.Hash(card)
			card.CreatedAt = now
			if err := insertFlashcard(ctx, tx, db.q, card); err != nil {
				return err
			}
			created = append(created, card)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertFlashcard(ctx context.Context, tx *sqlx.Tx, q func(string) string, card domain.Flashcard) error {
	_, err := tx.ExecContext(ctx, q(`
		INSERT INTO flashcards (id, deck_id, question, answer, hash, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), card.ID, card.DeckID, card.Question, card.Answer, card.Hash, card.SourceID, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert flashcard into deck %s: %w", card.DeckID, err)
	}
	return nil
}

// UpdateFlashcard replaces the question and answer of a card.
func (db *DB) UpdateFlashcard(ctx context.Context, card *domain.Flashcard) error {
	card.Hash = cardhash.Hash(*card)
	res, err := db.conn.ExecContext(ctx, db.q(`
		UPDATE flashcards SET question = ?, answer = ?, hash = ? WHERE id = ? AND deck_id = ?
	`), card.Question, card.Answer, card.Hash, card.ID, card.DeckID)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %s: %w", card.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update flashcard %s: %w", card.ID, domain.ErrFlashcardNotFound)
	}
	return nil
}

// DeleteFlashcard removes a card from a deck.
func (db *DB) DeleteFlashcard(ctx context.Context, deckID, id string) error {
	res, err := db.conn.ExecContext(ctx, db.q(`DELETE FROM flashcards WHERE id = ? AND deck_id = ?`), id, deckID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete flashcard %s: %w", id, domain.ErrFlashcardNotFound)
	}
	return nil
}
