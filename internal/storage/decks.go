package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lithammer/shortuuid/v4"
)

const deckColumns = `
	d.id, d.user_id, d.name, d.description, d.is_public, d.share_slug, d.created_at,
	(SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id) AS card_count
`

// CreateDeck inserts a new, private deck for a user.
func (db *DB) CreateDeck(ctx context.Context, userID, name, description string) (*domain.Deck, error) {
	deck := domain.Deck{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   db.now(),
	}
	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO decks (id, user_id, name, description, is_public, share_slug, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), deck.ID, deck.UserID, deck.Name, deck.Description, deck.IsPublic, deck.ShareSlug, deck.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deck %q: %w", name, err)
	}
	return &deck, nil
}

// GetDeck retrieves a deck with its card count.
func (db *DB) GetDeck(ctx context.Context, id string) (*domain.Deck, error) {
	var deck domain.Deck
	err := db.conn.GetContext(ctx, &deck, db.q(`SELECT `+deckColumns+` FROM decks d WHERE d.id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck %s: %w", id, notFound(err, domain.ErrDeckNotFound))
	}
	return &deck, nil
}

// GetDeckBySlug retrieves a public deck by its share slug.
func (db *DB) GetDeckBySlug(ctx context.Context, slug string) (*domain.Deck, error) {
	if slug == "" {
		return nil, domain.ErrDeckNotFound
	}
	var deck domain.Deck
	err := db.conn.GetContext(ctx, &deck, db.q(`
		SELECT `+deckColumns+` FROM decks d WHERE d.share_slug = ? AND d.is_public = ?
	`), slug, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by slug %s: %w", slug, notFound(err, domain.ErrDeckNotFound))
	}
	return &deck, nil
}

// ListDecks returns the decks of a user, newest first.
func (db *DB) ListDecks(ctx context.Context, userID string) ([]domain.Deck, error) {
	decks := []domain.Deck{}
	err := db.conn.SelectContext(ctx, &decks, db.q(`
		SELECT `+deckColumns+` FROM decks d WHERE d.user_id = ? ORDER BY d.created_at DESC, d.id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks for user %s: %w", userID, err)
	}
	return decks, nil
}

// UpdateDeck saves name, description and visibility. A deck that becomes
// public keeps its existing share slug or gets a new one.
func (db *DB) UpdateDeck(ctx context.Context, deck *domain.Deck) error {
	if deck.IsPublic && deck.ShareSlug == "" {
		deck.ShareSlug = shortuuid.New()
	}
	res, err := db.conn.ExecContext(ctx, db.q(`
		UPDATE decks
		SET name = ?, description = ?, is_public = ?, share_slug = ?
		WHERE id = ?
	`), deck.Name, deck.Description, deck.IsPublic, deck.ShareSlug, deck.ID)
	if err != nil {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, domain.ErrDeckNotFound)
	}
	return nil
}

// DeleteDeck removes a deck together with its cards and sources.
func (db *DB) DeleteDeck(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM flashcards WHERE deck_id = ?`,
			`DELETE FROM sources WHERE deck_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, db.q(stmt), id); err != nil {
				return fmt.Errorf("failed to delete deck %s contents: %w", id, err)
			}
		}
		res, err := tx.ExecContext(ctx, db.q(`DELETE FROM decks WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete deck %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("failed to delete deck %s: %w", id, domain.ErrDeckNotFound)
		}
		return nil
	})
}
