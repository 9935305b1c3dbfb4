package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/google/uuid"
)

// SyncUser returns the user for an identity-provider subject, creating it on first sight.
func (db *DB) SyncUser(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("sync user: %w", domain.ErrInvalidInput)
	}

	_, err := db.conn.ExecContext(ctx, db.q(`
		INSERT INTO users (id, external_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (external_id) DO NOTHING
	`), uuid.NewString(), externalID, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", externalID, err)
	}

	var u domain.User
	err = db.conn.GetContext(ctx, &u, db.q(`
		SELECT id, external_id, created_at FROM users WHERE external_id = ?
	`), externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", externalID, notFound(err, domain.ErrUserNotFound))
	}
	return &u, nil
}

// FindUser retrieves a user by internal ID.
func (db *DB) FindUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := db.conn.GetContext(ctx, &u, db.q(`
		SELECT id, external_id, created_at FROM users WHERE id = ?
	`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", id, notFound(err, domain.ErrUserNotFound))
	}
	return &u, nil
}
