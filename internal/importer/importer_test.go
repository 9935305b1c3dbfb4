package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*storage.DB, *Importer, *domain.Deck) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "import.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user, err := db.SyncUser(ctx, "importer")
	require.NoError(t, err)
	deck, err := db.CreateDeck(ctx, user.ID, "Notes", "")
	require.NoError(t, err)
	return db, New(db, t.TempDir(), nil), deck
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestImportReconcilesLocalDirectory(t *testing.T) {
	db, im, deck := setup(t)
	ctx := context.Background()
	notes := t.TempDir()

	writeFile(t, notes, "bio.md", "Q: Powerhouse of the cell?\nA: Mitochondria\n---\nQ: Unit of heredity?\nA: Gene\n")
	writeFile(t, notes, "sub/chem.csv", "question,answer\nH2O?,Water\n")
	writeFile(t, notes, "README.txt", "Q: ignored\nA: ignored\n")

	res, err := im.Import(ctx, deck.ID, notes)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Parsed)
	assert.Equal(t, 3, res.Inserted)
	assert.Zero(t, res.Deleted)

	cards, err := db.ListFlashcards(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 3)

	// Re-importing unchanged files is a no-op.
	res, err = im.Import(ctx, deck.ID, notes)
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Deleted)

	// Editing a card replaces it; removing a file drops its cards.
	writeFile(t, notes, "bio.md", "Q: Powerhouse of the cell?\nA: The mitochondria\n")
	require.NoError(t, os.Remove(filepath.Join(notes, "sub/chem.csv")))

	results, err := im.SyncDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Inserted)
	assert.Equal(t, 3, results[0].Deleted)

	cards, err = db.ListFlashcards(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "The mitochondria", cards[0].Answer)
}

func TestImportKeepsHandWrittenCards(t *testing.T) {
	db, im, deck := setup(t)
	ctx := context.Background()

	_, err := db.CreateFlashcards(ctx, deck.ID, []domain.Flashcard{{Question: "manual?", Answer: "yes"}})
	require.NoError(t, err)

	notes := t.TempDir()
	writeFile(t, notes, "a.md", "Q: imported?\nA: yes\n")
	_, err = im.Import(ctx, deck.ID, notes)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(notes, "a.md")))
	_, err = im.Import(ctx, deck.ID, notes)
	require.NoError(t, err)

	cards, err := db.ListFlashcards(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "manual?", cards[0].Question)
}

func TestImportRejectsBadInput(t *testing.T) {
	_, im, deck := setup(t)
	ctx := context.Background()

	_, err := im.Import(ctx, deck.ID, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = im.Import(ctx, "no-such-deck", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}
