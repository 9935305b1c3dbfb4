package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Question", "Answer"},
		{"Capital of Italy?", "Rome"},
		{"", "orphan answer"},
		{"Capital of Peru?", "Lima"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cards, err := ParsePath(path)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Capital of Italy?", cards[0].Question)
	assert.Equal(t, "Lima", cards[1].Answer)
}

func TestParseCSV(t *testing.T) {
	input := "question,answer\n\"2+2, written out?\",four\nonly one column\n"
	cards, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "2+2, written out?", cards[0].Question)
	assert.Equal(t, "four", cards[0].Answer)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("notes/bio.MD"))
	assert.True(t, Supported("deck.xlsx"))
	assert.True(t, Supported("deck.csv"))
	assert.False(t, Supported("README.txt"))

	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q: a\nA: b"), 0o644))
	_, err := ParsePath(path)
	assert.Error(t, err)
}
