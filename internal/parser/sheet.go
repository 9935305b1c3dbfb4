package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Supported reports whether a file extension holds cards.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".xlsx", ".csv":
		return true
	}
	return false
}

// ParsePath picks the parser for a file by its extension.
func ParsePath(path string) ([]domain.Flashcard, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return ParseFile(path)
	case ".xlsx":
		return ParseWorkbook(path)
	case ".csv":
		return ParseCSVFile(path)
	}
	return nil, fmt.Errorf("unsupported file type: %s", path)
}

// ParseWorkbook reads cards from the first sheet of a workbook: questions in
// column A, answers in column B. A first row reading "question" is a header.
func ParseWorkbook(path string) ([]domain.Flashcard, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rowsToCards(rows), nil
}

// ParseCSVFile reads question,answer rows with the same layout as ParseWorkbook.
func ParseCSVFile(path string) ([]domain.Flashcard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseCSV(file)
}

func ParseCSV(r io.Reader) ([]domain.Flashcard, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rowsToCards(rows), nil
}

func rowsToCards(rows [][]string) []domain.Flashcard {
	var cards []domain.Flashcard
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		q, a := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if i == 0 && strings.EqualFold(q, "question") {
			continue
		}
		if q == "" || a == "" {
			continue
		}
		cards = append(cards, domain.Flashcard{Question: q, Answer: a})
	}
	return cards
}
