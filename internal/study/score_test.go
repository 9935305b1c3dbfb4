package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		name      string
		maxStreak int
		elapsed   int
		total     int
		budget    int
		expected  int
	}{
		{"perfect streak and no time", 10, 0, 10, 300, 100},
		{"perfect streak single card", 1, 0, 1, 300, 100},
		{"no streak and budget spent", 0, 300, 10, 300, 0},
		{"no streak and over budget", 0, 900, 10, 300, 0},
		{"no cards", 5, 10, 0, 300, 0},
		{"no cards no budget", 0, 0, 0, 0, 0},
		{"three card scenario", 3, 30, 3, 300, 97},
		{"half streak half time", 5, 150, 10, 300, 50},
		{"streak above total is capped", 20, 0, 10, 300, 100},
		{"zero budget counts as spent", 10, 0, 10, 0, 70},
		{"negative budget counts as spent", 10, 0, 10, -1, 70},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Score(tc.maxStreak, tc.elapsed, tc.total, tc.budget))
		})
	}
}

func TestScoreBounds(t *testing.T) {
	for total := 1; total <= 12; total++ {
		for streak := 0; streak <= total; streak++ {
			for elapsed := 0; elapsed <= 600; elapsed += 37 {
				got := Score(streak, elapsed, total, DefaultTimeBudget)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
			}
		}
	}
}
