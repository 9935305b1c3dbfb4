package study

import "math"

const (
	// DefaultTimeBudget is the session length in seconds after which the time
	// component of the score is exhausted.
	DefaultTimeBudget = 300
	// DefaultCardSeconds is the per-card countdown.
	DefaultCardSeconds = 30

	streakWeight = 0.7
	timeWeight   = 0.3
)

// Score rates a finished session from 0 to 100, weighting the best streak
// against the time spent. A budget of zero or less counts as fully spent.
func Score(maxStreak, elapsedSeconds, totalCards, timeBudgetSeconds int) int {
	if totalCards <= 0 {
		return 0
	}

	streakScore := math.Min(float64(max(maxStreak, 0))/float64(totalCards), 1)

	timeScore := 1.0
	if timeBudgetSeconds > 0 {
		timeScore = math.Min(float64(max(elapsedSeconds, 0))/float64(timeBudgetSeconds), 1)
	}

	combined := streakScore*streakWeight + (1-timeScore)*timeWeight
	return int(math.Round(combined * 100))
}
