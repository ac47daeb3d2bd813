// Package rating replays fight outcomes into a rating store using an Elo
// update with experience-based sensitivity and a bonus for finishes.
package rating

import (
	"math"
	"strings"
)

const (
	// BaseSensitivity is the K-factor of an experienced competitor.
	BaseSensitivity = 40.0
	// NewcomerMultiplier scales K while a competitor has fewer than
	// ExperiencedAfter decisive fights.
	NewcomerMultiplier = 1.5
	// ExperiencedAfter is the decisive-fight count at which K drops to base.
	ExperiencedAfter = 10
	// FinishMultiplier scales K for fights won by KO, TKO or submission.
	FinishMultiplier = 1.5
	// DrawSensitivity is the fixed K-factor applied to draws.
	DrawSensitivity = BaseSensitivity / 2

	eloScale = 400.0
)

// finishMarkers are matched against the lower-cased method.
var finishMarkers = []string{"ko", "tko", "sub"}

// ExpectedScore returns the probability that a competitor rated ra beats one
// rated rb. ExpectedScore(a, b) + ExpectedScore(b, a) == 1.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/eloScale))
}

// Sensitivity returns the K-factor for a winner with matchCount prior
// decisive fights.
func Sensitivity(matchCount int, finish bool) float64 {
	k := BaseSensitivity
	if matchCount < ExperiencedAfter {
		k *= NewcomerMultiplier
	}
	if finish {
		k *= FinishMultiplier
	}
	return k
}

// IsFinish reports whether a method string describes a knockout, technical
// knockout or submission. "KO/TKO", "SUB" and "Submission" all qualify.
func IsFinish(method string) bool {
	m := strings.ToLower(method)
	for _, marker := range finishMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// roundHalfUp rounds to the nearest integer with .5 going towards +Inf,
// so -2.5 becomes -2 and 2.5 becomes 3.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
