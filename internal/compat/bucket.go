package compat

import "github.com/simpyt/search-room/internal/domain"

// Bucket thresholds for the 0-100 agreement score.
const (
	lowBelow  = 40 // < 40 is low
	highAbove = 75 // > 75 is high, 40..75 inclusive is medium
)

// SinglePartyScore is the defined score when fewer than two parties have
// submitted criteria: there is nothing to disagree about yet.
const SinglePartyScore = 100.0

// BucketLevel maps a score to its discrete level. It is the single source of
// truth: no snapshot may store a level inconsistent with it.
func BucketLevel(scorePercent float64) domain.CompatibilityLevel {
	switch {
	case scorePercent < lowBelow:
		return domain.CompatLow
	case scorePercent > highAbove:
		return domain.CompatHigh
	default:
		return domain.CompatMedium
	}
}
