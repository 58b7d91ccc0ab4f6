package compat

import (
	"time"

	"github.com/google/uuid"

	"github.com/simpyt/search-room/internal/domain"
)

// NewSnapshot assembles a compatibility snapshot from an externally produced
// score and comment. The level is always derived from the score here, never
// supplied by the caller, and the refs pin the exact criteria records used so
// staleness stays detectable.
func NewSnapshot(roomID string, scorePercent float64, comment string, refs []domain.CriteriaRef) domain.CompatibilitySnapshot {
	if scorePercent < 0 {
		scorePercent = 0
	}
	if scorePercent > 100 {
		scorePercent = 100
	}
	return domain.CompatibilitySnapshot{
		ID:           uuid.NewString(),
		RoomID:       roomID,
		Timestamp:    time.Now().UTC(),
		ScorePercent: scorePercent,
		Level:        BucketLevel(scorePercent),
		Comment:      comment,
		CriteriaRefs: refs,
	}
}

// SinglePartySnapshot is the snapshot for a room where fewer than two parties
// have submitted criteria: the score is defined as exactly 100.
func SinglePartySnapshot(roomID, comment string, refs []domain.CriteriaRef) domain.CompatibilitySnapshot {
	return NewSnapshot(roomID, SinglePartyScore, comment, refs)
}
