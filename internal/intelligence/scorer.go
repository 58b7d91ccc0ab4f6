package intelligence

import (
	"context"

	"github.com/simpyt/search-room/internal/domain"
)

// Scorer produces a 0-100 agreement score plus a one-sentence comment for two
// parties' criteria. The analytic core only buckets and timestamps the result;
// how the score is produced lives behind this interface.
type Scorer interface {
	ScoreCompatibility(ctx context.Context, a, b domain.UserCriteria) (score float64, comment string, err error)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
