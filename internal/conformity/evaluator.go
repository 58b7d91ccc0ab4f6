package conformity

import (
	"math"
	"strings"

	"github.com/simpyt/search-room/internal/domain"
)

// Row is one dimension's classification. Weight is carried for display emphasis
// only; it never alters the level.
type Row struct {
	Dimension domain.Dimension       `json:"dimension"`
	Level     domain.ConformityLevel `json:"level"`
	Weight    int                    `json:"weight"`
}

// Report lists the evaluated dimensions in a fixed order.
type Report []Row

// ByDimension re-keys the report for lookup-style consumers.
func (r Report) ByDimension() map[domain.Dimension]Row {
	out := make(map[domain.Dimension]Row, len(r))
	for _, row := range r {
		out[row.Dimension] = row
	}
	return out
}

// Evaluate classifies one listing against one criteria set, dimension by
// dimension. It is pure: identical inputs always yield an identical report, and
// concurrent evaluations share no state. Malformed-but-well-typed input degrades
// to unknown rather than failing; an inverted range (From > To) simply cannot
// match, which is how that violation surfaces.
func Evaluate(l domain.Listing, c domain.SearchCriteria, w domain.CriteriaWeights, cfg Config) Report {
	report := make(Report, 0, len(domain.RangedDimensions())+2)
	for _, dim := range domain.RangedDimensions() {
		report = append(report, Row{
			Dimension: dim,
			Level:     classifyRange(l.Value(dim), c, dim, cfg),
			Weight:    w.Of(dim),
		})
	}
	report = append(report, Row{
		Dimension: domain.DimLocation,
		Level:     classifyLocation(l.Location, c.Location),
		Weight:    w.Of(domain.DimLocation),
	})
	report = append(report, Row{
		Dimension: domain.DimFeatures,
		Level:     classifyFeatures(l.Features, c.Features),
		Weight:    w.Of(domain.DimFeatures),
	})
	return report
}

func classifyRange(value *float64, c domain.SearchCriteria, dim domain.Dimension, cfg Config) domain.ConformityLevel {
	from, to := c.Range(dim)
	if from == nil && to == nil {
		return domain.ConformityUnknown
	}
	if value == nil {
		return domain.ConformityUnknown
	}
	v := *value

	effMin := cfg.floor(dim)
	if from != nil {
		effMin = *from
	}
	effMax := math.Inf(1)
	if to != nil {
		effMax = *to
	}

	if v >= effMin && v <= effMax {
		return domain.ConformityMatch
	}

	// Band just outside the violated bound: a fraction of the span when both
	// bounds are finite, of the single finite bound otherwise.
	span := effMax - effMin
	if math.IsInf(effMax, 1) {
		span = effMin
	}
	band := cfg.ToleranceFraction * span

	if v < effMin && v >= effMin-band {
		return domain.ConformityNear
	}
	if v > effMax && v <= effMax+band {
		return domain.ConformityNear
	}
	return domain.ConformityMiss
}

// classifyLocation has no near tier: the listing location either contains the
// requested one (case-insensitively) or it does not.
func classifyLocation(listingLoc, wantLoc string) domain.ConformityLevel {
	wantLoc = strings.TrimSpace(wantLoc)
	if wantLoc == "" {
		return domain.ConformityUnknown
	}
	listingLoc = strings.TrimSpace(listingLoc)
	if listingLoc == "" {
		return domain.ConformityUnknown
	}
	if strings.Contains(strings.ToLower(listingLoc), strings.ToLower(wantLoc)) {
		return domain.ConformityMatch
	}
	return domain.ConformityMiss
}

// classifyFeatures compares requested tags with what the listing advertises:
// every tag present is a match, a partial overlap a near miss, no overlap a miss.
func classifyFeatures(have, want []string) domain.ConformityLevel {
	if len(want) == 0 {
		return domain.ConformityUnknown
	}
	if len(have) == 0 {
		return domain.ConformityUnknown
	}
	haveSet := make(map[string]struct{}, len(have))
	for _, tag := range have {
		haveSet[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	found := 0
	total := 0
	for _, tag := range want {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		total++
		if _, ok := haveSet[tag]; ok {
			found++
		}
	}
	switch {
	case total == 0:
		return domain.ConformityUnknown
	case found == total:
		return domain.ConformityMatch
	case found > 0:
		return domain.ConformityNear
	default:
		return domain.ConformityMiss
	}
}
