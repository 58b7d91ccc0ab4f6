package intelligence

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/simpyt/search-room/internal/domain"
)

// HeuristicScorer is the deterministic fallback used when no language-model key
// is configured. It measures range overlap, scalar agreement and feature-set
// overlap, weighted by the parties' stated importance.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer { return &HeuristicScorer{} }

func (h *HeuristicScorer) ScoreCompatibility(_ context.Context, a, b domain.UserCriteria) (float64, string, error) {
	type factor struct {
		dim       domain.Dimension
		agreement float64
		weight    float64
	}
	var factors []factor

	ca, cb := a.Criteria, b.Criteria
	for _, dim := range domain.RangedDimensions() {
		aFrom, aTo := ca.Range(dim)
		bFrom, bTo := cb.Range(dim)
		agr, ok := rangeAgreement(aFrom, aTo, bFrom, bTo)
		if !ok {
			continue
		}
		factors = append(factors, factor{dim, agr, float64(maxWeight(a.Weights, b.Weights, dim))})
	}

	for _, s := range []struct {
		dim  domain.Dimension
		a, b string
	}{
		{domain.DimOfferType, string(ca.OfferType), string(cb.OfferType)},
		{domain.DimLocation, strings.ToLower(strings.TrimSpace(ca.Location)), strings.ToLower(strings.TrimSpace(cb.Location))},
		{domain.DimCategory, ca.Category, cb.Category},
		{domain.DimAvailability, ca.Availability, cb.Availability},
	} {
		agr, ok := scalarAgreement(s.a, s.b)
		if !ok {
			continue
		}
		factors = append(factors, factor{s.dim, agr, float64(maxWeight(a.Weights, b.Weights, s.dim))})
	}

	if agr, ok := featureAgreement(ca.Features, cb.Features); ok {
		factors = append(factors, factor{domain.DimFeatures, agr, float64(maxWeight(a.Weights, b.Weights, domain.DimFeatures))})
	}

	if len(factors) == 0 {
		return 50, "Not enough overlapping preferences to compare yet.", nil
	}

	var sum, sumW float64
	worst := factors[0]
	for _, f := range factors {
		sum += f.agreement * f.weight
		sumW += f.weight
		if f.agreement < worst.agreement {
			worst = f
		}
	}
	score := clampScore(math.Round(sum / sumW * 100))

	comment := "Your wishlists line up well."
	if worst.agreement < 0.5 {
		comment = fmt.Sprintf("The biggest gap is %s.", strings.ReplaceAll(string(worst.dim), "_", " "))
	}
	return score, comment, nil
}

// rangeAgreement is the interval overlap ratio. Open ends are closed with the
// other finite bounds so the ratio stays defined.
func rangeAgreement(aFrom, aTo, bFrom, bTo *float64) (float64, bool) {
	aSet := aFrom != nil || aTo != nil
	bSet := bFrom != nil || bTo != nil
	if !aSet && !bSet {
		return 0, false
	}
	if aSet != bSet {
		// One party has no opinion; mild agreement.
		return 0.75, true
	}

	maxFinite := 1.0
	for _, v := range []*float64{aFrom, aTo, bFrom, bTo} {
		if v != nil && *v > maxFinite {
			maxFinite = *v
		}
	}
	lo1, hi1 := closedInterval(aFrom, aTo, maxFinite)
	lo2, hi2 := closedInterval(bFrom, bTo, maxFinite)

	overlap := math.Min(hi1, hi2) - math.Max(lo1, lo2)
	union := math.Max(hi1, hi2) - math.Min(lo1, lo2)
	if union <= 0 {
		return 1, true
	}
	if overlap < 0 {
		overlap = 0
	}
	return overlap / union, true
}

func closedInterval(from, to *float64, maxFinite float64) (float64, float64) {
	lo, hi := 0.0, maxFinite
	if from != nil {
		lo = *from
	}
	if to != nil {
		hi = *to
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func scalarAgreement(a, b string) (float64, bool) {
	switch {
	case a == "" && b == "":
		return 0, false
	case a == "" || b == "":
		return 0.75, true
	case a == b:
		return 1, true
	default:
		return 0, true
	}
}

func featureAgreement(fa, fb []string) (float64, bool) {
	if len(fa) == 0 && len(fb) == 0 {
		return 0, false
	}
	if len(fa) == 0 || len(fb) == 0 {
		return 0.75, true
	}
	set := make(map[string]struct{}, len(fa))
	for _, tag := range fa {
		set[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	common := 0
	union := len(set)
	for _, tag := range fb {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, ok := set[tag]; ok {
			common++
		} else {
			union++
		}
	}
	return float64(common) / float64(union), true
}

func maxWeight(wa, wb domain.CriteriaWeights, dim domain.Dimension) int {
	a, b := wa.Of(dim), wb.Of(dim)
	if a > b {
		return a
	}
	return b
}
