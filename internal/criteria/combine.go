package criteria

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/simpyt/search-room/internal/domain"
)

var (
	// ErrUnknownCombineMode is raised for a mode outside {all, mixed, strict}.
	ErrUnknownCombineMode = errors.New("criteria: unknown combine mode")
	// ErrNoCriteria is raised when neither party carries a criteria record.
	ErrNoCriteria = errors.New("criteria: nothing to combine")
)

// insistWeight is the importance threshold above which a party's preference is
// treated as non-negotiable under the mixed policy and for scalar conflicts.
const insistWeight = 3

// Options tune the deterministic details the combine policies leave open.
type Options struct {
	// TieBreak resolves present/present scalar disagreements under the permissive
	// policy: "first" prefers the first party in call order, "second" the other.
	TieBreak string
}

// DefaultOptions returns the documented defaults (first party wins ties).
func DefaultOptions() Options {
	return Options{TieBreak: "first"}
}

// Combine merges two parties' criteria into one derived record under the given mode.
//
// A nil party contributes no constraint on any dimension; exactly one present
// party yields that party's criteria verbatim regardless of mode. The result is
// fully deterministic: same inputs and mode always produce the same output.
// The Timestamp of the returned record is left zero for the caller to stamp.
func Combine(a, b *domain.UserCriteria, mode domain.CombineMode, opts Options) (domain.CombinedCriteria, error) {
	if !mode.IsValid() {
		return domain.CombinedCriteria{}, fmt.Errorf("%w: %q", ErrUnknownCombineMode, mode)
	}
	if opts.TieBreak == "" {
		opts.TieBreak = "first"
	}

	parties := make([]*domain.UserCriteria, 0, 2)
	for _, p := range []*domain.UserCriteria{a, b} {
		if p != nil {
			parties = append(parties, p)
		}
	}
	if len(parties) == 0 {
		return domain.CombinedCriteria{}, ErrNoCriteria
	}
	for _, p := range parties {
		if err := p.Criteria.Validate(); err != nil {
			return domain.CombinedCriteria{}, fmt.Errorf("party %s: %w", p.UserID, err)
		}
	}

	if len(parties) == 1 {
		p := parties[0]
		return domain.CombinedCriteria{
			RoomID:      p.RoomID,
			Criteria:    p.Criteria,
			Weights:     p.Weights,
			FromUserIDs: []string{p.UserID},
			CombineMode: mode,
		}, nil
	}

	first, second := parties[0], parties[1]
	ca, cb := first.Criteria, second.Criteria
	wa, wb := first.Weights, second.Weights

	out := domain.CombinedCriteria{
		RoomID:      first.RoomID,
		FromUserIDs: []string{first.UserID, second.UserID},
		CombineMode: mode,
	}

	for _, dim := range domain.RangedDimensions() {
		aFrom, aTo := ca.Range(dim)
		bFrom, bTo := cb.Range(dim)
		strict := mode == domain.CombineStrict ||
			(mode == domain.CombineMixed && wa.Of(dim) >= insistWeight && wb.Of(dim) >= insistWeight)
		merged := mergeRange(aFrom, aTo, bFrom, bTo, strict)
		out.Criteria.SetRange(dim, merged.From, merged.To)
		if merged.Infeasible {
			out.Infeasible = append(out.Infeasible, dim)
		}
	}

	for _, f := range scalarFields() {
		aPresent, bPresent := f.present(ca), f.present(cb)
		switch {
		case !aPresent && !bPresent:
			continue
		case aPresent && !bPresent:
			f.copyFrom(&out.Criteria, ca)
		case bPresent && !aPresent:
			f.copyFrom(&out.Criteria, cb)
		default:
			if f.equal(ca, cb) {
				f.copyFrom(&out.Criteria, ca)
				continue
			}
			insisted := mode != domain.CombineAll &&
				wa.Of(f.dim) >= insistWeight && wb.Of(f.dim) >= insistWeight
			if insisted {
				// Not auto-resolved; the tie-break value is carried so the record
				// stays usable, and the dimension is flagged for the caller.
				out.Conflicts = append(out.Conflicts, f.dim)
			}
			if opts.TieBreak == "second" {
				f.copyFrom(&out.Criteria, cb)
			} else {
				f.copyFrom(&out.Criteria, ca)
			}
		}
	}

	out.Criteria.FreeText = joinFreeText(ca.FreeText, cb.FreeText)
	out.Criteria.Features = mergeFeatures(ca.Features, cb.Features, wa, wb, mode)
	out.Weights = mergeWeights(wa, wb)

	return out, nil
}

// mergeFeatures merges two tag sets: union under all, wholesale intersection under
// strict, and under mixed a tag both parties hold loosely (weight < 3 on both
// sides) survives the union while the rest intersect.
func mergeFeatures(fa, fb []string, wa, wb domain.CriteriaWeights, mode domain.CombineMode) []string {
	setA := featureSet(fa)
	setB := featureSet(fb)
	if len(setA) == 0 && len(setB) == 0 {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for tag := range setA {
		_, inB := setB[tag]
		if keepFeature(tag, inB, wa, wb, mode) {
			add(tag)
		}
	}
	for tag := range setB {
		_, inA := setA[tag]
		if keepFeature(tag, inA, wa, wb, mode) {
			add(tag)
		}
	}
	sort.Strings(out)
	return out
}

func keepFeature(tag string, inBoth bool, wa, wb domain.CriteriaWeights, mode domain.CombineMode) bool {
	switch mode {
	case domain.CombineAll:
		return true
	case domain.CombineStrict:
		return inBoth
	default: // mixed
		if inBoth {
			return true
		}
		return wa.OfFeature(tag) < insistWeight && wb.OfFeature(tag) < insistWeight
	}
}

func featureSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}

// mergeWeights takes the max of the two effective weights per dimension and per
// feature tag, over the keys either party set explicitly.
func mergeWeights(wa, wb domain.CriteriaWeights) domain.CriteriaWeights {
	var out domain.CriteriaWeights
	for dim := range unionDimKeys(wa.Dimensions, wb.Dimensions) {
		if out.Dimensions == nil {
			out.Dimensions = make(map[domain.Dimension]int)
		}
		out.Dimensions[dim] = maxInt(wa.Of(dim), wb.Of(dim))
	}
	for tag := range unionTagKeys(wa.Features, wb.Features) {
		if out.Features == nil {
			out.Features = make(map[string]int)
		}
		out.Features[tag] = maxInt(wa.OfFeature(tag), wb.OfFeature(tag))
	}
	return out
}

func unionDimKeys(a, b map[domain.Dimension]int) map[domain.Dimension]struct{} {
	keys := make(map[domain.Dimension]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func unionTagKeys(a, b map[string]int) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func joinFreeText(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	}
	return a + " | " + b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// scalarField describes one non-ranged dimension for generic merge handling.
type scalarField struct {
	dim      domain.Dimension
	present  func(domain.SearchCriteria) bool
	equal    func(a, b domain.SearchCriteria) bool
	copyFrom func(dst *domain.SearchCriteria, src domain.SearchCriteria)
}

func scalarFields() []scalarField {
	return []scalarField{
		{
			dim:     domain.DimOfferType,
			present: func(c domain.SearchCriteria) bool { return c.OfferType.IsValid() },
			equal:   func(a, b domain.SearchCriteria) bool { return a.OfferType == b.OfferType },
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				dst.OfferType = src.OfferType
			},
		},
		{
			dim:     domain.DimLocation,
			present: func(c domain.SearchCriteria) bool { return strings.TrimSpace(c.Location) != "" },
			equal: func(a, b domain.SearchCriteria) bool {
				return strings.EqualFold(strings.TrimSpace(a.Location), strings.TrimSpace(b.Location))
			},
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				dst.Location = src.Location
			},
		},
		{
			dim:     domain.DimCategory,
			present: func(c domain.SearchCriteria) bool { return c.Category != "" },
			equal:   func(a, b domain.SearchCriteria) bool { return a.Category == b.Category },
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				dst.Category = src.Category
			},
		},
		{
			dim:     domain.DimRadius,
			present: func(c domain.SearchCriteria) bool { return c.RadiusKm != nil },
			equal: func(a, b domain.SearchCriteria) bool {
				return a.RadiusKm != nil && b.RadiusKm != nil && *a.RadiusKm == *b.RadiusKm
			},
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				dst.RadiusKm = copyBound(src.RadiusKm)
			},
		},
		{
			dim:     domain.DimFloor,
			present: func(c domain.SearchCriteria) bool { return c.Floor != nil },
			equal: func(a, b domain.SearchCriteria) bool {
				return a.Floor != nil && b.Floor != nil && *a.Floor == *b.Floor
			},
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				if src.Floor != nil {
					v := *src.Floor
					dst.Floor = &v
				}
			},
		},
		{
			dim:     domain.DimAvailability,
			present: func(c domain.SearchCriteria) bool { return c.Availability != "" },
			equal:   func(a, b domain.SearchCriteria) bool { return a.Availability == b.Availability },
			copyFrom: func(dst *domain.SearchCriteria, src domain.SearchCriteria) {
				dst.Availability = src.Availability
			},
		},
	}
}
