package criteria

// MergedRange is the outcome of reconciling two optional (from,to) pairs for one
// ordered dimension. Nil bounds mean unbounded. Infeasible marks a strict merge
// whose lower bound ended up above its upper bound; it is flagged data, not an error.
type MergedRange struct {
	From       *float64
	To         *float64
	Infeasible bool
}

// mergeRange reconciles two parties' bounds for one dimension.
//
// Permissive (strict=false): the wider envelope. An absent bound counts as
// -inf/+inf, so one party leaving a side open leaves the combined side open.
//
// Restrictive (strict=true): the overlap. The higher of the mins and the lower
// of the maxes win; an empty overlap is reported via Infeasible.
func mergeRange(aFrom, aTo, bFrom, bTo *float64, strict bool) MergedRange {
	var out MergedRange
	if strict {
		out.From = pickBound(aFrom, bFrom, true)
		out.To = pickBound(aTo, bTo, false)
		if out.From != nil && out.To != nil && *out.From > *out.To {
			out.Infeasible = true
		}
		return out
	}
	if aFrom != nil && bFrom != nil {
		out.From = pickBound(aFrom, bFrom, false)
	}
	if aTo != nil && bTo != nil {
		out.To = pickBound(aTo, bTo, true)
	}
	return out
}

// pickBound returns a copy of the higher (or lower) of two optional values,
// treating nil as "no constraint" and preferring the present one.
func pickBound(a, b *float64, higher bool) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return copyBound(b)
	case b == nil:
		return copyBound(a)
	}
	if (higher && *a >= *b) || (!higher && *a <= *b) {
		return copyBound(a)
	}
	return copyBound(b)
}

func copyBound(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
