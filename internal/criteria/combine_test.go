package criteria

import (
	"errors"
	"reflect"
	"testing"

	"github.com/simpyt/search-room/internal/domain"
)

func party(userID string, c domain.SearchCriteria, w domain.CriteriaWeights) *domain.UserCriteria {
	return &domain.UserCriteria{RoomID: "room-1", UserID: userID, Criteria: c, Weights: w}
}

func TestCombineUnknownMode(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{OfferType: domain.OfferRent}, domain.CriteriaWeights{})
	_, err := Combine(a, nil, "loose", DefaultOptions())
	if !errors.Is(err, ErrUnknownCombineMode) {
		t.Fatalf("err=%v want ErrUnknownCombineMode", err)
	}
}

func TestCombineMissingOfferType(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{}, domain.CriteriaWeights{})
	_, err := Combine(a, nil, domain.CombineAll, DefaultOptions())
	if !errors.Is(err, domain.ErrMissingOfferType) {
		t.Fatalf("err=%v want ErrMissingOfferType", err)
	}
}

func TestCombineNothing(t *testing.T) {
	t.Parallel()

	if _, err := Combine(nil, nil, domain.CombineAll, DefaultOptions()); !errors.Is(err, ErrNoCriteria) {
		t.Fatalf("err=%v want ErrNoCriteria", err)
	}
}

func TestCombineSinglePartyPassthrough(t *testing.T) {
	t.Parallel()

	c := domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Zurich",
		PriceFrom: fp(1000),
		PriceTo:   fp(2000),
		Features:  []string{"balcony"},
	}
	w := domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimPrice: 5}}

	for _, mode := range []domain.CombineMode{domain.CombineAll, domain.CombineMixed, domain.CombineStrict} {
		got, err := Combine(party("alice", c, w), nil, mode, DefaultOptions())
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if !reflect.DeepEqual(got.Criteria, c) {
			t.Fatalf("mode %s: criteria not passed through verbatim:\n got %+v\nwant %+v", mode, got.Criteria, c)
		}
		if !reflect.DeepEqual(got.Weights, w) {
			t.Fatalf("mode %s: weights not passed through", mode)
		}
		if len(got.FromUserIDs) != 1 || got.FromUserIDs[0] != "alice" {
			t.Fatalf("mode %s: from_user_ids=%v", mode, got.FromUserIDs)
		}
		if got.CombineMode != mode {
			t.Fatalf("mode %s: combined mode=%s", mode, got.CombineMode)
		}
	}
}

func TestCombineSelfIsIdentity(t *testing.T) {
	t.Parallel()

	c := domain.SearchCriteria{
		OfferType:       domain.OfferBuy,
		Location:        "Bern",
		PriceFrom:       fp(400000),
		PriceTo:         fp(800000),
		RoomsFrom:       fp(3),
		LivingSpaceFrom: fp(80),
		Features:        []string{"balcony", "garden"},
	}
	w := domain.CriteriaWeights{
		Dimensions: map[domain.Dimension]int{domain.DimPrice: 4, domain.DimRooms: 2},
		Features:   map[string]int{"garden": 5},
	}
	a := party("alice", c, w)

	for _, mode := range []domain.CombineMode{domain.CombineAll, domain.CombineMixed, domain.CombineStrict} {
		got, err := Combine(a, a, mode, DefaultOptions())
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if !reflect.DeepEqual(got.Criteria, c) {
			t.Fatalf("mode %s: combine(A,A) != A:\n got %+v\nwant %+v", mode, got.Criteria, c)
		}
		if !reflect.DeepEqual(got.Weights, w) {
			t.Fatalf("mode %s: combine(A,A) weights changed: %+v", mode, got.Weights)
		}
		if len(got.Infeasible) != 0 || len(got.Conflicts) != 0 {
			t.Fatalf("mode %s: self-combine flagged %v / %v", mode, got.Infeasible, got.Conflicts)
		}
	}
}

func TestCombineAllWidensEveryRange(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(1000), PriceTo: fp(2000),
		RoomsFrom: fp(2), RoomsTo: fp(3),
	}, domain.CriteriaWeights{})
	b := party("bob", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(1500), PriceTo: fp(2500),
		RoomsTo: fp(4),
	}, domain.CriteriaWeights{})

	got, err := Combine(a, b, domain.CombineAll, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if *got.Criteria.PriceFrom != 1000 || *got.Criteria.PriceTo != 2500 {
		t.Fatalf("price=[%v,%v] want [1000,2500]", *got.Criteria.PriceFrom, *got.Criteria.PriceTo)
	}
	// Bob has no rooms lower bound, so the combined lower bound is open.
	if got.Criteria.RoomsFrom != nil {
		t.Fatalf("rooms_from=%v want open", *got.Criteria.RoomsFrom)
	}
	if *got.Criteria.RoomsTo != 4 {
		t.Fatalf("rooms_to=%v want 4", *got.Criteria.RoomsTo)
	}
	if !reflect.DeepEqual(got.FromUserIDs, []string{"alice", "bob"}) {
		t.Fatalf("from_user_ids=%v", got.FromUserIDs)
	}
}

func TestCombineStrictNarrowsAndFlagsInfeasible(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(1000), PriceTo: fp(1500),
		RoomsFrom: fp(2), RoomsTo: fp(4),
	}, domain.CriteriaWeights{})
	b := party("bob", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(2000), PriceTo: fp(2500),
		RoomsFrom: fp(3), RoomsTo: fp(5),
	}, domain.CriteriaWeights{})

	got, err := Combine(a, b, domain.CombineStrict, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if *got.Criteria.RoomsFrom != 3 || *got.Criteria.RoomsTo != 4 {
		t.Fatalf("rooms=[%v,%v] want [3,4]", *got.Criteria.RoomsFrom, *got.Criteria.RoomsTo)
	}
	if len(got.Infeasible) != 1 || got.Infeasible[0] != domain.DimPrice {
		t.Fatalf("infeasible=%v want [price]", got.Infeasible)
	}
}

func TestCombineMixedRespectsWeightThreshold(t *testing.T) {
	t.Parallel()

	// Price matters to both (>=3), rooms only to alice: price narrows, rooms widen.
	a := party("alice", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(1000), PriceTo: fp(2000),
		RoomsFrom: fp(2), RoomsTo: fp(3),
	}, domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{
		domain.DimPrice: 4, domain.DimRooms: 4,
	}})
	b := party("bob", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		PriceFrom: fp(1500), PriceTo: fp(2500),
		RoomsFrom: fp(1), RoomsTo: fp(5),
	}, domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{
		domain.DimPrice: 3, domain.DimRooms: 1,
	}})

	got, err := Combine(a, b, domain.CombineMixed, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if *got.Criteria.PriceFrom != 1500 || *got.Criteria.PriceTo != 2000 {
		t.Fatalf("price=[%v,%v] want strict [1500,2000]", *got.Criteria.PriceFrom, *got.Criteria.PriceTo)
	}
	if *got.Criteria.RoomsFrom != 1 || *got.Criteria.RoomsTo != 5 {
		t.Fatalf("rooms=[%v,%v] want permissive [1,5]", *got.Criteria.RoomsFrom, *got.Criteria.RoomsTo)
	}
}

func TestCombineScalarTieBreakAndConflict(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{OfferType: domain.OfferRent, Location: "Zurich"},
		domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimLocation: 5}})
	b := party("bob", domain.SearchCriteria{OfferType: domain.OfferRent, Location: "Basel"},
		domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimLocation: 4}})

	// Permissive: tie-break, no conflict.
	got, err := Combine(a, b, domain.CombineAll, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Criteria.Location != "Zurich" {
		t.Fatalf("location=%q want first-party tie-break", got.Criteria.Location)
	}
	if len(got.Conflicts) != 0 {
		t.Fatalf("permissive combine flagged conflicts: %v", got.Conflicts)
	}

	got, err = Combine(a, b, domain.CombineAll, Options{TieBreak: "second"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Criteria.Location != "Basel" {
		t.Fatalf("location=%q want second-party tie-break", got.Criteria.Location)
	}

	// Strict with both insisting: flagged, not auto-resolved away.
	got, err = Combine(a, b, domain.CombineStrict, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Conflicts) != 1 || got.Conflicts[0] != domain.DimLocation {
		t.Fatalf("conflicts=%v want [location]", got.Conflicts)
	}
}

func TestCombineScalarPrefersPresent(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{OfferType: domain.OfferRent}, domain.CriteriaWeights{})
	b := party("bob", domain.SearchCriteria{OfferType: domain.OfferRent, Location: "Lausanne", RadiusKm: fp(10)},
		domain.CriteriaWeights{})

	got, err := Combine(a, b, domain.CombineStrict, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Criteria.Location != "Lausanne" {
		t.Fatalf("location=%q want Lausanne", got.Criteria.Location)
	}
	if got.Criteria.RadiusKm == nil || *got.Criteria.RadiusKm != 10 {
		t.Fatalf("radius=%v want 10", got.Criteria.RadiusKm)
	}
}

func TestCombineFeatures(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Features:  []string{"balcony", "garden", "parking"},
	}, domain.CriteriaWeights{Features: map[string]int{"garden": 5, "dishwasher": 2}})
	b := party("bob", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Features:  []string{"balcony", "dishwasher"},
	}, domain.CriteriaWeights{Features: map[string]int{"dishwasher": 1}})

	all, _ := Combine(a, b, domain.CombineAll, DefaultOptions())
	if !reflect.DeepEqual(all.Criteria.Features, []string{"balcony", "dishwasher", "garden", "parking"}) {
		t.Fatalf("all features=%v", all.Criteria.Features)
	}

	strict, _ := Combine(a, b, domain.CombineStrict, DefaultOptions())
	if !reflect.DeepEqual(strict.Criteria.Features, []string{"balcony"}) {
		t.Fatalf("strict features=%v", strict.Criteria.Features)
	}

	// Mixed: shared tags survive; a one-sided tag survives only when both parties
	// hold it loosely. "dishwasher" is weighted 2 and 1, so it joins the union;
	// "garden" (weight 5) and "parking" (neutral 3) do not.
	mixed, _ := Combine(a, b, domain.CombineMixed, DefaultOptions())
	if !reflect.DeepEqual(mixed.Criteria.Features, []string{"balcony", "dishwasher"}) {
		t.Fatalf("mixed features=%v", mixed.Criteria.Features)
	}
}

func TestCombineWeightsTakeMax(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{OfferType: domain.OfferRent},
		domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimPrice: 2, domain.DimRooms: 5}})
	b := party("bob", domain.SearchCriteria{OfferType: domain.OfferRent},
		domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimPrice: 4}})

	got, err := Combine(a, b, domain.CombineAll, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got.Weights.Of(domain.DimPrice) != 4 {
		t.Fatalf("price weight=%d want 4", got.Weights.Of(domain.DimPrice))
	}
	if got.Weights.Of(domain.DimRooms) != 5 {
		t.Fatalf("rooms weight=%d want 5", got.Weights.Of(domain.DimRooms))
	}
	// Unset dimensions stay at the neutral default.
	if got.Weights.Of(domain.DimLotSize) != domain.WeightNeutral {
		t.Fatalf("lot_size weight=%d want neutral", got.Weights.Of(domain.DimLotSize))
	}
}

func TestCombineIsDeterministic(t *testing.T) {
	t.Parallel()

	a := party("alice", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Zurich",
		PriceFrom: fp(1000), PriceTo: fp(2000),
		Features: []string{"garden", "balcony"},
	}, domain.CriteriaWeights{Dimensions: map[domain.Dimension]int{domain.DimPrice: 4}})
	b := party("bob", domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Basel",
		PriceTo:   fp(1800),
		Features:  []string{"parking"},
	}, domain.CriteriaWeights{})

	first, err := Combine(a, b, domain.CombineMixed, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := Combine(a, b, domain.CombineMixed, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n got %+v\nwant %+v", i, again, first)
		}
	}
}
