package intelligence

import (
	"context"
	"strings"
	"testing"

	"github.com/simpyt/search-room/internal/domain"
)

func fp(v float64) *float64 { return &v }

func uc(c domain.SearchCriteria) domain.UserCriteria {
	return domain.UserCriteria{RoomID: "room-1", Criteria: c}
}

func TestHeuristicIdenticalCriteriaScoreFull(t *testing.T) {
	t.Parallel()

	c := domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Zurich",
		PriceFrom: fp(1000),
		PriceTo:   fp(2000),
		Features:  []string{"balcony"},
	}
	s := NewHeuristicScorer()
	score, comment, err := s.ScoreCompatibility(context.Background(), uc(c), uc(c))
	if err != nil {
		t.Fatal(err)
	}
	if score != 100 {
		t.Fatalf("score=%v want 100", score)
	}
	if strings.Contains(comment, "gap") {
		t.Fatalf("comment names a gap for identical criteria: %q", comment)
	}
}

func TestHeuristicDisjointRangesScoreLow(t *testing.T) {
	t.Parallel()

	a := uc(domain.SearchCriteria{OfferType: domain.OfferRent, PriceFrom: fp(1000), PriceTo: fp(1500)})
	b := uc(domain.SearchCriteria{OfferType: domain.OfferRent, PriceFrom: fp(4000), PriceTo: fp(5000)})

	s := NewHeuristicScorer()
	score, comment, err := s.ScoreCompatibility(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if score >= 60 {
		t.Fatalf("score=%v want well below agreement", score)
	}
	if !strings.Contains(comment, "price") {
		t.Fatalf("comment %q does not name the gap dimension", comment)
	}
}

func TestHeuristicNoOverlapIsNeutral(t *testing.T) {
	t.Parallel()

	// Two empty criteria sets share no comparable factor.
	s := NewHeuristicScorer()
	score, comment, err := s.ScoreCompatibility(context.Background(),
		uc(domain.SearchCriteria{}), uc(domain.SearchCriteria{}))
	if err != nil {
		t.Fatal(err)
	}
	if score != 50 {
		t.Fatalf("score=%v want neutral 50", score)
	}
	if comment == "" {
		t.Fatalf("neutral result should still carry a comment")
	}
}

func TestHeuristicOneSidedOpinionIsMild(t *testing.T) {
	t.Parallel()

	a := uc(domain.SearchCriteria{OfferType: domain.OfferRent, PriceFrom: fp(1000), PriceTo: fp(2000)})
	b := uc(domain.SearchCriteria{OfferType: domain.OfferRent})

	s := NewHeuristicScorer()
	score, _, err := s.ScoreCompatibility(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	// offer_type agrees fully, price is one-sided: the blend sits between.
	if score < 70 || score > 95 {
		t.Fatalf("score=%v want a mild-agreement blend", score)
	}
}

func TestHeuristicWeightsShiftTheScore(t *testing.T) {
	t.Parallel()

	ca := domain.SearchCriteria{OfferType: domain.OfferRent, Location: "Zurich"}
	cb := domain.SearchCriteria{OfferType: domain.OfferRent, Location: "Basel"}

	light := domain.UserCriteria{Criteria: ca, Weights: domain.CriteriaWeights{
		Dimensions: map[domain.Dimension]int{domain.DimLocation: 1},
	}}
	heavy := domain.UserCriteria{Criteria: ca, Weights: domain.CriteriaWeights{
		Dimensions: map[domain.Dimension]int{domain.DimLocation: 5},
	}}
	other := domain.UserCriteria{Criteria: cb, Weights: domain.CriteriaWeights{
		Dimensions: map[domain.Dimension]int{domain.DimLocation: 1},
	}}

	s := NewHeuristicScorer()
	lightScore, _, err := s.ScoreCompatibility(context.Background(), light, other)
	if err != nil {
		t.Fatal(err)
	}
	heavyScore, _, err := s.ScoreCompatibility(context.Background(), heavy, other)
	if err != nil {
		t.Fatal(err)
	}
	if heavyScore >= lightScore {
		t.Fatalf("insisting on a disagreement did not lower the score: light=%v heavy=%v", lightScore, heavyScore)
	}
}

func TestHeuristicIsDeterministic(t *testing.T) {
	t.Parallel()

	a := uc(domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Zurich",
		PriceFrom: fp(1200),
		PriceTo:   fp(2400),
		Features:  []string{"balcony", "garden"},
	})
	b := uc(domain.SearchCriteria{
		OfferType: domain.OfferRent,
		Location:  "Winterthur",
		PriceFrom: fp(1500),
		Features:  []string{"garden", "parking"},
	})

	s := NewHeuristicScorer()
	first, firstComment, err := s.ScoreCompatibility(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		score, comment, err := s.ScoreCompatibility(context.Background(), a, b)
		if err != nil {
			t.Fatal(err)
		}
		if score != first || comment != firstComment {
			t.Fatalf("run %d: %v/%q, first was %v/%q", i, score, comment, first, firstComment)
		}
	}
}
