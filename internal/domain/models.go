package domain

import (
	"errors"
	"time"
)

// OfferType is the one mandatory criteria field.
type OfferType string

const (
	OfferBuy  OfferType = "buy"
	OfferRent OfferType = "rent"
)

func (o OfferType) IsValid() bool {
	return o == OfferBuy || o == OfferRent
}

// ErrMissingOfferType is returned for structurally invalid criteria a caller must not ignore.
var ErrMissingOfferType = errors.New("criteria: offer_type is required (buy|rent)")

// CombineMode governs how two parties' preferences merge.
type CombineMode string

const (
	CombineAll    CombineMode = "all"
	CombineMixed  CombineMode = "mixed"
	CombineStrict CombineMode = "strict"
)

func (m CombineMode) IsValid() bool {
	return m == CombineAll || m == CombineMixed || m == CombineStrict
}

// CriteriaSource tells whether a record was typed in or proposed by the assistant.
type CriteriaSource string

const (
	SourceManual     CriteriaSource = "manual"
	SourceAIProposed CriteriaSource = "ai_proposed"
)

// Dimension names one attribute of a criteria object subject to combination and conformity.
type Dimension string

const (
	DimPrice        Dimension = "price"
	DimRooms        Dimension = "rooms"
	DimLivingSpace  Dimension = "living_space"
	DimYearBuilt    Dimension = "year_built"
	DimLotSize      Dimension = "lot_size"
	DimLocation     Dimension = "location"
	DimCategory     Dimension = "category"
	DimOfferType    Dimension = "offer_type"
	DimRadius       Dimension = "radius"
	DimFloor        Dimension = "floor"
	DimAvailability Dimension = "availability"
	DimFeatures     Dimension = "features"
)

// RangedDimensions lists the numeric (from,to) dimensions in evaluation order.
func RangedDimensions() []Dimension {
	return []Dimension{DimPrice, DimRooms, DimLivingSpace, DimYearBuilt, DimLotSize}
}

// Weight scale. Absence means neutral, not zero.
const (
	WeightMin     = 1
	WeightNeutral = 3
	WeightMax     = 5
)

// CriteriaWeights carries per-dimension importance plus optional per-feature-tag weights.
type CriteriaWeights struct {
	Dimensions map[Dimension]int `json:"dimensions,omitempty"`
	Features   map[string]int    `json:"features,omitempty"`
}

// Of returns the weight for a dimension, neutral when unset, clamped to the 1..5 scale.
func (w CriteriaWeights) Of(d Dimension) int {
	v, ok := w.Dimensions[d]
	if !ok {
		return WeightNeutral
	}
	return clampWeight(v)
}

// OfFeature returns the weight for a feature tag, neutral when unset.
func (w CriteriaWeights) OfFeature(tag string) int {
	v, ok := w.Features[tag]
	if !ok {
		return WeightNeutral
	}
	return clampWeight(v)
}

func clampWeight(v int) int {
	if v < WeightMin {
		return WeightMin
	}
	if v > WeightMax {
		return WeightMax
	}
	return v
}

// SearchCriteria is one party's desired attributes. Everything except OfferType is optional.
// From <= To is expected but deliberately not enforced here; violations surface at
// evaluation time instead of being silently corrected.
type SearchCriteria struct {
	OfferType       OfferType `json:"offer_type"`
	Location        string    `json:"location,omitempty"`
	RadiusKm        *float64  `json:"radius_km,omitempty"`
	Category        string    `json:"category,omitempty"`
	PriceFrom       *float64  `json:"price_from,omitempty"`
	PriceTo         *float64  `json:"price_to,omitempty"`
	RoomsFrom       *float64  `json:"rooms_from,omitempty"`
	RoomsTo         *float64  `json:"rooms_to,omitempty"`
	LivingSpaceFrom *float64  `json:"living_space_from,omitempty"`
	LivingSpaceTo   *float64  `json:"living_space_to,omitempty"`
	YearBuiltFrom   *float64  `json:"year_built_from,omitempty"`
	YearBuiltTo     *float64  `json:"year_built_to,omitempty"`
	LotSizeFrom     *float64  `json:"lot_size_from,omitempty"`
	LotSizeTo       *float64  `json:"lot_size_to,omitempty"`
	Floor           *int      `json:"floor,omitempty"`
	Availability    string    `json:"availability,omitempty"`
	FreeText        string    `json:"free_text,omitempty"`
	Features        []string  `json:"features,omitempty"`
}

// Validate checks the structural invariants only.
func (c SearchCriteria) Validate() error {
	if !c.OfferType.IsValid() {
		return ErrMissingOfferType
	}
	return nil
}

// Range returns the bounds for a ranged dimension; nil pointers mean unbounded sides.
func (c SearchCriteria) Range(d Dimension) (from, to *float64) {
	switch d {
	case DimPrice:
		return c.PriceFrom, c.PriceTo
	case DimRooms:
		return c.RoomsFrom, c.RoomsTo
	case DimLivingSpace:
		return c.LivingSpaceFrom, c.LivingSpaceTo
	case DimYearBuilt:
		return c.YearBuiltFrom, c.YearBuiltTo
	case DimLotSize:
		return c.LotSizeFrom, c.LotSizeTo
	}
	return nil, nil
}

// SetRange writes the bounds for a ranged dimension.
func (c *SearchCriteria) SetRange(d Dimension, from, to *float64) {
	switch d {
	case DimPrice:
		c.PriceFrom, c.PriceTo = from, to
	case DimRooms:
		c.RoomsFrom, c.RoomsTo = from, to
	case DimLivingSpace:
		c.LivingSpaceFrom, c.LivingSpaceTo = from, to
	case DimYearBuilt:
		c.YearBuiltFrom, c.YearBuiltTo = from, to
	case DimLotSize:
		c.LotSizeFrom, c.LotSizeTo = from, to
	}
}

// UserCriteria is an append-only record; "current" means latest timestamp per (room, user).
type UserCriteria struct {
	RoomID    string          `json:"room_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Criteria  SearchCriteria  `json:"criteria"`
	Weights   CriteriaWeights `json:"weights"`
	Source    CriteriaSource  `json:"source"`
}

// CombinedCriteria is always derived, never hand-edited. Each recomputation is a new record.
type CombinedCriteria struct {
	RoomID      string          `json:"room_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Criteria    SearchCriteria  `json:"criteria"`
	Weights     CriteriaWeights `json:"weights"`
	FromUserIDs []string        `json:"from_user_ids"`
	CombineMode CombineMode     `json:"combine_mode"`
	// Infeasible lists dimensions whose strict merge produced min > max.
	// Conflicts lists scalar dimensions both parties insist on with differing values.
	// Both are flagged data, not errors.
	Infeasible []Dimension `json:"infeasible,omitempty"`
	Conflicts  []Dimension `json:"conflicts,omitempty"`
}

// CompatibilityLevel is the discrete bucket derived from a numeric agreement score.
type CompatibilityLevel string

const (
	CompatLow    CompatibilityLevel = "low"
	CompatMedium CompatibilityLevel = "medium"
	CompatHigh   CompatibilityLevel = "high"
)

// CriteriaRef pins the exact UserCriteria record a snapshot was computed from.
type CriteriaRef struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CompatibilitySnapshot records one compatibility computation. Level is always
// bucketer(ScorePercent) and never set independently.
type CompatibilitySnapshot struct {
	ID           string             `json:"id"`
	RoomID       string             `json:"room_id"`
	Timestamp    time.Time          `json:"timestamp"`
	ScorePercent float64            `json:"score_percent"`
	Level        CompatibilityLevel `json:"level"`
	Comment      string             `json:"comment,omitempty"`
	CriteriaRefs []CriteriaRef      `json:"criteria_refs"`
}

// Stale reports whether any referenced party has a newer UserCriteria record.
func (s CompatibilitySnapshot) Stale(latest map[string]time.Time) bool {
	for _, ref := range s.CriteriaRefs {
		if ts, ok := latest[ref.UserID]; ok && ts.After(ref.Timestamp) {
			return true
		}
	}
	return false
}

// ConformityLevel classifies one listing dimension against one criteria set.
type ConformityLevel string

const (
	ConformityMatch   ConformityLevel = "match"
	ConformityNear    ConformityLevel = "near"
	ConformityMiss    ConformityLevel = "miss"
	ConformityUnknown ConformityLevel = "unknown"
)

// ListingStatus is the only listing field besides seen-by that mutates after creation.
type ListingStatus string

const (
	ListingNew         ListingStatus = "new"
	ListingShortlisted ListingStatus = "shortlisted"
	ListingVisited     ListingStatus = "visited"
	ListingRejected    ListingStatus = "rejected"
)

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingNew, ListingShortlisted, ListingVisited, ListingRejected:
		return true
	}
	return false
}

// Listing is a pinned candidate property. ExternalID is fixed at creation and used
// for dedup within a room.
type Listing struct {
	ID          string        `json:"id"`
	RoomID      string        `json:"room_id"`
	ExternalID  string        `json:"external_id"`
	Source      string        `json:"source"`
	URL         string        `json:"url"`
	Title       string        `json:"title,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Rooms       *float64      `json:"rooms,omitempty"`
	LivingSpace *float64      `json:"living_space,omitempty"`
	YearBuilt   *float64      `json:"year_built,omitempty"`
	LotSize     *float64      `json:"lot_size,omitempty"`
	Location    string        `json:"location,omitempty"`
	Features    []string      `json:"features,omitempty"`
	Status      ListingStatus `json:"status"`
	SeenBy      []string      `json:"seen_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Value returns the listing's numeric attribute for a ranged dimension, nil when absent.
func (l Listing) Value(d Dimension) *float64 {
	switch d {
	case DimPrice:
		return l.Price
	case DimRooms:
		return l.Rooms
	case DimLivingSpace:
		return l.LivingSpace
	case DimYearBuilt:
		return l.YearBuilt
	case DimLotSize:
		return l.LotSize
	}
	return nil
}
