package model

import (
	"errors"
	"math"
	"strings"
)

// Condition is the normalized item condition reported by the marketplace.
type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionUsed    Condition = "USED"
	ConditionUnknown Condition = "UNKNOWN"
)

// ParseCondition maps marketplace condition strings ("New with tags",
// "Pre-owned", ...) onto the three buckets the analysis cares about.
func ParseCondition(s string) Condition {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "new"):
		return ConditionNew
	case strings.Contains(lower, "used"), strings.Contains(lower, "pre-owned"), strings.Contains(lower, "preowned"):
		return ConditionUsed
	default:
		return ConditionUnknown
	}
}

// ShippingType describes how a listing's shipping cost is determined.
type ShippingType string

const (
	ShippingFixed      ShippingType = "FIXED"
	ShippingCalculated ShippingType = "CALCULATED"
	ShippingUnknown    ShippingType = "UNKNOWN"
)

// ShippingInfo is the shipping descriptor attached to a listing.
// A FIXED type with Cost 0 means explicitly free shipping.
type ShippingInfo struct {
	Type ShippingType
	Cost float64
}

// BuyingOption is a purchase mode offered by a listing.
type BuyingOption string

const (
	BuyingFixedPrice BuyingOption = "FIXED_PRICE"
	BuyingAuction    BuyingOption = "AUCTION"
	BuyingBestOffer  BuyingOption = "BEST_OFFER"
)

// Listing is one marketplace offer. Immutable once retrieved.
type Listing struct {
	ItemID        string
	Title         string
	Price         float64
	Currency      string
	Condition     Condition
	Size          string        // optional size token
	Shipping      *ShippingInfo // nil when the source reports nothing
	BuyingOptions []BuyingOption
	SellerScore   int    // seller feedback score, 0 when unknown
	Location      string // item location country, optional
	URL           string
}

// HasBuyingOption reports whether the listing offers the given purchase mode.
func (l Listing) HasBuyingOption(opt BuyingOption) bool {
	for _, o := range l.BuyingOptions {
		if o == opt {
			return true
		}
	}
	return false
}

// PriceAnalysis is the per-listing valuation result. Created once per
// analysis pass and never mutated afterwards.
//
// Invariants: RealProfit = MedianPrice - TotalCost - Fees,
// ROI = RealProfit / TotalCost * 100 (the calculator guarantees
// TotalCost > 0), Confidence in [0,1].
type PriceAnalysis struct {
	MedianPrice float64
	MeanPrice   float64
	StdDev      float64
	SampleSize  int
	TotalCost   float64
	Fees        float64
	RealProfit  float64
	ROI         float64
	Confidence  float64
	IsGoodDeal  bool

	// Negotiated holds the best-offer variant when the listing accepts
	// offers. It never replaces the non-negotiated result.
	Negotiated *PriceAnalysis
}

// Gender selects the search and size-expansion context.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
)

// ErrInvalidGender is returned for any gender value other than men/women.
var ErrInvalidGender = errors.New("invalid gender")

// ParseGender validates a gender string.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case GenderMen:
		return GenderMen, nil
	case GenderWomen:
		return GenderWomen, nil
	default:
		return "", ErrInvalidGender
	}
}

// UserSizes holds a user's size vocabulary per garment type.
type UserSizes struct {
	Tops          []string
	BottomsWaist  []string
	BottomsLetter []string
	Outerwear     []string
}

// NewUserSizes normalizes letter sizes to upper case. Waist sizes are kept
// as given.
func NewUserSizes(tops, bottomsWaist, bottomsLetter, outerwear []string) UserSizes {
	return UserSizes{
		Tops:          upperAll(tops),
		BottomsWaist:  trimAll(bottomsWaist),
		BottomsLetter: upperAll(bottomsLetter),
		Outerwear:     upperAll(outerwear),
	}
}

// DefaultExcludedKeywords are junk-listing markers every profile excludes
// unless it supplies its own list.
var DefaultExcludedKeywords = []string{"fake", "replica", "inspired", "wholesale", "lot", "bulk"}

// UserPreferences holds a user's hard constraints. Normalized at
// construction; treat as immutable afterwards.
type UserPreferences struct {
	Brands           []string
	MaxPrice         float64
	MinROI           float64
	ExcludedKeywords []string
}

// NewUserPreferences trims brands, lower-cases excluded keywords, maps a
// non-positive price ceiling to +Inf and clamps a negative ROI floor to 0.
func NewUserPreferences(brands []string, maxPrice, minROI float64, excluded []string) UserPreferences {
	if maxPrice <= 0 {
		maxPrice = math.Inf(1)
	}
	if minROI < 0 {
		minROI = 0
	}
	if excluded == nil {
		excluded = DefaultExcludedKeywords
	}
	kws := make([]string, 0, len(excluded))
	for _, kw := range excluded {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return UserPreferences{
		Brands:           trimAll(brands),
		MaxPrice:         maxPrice,
		MinROI:           minROI,
		ExcludedKeywords: kws,
	}
}

// User is a buyer profile. Storage of profiles is handled outside the core.
type User struct {
	ID          string
	Name        string
	Gender      Gender
	Sizes       UserSizes
	Preferences UserPreferences
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
