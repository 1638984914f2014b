// Package filter removes listings that violate a user's hard constraints
// before any valuation work is spent on them.
package filter

import (
	"strings"

	"github.com/flipscout/flipscout/internal/model"
)

// Stats counts rejections by reason across one batch.
type Stats struct {
	Initial  int
	Price    int
	Keyword  int
	Gender   int
	Category int
	Kept     int
}

// Options selects optional checks.
type Options struct {
	// RequireGarmentKeyword rejects titles with no recognized garment
	// category word. Off by default since it trades recall for precision.
	RequireGarmentKeyword bool
}

// Gender-signal tokens that contradict the given user gender. Matched as
// whole words so "women" never trips the men's check through substring
// overlap (and brand names like Lululemon stay clean).
var contraryGenderTokens = map[model.Gender][]string{
	model.GenderWomen: {"mens", "men", "men's", "male", "man", "boys", "boy"},
	model.GenderMen:   {"womens", "women", "women's", "female", "woman", "girls", "girl"},
}

var garmentKeywords = []string{
	"dress", "top", "skirt", "pants", "jacket", "coat", "sweater",
	"blouse", "jumpsuit", "shirt", "tee", "hoodie", "shorts", "jeans",
	"bodysuit", "legging",
}

// Accepts applies the hard constraints in fixed cheapest-first order:
// price window, excluded keywords, contrary gender signal. Deterministic,
// side-effect-free, safe for concurrent use over disjoint listings.
func Accepts(l model.Listing, user model.User) bool {
	ok, _ := check(l, user, Options{})
	return ok
}

// Apply filters a batch, returning the kept listings plus per-reason
// rejection counts for observability.
func Apply(listings []model.Listing, user model.User, opts Options) ([]model.Listing, Stats) {
	stats := Stats{Initial: len(listings)}
	kept := make([]model.Listing, 0, len(listings))

	for _, l := range listings {
		ok, reason := check(l, user, opts)
		if ok {
			kept = append(kept, l)
			continue
		}
		switch reason {
		case "price":
			stats.Price++
		case "keyword":
			stats.Keyword++
		case "gender":
			stats.Gender++
		case "category":
			stats.Category++
		}
	}

	stats.Kept = len(kept)
	return kept, stats
}

func check(l model.Listing, user model.User, opts Options) (bool, string) {
	if l.Price <= 0 || l.Price > user.Preferences.MaxPrice {
		return false, "price"
	}

	title := strings.ToLower(l.Title)
	for _, kw := range user.Preferences.ExcludedKeywords {
		if strings.Contains(title, kw) {
			return false, "keyword"
		}
	}

	words := titleWords(title)
	for _, tok := range contraryGenderTokens[user.Gender] {
		if words[tok] {
			return false, "gender"
		}
	}

	if opts.RequireGarmentKeyword {
		found := false
		for _, kw := range garmentKeywords {
			if strings.Contains(title, kw) {
				found = true
				break
			}
		}
		if !found {
			return false, "category"
		}
	}

	return true, ""
}

func titleWords(lower string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && r != '\''
	}) {
		words[w] = true
	}
	return words
}
