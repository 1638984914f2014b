package brands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/flipscout/flipscout/internal/model"
)

// Entry describes how to search one brand: the garment keywords that
// identify it and the marketplace category IDs per gender. Aliases are
// alternate spellings worth OR-ing into a query ("APC" vs "A.P.C.").
type Entry struct {
	Keywords   []string            `json:"keywords"`
	Categories map[string][]string `json:"categories"`
	Aliases    []string            `json:"aliases,omitempty"`
}

// Catalog is a loadable brand configuration table. Keeping this as data
// rather than code lets the table change without touching valuation logic.
type Catalog struct {
	entries map[string]Entry
}

// Load reads a catalog from a JSON file mapping brand name to Entry.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand catalog: %w", err)
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse brand catalog: %w", err)
	}
	return fromEntries(entries), nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return fromEntries(defaultEntries)
}

func fromEntries(in map[string]Entry) *Catalog {
	entries := make(map[string]Entry, len(in))
	for name, e := range in {
		entries[strings.ToLower(strings.TrimSpace(name))] = e
	}
	return &Catalog{entries: entries}
}

// Lookup finds a brand entry by case-insensitive name.
func (c *Catalog) Lookup(brand string) (Entry, bool) {
	e, ok := c.entries[strings.ToLower(strings.TrimSpace(brand))]
	return e, ok
}

// CategoryIDs returns the marketplace category IDs for a brand and gender.
// Unknown brands and brands with no categories for the gender yield nil.
func (c *Catalog) CategoryIDs(brand string, gender model.Gender) []string {
	e, ok := c.Lookup(brand)
	if !ok {
		return nil
	}
	return e.Categories[string(gender)]
}

// QueryTerms returns the brand name plus any aliases, for OR-ing into a
// keyword query.
func (c *Catalog) QueryTerms(brand string) []string {
	terms := []string{brand}
	if e, ok := c.Lookup(brand); ok {
		terms = append(terms, e.Aliases...)
	}
	return terms
}

// Keywords returns the garment keywords for a brand filtered by gender
// context: men's context drops women-specific terms and vice versa.
func (c *Catalog) Keywords(brand string, gender model.Gender) []string {
	e, ok := c.Lookup(brand)
	if !ok {
		return nil
	}
	var out []string
	for _, kw := range e.Keywords {
		lower := strings.ToLower(kw)
		if gender == model.GenderMen && (strings.Contains(lower, "women") || strings.Contains(lower, "dress")) {
			continue
		}
		if gender == model.GenderWomen && lower == "mens" {
			continue
		}
		out = append(out, kw)
	}
	return out
}

var (
	mensCats   = []string{"57990", "57989", "57988"}
	womensCats = []string{"15724", "53159", "63861"}
)

var defaultEntries = map[string]Entry{
	"lululemon": {
		Keywords:   []string{"activewear", "athletic", "yoga", "pants", "shorts", "shirt", "jacket", "hoodie"},
		Categories: map[string][]string{"men": {"15687", "57989", "185099"}, "women": {"15724", "53159", "63861"}},
	},
	"norse projects": {
		Keywords:   []string{"streetwear", "casual", "shirt", "jacket", "pants", "sweater", "overshirt", "tee"},
		Categories: map[string][]string{"men": mensCats, "women": womensCats},
	},
	"apc": {
		Keywords:   []string{"denim", "jeans", "shirt", "jacket", "sweater", "coat", "tee"},
		Categories: map[string][]string{"men": mensCats, "women": womensCats},
		Aliases:    []string{"A.P.C", "A.P.C."},
	},
	"theory": {
		Keywords:   []string{"suit", "blazer", "shirt", "pants", "sweater", "jacket"},
		Categories: map[string][]string{"men": mensCats, "women": womensCats},
	},
	"stylenanda": {
		Keywords:   []string{"dress", "top", "skirt", "pants", "jacket", "coat"},
		Categories: map[string][]string{"women": womensCats},
	},
	"ader error": {
		Keywords:   []string{"oversized", "shirt", "sweater", "hoodie", "jacket", "pants"},
		Categories: map[string][]string{"women": womensCats},
	},
	"house of cb": {
		Keywords:   []string{"dress", "top", "skirt", "bodysuit", "corset"},
		Categories: map[string][]string{"women": womensCats},
	},
	"oh polly": {
		Keywords:   []string{"dress", "top", "skirt", "bodysuit"},
		Categories: map[string][]string{"women": womensCats},
	},
	"meshki": {
		Keywords:   []string{"dress", "top", "skirt", "pants", "bodysuit"},
		Categories: map[string][]string{"women": womensCats},
	},
	"cult gaia": {
		Keywords:   []string{"dress", "top", "skirt", "pants", "bag"},
		Categories: map[string][]string{"women": womensCats},
	},
}
