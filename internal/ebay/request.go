package ebay

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/flipscout/flipscout/internal/cache"
)

// SearchRequest describes one live-listing search. Fields map onto the
// Browse API search parameters; zero values are omitted from the request.
type SearchRequest struct {
	Keywords    string
	CategoryIDs []string
	MinPrice    float64
	MaxPrice    float64
	Conditions  []string
	SizeTokens  []string
	Limit       int

	// FixedPriceOnly excludes pure auctions from the results.
	FixedPriceOnly bool
	// DeliveryCountry restricts results to listings deliverable there.
	DeliveryCountry string
}

// Fingerprint returns the canonical cache key for this request. Size tokens
// are folded into the keyword component in sorted order so two requests
// differing only in token order share a key.
func (r SearchRequest) Fingerprint() string {
	keywords := r.Keywords
	if len(r.SizeTokens) > 0 {
		tokens := append([]string(nil), r.SizeTokens...)
		sort.Strings(tokens)
		keywords = keywords + " " + strings.Join(tokens, " ")
	}
	return cache.Fingerprint(keywords, r.CategoryIDs, r.MinPrice, r.MaxPrice, r.Conditions, r.Limit)
}

// queryValues renders the request as Browse API query parameters.
func (r SearchRequest) queryValues() url.Values {
	v := url.Values{}
	v.Set("q", r.Keywords)
	if len(r.CategoryIDs) > 0 {
		v.Set("category_ids", strings.Join(r.CategoryIDs, ","))
	}
	limit := r.Limit
	if limit <= 0 {
		limit = 50
	}
	v.Set("limit", fmt.Sprintf("%d", limit))
	if filter := r.filterString(); filter != "" {
		v.Set("filter", filter)
	}
	if len(r.SizeTokens) > 0 {
		v.Set("aspect_filter", "categoryId:"+firstCategory(r.CategoryIDs)+",Size:{"+strings.Join(r.SizeTokens, "|")+"}")
	}
	return v
}

func (r SearchRequest) filterString() string {
	var parts []string
	if r.MinPrice > 0 || r.MaxPrice > 0 {
		lo := "0"
		if r.MinPrice > 0 {
			lo = fmt.Sprintf("%.2f", r.MinPrice)
		}
		if r.MaxPrice > 0 {
			parts = append(parts, fmt.Sprintf("price:[%s..%.2f]", lo, r.MaxPrice))
		} else {
			parts = append(parts, fmt.Sprintf("price:[%s]", lo))
		}
		parts = append(parts, "priceCurrency:USD")
	}
	if len(r.Conditions) > 0 {
		parts = append(parts, "conditions:{"+strings.Join(r.Conditions, "|")+"}")
	}
	if r.FixedPriceOnly {
		parts = append(parts, "buyingOptions:{FIXED_PRICE|BEST_OFFER}")
	}
	if r.DeliveryCountry != "" {
		parts = append(parts, "deliveryCountry:"+r.DeliveryCountry)
	}
	return strings.Join(parts, ",")
}

func firstCategory(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
