package cache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// Fingerprint produces a stable cache key from query parameters.
// Ordering-independent inputs (category IDs, conditions) are sorted before
// hashing so equivalent queries collide; keywords are case-folded and
// whitespace-normalized. The tuple order itself is fixed.
func Fingerprint(keywords string, categoryIDs []string, minPrice, maxPrice float64, conditions []string, limit int) string {
	parts := []string{
		strings.Join(strings.Fields(strings.ToLower(keywords)), " "),
		strings.Join(sortedCopy(categoryIDs), ","),
		fmt.Sprintf("%.2f", minPrice),
		fmt.Sprintf("%.2f", maxPrice),
		strings.Join(sortedUpper(conditions), ","),
		fmt.Sprintf("%d", limit),
	}

	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("q:%016x", h.Sum64())
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func sortedUpper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	sort.Strings(out)
	return out
}
