// Package sizes expands a user's garment-size vocabulary into the superset
// of marketplace size tokens used to build search filters.
package sizes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flipscout/flipscout/internal/model"
)

// US dress-size approximations for women's letter sizes.
var womensNumeric = map[string]string{
	"S": "4",
	"M": "8",
	"L": "12",
}

var letterWords = map[string]string{
	"S": "Small",
	"M": "Medium",
	"L": "Large",
}

// Expand produces the deduplicated, sorted set of size tokens for the given
// vocabulary and gender context. Letter sizes emit the letter and its
// spelled-out word, plus a numeric US dress size for women. Waist sizes emit
// the raw number, plus regional variants (32R, 32L, W32) for men. Unknown
// tokens pass through unchanged. The only failure mode is an unrecognized
// gender.
func Expand(s model.UserSizes, gender model.Gender) ([]string, error) {
	if gender != model.GenderMen && gender != model.GenderWomen {
		return nil, fmt.Errorf("expand sizes for %q: %w", gender, model.ErrInvalidGender)
	}

	tokens := make(map[string]struct{})

	letters := make([]string, 0, len(s.Tops)+len(s.BottomsLetter)+len(s.Outerwear))
	letters = append(letters, s.Tops...)
	letters = append(letters, s.BottomsLetter...)
	letters = append(letters, s.Outerwear...)

	for _, size := range letters {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		upper := strings.ToUpper(size)
		tokens[upper] = struct{}{}
		if word, ok := letterWords[upper]; ok {
			tokens[word] = struct{}{}
			if gender == model.GenderWomen {
				tokens[womensNumeric[upper]] = struct{}{}
			}
		}
	}

	for _, size := range s.BottomsWaist {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		tokens[size] = struct{}{}
		if gender == model.GenderMen && isDigits(size) {
			tokens[size+"R"] = struct{}{}
			tokens[size+"L"] = struct{}{}
			tokens["W"+size] = struct{}{}
		}
	}

	out := make([]string, 0, len(tokens))
	for tok := range tokens {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
