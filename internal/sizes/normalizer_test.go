package sizes

import (
	"errors"
	"testing"

	"github.com/flipscout/flipscout/internal/model"
)

func tokensOf(t *testing.T, s model.UserSizes, g model.Gender) map[string]bool {
	t.Helper()
	out, err := Expand(s, g)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	set := make(map[string]bool, len(out))
	for _, tok := range out {
		set[tok] = true
	}
	return set
}

func TestExpand_WomensMedium(t *testing.T) {
	// M in a women's context must include the letter, the word, and the
	// US dress-size approximation.
	set := tokensOf(t, model.UserSizes{Tops: []string{"M"}}, model.GenderWomen)
	for _, want := range []string{"M", "Medium", "8"} {
		if !set[want] {
			t.Errorf("expected token %q in %v", want, set)
		}
	}
}

func TestExpand_WomensLetterMapping(t *testing.T) {
	set := tokensOf(t, model.UserSizes{
		Tops:          []string{"S"},
		BottomsLetter: []string{"L"},
	}, model.GenderWomen)

	for _, want := range []string{"S", "Small", "4", "L", "Large", "12"} {
		if !set[want] {
			t.Errorf("expected token %q", want)
		}
	}
}

func TestExpand_MensWaistVariants(t *testing.T) {
	set := tokensOf(t, model.UserSizes{BottomsWaist: []string{"33"}}, model.GenderMen)
	for _, want := range []string{"33", "33R", "33L", "W33"} {
		if !set[want] {
			t.Errorf("expected token %q in %v", want, set)
		}
	}
}

func TestExpand_WomensWaistNoMensVariants(t *testing.T) {
	set := tokensOf(t, model.UserSizes{BottomsWaist: []string{"27"}}, model.GenderWomen)
	if !set["27"] {
		t.Error("expected raw waist token")
	}
	if set["27R"] || set["W27"] {
		t.Error("men's variants must not appear in a women's context")
	}
}

func TestExpand_MensLetterNoDressSize(t *testing.T) {
	set := tokensOf(t, model.UserSizes{Tops: []string{"M"}}, model.GenderMen)
	if !set["M"] || !set["Medium"] {
		t.Error("expected letter and word tokens")
	}
	if set["8"] {
		t.Error("dress-size mapping must not apply to men")
	}
}

func TestExpand_UnknownTokenPassesThrough(t *testing.T) {
	set := tokensOf(t, model.UserSizes{Tops: []string{"XL"}, BottomsWaist: []string{"one size"}}, model.GenderMen)
	if !set["XL"] {
		t.Error("unknown letter size should pass through unchanged")
	}
	if !set["one size"] {
		t.Error("non-numeric waist token should pass through unchanged")
	}
	if set["one sizeR"] {
		t.Error("non-numeric waist token must not get regional variants")
	}
}

func TestExpand_Deduplicates(t *testing.T) {
	out, err := Expand(model.UserSizes{
		Tops:      []string{"M"},
		Outerwear: []string{"M"},
	}, model.GenderMen)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]int)
	for _, tok := range out {
		seen[tok]++
	}
	if seen["M"] != 1 {
		t.Errorf("expected M exactly once, got %d", seen["M"])
	}
}

func TestExpand_InvalidGender(t *testing.T) {
	_, err := Expand(model.UserSizes{Tops: []string{"M"}}, model.Gender("kids"))
	if !errors.Is(err, model.ErrInvalidGender) {
		t.Errorf("expected ErrInvalidGender, got %v", err)
	}
}

func TestExpand_Deterministic(t *testing.T) {
	s := model.UserSizes{Tops: []string{"S", "M"}, BottomsWaist: []string{"26", "27"}}
	first, err := Expand(s, model.GenderWomen)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := Expand(s, model.GenderWomen)
	if len(first) != len(second) {
		t.Fatal("expand not deterministic")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs at %d: %q vs %q", i, first[i], second[i])
		}
	}
}
