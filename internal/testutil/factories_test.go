package testutil

import (
	"reflect"
	"testing"
)

func TestFactoryReproducibleUnderSeed(t *testing.T) {
	a := NewFactory(42)
	b := NewFactory(42)

	if !reflect.DeepEqual(a.Listings(5), b.Listings(5)) {
		t.Error("same seed should produce identical listings")
	}
}

func TestFactoryListingsWellFormed(t *testing.T) {
	f := NewFactory(1)
	for _, l := range f.Listings(50) {
		if l.ItemID == "" || l.Title == "" {
			t.Fatalf("malformed listing: %+v", l)
		}
		if l.Price < 5 || l.Price > 500 {
			t.Fatalf("price %v out of range", l.Price)
		}
	}
}

func TestSoldPricesPositive(t *testing.T) {
	f := NewFactory(7)
	for _, p := range f.SoldPrices(100, 10, 50) {
		if p <= 0 {
			t.Fatalf("non-positive sold price %v", p)
		}
	}
}
