// Package testutil generates dynamic fixture data for tests across the
// module.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/flipscout/flipscout/internal/model"
)

// Factory produces randomized but well-formed domain values from a seeded
// generator, so tests stay reproducible under a fixed seed.
type Factory struct {
	rand *rand.Rand
}

// NewFactory creates a factory. Seed zero picks a time-based seed.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{rand: rand.New(rand.NewSource(seed))}
}

var factoryBrands = []string{"Lululemon", "Theory", "Norse Projects", "APC", "Cult Gaia"}

var factoryGarments = []string{"Jacket", "Blazer", "Pants", "Dress", "Sweater", "Coat"}

// Brand returns one of the known test brands.
func (f *Factory) Brand() string {
	return factoryBrands[f.rand.Intn(len(factoryBrands))]
}

// Title returns a plausible listing title for the brand.
func (f *Factory) Title(brand string) string {
	garment := factoryGarments[f.rand.Intn(len(factoryGarments))]
	return fmt.Sprintf("%s %s Size %d", brand, garment, f.rand.Intn(12)+2)
}

// Price returns a listing price between $5 and $500.
func (f *Factory) Price() float64 {
	return float64(f.rand.Intn(49500)+500) / 100
}

// Listing returns a well-formed fixed-price listing.
func (f *Factory) Listing() model.Listing {
	brand := f.Brand()
	return model.Listing{
		ItemID:        fmt.Sprintf("v1|%d|0", f.rand.Int63()),
		Title:         f.Title(brand),
		Price:         f.Price(),
		Currency:      "USD",
		Condition:     model.ConditionUsed,
		BuyingOptions: []model.BuyingOption{model.BuyingFixedPrice},
		URL:           fmt.Sprintf("https://example.test/itm/%d", f.rand.Int63()),
	}
}

// Listings returns n well-formed listings.
func (f *Factory) Listings(n int) []model.Listing {
	out := make([]model.Listing, n)
	for i := range out {
		out[i] = f.Listing()
	}
	return out
}

// SoldPrices returns n sold prices clustered around center with the given
// spread. All returned prices are positive.
func (f *Factory) SoldPrices(n int, center, spread float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		p := center + (f.rand.Float64()*2-1)*spread
		if p < 1 {
			p = 1
		}
		out[i] = p
	}
	return out
}
