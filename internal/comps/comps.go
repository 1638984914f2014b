// Package comps provides sold-comparable price sources. The primary source
// is the marketplace API; a scraper over the public sold-listings page
// serves as a fallback when API credentials are absent.
package comps

import (
	"context"

	"github.com/flipscout/flipscout/internal/ebay"
)

// Provider yields sold prices for a listing title.
type Provider interface {
	// Available reports whether the provider can serve requests.
	Available() bool
	// ProviderName identifies the provider in logs.
	ProviderName() string
	// SoldPrices returns sale prices observed over the trailing window.
	SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error)
}

// BrowseProvider serves comparables from the marketplace API.
type BrowseProvider struct {
	source ebay.Source
}

var _ Provider = (*BrowseProvider)(nil)

// NewBrowseProvider wraps a marketplace source as a comparables provider.
func NewBrowseProvider(source ebay.Source) *BrowseProvider {
	return &BrowseProvider{source: source}
}

func (p *BrowseProvider) Available() bool {
	return p.source != nil && p.source.Available()
}

func (p *BrowseProvider) ProviderName() string {
	return "ebay-browse"
}

func (p *BrowseProvider) SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error) {
	return p.source.SearchSold(ctx, title, daysBack)
}

// Chain tries providers in order and returns the first non-empty result.
type Chain struct {
	providers []Provider
}

var _ Provider = (*Chain)(nil)

// NewChain builds a provider that falls through unavailable or empty
// providers in the given order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

func (c *Chain) ProviderName() string {
	return "chain"
}

func (c *Chain) SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		prices, err := p.SoldPrices(ctx, title, daysBack)
		if err != nil {
			lastErr = err
			continue
		}
		if len(prices) > 0 {
			return prices, nil
		}
	}
	return nil, lastErr
}
