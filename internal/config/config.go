package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings. Load once at startup and
// pass down explicitly; nothing in this package is a process-wide singleton.
type Config struct {
	EBay struct {
		ClientID     string `env:"EBAY_CLIENT_ID"`
		ClientSecret string `env:"EBAY_CLIENT_SECRET"`
		RedirectURI  string `env:"EBAY_REDIRECT_URI"`
		RefreshToken string `env:"EBAY_REFRESH_TOKEN"`
	}

	// Fee and cost model.
	FeePercentage    float64 `env:"EBAY_FEE_PERCENTAGE" envDefault:"12.9"`
	ShippingEstimate float64 `env:"AVERAGE_SHIPPING_COST" envDefault:"7.99"`
	DealThreshold    float64 `env:"DEAL_PERCENTAGE_THRESHOLD" envDefault:"20.0"`
	OfferDiscount    float64 `env:"BEST_OFFER_DISCOUNT" envDefault:"0.20"`

	// Search window.
	MinPriceThreshold float64 `env:"MIN_PRICE_THRESHOLD" envDefault:"5.0"`
	MaxPriceThreshold float64 `env:"MAX_PRICE_THRESHOLD" envDefault:"1000.0"`
	SoldDaysBack      int     `env:"SOLD_DAYS_BACK" envDefault:"30"`
	ResultLimit       int     `env:"SEARCH_RESULT_LIMIT" envDefault:"50"`

	// Query cache.
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	// Outbound request pacing.
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	MinRequestDelay  time.Duration `env:"MIN_REQUEST_DELAY" envDefault:"1s"`
	ThrottleCooldown time.Duration `env:"THROTTLE_COOLDOWN" envDefault:"5s"`
	ChunkSize        int           `env:"ANALYZE_CHUNK_SIZE" envDefault:"50"`

	// Brand catalog override; embedded defaults are used when empty.
	BrandCatalogPath string `env:"BRAND_CATALOG_PATH"`
}

// Load reads .env if present, then parses the environment. A missing .env
// is not an error; the environment alone may carry everything.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FeePercentage < 0 || c.FeePercentage >= 100 {
		return fmt.Errorf("EBAY_FEE_PERCENTAGE out of range: %v", c.FeePercentage)
	}
	if c.OfferDiscount < 0 || c.OfferDiscount >= 1 {
		return fmt.Errorf("BEST_OFFER_DISCOUNT out of range: %v", c.OfferDiscount)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ANALYZE_CHUNK_SIZE must be positive: %d", c.ChunkSize)
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive: %d", c.CacheMaxEntries)
	}
	return nil
}

// FeeRate converts the configured fee percentage to a multiplier.
func (c *Config) FeeRate() float64 {
	return c.FeePercentage / 100
}
