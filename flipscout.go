// Package flipscout discovers resale arbitrage opportunities on the eBay
// marketplace: it searches a user's brands in their sizes, values each
// listing against recent sold comparables and surfaces the listings that
// can be flipped at a profit.
package flipscout

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/flipscout/flipscout/internal/brands"
	"github.com/flipscout/flipscout/internal/cache"
	"github.com/flipscout/flipscout/internal/comps"
	"github.com/flipscout/flipscout/internal/config"
	"github.com/flipscout/flipscout/internal/ebay"
	"github.com/flipscout/flipscout/internal/filter"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/pipeline"
	"github.com/flipscout/flipscout/internal/refresh"
	"github.com/flipscout/flipscout/internal/scheduler"
	"github.com/flipscout/flipscout/internal/users"
	"github.com/flipscout/flipscout/internal/valuation"
)

// Re-exported so callers work with one import.
type (
	// User is a buyer profile.
	User = model.User
	// Listing is one marketplace offer.
	Listing = model.Listing
	// AnalyzedListing pairs a listing with its valuation.
	AnalyzedListing = scheduler.AnalyzedListing
	// FilterStats counts rejections by reason for one batch.
	FilterStats = filter.Stats
)

// Engine bundles the wired pipeline plus the user registry.
type Engine struct {
	cfg      *config.Config
	log      *logrus.Logger
	finder   *pipeline.Finder
	refresh  *refresh.Service
	Users    *users.Registry
	QueryLog *cache.QueryCache
}

// New loads configuration from the environment and wires the full
// pipeline. Users start from the demo registry; replace or extend via
// Engine.Users.
func New(log *logrus.Logger) (*Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, log)
}

// NewWithConfig wires the pipeline from an existing configuration.
func NewWithConfig(cfg *config.Config, log *logrus.Logger) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	catalog := brands.Default()
	if cfg.BrandCatalogPath != "" {
		loaded, err := brands.Load(cfg.BrandCatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	client := ebay.NewClient(ebay.Config{
		ClientID:     cfg.EBay.ClientID,
		ClientSecret: cfg.EBay.ClientSecret,
		RefreshToken: cfg.EBay.RefreshToken,
		Timeout:      cfg.RequestTimeout,
		MinDelay:     cfg.MinRequestDelay,
	}, logrus.NewEntry(log))

	soldSource := comps.NewChain(
		comps.NewBrowseProvider(client),
		comps.NewScraper(cfg.RequestTimeout),
	)
	valuator := valuation.NewValuator(soldSource, cfg.SoldDaysBack, log)
	calc := valuation.Calculator{
		FeeRate:          cfg.FeeRate(),
		ShippingEstimate: cfg.ShippingEstimate,
		DealThreshold:    cfg.DealThreshold,
		OfferDiscount:    cfg.OfferDiscount,
	}

	queryCache := cache.NewQueryCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	sched := scheduler.New(client, queryCache, catalog, valuator, calc, scheduler.Config{
		MinRequestDelay:  cfg.MinRequestDelay,
		ThrottleCooldown: cfg.ThrottleCooldown,
		RequestTimeout:   cfg.RequestTimeout,
		ChunkSize:        cfg.ChunkSize,
		DaysBack:         cfg.SoldDaysBack,
		ResultLimit:      cfg.ResultLimit,
		MinPrice:         cfg.MinPriceThreshold,
		MaxPrice:         cfg.MaxPriceThreshold,
	}, log)

	finder := pipeline.NewFinder(sched, log)
	registry := users.NewDemoRegistry()

	return &Engine{
		cfg:      cfg,
		log:      log,
		finder:   finder,
		refresh:  refresh.NewService(finder, registry, nil, cfg.RequestTimeout*10, log),
		Users:    registry,
		QueryLog: queryCache,
	}, nil
}

// FindDealsForUser runs discovery for the registered user ID and returns
// analyzed listings sorted by ascending price, with rejection counts.
func (e *Engine) FindDealsForUser(ctx context.Context, userID string) ([]AnalyzedListing, FilterStats, error) {
	user, err := e.Users.Get(userID)
	if err != nil {
		return nil, FilterStats{}, err
	}
	return e.finder.FindDealsForUser(ctx, user)
}

// AnalyzeBatch values an arbitrary batch of listings.
func (e *Engine) AnalyzeBatch(ctx context.Context, listings []Listing) ([]AnalyzedListing, error) {
	return e.finder.AnalyzeBatch(ctx, listings)
}

// GoodDeals filters analyzed listings down to the ones clearing the
// user's ROI floor.
func (e *Engine) GoodDeals(items []AnalyzedListing, user User) []AnalyzedListing {
	return pipeline.GoodDeals(items, user)
}

// StartRefresh schedules periodic scans ("@every 1h" style cron specs),
// delivering each user's deals to the handler.
func (e *Engine) StartRefresh(spec string, handler refresh.ResultHandler) error {
	e.refresh = refresh.NewService(e.finder, e.Users, handler, e.cfg.RequestTimeout*10, e.log)
	return e.refresh.Start(spec)
}

// StopRefresh halts the refresh schedule.
func (e *Engine) StopRefresh() {
	e.refresh.Stop()
}
