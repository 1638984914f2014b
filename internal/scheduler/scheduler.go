// Package scheduler fans brand searches out across workers, shares one
// rate budget between them, and runs chunked valuation over the merged
// results.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/flipscout/flipscout/internal/brands"
	"github.com/flipscout/flipscout/internal/cache"
	"github.com/flipscout/flipscout/internal/ebay"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/valuation"
)

// Config carries the scheduler's pacing and batching knobs.
type Config struct {
	MinRequestDelay  time.Duration
	ThrottleCooldown time.Duration
	RequestTimeout   time.Duration
	ChunkSize        int
	DaysBack         int
	ResultLimit      int
	MinPrice         float64
	MaxPrice         float64
}

func (c Config) withDefaults() Config {
	if c.MinRequestDelay <= 0 {
		c.MinRequestDelay = time.Second
	}
	if c.ThrottleCooldown <= 0 {
		c.ThrottleCooldown = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50
	}
	if c.DaysBack <= 0 {
		c.DaysBack = 30
	}
	if c.ResultLimit <= 0 {
		c.ResultLimit = 50
	}
	return c
}

// AnalyzedListing pairs a listing with its valuation result.
type AnalyzedListing struct {
	Listing  model.Listing
	Analysis model.PriceAnalysis
}

// Scheduler coordinates concurrent brand searches against one shared rate
// limiter, with a query cache in front of the marketplace source.
type Scheduler struct {
	source   ebay.Source
	cache    *cache.QueryCache
	catalog  *brands.Catalog
	valuator *valuation.Valuator
	calc     valuation.Calculator
	limiter  *rate.Limiter
	cfg      Config
	log      *logrus.Entry

	mu           sync.Mutex
	coolingUntil time.Time
}

// New creates a scheduler. The cache may be nil to disable caching.
func New(source ebay.Source, queryCache *cache.QueryCache, catalog *brands.Catalog,
	valuator *valuation.Valuator, calc valuation.Calculator, cfg Config, log *logrus.Logger) *Scheduler {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	if catalog == nil {
		catalog = brands.Default()
	}
	return &Scheduler{
		source:   source,
		cache:    queryCache,
		catalog:  catalog,
		valuator: valuator,
		calc:     calc,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinRequestDelay), 1),
		cfg:      cfg,
		log:      log.WithField("component", "scheduler"),
	}
}

type brandResult struct {
	brand    string
	listings []model.Listing
}

// RunBatch searches every brand concurrently and merges the results. A
// failing brand logs and contributes nothing; it never fails the batch.
// Only a canceled context aborts the whole run.
func (s *Scheduler) RunBatch(ctx context.Context, brandNames []string, sizeTokens []string, gender model.Gender) ([]model.Listing, error) {
	results := make(chan brandResult, len(brandNames))
	var wg sync.WaitGroup

	for _, brand := range brandNames {
		wg.Add(1)
		go func(brand string) {
			defer wg.Done()
			listings := s.searchBrand(ctx, brand, sizeTokens, gender)
			results <- brandResult{brand: brand, listings: listings}
		}(brand)
	}

	wg.Wait()
	close(results)

	var merged []model.Listing
	for r := range results {
		merged = append(merged, r.listings...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Scheduler) searchBrand(ctx context.Context, brand string, sizeTokens []string, gender model.Gender) []model.Listing {
	req := s.buildRequest(brand, sizeTokens, gender)
	fingerprint := req.Fingerprint()

	if s.cache != nil {
		if cached, ok := s.cache.Get(fingerprint); ok {
			s.log.WithFields(logrus.Fields{"brand": brand, "listings": len(cached)}).Debug("cache hit")
			return cached
		}
	}

	if until, cooling := s.cooling(); cooling {
		s.log.WithFields(logrus.Fields{"brand": brand, "until": until}).Warn("skipping search during throttle cooldown")
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	listings, err := s.source.Search(callCtx, req)
	if err != nil {
		if errors.Is(err, ebay.ErrThrottled) {
			s.startCooldown()
			s.log.WithField("brand", brand).Warn("throttled, entering cooldown")
		} else {
			s.log.WithFields(logrus.Fields{"brand": brand, "error": err}).Error("brand search failed")
		}
		return nil
	}

	if s.cache != nil {
		s.cache.Put(fingerprint, listings)
	}
	return listings
}

func (s *Scheduler) buildRequest(brand string, sizeTokens []string, gender model.Gender) ebay.SearchRequest {
	keywords := brand
	if terms := s.catalog.QueryTerms(brand); len(terms) > 0 {
		keywords = strings.Join(terms, " ")
	}
	for _, kw := range model.DefaultExcludedKeywords {
		keywords += " -" + kw
	}
	switch gender {
	case model.GenderWomen:
		keywords += " -mens"
	case model.GenderMen:
		keywords += " -womens"
	}
	return ebay.SearchRequest{
		Keywords:        keywords,
		CategoryIDs:     s.catalog.CategoryIDs(brand, gender),
		MinPrice:        s.cfg.MinPrice,
		MaxPrice:        s.cfg.MaxPrice,
		SizeTokens:      sizeTokens,
		Limit:           s.cfg.ResultLimit,
		FixedPriceOnly:  true,
		DeliveryCountry: "US",
	}
}

func (s *Scheduler) cooling() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Now().Before(s.coolingUntil) {
		return s.coolingUntil, true
	}
	return time.Time{}, false
}

func (s *Scheduler) startCooldown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coolingUntil = time.Now().Add(s.cfg.ThrottleCooldown)
}

// AnalyzeBatch values listings in chunks, each chunk's titles valued
// concurrently. Listings without enough comparable data are skipped; a
// skip never fails the batch.
func (s *Scheduler) AnalyzeBatch(ctx context.Context, listings []model.Listing) ([]AnalyzedListing, error) {
	var analyzed []AnalyzedListing
	skipped := 0

	for start := 0; start < len(listings); start += s.cfg.ChunkSize {
		end := start + s.cfg.ChunkSize
		if end > len(listings) {
			end = len(listings)
		}

		chunk := listings[start:end]
		out := make([]*AnalyzedListing, len(chunk))
		var wg sync.WaitGroup

		for i, listing := range chunk {
			wg.Add(1)
			go func(i int, listing model.Listing) {
				defer wg.Done()
				out[i] = s.analyzeOne(ctx, listing)
			}(i, listing)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, item := range out {
			if item == nil {
				skipped++
				continue
			}
			analyzed = append(analyzed, *item)
		}
	}

	if skipped > 0 {
		s.log.WithFields(logrus.Fields{"skipped": skipped, "analyzed": len(analyzed)}).Info("valuation skipped listings without enough data")
	}
	return analyzed, nil
}

func (s *Scheduler) analyzeOne(ctx context.Context, listing model.Listing) *AnalyzedListing {
	val, err := s.valuator.Valuate(ctx, listing.Title)
	if err != nil {
		if !errors.Is(err, valuation.ErrInsufficientData) {
			s.log.WithFields(logrus.Fields{"item_id": listing.ItemID, "error": err}).Warn("valuation failed")
		}
		return nil
	}
	analysis, err := s.calc.Evaluate(listing.Price, listing.Shipping, val, listing.BuyingOptions)
	if err != nil {
		return nil
	}
	return &AnalyzedListing{Listing: listing, Analysis: analysis}
}

// SortByPrice orders analyzed listings by ascending listing price.
// Stable, so equal prices keep their arrival order.
func SortByPrice(items []AnalyzedListing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Listing.Price < items[j].Listing.Price
	})
}

// GroupByBrand buckets analyzed listings under the first brand whose name
// appears in the title, case-insensitively. Unmatched listings land in
// "Other".
func GroupByBrand(items []AnalyzedListing, brandNames []string) map[string][]AnalyzedListing {
	groups := make(map[string][]AnalyzedListing)
	for _, item := range items {
		title := strings.ToLower(item.Listing.Title)
		bucket := "Other"
		for _, brand := range brandNames {
			if strings.Contains(title, strings.ToLower(brand)) {
				bucket = brand
				break
			}
		}
		groups[bucket] = append(groups[bucket], item)
	}
	return groups
}
