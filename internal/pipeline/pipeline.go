// Package pipeline wires size expansion, brand search, filtering and
// valuation into the two operations callers use: find deals for a user and
// analyze an arbitrary batch of listings.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/flipscout/flipscout/internal/filter"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/scheduler"
	"github.com/flipscout/flipscout/internal/sizes"
)

// Finder runs the discovery pipeline end to end for one user at a time.
type Finder struct {
	sched *scheduler.Scheduler
	log   *logrus.Entry
}

// NewFinder creates a Finder over the given scheduler.
func NewFinder(sched *scheduler.Scheduler, log *logrus.Logger) *Finder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Finder{
		sched: sched,
		log:   log.WithField("component", "pipeline"),
	}
}

// FindDealsForUser expands the user's sizes, searches their brands
// concurrently, filters the merged results against their hard constraints
// and returns the survivors sorted by ascending price, along with the
// per-reason rejection counts.
func (f *Finder) FindDealsForUser(ctx context.Context, user model.User) ([]scheduler.AnalyzedListing, filter.Stats, error) {
	sizeTokens, err := sizes.Expand(user.Sizes, user.Gender)
	if err != nil {
		return nil, filter.Stats{}, fmt.Errorf("expanding sizes for %s: %w", user.ID, err)
	}

	raw, err := f.sched.RunBatch(ctx, user.Preferences.Brands, sizeTokens, user.Gender)
	if err != nil {
		return nil, filter.Stats{}, fmt.Errorf("searching brands for %s: %w", user.ID, err)
	}

	kept, stats := filter.Apply(raw, user, filter.Options{})
	f.log.WithFields(logrus.Fields{
		"user":     user.ID,
		"fetched":  stats.Initial,
		"kept":     stats.Kept,
		"price":    stats.Price,
		"keyword":  stats.Keyword,
		"gender":   stats.Gender,
		"category": stats.Category,
	}).Info("filtered batch")

	analyzed, err := f.sched.AnalyzeBatch(ctx, kept)
	if err != nil {
		return nil, stats, fmt.Errorf("valuing listings for %s: %w", user.ID, err)
	}

	scheduler.SortByPrice(analyzed)
	return analyzed, stats, nil
}

// AnalyzeBatch values an arbitrary batch of listings without user
// filtering. Results keep the input's relative order only within chunks;
// callers wanting a stable view should sort.
func (f *Finder) AnalyzeBatch(ctx context.Context, listings []model.Listing) ([]scheduler.AnalyzedListing, error) {
	return f.sched.AnalyzeBatch(ctx, listings)
}

// GoodDeals keeps analyzed listings that clear both the global deal
// threshold and the user's own ROI floor.
func GoodDeals(items []scheduler.AnalyzedListing, user model.User) []scheduler.AnalyzedListing {
	deals := make([]scheduler.AnalyzedListing, 0, len(items))
	for _, item := range items {
		if !item.Analysis.IsGoodDeal {
			continue
		}
		if item.Analysis.ROI < user.Preferences.MinROI {
			continue
		}
		deals = append(deals, item)
	}
	return deals
}

// GroupByBrand buckets analyzed listings by the user's brands.
func GroupByBrand(items []scheduler.AnalyzedListing, user model.User) map[string][]scheduler.AnalyzedListing {
	return scheduler.GroupByBrand(items, user.Preferences.Brands)
}
