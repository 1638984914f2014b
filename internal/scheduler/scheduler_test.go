package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flipscout/flipscout/internal/brands"
	"github.com/flipscout/flipscout/internal/cache"
	"github.com/flipscout/flipscout/internal/ebay"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/valuation"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// mockSource serves canned listings per keyword prefix and records calls.
type mockSource struct {
	mu       sync.Mutex
	calls    int
	listings map[string][]model.Listing
	errFor   map[string]error
}

func (m *mockSource) Available() bool { return true }

func (m *mockSource) Search(ctx context.Context, req ebay.SearchRequest) ([]model.Listing, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	for key, err := range m.errFor {
		if strings.Contains(strings.ToLower(req.Keywords), key) {
			return nil, err
		}
	}
	for key, listings := range m.listings {
		if strings.Contains(strings.ToLower(req.Keywords), key) {
			return listings, nil
		}
	}
	return nil, nil
}

func (m *mockSource) SearchSold(ctx context.Context, title string, daysBack int) ([]float64, error) {
	return nil, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeComps serves sold prices keyed by title.
type fakeComps struct {
	prices map[string][]float64
}

func (f *fakeComps) Available() bool { return true }

func (f *fakeComps) SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error) {
	return f.prices[title], nil
}

func listing(id, title string, price float64) model.Listing {
	return model.Listing{ItemID: id, Title: title, Price: price}
}

func testCalc() valuation.Calculator {
	return valuation.Calculator{FeeRate: 0.129, ShippingEstimate: 7.99, DealThreshold: 20, OfferDiscount: 0.20}
}

func newTestScheduler(source ebay.Source, queryCache *cache.QueryCache, comps valuation.CompsSource, cfg Config) *Scheduler {
	log := quietLogger()
	valuator := valuation.NewValuator(comps, 30, log)
	return New(source, queryCache, brands.Default(), valuator, testCalc(), cfg, log)
}

func TestRunBatchMergesBrands(t *testing.T) {
	source := &mockSource{listings: map[string][]model.Listing{
		"lululemon": {listing("1", "Lululemon Define Jacket 8", 100)},
		"theory":    {listing("2", "Theory Blazer 4", 80), listing("3", "Theory Pants 4", 60)},
	}}
	s := newTestScheduler(source, nil, &fakeComps{}, Config{MinRequestDelay: time.Millisecond})

	got, err := s.RunBatch(context.Background(), []string{"Lululemon", "Theory"}, []string{"4", "8"}, model.GenderWomen)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d listings, want 3", len(got))
	}
}

func TestRunBatchIsolatesBrandFailures(t *testing.T) {
	source := &mockSource{
		listings: map[string][]model.Listing{"theory": {listing("2", "Theory Blazer", 80)}},
		errFor:   map[string]error{"lululemon": errors.New("upstream down")},
	}
	s := newTestScheduler(source, nil, &fakeComps{}, Config{MinRequestDelay: time.Millisecond})

	got, err := s.RunBatch(context.Background(), []string{"Lululemon", "Theory"}, nil, model.GenderWomen)
	if err != nil {
		t.Fatalf("a failing brand must not fail the batch: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "2" {
		t.Fatalf("got %v, want only the Theory listing", got)
	}
}

func TestRunBatchUsesCache(t *testing.T) {
	source := &mockSource{listings: map[string][]model.Listing{
		"theory": {listing("2", "Theory Blazer", 80)},
	}}
	queryCache := cache.NewQueryCache(10, time.Minute)
	s := newTestScheduler(source, queryCache, &fakeComps{}, Config{MinRequestDelay: time.Millisecond})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := s.RunBatch(ctx, []string{"Theory"}, []string{"4"}, model.GenderWomen)
		if err != nil {
			t.Fatalf("RunBatch failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("run %d: got %d listings, want 1", i, len(got))
		}
	}
	if source.callCount() != 1 {
		t.Errorf("source called %d times, want 1 (cache should absorb repeats)", source.callCount())
	}
}

func TestRunBatchThrottleCooldown(t *testing.T) {
	source := &mockSource{errFor: map[string]error{"theory": ebay.ErrThrottled}}
	s := newTestScheduler(source, nil, &fakeComps{}, Config{
		MinRequestDelay:  time.Millisecond,
		ThrottleCooldown: time.Minute,
	})

	ctx := context.Background()
	got, err := s.RunBatch(ctx, []string{"Theory"}, nil, model.GenderWomen)
	if err != nil {
		t.Fatalf("throttling must not fail the batch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("throttled brand should contribute nothing, got %v", got)
	}

	// During cooldown subsequent runs skip the remote call entirely.
	before := source.callCount()
	if _, err := s.RunBatch(ctx, []string{"Theory"}, nil, model.GenderWomen); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if source.callCount() != before {
		t.Errorf("source called during cooldown: %d -> %d", before, source.callCount())
	}
}

func TestRunBatchCanceledContext(t *testing.T) {
	source := &mockSource{}
	s := newTestScheduler(source, nil, &fakeComps{}, Config{MinRequestDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.RunBatch(ctx, []string{"Theory"}, nil, model.GenderWomen); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestAnalyzeBatchValuesAndSkips(t *testing.T) {
	comps := &fakeComps{prices: map[string][]float64{
		"Lululemon Define Jacket": {140, 150, 160},
		"Theory Blazer":           {40}, // below minimum sample, skipped
	}}
	s := newTestScheduler(&mockSource{}, nil, comps, Config{ChunkSize: 2})

	listings := []model.Listing{
		listing("1", "Lululemon Define Jacket", 100),
		listing("2", "Theory Blazer", 30),
		listing("3", "Unknown Brand Coat", 25), // no comps at all
	}
	analyzed, err := s.AnalyzeBatch(context.Background(), listings)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(analyzed) != 1 {
		t.Fatalf("got %d analyzed, want 1", len(analyzed))
	}

	a := analyzed[0]
	if a.Listing.ItemID != "1" {
		t.Fatalf("analyzed wrong listing: %s", a.Listing.ItemID)
	}
	if a.Analysis.MedianPrice != 150 {
		t.Errorf("MedianPrice = %v, want 150", a.Analysis.MedianPrice)
	}
	if diff := a.Analysis.RealProfit - 30.65; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("RealProfit = %v, want 30.65", a.Analysis.RealProfit)
	}
	if !a.Analysis.IsGoodDeal {
		t.Error("expected a good deal at 30.65%% ROI")
	}
}

func TestAnalyzeBatchChunking(t *testing.T) {
	prices := map[string][]float64{}
	var listings []model.Listing
	for i := 0; i < 7; i++ {
		title := "Item " + string(rune('A'+i))
		prices[title] = []float64{100, 110, 120}
		listings = append(listings, listing(title, title, 50))
	}
	s := newTestScheduler(&mockSource{}, nil, &fakeComps{prices: prices}, Config{ChunkSize: 3})

	analyzed, err := s.AnalyzeBatch(context.Background(), listings)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(analyzed) != 7 {
		t.Fatalf("got %d analyzed, want 7", len(analyzed))
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	s := newTestScheduler(&mockSource{}, nil, &fakeComps{}, Config{})
	analyzed, err := s.AnalyzeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(analyzed) != 0 {
		t.Fatalf("got %d analyzed, want 0", len(analyzed))
	}
}

func TestSortByPrice(t *testing.T) {
	items := []AnalyzedListing{
		{Listing: listing("1", "a", 90)},
		{Listing: listing("2", "b", 40)},
		{Listing: listing("3", "c", 40)},
		{Listing: listing("4", "d", 10)},
	}
	SortByPrice(items)

	wantOrder := []string{"4", "2", "3", "1"}
	for i, want := range wantOrder {
		if items[i].Listing.ItemID != want {
			t.Fatalf("position %d: got %s, want %s", i, items[i].Listing.ItemID, want)
		}
	}
}

func TestGroupByBrand(t *testing.T) {
	items := []AnalyzedListing{
		{Listing: listing("1", "LULULEMON Define Jacket", 90)},
		{Listing: listing("2", "Vintage theory blazer", 40)},
		{Listing: listing("3", "Generic Denim Jacket", 20)},
	}
	groups := GroupByBrand(items, []string{"Lululemon", "Theory"})

	if len(groups["Lululemon"]) != 1 {
		t.Errorf("Lululemon group = %d items, want 1", len(groups["Lululemon"]))
	}
	if len(groups["Theory"]) != 1 {
		t.Errorf("Theory group = %d items, want 1", len(groups["Theory"]))
	}
	if len(groups["Other"]) != 1 {
		t.Errorf("Other group = %d items, want 1", len(groups["Other"]))
	}
}
