// Package valuation estimates a listing's market value from comparable
// historical sales and converts the estimate into profit and ROI figures.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// ErrInsufficientData reports that too few usable comparable prices exist
// to value a listing. Callers treat it as "no analysis", never as fatal.
var ErrInsufficientData = errors.New("insufficient comparable data")

// Confidence caps out once a sample reaches this many comparables.
const fullConfidenceSample = 30

// Valuation is the statistical summary of a comparable-sale sample.
type Valuation struct {
	Median     float64
	Mean       float64
	StdDev     float64
	SampleSize int
	Confidence float64
}

// FromSample computes a valuation from raw comparable sale prices.
// Non-positive prices are discarded; fewer than two usable prices is
// ErrInsufficientData. The median is the lower-median (sorted index
// (n-1)/2), the standard deviation is the sample deviation (n-1 divisor).
//
// Confidence is min(n/30, 1), scaled down by price dispersion: when the
// deviation is positive it is multiplied by 1 - min(stdDev/median, 1).
// Both factors are monotonic and the product stays within [0, 1].
func FromSample(prices []float64) (Valuation, error) {
	usable := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 {
			usable = append(usable, p)
		}
	}
	if len(usable) < 2 {
		return Valuation{}, fmt.Errorf("%d usable prices: %w", len(usable), ErrInsufficientData)
	}

	sort.Float64s(usable)
	n := len(usable)
	median := usable[(n-1)/2]

	var sum float64
	for _, p := range usable {
		sum += p
	}
	mean := sum / float64(n)

	if median <= 0 || mean <= 0 {
		return Valuation{}, fmt.Errorf("non-positive central value: %w", ErrInsufficientData)
	}

	var sqDiff float64
	for _, p := range usable {
		d := p - mean
		sqDiff += d * d
	}
	stdDev := math.Sqrt(sqDiff / float64(n-1))

	confidence := math.Min(float64(n)/fullConfidenceSample, 1.0)
	if stdDev > 0 {
		confidence *= 1 - math.Min(stdDev/median, 1.0)
	}

	return Valuation{
		Median:     median,
		Mean:       mean,
		StdDev:     stdDev,
		SampleSize: n,
		Confidence: confidence,
	}, nil
}

// CompsSource supplies comparable historical sale prices for a title.
type CompsSource interface {
	Available() bool
	SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error)
}

// Valuator values listings by querying a comparable-sales source.
type Valuator struct {
	source   CompsSource
	daysBack int
	log      *logrus.Entry
}

// NewValuator creates a valuator over the given comparable-sales source.
func NewValuator(source CompsSource, daysBack int, log *logrus.Logger) *Valuator {
	if daysBack <= 0 {
		daysBack = 30
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Valuator{
		source:   source,
		daysBack: daysBack,
		log:      log.WithField("component", "valuator"),
	}
}

// Valuate fetches sold comparables for the title and summarizes them.
// Transport errors from the source are wrapped; a thin sample surfaces as
// ErrInsufficientData so the caller can skip the listing.
func (v *Valuator) Valuate(ctx context.Context, title string) (Valuation, error) {
	if title == "" {
		return Valuation{}, fmt.Errorf("empty title: %w", ErrInsufficientData)
	}
	if !v.source.Available() {
		return Valuation{}, errors.New("comparable-sales source not configured")
	}

	prices, err := v.source.SoldPrices(ctx, title, v.daysBack)
	if err != nil {
		return Valuation{}, fmt.Errorf("fetch sold comparables: %w", err)
	}

	val, err := FromSample(prices)
	if err != nil {
		v.log.WithField("title", title).WithField("samples", len(prices)).Debug("valuation skipped")
		return Valuation{}, err
	}
	return val, nil
}
