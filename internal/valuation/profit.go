package valuation

import (
	"fmt"

	"github.com/flipscout/flipscout/internal/model"
)

// Calculator turns a market-value estimate plus a listing's price and
// shipping into total cost, fees, profit and ROI. Pure arithmetic; no I/O.
type Calculator struct {
	// FeeRate is the marketplace fee as a multiplier (0.129 for 12.9%).
	FeeRate float64
	// ShippingEstimate is the assumed carrier cost when the listing's
	// shipping is CALCULATED or unknown.
	ShippingEstimate float64
	// DealThreshold is the minimum ROI percentage for a good deal.
	DealThreshold float64
	// OfferDiscount is the assumed discount rate for a negotiated
	// best-offer purchase (0.20 for 20%).
	OfferDiscount float64
}

// Evaluate produces a PriceAnalysis for a listing priced at listingPrice
// with the given shipping descriptor, using val.Median as the market value.
// When BEST_OFFER is among the buying options, a negotiated variant with
// the discounted purchase price is attached alongside; it never replaces
// the original. Identical inputs always produce identical output.
func (c Calculator) Evaluate(listingPrice float64, shipping *model.ShippingInfo, val Valuation, buyingOptions []model.BuyingOption) (model.PriceAnalysis, error) {
	analysis, err := c.evaluateAt(listingPrice, shipping, val)
	if err != nil {
		return model.PriceAnalysis{}, err
	}

	for _, opt := range buyingOptions {
		if opt != model.BuyingBestOffer {
			continue
		}
		negotiated, err := c.evaluateAt(listingPrice*(1-c.OfferDiscount), shipping, val)
		if err == nil {
			analysis.Negotiated = &negotiated
		}
		break
	}

	return analysis, nil
}

func (c Calculator) evaluateAt(price float64, shipping *model.ShippingInfo, val Valuation) (model.PriceAnalysis, error) {
	totalCost := price + c.shippingCost(shipping)
	if totalCost <= 0 {
		return model.PriceAnalysis{}, fmt.Errorf("non-positive total cost %.2f", totalCost)
	}

	fees := val.Median * c.FeeRate
	realProfit := val.Median - totalCost - fees
	roi := realProfit / totalCost * 100

	return model.PriceAnalysis{
		MedianPrice: val.Median,
		MeanPrice:   val.Mean,
		StdDev:      val.StdDev,
		SampleSize:  val.SampleSize,
		TotalCost:   totalCost,
		Fees:        fees,
		RealProfit:  realProfit,
		ROI:         roi,
		Confidence:  val.Confidence,
		IsGoodDeal:  realProfit > 0 && roi >= c.DealThreshold,
	}, nil
}

// shippingCost resolves the shipping descriptor: FIXED uses the stated
// cost (0 means free), CALCULATED and UNKNOWN fall back to the configured
// estimate, and a missing descriptor costs nothing.
func (c Calculator) shippingCost(shipping *model.ShippingInfo) float64 {
	if shipping == nil {
		return 0
	}
	if shipping.Type == model.ShippingFixed {
		return shipping.Cost
	}
	return c.ShippingEstimate
}
