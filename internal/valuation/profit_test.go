package valuation

import (
	"math"
	"reflect"
	"testing"

	"github.com/flipscout/flipscout/internal/model"
)

func stdCalc() Calculator {
	return Calculator{
		FeeRate:          0.129,
		ShippingEstimate: 7.99,
		DealThreshold:    20.0,
		OfferDiscount:    0.20,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_KnownScenario(t *testing.T) {
	// $100 listing with free fixed shipping against a [140,150,160]
	// comparable sample at a 12.9% fee.
	val, err := FromSample([]float64{140, 150, 160})
	if err != nil {
		t.Fatal(err)
	}

	analysis, err := stdCalc().Evaluate(100, &model.ShippingInfo{Type: model.ShippingFixed, Cost: 0}, val, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if analysis.MedianPrice != 150 {
		t.Errorf("median = %v, want 150", analysis.MedianPrice)
	}
	if analysis.TotalCost != 100 {
		t.Errorf("total cost = %v, want 100", analysis.TotalCost)
	}
	if !almostEqual(analysis.Fees, 19.35) {
		t.Errorf("fees = %v, want 19.35", analysis.Fees)
	}
	if !almostEqual(analysis.RealProfit, 30.65) {
		t.Errorf("real profit = %v, want 30.65", analysis.RealProfit)
	}
	if !almostEqual(analysis.ROI, 30.65) {
		t.Errorf("roi = %v, want 30.65", analysis.ROI)
	}
	if !analysis.IsGoodDeal {
		t.Error("expected good deal at 20% threshold")
	}
	if analysis.Negotiated != nil {
		t.Error("no BEST_OFFER option, negotiated variant must be absent")
	}
}

func TestEvaluate_ProfitInvariant(t *testing.T) {
	val8, _ := FromSample([]float64{80, 90, 100, 110})
	analysis, err := stdCalc().Evaluate(60, &model.ShippingInfo{Type: model.ShippingFixed, Cost: 5.50}, val8, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(analysis.RealProfit, analysis.MedianPrice-analysis.TotalCost-analysis.Fees) {
		t.Error("real_profit invariant violated")
	}
	if !almostEqual(analysis.ROI, analysis.RealProfit/analysis.TotalCost*100) {
		t.Error("roi invariant violated")
	}
}

func TestEvaluate_ShippingResolution(t *testing.T) {
	val, _ := FromSample([]float64{100, 100})
	calc := stdCalc()

	cases := []struct {
		name     string
		shipping *model.ShippingInfo
		wantCost float64
	}{
		{"fixed", &model.ShippingInfo{Type: model.ShippingFixed, Cost: 4.50}, 54.50},
		{"free fixed", &model.ShippingInfo{Type: model.ShippingFixed, Cost: 0}, 50},
		{"calculated", &model.ShippingInfo{Type: model.ShippingCalculated}, 57.99},
		{"unknown type", &model.ShippingInfo{Type: model.ShippingUnknown}, 57.99},
		{"absent", nil, 50},
	}
	for _, c := range cases {
		analysis, err := calc.Evaluate(50, c.shipping, val, nil)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !almostEqual(analysis.TotalCost, c.wantCost) {
			t.Errorf("%s: total cost = %v, want %v", c.name, analysis.TotalCost, c.wantCost)
		}
	}
}

func TestEvaluate_BestOfferVariant(t *testing.T) {
	// $100 listing with a 20% assumed discount: the negotiated chain runs
	// at $80 and is exposed alongside the original, not instead of it.
	val, _ := FromSample([]float64{140, 150, 160})
	analysis, err := stdCalc().Evaluate(100, nil, val, []model.BuyingOption{model.BuyingFixedPrice, model.BuyingBestOffer})
	if err != nil {
		t.Fatal(err)
	}

	if analysis.TotalCost != 100 {
		t.Errorf("original total cost = %v, want 100", analysis.TotalCost)
	}
	if analysis.Negotiated == nil {
		t.Fatal("expected negotiated variant")
	}
	neg := analysis.Negotiated
	if !almostEqual(neg.TotalCost, 80) {
		t.Errorf("negotiated total cost = %v, want 80", neg.TotalCost)
	}
	wantProfit := 150 - 80 - 19.35
	if !almostEqual(neg.RealProfit, wantProfit) {
		t.Errorf("negotiated profit = %v, want %v", neg.RealProfit, wantProfit)
	}
	if !almostEqual(neg.ROI, wantProfit/80*100) {
		t.Errorf("negotiated roi = %v", neg.ROI)
	}
	if neg.Negotiated != nil {
		t.Error("negotiated variant must not nest further")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	val, _ := FromSample([]float64{140, 150, 160})
	opts := []model.BuyingOption{model.BuyingBestOffer}
	shipping := &model.ShippingInfo{Type: model.ShippingFixed, Cost: 3}

	first, err := stdCalc().Evaluate(100, shipping, val, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := stdCalc().Evaluate(100, shipping, val, opts)
	if !reflect.DeepEqual(first, second) {
		t.Error("Evaluate must be deterministic for identical inputs")
	}
}

func TestEvaluate_NotADealBelowThreshold(t *testing.T) {
	val, _ := FromSample([]float64{130, 130})
	// Profit is positive but ROI = (130 - 100 - 16.77) / 100 = 13.23% < 20%.
	analysis, err := stdCalc().Evaluate(100, nil, val, nil)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.IsGoodDeal {
		t.Errorf("roi %.2f%% below threshold must not flag a deal", analysis.ROI)
	}
}

func TestEvaluate_NonPositiveCost(t *testing.T) {
	val, _ := FromSample([]float64{100, 100})
	if _, err := stdCalc().Evaluate(0, nil, val, nil); err == nil {
		t.Error("expected error for zero total cost")
	}
	if _, err := stdCalc().Evaluate(-10, nil, val, nil); err == nil {
		t.Error("expected error for negative cost")
	}
}
