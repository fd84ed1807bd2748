package pricing

import (
	"context"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/model"
	"github.com/garipamoja/askari/internal/rules"
	"github.com/garipamoja/askari/internal/signals"
)

func newTestService(t *testing.T, store domain.FeatureStore) *Service {
	t.Helper()

	engine, err := rules.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	if err := engine.LoadTables(rules.BuiltinTables()); err != nil {
		t.Fatalf("failed to load tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		features.NewPricingExtractor(store, domain.DefaultScoringConfig(), logger),
		engine,
		model.NewPricingModel(),
		nil, nil, nil, nil,
		logger,
	)
}

func TestSuggestHighSeasonWeekend(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	// Saturday in July, one-week rental: demand 0.5 + 0.2 + 0.1 + 0.1.
	// High demand multiplies by 1.3, the weekly rental by 0.95.
	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 100,
		StartDate: "2026-07-18",
		EndDate:   "2026-07-25",
	})

	if result.SuggestedPrice != 123.5 {
		t.Errorf("expected price 123.5, got %v", result.SuggestedPrice)
	}
	if math.Abs(result.Factors.DemandScore-0.9) > 1e-9 {
		t.Errorf("expected demand score 0.9, got %v", result.Factors.DemandScore)
	}
	if result.Factors.SeasonalFactor != 1.2 {
		t.Errorf("expected seasonal factor 1.2, got %v", result.Factors.SeasonalFactor)
	}
	if result.Factors.DurationDiscount != 0.9 {
		t.Errorf("expected duration discount 0.9, got %v", result.Factors.DurationDiscount)
	}
	if result.Factors.MarketCompetition != "medium" {
		t.Errorf("expected medium competition, got %s", result.Factors.MarketCompetition)
	}
	if result.Confidence != 0.6 {
		t.Errorf("expected confidence 0.6, got %v", result.Confidence)
	}

	wantRecs := []string{
		"Consider increasing your base price - high demand detected",
		"High demand period - maximize your pricing",
	}
	if !reflect.DeepEqual(result.Recommendations, wantRecs) {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
}

func TestSuggestLowSeasonWeekday(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	// Wednesday in April, one day: demand 0.5 - 0.1 = 0.4, no multipliers.
	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 100,
		StartDate: "2026-04-15",
		EndDate:   "2026-04-16",
	})

	if result.SuggestedPrice != 100 {
		t.Errorf("expected unchanged price 100, got %v", result.SuggestedPrice)
	}
	if math.Abs(result.Factors.DemandScore-0.4) > 1e-9 {
		t.Errorf("expected demand score 0.4, got %v", result.Factors.DemandScore)
	}
	if result.Factors.SeasonalFactor != 0.9 {
		t.Errorf("expected seasonal factor 0.9, got %v", result.Factors.SeasonalFactor)
	}
	// Stable trend and mid-band demand both add confidence.
	if result.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", result.Confidence)
	}
	wantRecs := []string{"Your current pricing is well-positioned for the market"}
	if !reflect.DeepEqual(result.Recommendations, wantRecs) {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
}

func TestSuggestCompetitionMultipliers(t *testing.T) {
	store := signals.NewStaticStore()
	store.Markets["entebbe"] = &domain.MarketSnapshot{
		Location:         "entebbe",
		CompetitionCount: 5,
		CompetitionLevel: "low",
		AveragePrice:     120,
		DemandTrend:      "increasing",
	}
	svc := newTestService(t, store)

	// Low season weekday, one day: demand 0.4 + premium (1.2-1)*0.1 = 0.42.
	// No demand multiplier, low competition multiplies by 1.2.
	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 100,
		Location:  "entebbe",
		StartDate: "2026-04-15",
		EndDate:   "2026-04-16",
	})

	if result.SuggestedPrice != 120 {
		t.Errorf("expected price 120 with low competition, got %v", result.SuggestedPrice)
	}
	if result.Factors.LocationPremium != 1.2 {
		t.Errorf("expected premium 1.2, got %v", result.Factors.LocationPremium)
	}
	if result.Factors.MarketCompetition != "low" {
		t.Errorf("expected low competition, got %s", result.Factors.MarketCompetition)
	}
}

func TestSuggestClampsToBase(t *testing.T) {
	store := signals.NewStaticStore()
	store.Markets["kampala_central"] = &domain.MarketSnapshot{
		Location:         "kampala_central",
		CompetitionCount: 30,
		CompetitionLevel: "low",
		AveragePrice:     150,
		DemandTrend:      "increasing",
	}
	svc := newTestService(t, store)

	// Stacked multipliers cannot push the price past twice the base.
	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:          "car-1",
		BasePrice:      100,
		Location:       "Kampala Central",
		StartDate:      "2026-12-25", // holiday in high season
		EndDate:        "2026-12-26",
		EventNearby:    true,
		BusinessTravel: true,
		TouristSeason:  true,
	})

	if result.SuggestedPrice > 200 {
		t.Errorf("price exceeded ceiling: %v", result.SuggestedPrice)
	}
	if result.Factors.DemandScore != 1.0 {
		t.Errorf("expected demand ceiling 1.0, got %v", result.Factors.DemandScore)
	}
}

func TestSuggestDefaultsBasePrice(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 0,
		StartDate: "2026-04-15",
		EndDate:   "2026-04-16",
	})
	if result.SuggestedPrice != domain.DefaultAveragePrice {
		t.Errorf("expected default base price, got %v", result.SuggestedPrice)
	}
}

func TestSuggestWithTrainedModel(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())
	ctx := context.Background()

	// Realized price tracks 1.2x the base price.
	records := make([]domain.TrainingRecord, 200)
	for i := range records {
		base := 50 + float64(i%150)
		records[i] = domain.TrainingRecord{
			Features: []float64{base, 0.5, 20, float64(1 + i%10)},
			Label:    base * 1.2,
		}
	}
	trained, err := svc.UpdateModel(ctx, records)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !trained {
		t.Fatal("expected model to train")
	}
	if st := svc.ModelStatus(); st.Status != domain.ModelStateTrained {
		t.Errorf("expected trained status, got %s", st.Status)
	}

	result := svc.Suggest(ctx, &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 100,
		StartDate: "2026-04-15",
		EndDate:   "2026-04-16",
	})
	if math.Abs(result.SuggestedPrice-120) > 1.0 {
		t.Errorf("expected regression price near 120, got %v", result.SuggestedPrice)
	}
}

func TestSuggestBadDatesDegrade(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	result := svc.Suggest(context.Background(), &domain.PricingRequest{
		CarID:     "car-1",
		BasePrice: 100,
		StartDate: "not-a-date",
		EndDate:   "also-bad",
	})
	// Still prices: bad dates degrade to a one-day rental starting today.
	if result.SuggestedPrice <= 0 {
		t.Errorf("expected a price despite bad dates, got %v", result.SuggestedPrice)
	}
	if result.Factors.DurationDiscount != 1.0 {
		t.Errorf("expected no duration discount, got %v", result.Factors.DurationDiscount)
	}
}
