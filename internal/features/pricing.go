package features

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

const dateLayout = "2006-01-02"

// PricingExtractor derives demand features and pricing multipliers from the
// seasonal calendar and the market feature store.
type PricingExtractor struct {
	store  domain.FeatureStore
	logger *slog.Logger

	highSeason map[int]bool
	lowSeason  map[int]bool
	holidays   map[string]bool
	premiums   map[string]float64
}

// NewPricingExtractor creates a pricing feature extractor from the scoring
// configuration.
func NewPricingExtractor(store domain.FeatureStore, cfg domain.ScoringConfig, logger *slog.Logger) *PricingExtractor {
	e := &PricingExtractor{
		store:      store,
		logger:     logger.With("component", "features"),
		highSeason: make(map[int]bool, len(cfg.HighSeasonMonths)),
		lowSeason:  make(map[int]bool, len(cfg.LowSeasonMonths)),
		holidays:   make(map[string]bool, len(cfg.Holidays)),
		premiums:   cfg.LocationPremiums,
	}
	for _, m := range cfg.HighSeasonMonths {
		e.highSeason[m] = true
	}
	for _, m := range cfg.LowSeasonMonths {
		e.lowSeason[m] = true
	}
	for _, d := range cfg.Holidays {
		e.holidays[d] = true
	}
	return e
}

// ParseStay resolves the rental start date and duration in days. Unparseable
// dates degrade: a bad start becomes today, a bad or inverted end becomes a
// one-day rental.
func (e *PricingExtractor) ParseStay(req *domain.PricingRequest, now time.Time) (time.Time, int) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		start = now
	}
	duration := 1
	if end, err := time.Parse(dateLayout, req.EndDate); err == nil {
		if days := int(end.Sub(start).Hours() / 24); days > 1 {
			duration = days
		}
	}
	return start, duration
}

// DemandFeatures builds the feature map for the demand rule table. Boolean
// flags are encoded as 0/1 doubles.
func (e *PricingExtractor) DemandFeatures(req *domain.PricingRequest, start time.Time, duration int) *domain.FeatureVector {
	month := int(start.Month())
	v := domain.NewFeatureVector(9)
	v.Add("high_season", boolFeature(e.highSeason[month]))
	v.Add("low_season", boolFeature(e.lowSeason[month]))
	v.Add("weekend", boolFeature(start.Weekday() == time.Saturday || start.Weekday() == time.Sunday))
	v.Add("holiday", boolFeature(e.holidays[start.Format("01-02")]))
	v.Add("location_premium", e.LocationPremium(req.Location))
	v.Add("duration_days", float64(duration))
	v.Add("event_nearby", boolFeature(req.EventNearby))
	v.Add("business_travel", boolFeature(req.BusinessTravel))
	v.Add("tourist_season", boolFeature(req.TouristSeason))
	return v
}

// locationSlug canonicalizes a display location to its lookup key, so
// "Kampala Central" and "kampala_central" address the same entry.
func locationSlug(location string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(location)), " ", "_")
}

// LocationPremium returns the configured premium for a location slug,
// falling back to the "other" entry.
func (e *PricingExtractor) LocationPremium(location string) float64 {
	if p, ok := e.premiums[locationSlug(location)]; ok {
		return p
	}
	if p, ok := e.premiums["other"]; ok {
		return p
	}
	return 1.0
}

// SeasonalFactor is the explanatory season multiplier reported in the
// pricing factor breakdown.
func (e *PricingExtractor) SeasonalFactor(start time.Time) float64 {
	switch month := int(start.Month()); {
	case e.highSeason[month]:
		return 1.2
	case e.lowSeason[month]:
		return 0.9
	default:
		return 1.0
	}
}

// DurationDiscount returns the long-rental discount multiplier.
func (e *PricingExtractor) DurationDiscount(duration int) float64 {
	switch {
	case duration >= 30:
		return 0.8
	case duration >= 7:
		return 0.9
	default:
		return 1.0
	}
}

// Market returns the competitive snapshot for a location, degrading to
// neutral defaults on miss or lookup failure.
func (e *PricingExtractor) Market(ctx context.Context, location string) *domain.MarketSnapshot {
	if e.store != nil && location != "" {
		snap, err := e.store.MarketSnapshot(ctx, locationSlug(location))
		if err != nil {
			e.logger.Warn("market snapshot lookup failed, using defaults",
				"location", location, "error", err)
		} else if snap != nil {
			return snap
		}
	}
	return &domain.MarketSnapshot{
		Location:         location,
		CompetitionCount: domain.DefaultCompetitionCount,
		CompetitionLevel: domain.DefaultCompetitionLevel,
		AveragePrice:     domain.DefaultAveragePrice,
		DemandTrend:      domain.DefaultDemandTrend,
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
