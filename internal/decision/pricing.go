package decision

import "github.com/garipamoja/askari/internal/domain"

// Price clamp bounds relative to the base price. These hold regardless of
// scoring path.
const (
	PriceFloorRatio   = 0.7
	PriceCeilingRatio = 2.0
)

// ClampPrice bounds a suggested price to [0.7*base, 2.0*base].
func ClampPrice(price, base float64) float64 {
	if floor := base * PriceFloorRatio; price < floor {
		return floor
	}
	if ceiling := base * PriceCeilingRatio; price > ceiling {
		return ceiling
	}
	return price
}

// PricingConfidence estimates trust in a suggested price from market data
// coverage and demand stability.
func PricingConfidence(market *domain.MarketSnapshot, demandScore float64) float64 {
	confidence := 0.5
	if market.CompetitionCount > 20 {
		confidence += 0.2
	}
	if market.DemandTrend == "stable" {
		confidence += 0.1
	}
	if demandScore >= 0.4 && demandScore <= 0.8 {
		confidence += 0.2
	}
	if confidence > 0.95 {
		return 0.95
	}
	return confidence
}

// PricingRecommendations advises the host based on the suggested price shift
// and market conditions.
func PricingRecommendations(basePrice, suggestedPrice, demandScore float64, competitionLevel string) []string {
	var recs []string
	if basePrice > 0 {
		change := (suggestedPrice - basePrice) / basePrice
		if change > 0.2 {
			recs = append(recs, "Consider increasing your base price - high demand detected")
		} else if change < -0.1 {
			recs = append(recs, "Consider lowering your base price - low demand detected")
		}
	}
	if demandScore > 0.8 {
		recs = append(recs, "High demand period - maximize your pricing")
	} else if demandScore < 0.3 {
		recs = append(recs, "Low demand period - consider promotional pricing")
	}
	if competitionLevel == "high" {
		recs = append(recs, "High competition - focus on value-added services")
	}
	if len(recs) == 0 {
		recs = append(recs, "Your current pricing is well-positioned for the market")
	}
	return recs
}

// PricingFallback is the conservative result returned when pricing fails:
// keep the host's own price and say so.
func PricingFallback(basePrice float64) *domain.PricingResult {
	return &domain.PricingResult{
		SuggestedPrice:  basePrice,
		Confidence:      0.5,
		Factors:         domain.PricingFactors{},
		Recommendations: []string{"Unable to calculate optimal price"},
	}
}
