// Package decision turns scores into categorical decisions, recommendation
// lists, and confidence values. Everything here is a fixed policy table so
// identical inputs always produce identical output.
package decision

import "github.com/garipamoja/askari/internal/domain"

// FraudPolicy thresholds fraud scores and selects recommendations by bracket.
type FraudPolicy struct {
	thresholds domain.Thresholds
}

// NewFraudPolicy creates a fraud decision policy. Invalid thresholds fall
// back to the defaults.
func NewFraudPolicy(t domain.Thresholds) *FraudPolicy {
	if err := t.Validate(); err != nil {
		t = domain.DefaultRiskThresholds()
	}
	return &FraudPolicy{thresholds: t}
}

// IsSuspicious reports whether a risk score crosses the medium threshold.
func (p *FraudPolicy) IsSuspicious(score float64) bool {
	return score > p.thresholds.Medium
}

// Decision maps a risk score to the stored decision label.
func (p *FraudPolicy) Decision(score float64) string {
	if p.IsSuspicious(score) {
		return domain.DecisionSuspicious
	}
	return domain.DecisionClear
}

// Recommendations selects the action list for a risk score bracket.
func (p *FraudPolicy) Recommendations(score float64) []string {
	switch {
	case score > p.thresholds.High:
		return []string{
			"Immediate manual review required",
			"Consider temporary account suspension",
		}
	case score > p.thresholds.Medium:
		return []string{
			"Enhanced monitoring recommended",
			"Request additional documentation",
		}
	case score > p.thresholds.Low:
		return []string{"Monitor for suspicious activity"}
	default:
		return []string{"Low risk - proceed with normal processing"}
	}
}

// Confidence estimates how much to trust a fraud score from the shape of its
// feature vector. The penalties are fixed by policy.
func (p *FraudPolicy) Confidence(features *domain.FeatureVector) float64 {
	if features.Len() < domain.FraudFeatureCount {
		return 0.3
	}
	confidence := 0.5
	allNonNegative := true
	anyExtreme := false
	for _, v := range features.Values() {
		if v < 0 {
			allNonNegative = false
		}
		if v > 1000 {
			anyExtreme = true
		}
	}
	if allNonNegative {
		confidence += 0.2
	}
	if anyExtreme {
		confidence -= 0.1
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// FraudFallback is the conservative result returned when scoring itself
// fails. Low confidence, no definite decision, manual review suggested.
func FraudFallback() *domain.FraudResult {
	return &domain.FraudResult{
		RiskScore:       0.5,
		IsSuspicious:    false,
		RiskFactors:     []string{"Analysis error"},
		Recommendations: []string{"Manual review recommended"},
		AnomalyDetected: false,
		Confidence:      0.0,
	}
}

// FactorsOrDefault substitutes the no-findings factor when no rule fired.
func FactorsOrDefault(factors []string) []string {
	if len(factors) == 0 {
		return []string{"No significant risk factors detected"}
	}
	return factors
}
