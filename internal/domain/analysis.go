package domain

import (
	"time"
)

// Analysis is the persisted record of one scoring call, common to all
// domains. The domain-specific response payload is kept alongside so a
// stored analysis can be replayed to the caller verbatim.
type Analysis struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	SubjectID string    `json:"subjectId"`
	Score     float64   `json:"score"`
	Decision  string    `json:"decision"`
	Factors   []string  `json:"factors,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Result is the domain-specific response as returned to the caller.
	Result any `json:"result,omitempty"`
}

// Decision values shared across domains.
const (
	DecisionClear       = "clear"
	DecisionSuspicious  = "suspicious"
	DecisionAppropriate = "appropriate"
	DecisionRejected    = "rejected"
	DecisionPriced      = "priced"
)

// FraudResult is the response payload for a fraud risk analysis.
type FraudResult struct {
	RiskScore       float64  `json:"riskScore"`
	IsSuspicious    bool     `json:"isSuspicious"`
	RiskFactors     []string `json:"riskFactors"`
	Recommendations []string `json:"recommendations"`
	AnomalyDetected bool     `json:"anomalyDetected"`
	Confidence      float64  `json:"confidence"`
}

// PricingResult is the response payload for a price suggestion.
type PricingResult struct {
	SuggestedPrice  float64        `json:"suggestedPrice"`
	Confidence      float64        `json:"confidence"`
	Factors         PricingFactors `json:"factors"`
	Recommendations []string       `json:"recommendations"`
}

// PricingFactors explains the inputs behind a suggested price.
type PricingFactors struct {
	DemandScore       float64 `json:"demandScore"`
	SeasonalFactor    float64 `json:"seasonalFactor"`
	LocationPremium   float64 `json:"locationPremium"`
	DurationDiscount  float64 `json:"durationDiscount"`
	MarketCompetition string  `json:"marketCompetition"`
}

// ModerationResult is the response payload for a content check.
type ModerationResult struct {
	IsAppropriate bool     `json:"isAppropriate"`
	Confidence    float64  `json:"confidence"`
	FlaggedIssues []string `json:"flaggedIssues"`
	Suggestions   []string `json:"suggestions"`
}

// AnalyticsSummary aggregates stored analysis counts per domain.
type AnalyticsSummary struct {
	Fraud      DomainStats `json:"fraud"`
	Pricing    DomainStats `json:"pricing"`
	Moderation DomainStats `json:"moderation"`
}

// DomainStats holds per-domain analysis counts.
type DomainStats struct {
	Total   int64 `json:"total"`
	Flagged int64 `json:"flagged"`
}

// ModelStatus reports the lifecycle state of a trained model.
type ModelStatus struct {
	Domain      string    `json:"domain"`
	Status      string    `json:"status"` // "trained" or "cold"
	Model       string    `json:"model"`
	Samples     int       `json:"samples,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// Model lifecycle states.
const (
	ModelStateCold    = "cold"
	ModelStateTrained = "trained"
)
