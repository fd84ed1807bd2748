package domain

import (
	"context"
	"time"
)

// FeatureStore supplies behavioral and market signals the caller did not
// provide. Lookups are read-only from the scoring pipeline's perspective;
// a miss degrades to neutral defaults, never to an error surfaced upward.
type FeatureStore interface {
	// BehaviorSignals returns the stored signals for a user, or nil on miss.
	BehaviorSignals(ctx context.Context, userID string) (*BehaviorSignals, error)

	// MarketSnapshot returns market data for a location, or nil on miss.
	MarketSnapshot(ctx context.Context, location string) (*MarketSnapshot, error)
}

// BehaviorSignals holds per-user behavioral signals synced from the
// marketplace backend.
type BehaviorSignals struct {
	UserID             string    `json:"userId"`
	AccountCreatedAt   time.Time `json:"accountCreatedAt"`
	TransactionCount24 int       `json:"transactionCount24h"`
	DeviceCount        int       `json:"deviceCount"`
	LocationChanges24  int       `json:"locationChanges24h"`
	PaymentMethodCount int       `json:"paymentMethodCount"`
	CancellationRate   float64   `json:"cancellationRate"`
	VerificationScore  float64   `json:"verificationScore"`
	SpamScore          float64   `json:"spamScore"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// AccountAgeDays returns the account age in whole days at the given time.
func (s *BehaviorSignals) AccountAgeDays(now time.Time) float64 {
	if s.AccountCreatedAt.IsZero() || s.AccountCreatedAt.After(now) {
		return DefaultAccountAgeDays
	}
	return now.Sub(s.AccountCreatedAt).Hours() / 24
}

// MarketSnapshot holds per-location competitive data for pricing.
type MarketSnapshot struct {
	Location         string    `json:"location"`
	CompetitionCount int       `json:"competitionCount"`
	CompetitionLevel string    `json:"competitionLevel"` // "low", "medium", "high"
	AveragePrice     float64   `json:"averagePrice"`
	DemandTrend      string    `json:"demandTrend"` // "increasing", "stable", "decreasing"
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Neutral defaults used when a signal is missing or malformed. Scoring favors
// availability over strict validation, so absent data degrades rather than
// failing the call.
const (
	DefaultAccountAgeDays     = 30.0
	DefaultTransactionCount   = 1.0
	DefaultDeviceCount        = 1.0
	DefaultLocationChanges    = 0.0
	DefaultPaymentMethods     = 1.0
	DefaultCancellationRate   = 0.1
	DefaultVerificationScore  = 0.5
	DefaultSpamScore          = 0.0
	DefaultCompetitionCount   = 20
	DefaultCompetitionLevel   = "medium"
	DefaultAveragePrice       = 100.0
	DefaultDemandTrend        = "stable"
)
