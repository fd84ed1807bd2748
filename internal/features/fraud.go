package features

import (
	"context"
	"log/slog"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

// FraudExtractor builds the eight-feature fraud vector. Resolution order per
// feature: caller payload, then the feature store's behavioral signals, then
// the neutral default.
type FraudExtractor struct {
	store  domain.FeatureStore
	logger *slog.Logger
}

// NewFraudExtractor creates a fraud feature extractor.
func NewFraudExtractor(store domain.FeatureStore, logger *slog.Logger) *FraudExtractor {
	return &FraudExtractor{
		store:  store,
		logger: logger.With("component", "features"),
	}
}

// Extract produces the fraud feature vector for a request at the given time.
func (e *FraudExtractor) Extract(ctx context.Context, req *domain.FraudRequest, now time.Time) *domain.FeatureVector {
	signals := e.lookupSignals(ctx, req.UserID, now)
	payload := req.TransactionData

	v := domain.NewFeatureVector(domain.FraudFeatureCount)
	v.Add(domain.FeatAccountAgeDays,
		e.resolve(payload, signals, domain.DefaultAccountAgeDays, domain.FeatAccountAgeDays))
	v.Add(domain.FeatTransactionAmount,
		e.resolve(payload, signals, 0, domain.FeatTransactionAmount, "amount"))
	v.Add(domain.FeatTransactionCount,
		e.resolve(payload, signals, domain.DefaultTransactionCount, domain.FeatTransactionCount))
	v.Add(domain.FeatDeviceCount,
		e.resolve(payload, signals, domain.DefaultDeviceCount, domain.FeatDeviceCount))
	v.Add(domain.FeatLocationChanges,
		e.resolve(payload, signals, domain.DefaultLocationChanges, domain.FeatLocationChanges))
	v.Add(domain.FeatPaymentMethodCount,
		e.resolve(payload, signals, domain.DefaultPaymentMethods, domain.FeatPaymentMethodCount))
	v.Add(domain.FeatCancellationRate,
		e.resolve(payload, signals, domain.DefaultCancellationRate, domain.FeatCancellationRate))
	v.Add(domain.FeatVerificationScore,
		e.resolve(payload, signals, domain.DefaultVerificationScore, domain.FeatVerificationScore))
	return v
}

// resolve tries the payload keys first, then the signal map, then the default.
// Negative payload values are treated as malformed and skipped.
func (e *FraudExtractor) resolve(payload map[string]any, signals map[string]float64, def float64, keys ...string) float64 {
	if f, ok := numField(payload, keys...); ok && f >= 0 {
		return f
	}
	if signals != nil {
		if f, ok := signals[keys[0]]; ok {
			return f
		}
	}
	return def
}

// lookupSignals fetches stored behavioral signals, returning nil on miss or
// error. Failures are logged and degrade to defaults.
func (e *FraudExtractor) lookupSignals(ctx context.Context, userID string, now time.Time) map[string]float64 {
	if e.store == nil || userID == "" {
		return nil
	}
	sig, err := e.store.BehaviorSignals(ctx, userID)
	if err != nil {
		e.logger.Warn("behavior signal lookup failed, using defaults",
			"user_id", userID, "error", err)
		return nil
	}
	if sig == nil {
		return nil
	}
	return map[string]float64{
		domain.FeatAccountAgeDays:     sig.AccountAgeDays(now),
		domain.FeatTransactionCount:   float64(sig.TransactionCount24),
		domain.FeatDeviceCount:        float64(sig.DeviceCount),
		domain.FeatLocationChanges:    float64(sig.LocationChanges24),
		domain.FeatPaymentMethodCount: float64(sig.PaymentMethodCount),
		domain.FeatCancellationRate:   sig.CancellationRate,
		domain.FeatVerificationScore:  sig.VerificationScore,
	}
}
