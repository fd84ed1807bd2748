// Package domain defines the core interfaces and types for Askari.
package domain

// Feature is a single named numeric signal about a subject.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureVector is an ordered sequence of named features. Order is fixed per
// scoring domain and must match what the rule tables and trained models expect.
type FeatureVector struct {
	features []Feature
}

// NewFeatureVector creates an empty vector with capacity for n features.
func NewFeatureVector(n int) *FeatureVector {
	return &FeatureVector{features: make([]Feature, 0, n)}
}

// Add appends a feature, preserving insertion order.
func (v *FeatureVector) Add(name string, value float64) *FeatureVector {
	v.features = append(v.features, Feature{Name: name, Value: value})
	return v
}

// Len returns the number of features.
func (v *FeatureVector) Len() int {
	return len(v.features)
}

// Values returns the feature values in insertion order.
func (v *FeatureVector) Values() []float64 {
	vals := make([]float64, len(v.features))
	for i, f := range v.features {
		vals[i] = f.Value
	}
	return vals
}

// Names returns the feature names in insertion order.
func (v *FeatureVector) Names() []string {
	names := make([]string, len(v.features))
	for i, f := range v.features {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of a named feature, or the fallback if absent.
func (v *FeatureVector) Get(name string, fallback float64) float64 {
	for _, f := range v.features {
		if f.Name == name {
			return f.Value
		}
	}
	return fallback
}

// Map returns the features as a name -> value map for rule evaluation.
func (v *FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.features))
	for _, f := range v.features {
		m[f.Name] = f.Value
	}
	return m
}

// Canonical fraud feature names, in extraction order.
const (
	FeatAccountAgeDays     = "account_age_days"
	FeatTransactionAmount  = "transaction_amount"
	FeatTransactionCount   = "transaction_count_24h"
	FeatDeviceCount        = "device_count"
	FeatLocationChanges    = "location_changes_24h"
	FeatPaymentMethodCount = "payment_method_count"
	FeatCancellationRate   = "cancellation_rate"
	FeatVerificationScore  = "verification_score"
)

// FraudFeatureCount is the fixed arity of the fraud feature vector.
const FraudFeatureCount = 8
