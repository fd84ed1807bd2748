package rules

import "github.com/garipamoja/askari/internal/domain"

// BuiltinTables returns the default rule tables for all scoring domains.
// These ship with the binary so a cold deployment scores deterministically;
// operators can override them via PUT /rules/{domain} and hot reload.
func BuiltinTables() []*domain.RuleTable {
	return []*domain.RuleTable{
		FraudTable(),
		DemandTable(),
		ModerationConfidenceTable(),
	}
}

// MergeTables overlays stored tables onto the defaults by domain. Defaults
// keep their position; overrides for unknown domains are appended.
func MergeTables(defaults, overrides []*domain.RuleTable) []*domain.RuleTable {
	merged := make([]*domain.RuleTable, len(defaults))
	copy(merged, defaults)

	byDomain := make(map[string]int, len(merged))
	for i, t := range merged {
		byDomain[t.Domain] = i
	}

	for _, t := range overrides {
		if i, ok := byDomain[t.Domain]; ok {
			merged[i] = t
		} else {
			merged = append(merged, t)
		}
	}
	return merged
}

// FraudTable is the additive risk table used while no trained model is
// loaded. Rule order is the explanation order and must not be rearranged.
func FraudTable() *domain.RuleTable {
	return &domain.RuleTable{
		Domain:  domain.DomainFraud,
		Version: "1.0.0",
		Base:    0.0,
		Min:     0.0,
		Max:     1.0,
		Rules: []domain.Rule{
			{
				Name:       "new_account",
				Expression: `f["account_age_days"] < 7.0`,
				Increment:  0.3,
				Factor:     "New user account (less than 7 days)",
			},
			{
				// Accounts past the first week but under a month carry a
				// smaller residual risk and no standalone explanation.
				Name:       "young_account",
				Expression: `f["account_age_days"] >= 7.0 && f["account_age_days"] < 30.0`,
				Increment:  0.1,
			},
			{
				Name:       "high_amount",
				Expression: `f["transaction_amount"] > 300.0`,
				Increment:  0.2,
				Factor:     "High-value transaction",
			},
			{
				Name:       "high_frequency",
				Expression: `f["transaction_count_24h"] > 5.0`,
				Increment:  0.3,
				Factor:     "High transaction frequency",
			},
			{
				Name:       "many_devices",
				Expression: `f["device_count"] > 3.0`,
				Increment:  0.2,
				Factor:     "Multiple devices used",
			},
			{
				Name:       "location_churn",
				Expression: `f["location_changes_24h"] > 2.0`,
				Increment:  0.3,
				Factor:     "Multiple location changes",
			},
			{
				Name:       "many_payment_methods",
				Expression: `f["payment_method_count"] > 2.0`,
				Increment:  0.2,
				Factor:     "Multiple payment methods",
			},
			{
				Name:       "high_cancellation",
				Expression: `f["cancellation_rate"] > 0.3`,
				Increment:  0.3,
				Factor:     "High cancellation rate",
			},
			{
				Name:       "low_verification",
				Expression: `f["verification_score"] < 0.5`,
				Increment:  0.4,
				Factor:     "Low verification score",
			},
		},
	}
}

// DemandTable computes the pricing demand score. Demand is never modeled as
// impossible, hence the 0.1 floor.
func DemandTable() *domain.RuleTable {
	return &domain.RuleTable{
		Domain:  domain.DomainDemand,
		Version: "1.0.0",
		Base:    0.5,
		Min:     0.1,
		Max:     1.0,
		Rules: []domain.Rule{
			{
				Name:       "high_season",
				Expression: `f["high_season"] == 1.0`,
				Increment:  0.2,
			},
			{
				Name:       "low_season",
				Expression: `f["low_season"] == 1.0`,
				Increment:  -0.1,
			},
			{
				Name:       "weekend_start",
				Expression: `f["weekend"] == 1.0`,
				Increment:  0.1,
			},
			{
				// Continuous contribution scaled from the location premium.
				Name:       "location_premium",
				Expression: `(f["location_premium"] - 1.0) * 0.1`,
			},
			{
				Name:       "holiday",
				Expression: `f["holiday"] == 1.0`,
				Increment:  0.2,
			},
			{
				Name:       "weekly_rental",
				Expression: `f["duration_days"] >= 7.0`,
				Increment:  0.1,
			},
			{
				Name:       "event_nearby",
				Expression: `f["event_nearby"] == 1.0`,
				Increment:  0.15,
			},
			{
				Name:       "business_travel",
				Expression: `f["business_travel"] == 1.0`,
				Increment:  0.1,
			},
			{
				Name:       "tourist_season",
				Expression: `f["tourist_season"] == 1.0`,
				Increment:  0.2,
			},
		},
	}
}

// ModerationConfidenceTable derives moderation confidence from the four
// check flags. The penalties are fixed by policy, not derived.
func ModerationConfidenceTable() *domain.RuleTable {
	return &domain.RuleTable{
		Domain:  domain.DomainModeration,
		Version: "1.0.0",
		Base:    0.8,
		Min:     0.0,
		Max:     1.0,
		Rules: []domain.Rule{
			{
				Name:       "validation_failed",
				Expression: `f["validation_failed"] == 1.0`,
				Increment:  -0.2,
			},
			{
				Name:       "has_prohibited",
				Expression: `f["has_prohibited"] == 1.0`,
				Increment:  -0.3,
			},
			{
				Name:       "has_suspicious",
				Expression: `f["has_suspicious"] == 1.0`,
				Increment:  -0.2,
			},
			{
				Name:       "is_spam",
				Expression: `f["is_spam"] == 1.0`,
				Increment:  -0.3,
			},
		},
	}
}
