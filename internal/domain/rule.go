package domain

import "fmt"

// Scoring domains. Each domain has its own feature vector shape and rule table.
const (
	DomainFraud      = "fraud"
	DomainPricing    = "pricing"
	DomainDemand     = "demand"
	DomainModeration = "moderation"
)

// Rule is a single entry in a scoring rule table.
//
// Expression is a CEL expression over the feature map bound to the variable
// "f" (map<string, double>). A bool expression contributes Increment to the
// score when true; a double expression contributes its value directly and
// Increment is ignored. Factor, when non-empty, is appended to the factor
// list whenever the rule contributes a non-zero amount.
type Rule struct {
	Name       string  `json:"name" yaml:"name"`
	Expression string  `json:"expression" yaml:"expression"`
	Increment  float64 `json:"increment" yaml:"increment"`
	Factor     string  `json:"factor,omitempty" yaml:"factor,omitempty"`
}

// RuleTable is an ordered rule list for one scoring domain. Evaluation walks
// the table in order, accumulating from Base and clamping into [Min, Max].
// Order is significant: the factor list reproduces table order exactly.
type RuleTable struct {
	Domain  string  `json:"domain" yaml:"domain"`
	Version string  `json:"version" yaml:"version"`
	Base    float64 `json:"base" yaml:"base"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Rules   []Rule  `json:"rules" yaml:"rules"`
}

// Validate checks structural invariants of the table.
func (t *RuleTable) Validate() error {
	if t.Domain == "" {
		return fmt.Errorf("rule table: domain is required")
	}
	if t.Min >= t.Max {
		return fmt.Errorf("rule table %s: min %.2f must be below max %.2f", t.Domain, t.Min, t.Max)
	}
	for i, r := range t.Rules {
		if r.Expression == "" {
			return fmt.Errorf("rule table %s: rule %d (%s) has no expression", t.Domain, i, r.Name)
		}
	}
	return nil
}

// RuleHit records one rule that contributed to a score.
type RuleHit struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Factor       string  `json:"factor,omitempty"`
}

// RuleOutcome is the result of evaluating a rule table against a feature map.
type RuleOutcome struct {
	// Score is the clamped accumulated score.
	Score float64 `json:"score"`
	// RawScore is the accumulated score before clamping.
	RawScore float64 `json:"rawScore"`
	// Factors holds the factor texts of triggered rules, in table order.
	Factors []string `json:"factors,omitempty"`
	// Hits holds every rule that contributed, in table order.
	Hits []RuleHit `json:"hits,omitempty"`
}

// Thresholds maps risk categories to strictly increasing score boundaries.
type Thresholds struct {
	Low    float64 `json:"low" yaml:"low"`
	Medium float64 `json:"medium" yaml:"medium"`
	High   float64 `json:"high" yaml:"high"`
}

// Validate ensures the boundaries are strictly increasing.
func (t Thresholds) Validate() error {
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return fmt.Errorf("thresholds must be strictly increasing: low=%.2f medium=%.2f high=%.2f", t.Low, t.Medium, t.High)
	}
	return nil
}

// DefaultRiskThresholds returns the standard risk bands.
func DefaultRiskThresholds() Thresholds {
	return Thresholds{Low: 0.3, Medium: 0.6, High: 0.8}
}
