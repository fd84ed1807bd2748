package rules

import (
	"math"
	"reflect"
	"testing"

	"github.com/garipamoja/askari/internal/domain"
)

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.TableCount() != 0 {
		t.Errorf("expected 0 tables, got %d", engine.TableCount())
	}
}

func TestLoadBuiltinTables(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	if err := engine.LoadTables(BuiltinTables()); err != nil {
		t.Fatalf("failed to load builtin tables: %v", err)
	}

	if engine.TableCount() != 3 {
		t.Errorf("expected 3 tables, got %d", engine.TableCount())
	}

	for _, d := range []string{domain.DomainFraud, domain.DomainDemand, domain.DomainModeration} {
		if engine.Table(d) == nil {
			t.Errorf("expected table for domain %q", d)
		}
	}
}

func TestLoadInvalidTable(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	table := &domain.RuleTable{
		Domain: "test",
		Min:    0,
		Max:    1,
		Rules: []domain.Rule{
			{Name: "broken", Expression: "this is not valid CEL !!!"},
		},
	}
	if err := engine.LoadTable(table); err == nil {
		t.Error("expected error for invalid CEL expression")
	}

	table.Rules[0].Expression = `"a string result"`
	if err := engine.LoadTable(table); err == nil {
		t.Error("expected error for non-numeric, non-bool expression")
	}
}

func TestEvaluateBoolAndDoubleRules(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	table := &domain.RuleTable{
		Domain: "test",
		Base:   0.5,
		Min:    0.0,
		Max:    1.0,
		Rules: []domain.Rule{
			{Name: "flag", Expression: `f["flag"] == 1.0`, Increment: 0.2, Factor: "flag set"},
			{Name: "scaled", Expression: `(f["premium"] - 1.0) * 0.1`, Factor: "premium location"},
			{Name: "missed", Expression: `f["other"] > 10.0`, Increment: 0.9, Factor: "should not fire"},
		},
	}
	if err := engine.LoadTable(table); err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	outcome, err := engine.Evaluate("test", map[string]float64{
		"flag":    1.0,
		"premium": 1.3,
		"other":   5.0,
	})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	want := 0.5 + 0.2 + 0.03
	if math.Abs(outcome.Score-want) > 1e-9 {
		t.Errorf("expected score %.4f, got %.4f", want, outcome.Score)
	}
	if !reflect.DeepEqual(outcome.Factors, []string{"flag set", "premium location"}) {
		t.Errorf("unexpected factors: %v", outcome.Factors)
	}
	if len(outcome.Hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(outcome.Hits))
	}
}

func TestEvaluateZeroDoubleDoesNotTrigger(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	table := &domain.RuleTable{
		Domain: "test",
		Base:   0.5,
		Min:    0.0,
		Max:    1.0,
		Rules: []domain.Rule{
			{Name: "scaled", Expression: `(f["premium"] - 1.0) * 0.1`, Factor: "premium location"},
		},
	}
	_ = engine.LoadTable(table)

	outcome, err := engine.Evaluate("test", map[string]float64{"premium": 1.0})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if len(outcome.Factors) != 0 {
		t.Errorf("expected no factors for zero contribution, got %v", outcome.Factors)
	}
	if outcome.Score != 0.5 {
		t.Errorf("expected base score 0.5, got %.4f", outcome.Score)
	}
}

func TestEvaluateClamping(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	// Every fraud rule fires; the raw sum far exceeds the maximum.
	outcome, err := engine.Evaluate(domain.DomainFraud, map[string]float64{
		"account_age_days":      3,
		"transaction_amount":    350,
		"transaction_count_24h": 6,
		"device_count":          4,
		"location_changes_24h":  3,
		"payment_method_count":  3,
		"cancellation_rate":     0.4,
		"verification_score":    0.4,
	})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if outcome.Score != 1.0 {
		t.Errorf("expected clamped score 1.0, got %.4f", outcome.Score)
	}
	if outcome.RawScore <= 1.0 {
		t.Errorf("expected raw score above 1.0, got %.4f", outcome.RawScore)
	}
	if len(outcome.Factors) != 8 {
		t.Errorf("expected 8 factors, got %d: %v", len(outcome.Factors), outcome.Factors)
	}
}

func TestEvaluateFactorOrder(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	features := map[string]float64{
		"account_age_days":      3,
		"transaction_amount":    350,
		"transaction_count_24h": 6,
		"device_count":          4,
		"location_changes_24h":  3,
		"payment_method_count":  3,
		"cancellation_rate":     0.4,
		"verification_score":    0.4,
	}

	outcome, err := engine.Evaluate(domain.DomainFraud, features)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	want := []string{
		"New user account (less than 7 days)",
		"High-value transaction",
		"High transaction frequency",
		"Multiple devices used",
		"Multiple location changes",
		"Multiple payment methods",
		"High cancellation rate",
		"Low verification score",
	}
	if !reflect.DeepEqual(outcome.Factors, want) {
		t.Errorf("factor order mismatch:\n got  %v\n want %v", outcome.Factors, want)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	features := map[string]float64{
		"account_age_days":      10,
		"transaction_amount":    500,
		"transaction_count_24h": 2,
		"device_count":          2,
		"location_changes_24h":  1,
		"payment_method_count":  1,
		"cancellation_rate":     0.2,
		"verification_score":    0.9,
	}

	first, err := engine.Evaluate(domain.DomainFraud, features)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := engine.Evaluate(domain.DomainFraud, features)
		if err != nil {
			t.Fatalf("evaluation failed on iteration %d: %v", i, err)
		}
		if again.Score != first.Score || !reflect.DeepEqual(again.Factors, first.Factors) {
			t.Fatalf("non-deterministic outcome on iteration %d: %v vs %v", i, again, first)
		}
	}
}

func TestEvaluateUnknownDomain(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()

	if _, err := engine.Evaluate("nonexistent", map[string]float64{}); err == nil {
		t.Error("expected error for unknown domain")
	}
}

func TestDemandScore(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	// High-season weekend start with a week-long rental.
	outcome, err := engine.Evaluate(domain.DomainDemand, map[string]float64{
		"high_season":      1,
		"low_season":       0,
		"weekend":          1,
		"holiday":          0,
		"location_premium": 1.0,
		"duration_days":    7,
		"event_nearby":     0,
		"business_travel":  0,
		"tourist_season":   0,
	})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if math.Abs(outcome.Score-0.9) > 1e-9 {
		t.Errorf("expected demand score 0.9, got %v", outcome.Score)
	}
}

func TestDemandFloor(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	// Low season with a heavily discounted location cannot drop below 0.1.
	outcome, err := engine.Evaluate(domain.DomainDemand, map[string]float64{
		"low_season":       1,
		"location_premium": -5.0,
		"duration_days":    1,
	})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if outcome.Score != 0.1 {
		t.Errorf("expected floor 0.1, got %v", outcome.Score)
	}
}

func TestModerationConfidenceTable(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	cases := []struct {
		name  string
		flags map[string]float64
		want  float64
	}{
		{"clean", map[string]float64{}, 0.8},
		{"validation", map[string]float64{"validation_failed": 1}, 0.6},
		{"prohibited", map[string]float64{"has_prohibited": 1}, 0.5},
		{"all_flags", map[string]float64{
			"validation_failed": 1, "has_prohibited": 1, "has_suspicious": 1, "is_spam": 1,
		}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := engine.Evaluate(domain.DomainModeration, tc.flags)
			if err != nil {
				t.Fatalf("evaluation failed: %v", err)
			}
			if math.Abs(outcome.Score-tc.want) > 1e-9 {
				t.Errorf("expected confidence %.2f, got %v", tc.want, outcome.Score)
			}
		})
	}
}

func TestReloadTables(t *testing.T) {
	engine, _ := NewEngine()
	defer engine.Close()
	_ = engine.LoadTables(BuiltinTables())

	replacement := &domain.RuleTable{
		Domain:  domain.DomainFraud,
		Version: "2.0.0",
		Min:     0,
		Max:     1,
		Rules: []domain.Rule{
			{Name: "only", Expression: `f["x"] > 0.0`, Increment: 1.0, Factor: "x positive"},
		},
	}
	if err := engine.ReloadTables([]*domain.RuleTable{replacement}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if engine.TableCount() != 1 {
		t.Errorf("expected 1 table after reload, got %d", engine.TableCount())
	}
	if got := engine.Table(domain.DomainFraud).Version; got != "2.0.0" {
		t.Errorf("expected version 2.0.0, got %s", got)
	}
}

func TestMergeTables(t *testing.T) {
	override := &domain.RuleTable{
		Domain:  domain.DomainFraud,
		Version: "custom",
		Min:     0,
		Max:     1,
	}
	extra := &domain.RuleTable{
		Domain:  "custom_domain",
		Version: "1.0.0",
		Min:     0,
		Max:     1,
	}

	merged := MergeTables(BuiltinTables(), []*domain.RuleTable{override, extra})

	if len(merged) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(merged))
	}
	if merged[0].Domain != domain.DomainFraud || merged[0].Version != "custom" {
		t.Errorf("expected fraud override in position 0, got %s/%s", merged[0].Domain, merged[0].Version)
	}
	if merged[3].Domain != "custom_domain" {
		t.Errorf("expected appended custom domain, got %s", merged[3].Domain)
	}
}
