package fraud

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/garipamoja/askari/internal/decision"
	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/model"
	"github.com/garipamoja/askari/internal/rules"
	"github.com/garipamoja/askari/internal/signals"
)

func newTestService(t *testing.T, store domain.FeatureStore) *Service {
	t.Helper()

	engine, err := rules.NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	if err := engine.LoadTables(rules.BuiltinTables()); err != nil {
		t.Fatalf("failed to load tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		features.NewFraudExtractor(store, logger),
		engine,
		decision.NewFraudPolicy(domain.DefaultRiskThresholds()),
		model.NewFraudModel(),
		nil, nil, nil, nil,
		logger,
	)
}

func TestDetectHighRiskTransaction(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	result := svc.Detect(context.Background(), &domain.FraudRequest{
		UserID: "user-1",
		TransactionData: map[string]any{
			"account_age_days":      3,
			"transaction_amount":    350,
			"transaction_count_24h": 6,
			"device_count":          4,
			"location_changes_24h":  3,
			"payment_method_count":  3,
			"cancellation_rate":     0.4,
			"verification_score":    0.4,
		},
	})

	if result.RiskScore != 1.0 {
		t.Errorf("expected risk score 1.0, got %v", result.RiskScore)
	}
	if !result.IsSuspicious {
		t.Error("expected suspicious verdict")
	}
	if len(result.RiskFactors) != 8 {
		t.Errorf("expected 8 risk factors, got %d: %v", len(result.RiskFactors), result.RiskFactors)
	}
	wantRecs := []string{
		"Immediate manual review required",
		"Consider temporary account suspension",
	}
	if !reflect.DeepEqual(result.Recommendations, wantRecs) {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
	if result.AnomalyDetected {
		t.Error("cold model should not flag anomalies")
	}
	if result.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %v", result.Confidence)
	}
}

func TestDetectBenignTransaction(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	result := svc.Detect(context.Background(), &domain.FraudRequest{
		UserID: "user-1",
		TransactionData: map[string]any{
			"account_age_days":   90,
			"transaction_amount": 50,
		},
	})

	if result.RiskScore != 0 {
		t.Errorf("expected risk score 0, got %v", result.RiskScore)
	}
	if result.IsSuspicious {
		t.Error("benign transaction flagged as suspicious")
	}
	want := []string{"No significant risk factors detected"}
	if !reflect.DeepEqual(result.RiskFactors, want) {
		t.Errorf("unexpected risk factors: %v", result.RiskFactors)
	}
	wantRecs := []string{"Low risk - proceed with normal processing"}
	if !reflect.DeepEqual(result.Recommendations, wantRecs) {
		t.Errorf("unexpected recommendations: %v", result.Recommendations)
	}
}

func TestDetectDefaultsWithoutSignals(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())

	// All defaults: 30-day account, no suspicious counts. Nothing fires.
	result := svc.Detect(context.Background(), &domain.FraudRequest{UserID: "user-1"})
	if result.RiskScore != 0 {
		t.Errorf("expected risk score 0 with defaults, got %v", result.RiskScore)
	}
}

func TestDetectDeterminism(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())
	req := &domain.FraudRequest{
		UserID: "user-1",
		TransactionData: map[string]any{
			"transaction_amount": 400,
			"cancellation_rate":  0.5,
		},
	}

	first := svc.Detect(context.Background(), req)
	for i := 0; i < 20; i++ {
		again := svc.Detect(context.Background(), req)
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("non-deterministic result on iteration %d", i)
		}
	}
}

func TestUpdateModelLifecycle(t *testing.T) {
	svc := newTestService(t, signals.NewStaticStore())
	ctx := context.Background()

	records := func(n int) []domain.TrainingRecord {
		out := make([]domain.TrainingRecord, n)
		for i := range out {
			out[i] = domain.TrainingRecord{
				Features: []float64{float64(i % 30), float64(50 + i%200), 1, 1, 0, 1, 0.1, 0.8},
			}
		}
		return out
	}

	t.Run("SkippedBelowMinimum", func(t *testing.T) {
		trained, err := svc.UpdateModel(ctx, records(50))
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if trained {
			t.Error("expected skip below minimum")
		}
		if st := svc.ModelStatus(); st.Status != domain.ModelStateCold {
			t.Errorf("expected cold model, got %s", st.Status)
		}
	})

	t.Run("TrainedAboveMinimum", func(t *testing.T) {
		trained, err := svc.UpdateModel(ctx, records(150))
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if !trained {
			t.Error("expected training above minimum")
		}
		st := svc.ModelStatus()
		if st.Status != domain.ModelStateTrained {
			t.Errorf("expected trained model, got %s", st.Status)
		}
		if st.Samples != 150 {
			t.Errorf("expected 150 samples, got %d", st.Samples)
		}
	})

	t.Run("TrainedModelScores", func(t *testing.T) {
		result := svc.Detect(ctx, &domain.FraudRequest{
			UserID: "user-1",
			TransactionData: map[string]any{
				"transaction_amount": 350,
				"cancellation_rate":  0.4,
			},
		})
		if result.RiskScore < 0 || result.RiskScore > 1 {
			t.Errorf("trained score out of range: %v", result.RiskScore)
		}
		// Rule-derived factors still explain the features.
		if len(result.RiskFactors) == 0 {
			t.Error("expected explanatory factors from the rule pass")
		}
	})
}
