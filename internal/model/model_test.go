package model

import (
	"math"
	"testing"

	"github.com/garipamoja/askari/internal/domain"
)

func TestScaler(t *testing.T) {
	t.Run("FitAndTransform", func(t *testing.T) {
		scaler, err := FitScaler([][]float64{{0, 10}, {2, 10}})
		if err != nil {
			t.Fatalf("fit failed: %v", err)
		}

		if scaler.Mean[0] != 1 || scaler.Mean[1] != 10 {
			t.Errorf("unexpected means: %v", scaler.Mean)
		}

		z, err := scaler.Transform([]float64{3, 10})
		if err != nil {
			t.Fatalf("transform failed: %v", err)
		}
		// First column: (3-1)/1 = 2. Second column is constant, so the
		// guard leaves it unshifted at 0.
		if math.Abs(z[0]-2) > 1e-9 || math.Abs(z[1]) > 1e-9 {
			t.Errorf("unexpected standardized values: %v", z)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if _, err := FitScaler(nil); err == nil {
			t.Error("expected error for empty input")
		}
	})

	t.Run("WidthMismatch", func(t *testing.T) {
		scaler, _ := FitScaler([][]float64{{1, 2}})
		if _, err := scaler.Transform([]float64{1}); err == nil {
			t.Error("expected error for width mismatch")
		}
	})
}

func TestDetector(t *testing.T) {
	// 90 inlier rows at the origin, 10 obvious outliers. With 10%
	// contamination the offset lands at the inlier statistic.
	rows := make([][]float64, 100)
	for i := range rows {
		if i < 90 {
			rows[i] = []float64{0, 0}
		} else {
			rows[i] = []float64{5, -5}
		}
	}

	det, err := FitDetector(rows)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	if det.IsOutlier([]float64{0, 0}) {
		t.Error("inlier flagged as outlier")
	}
	if !det.IsOutlier([]float64{5, -5}) {
		t.Error("outlier not flagged")
	}

	if dec := det.DecisionFunction([]float64{5, -5}); dec >= 0 {
		t.Errorf("expected negative decision for outlier, got %v", dec)
	}
}

func TestRiskFromDecision(t *testing.T) {
	if got := RiskFromDecision(0); got != 0.5 {
		t.Errorf("decision 0 should map to risk 0.5, got %v", got)
	}
	if got := RiskFromDecision(-10); got < 0.99 {
		t.Errorf("strong outlier should approach 1, got %v", got)
	}
	if got := RiskFromDecision(10); got > 0.01 {
		t.Errorf("strong inlier should approach 0, got %v", got)
	}
}

func TestRegressor(t *testing.T) {
	// y = 2x + 3, perfectly linear.
	rows := make([][]float64, 50)
	targets := make([]float64, 50)
	for i := range rows {
		x := float64(i)
		rows[i] = []float64{x}
		targets[i] = 2*x + 3
	}

	reg, err := FitRegressor(rows, targets)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	got, err := reg.Predict([]float64{10})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if math.Abs(got-23) > 1e-3 {
		t.Errorf("expected prediction near 23, got %v", got)
	}

	if _, err := reg.Predict([]float64{1, 2}); err == nil {
		t.Error("expected error for width mismatch")
	}
}

func trainingRecords(n int) []domain.TrainingRecord {
	records := make([]domain.TrainingRecord, n)
	for i := range records {
		x := float64(i % 20)
		records[i] = domain.TrainingRecord{
			Features: []float64{x, 100 + x, 1, 1, 0, 1, 0.1, 0.8},
			Label:    0,
		}
	}
	return records
}

func TestFraudModelUpdate(t *testing.T) {
	m := NewFraudModel()

	t.Run("ColdBelowMinimum", func(t *testing.T) {
		trained, err := m.Update(trainingRecords(50))
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if trained {
			t.Error("expected no-op below minimum record count")
		}
		if m.Trained() {
			t.Error("model should still be cold")
		}
		if st := m.Status(); st.Status != domain.ModelStateCold {
			t.Errorf("expected cold status, got %s", st.Status)
		}
	})

	t.Run("TrainsAboveMinimum", func(t *testing.T) {
		trained, err := m.Update(trainingRecords(150))
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if !trained {
			t.Error("expected training with sufficient records")
		}
		if !m.Trained() {
			t.Error("model should be trained")
		}

		st := m.Status()
		if st.Status != domain.ModelStateTrained {
			t.Errorf("expected trained status, got %s", st.Status)
		}
		if st.Samples != 150 {
			t.Errorf("expected 150 samples, got %d", st.Samples)
		}
		if st.LastUpdated.IsZero() {
			t.Error("expected LastUpdated to be set")
		}
	})
}

func TestPricingModelUpdate(t *testing.T) {
	m := NewPricingModel()

	if trained, err := m.Update(trainingRecords(10)); err != nil || trained {
		t.Fatalf("expected no-op below minimum, got trained=%v err=%v", trained, err)
	}

	// Price depends linearly on base price and duration.
	records := make([]domain.TrainingRecord, 200)
	for i := range records {
		base := 50 + float64(i%100)
		duration := float64(1 + i%14)
		records[i] = domain.TrainingRecord{
			Features: []float64{base, 0.5, 20, duration},
			Label:    base*1.1 - duration,
		}
	}

	trained, err := m.Update(records)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !trained {
		t.Fatal("expected training with sufficient records")
	}

	got, err := m.Snapshot().Regressor.Predict([]float64{100, 0.5, 20, 7})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if math.Abs(got-103) > 0.5 {
		t.Errorf("expected prediction near 103, got %v", got)
	}
}

func TestSnapshotSwap(t *testing.T) {
	m := NewFraudModel()
	if _, err := m.Update(trainingRecords(150)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	first := m.Snapshot()
	if _, err := m.Update(trainingRecords(200)); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	second := m.Snapshot()

	if first == second {
		t.Error("update must publish a new snapshot, not mutate the old one")
	}
	if first.Samples != 150 || second.Samples != 200 {
		t.Errorf("unexpected sample counts: %d, %d", first.Samples, second.Samples)
	}
}
