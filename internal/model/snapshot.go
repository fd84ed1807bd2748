package model

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

// MinTrainingRecords is the smallest labeled dataset an update will accept.
// Smaller datasets leave the current snapshot in place.
const MinTrainingRecords = 100

// FraudSnapshot is an immutable fitted fraud model: scaler plus detector.
type FraudSnapshot struct {
	Scaler    *Scaler
	Detector  *Detector
	Samples   int
	TrainedAt time.Time
}

// PricingSnapshot is an immutable fitted price regression.
type PricingSnapshot struct {
	Regressor *Regressor
	Samples   int
	TrainedAt time.Time
}

// FraudModel owns the process-wide fraud ModelState. Reads are lock-free;
// Update is exclusive with respect to itself and publishes a whole new
// snapshot, never mutating one in place.
type FraudModel struct {
	updateMu sync.Mutex
	snapshot atomic.Pointer[FraudSnapshot]
}

// NewFraudModel returns a model in the cold state.
func NewFraudModel() *FraudModel {
	return &FraudModel{}
}

// Snapshot returns the current snapshot, or nil while cold.
func (m *FraudModel) Snapshot() *FraudSnapshot {
	return m.snapshot.Load()
}

// Trained reports whether a fitted snapshot is published.
func (m *FraudModel) Trained() bool {
	return m.snapshot.Load() != nil
}

// Update fits scaler and detector jointly on the feature columns of the
// dataset and swaps the snapshot in. Datasets below MinTrainingRecords are
// a no-op and return false; labels are accepted but not used by the
// outlier detector.
func (m *FraudModel) Update(records []domain.TrainingRecord) (bool, error) {
	if len(records) < MinTrainingRecords {
		return false, nil
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	rows := make([][]float64, len(records))
	for i, r := range records {
		rows[i] = r.Features
	}

	scaler, err := FitScaler(rows)
	if err != nil {
		return false, err
	}

	standardized := make([][]float64, len(rows))
	for i, row := range rows {
		z, err := scaler.Transform(row)
		if err != nil {
			return false, err
		}
		standardized[i] = z
	}

	detector, err := FitDetector(standardized)
	if err != nil {
		return false, err
	}

	m.snapshot.Store(&FraudSnapshot{
		Scaler:    scaler,
		Detector:  detector,
		Samples:   len(records),
		TrainedAt: time.Now().UTC(),
	})
	return true, nil
}

// Status describes the model for the status endpoint.
func (m *FraudModel) Status() domain.ModelStatus {
	st := domain.ModelStatus{
		Domain: domain.DomainFraud,
		Status: domain.ModelStateCold,
		Model:  "scaled_outlier_detector",
	}
	if snap := m.snapshot.Load(); snap != nil {
		st.Status = domain.ModelStateTrained
		st.Samples = snap.Samples
		st.LastUpdated = snap.TrainedAt
	}
	return st
}

// PricingModel owns the process-wide pricing ModelState with the same
// snapshot-swap discipline as FraudModel.
type PricingModel struct {
	updateMu sync.Mutex
	snapshot atomic.Pointer[PricingSnapshot]
}

// NewPricingModel returns a model in the cold state.
func NewPricingModel() *PricingModel {
	return &PricingModel{}
}

// Snapshot returns the current snapshot, or nil while cold.
func (m *PricingModel) Snapshot() *PricingSnapshot {
	return m.snapshot.Load()
}

// Trained reports whether a fitted snapshot is published.
func (m *PricingModel) Trained() bool {
	return m.snapshot.Load() != nil
}

// Update fits the regression on historical feature/price pairs. The record
// label is the realized price. Datasets below MinTrainingRecords are a no-op.
func (m *PricingModel) Update(records []domain.TrainingRecord) (bool, error) {
	if len(records) < MinTrainingRecords {
		return false, nil
	}

	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	rows := make([][]float64, len(records))
	targets := make([]float64, len(records))
	for i, r := range records {
		rows[i] = r.Features
		targets[i] = r.Label
	}

	reg, err := FitRegressor(rows, targets)
	if err != nil {
		return false, err
	}

	m.snapshot.Store(&PricingSnapshot{
		Regressor: reg,
		Samples:   len(records),
		TrainedAt: time.Now().UTC(),
	})
	return true, nil
}

// Status describes the model for the status endpoint.
func (m *PricingModel) Status() domain.ModelStatus {
	st := domain.ModelStatus{
		Domain: domain.DomainPricing,
		Status: domain.ModelStateCold,
		Model:  "least_squares_regression",
	}
	if snap := m.snapshot.Load(); snap != nil {
		st.Status = domain.ModelStateTrained
		st.Samples = snap.Samples
		st.LastUpdated = snap.TrainedAt
	}
	return st
}
