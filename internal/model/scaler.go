// Package model implements the trained-model path of the scorers: feature
// standardization, anomaly detection, and price regression. Fitted artifacts
// are immutable snapshots swapped atomically, so scoring calls in flight
// during an update read either the old or the new state, never a mix.
package model

import (
	"fmt"
	"math"
)

// Scaler standardizes features to zero mean and unit variance.
// A fitted scaler is immutable.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation over rows.
// All rows must share the same width.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("scaler: no rows to fit")
	}

	width := len(rows[0])
	mean := make([]float64, width)
	std := make([]float64, width)

	for _, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("scaler: inconsistent row width %d, want %d", len(row), width)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			// Constant column: leave values unshifted rather than dividing by zero.
			std[j] = 1
		}
	}

	return &Scaler{Mean: mean, Std: std}, nil
}

// Transform standardizes a single feature vector.
func (s *Scaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: got %d features, fitted on %d", len(features), len(s.Mean))
	}
	z := make([]float64, len(features))
	for j, v := range features {
		z[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return z, nil
}
