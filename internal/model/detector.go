package model

import (
	"fmt"
	"math"
	"sort"
)

// Contamination is the assumed share of outliers in the training data. The
// detector's offset is set so roughly this fraction of training rows score
// negative.
const Contamination = 0.1

// Detector is a distance-based outlier detector over standardized features.
//
// The anomaly statistic of a row is the mean absolute z-score of its
// features. DecisionFunction returns offset minus that statistic, so inliers
// score positive and outliers negative, matching the usual decision-function
// contract of anomaly estimators.
type Detector struct {
	Offset float64 `json:"offset"`
}

// FitDetector fits the detector on standardized training rows.
func FitDetector(standardized [][]float64) (*Detector, error) {
	if len(standardized) == 0 {
		return nil, fmt.Errorf("detector: no rows to fit")
	}

	stats := make([]float64, len(standardized))
	for i, row := range standardized {
		stats[i] = meanAbs(row)
	}
	sort.Float64s(stats)

	// Offset at the (1 - contamination) quantile of training statistics.
	idx := int(math.Ceil(float64(len(stats))*(1-Contamination))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(stats) {
		idx = len(stats) - 1
	}

	return &Detector{Offset: stats[idx]}, nil
}

// DecisionFunction returns the signed anomaly score of a standardized row.
// Positive means inlier, negative means outlier.
func (d *Detector) DecisionFunction(standardized []float64) float64 {
	return d.Offset - meanAbs(standardized)
}

// IsOutlier reports whether the standardized row falls outside the fitted
// inlier region.
func (d *Detector) IsOutlier(standardized []float64) bool {
	return d.DecisionFunction(standardized) < 0
}

// RiskFromDecision maps a decision-function value into [0,1] through a
// logistic transform. Strong outliers approach 1, strong inliers approach 0.
func RiskFromDecision(decision float64) float64 {
	risk := 1 / (1 + math.Exp(decision))
	if risk < 0 {
		return 0
	}
	if risk > 1 {
		return 1
	}
	return risk
}

func meanAbs(row []float64) float64 {
	if len(row) == 0 {
		return 0
	}
	var sum float64
	for _, v := range row {
		sum += math.Abs(v)
	}
	return sum / float64(len(row))
}
