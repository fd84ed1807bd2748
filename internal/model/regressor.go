package model

import (
	"fmt"
)

// ridge is a small regularization term keeping the normal equations solvable
// when feature columns are collinear.
const ridge = 1e-6

// Regressor is a least-squares linear model fitted on historical
// price/feature pairs.
type Regressor struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// FitRegressor solves the ridge-regularized normal equations for rows X and
// targets y.
func FitRegressor(rows [][]float64, targets []float64) (*Regressor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("regressor: no rows to fit")
	}
	if len(rows) != len(targets) {
		return nil, fmt.Errorf("regressor: %d rows but %d targets", len(rows), len(targets))
	}

	width := len(rows[0])
	// Augment with a bias column: dimensions (width+1) x (width+1).
	dim := width + 1

	// Build X'X and X'y in one pass.
	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("regressor: inconsistent row width %d, want %d", len(row), width)
		}
		aug := append(append(make([]float64, 0, dim), row...), 1.0)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += aug[i] * aug[j]
			}
			xty[i] += aug[i] * targets[r]
		}
	}
	for i := 0; i < dim; i++ {
		xtx[i][i] += ridge
	}

	coef, err := solve(xtx, xty)
	if err != nil {
		return nil, err
	}

	return &Regressor{Coef: coef[:width], Intercept: coef[width]}, nil
}

// Predict evaluates the fitted model on a feature vector.
func (r *Regressor) Predict(features []float64) (float64, error) {
	if len(features) != len(r.Coef) {
		return 0, fmt.Errorf("regressor: got %d features, fitted on %d", len(features), len(r.Coef))
	}
	y := r.Intercept
	for i, v := range features {
		y += r.Coef[i] * v
	}
	return y, nil
}

// solve applies Gaussian elimination with partial pivoting to A x = b.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	// Work on copies; fitting must not alias caller state.
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append(make([]float64, 0, n+1), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if abs(m[row][col]) > abs(m[pivot][col]) {
				pivot = row
			}
		}
		if abs(m[pivot][col]) == 0 {
			return nil, fmt.Errorf("regressor: singular system at column %d", col)
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}
	return x, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
