// Package fitting wraps the regression calls used by the statistics
// endpoints: Pearson correlation plus linear and quadratic least-squares
// fits over paired time-series samples.
package fitting

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewSamples is returned when the sample count cannot support the
// requested fit (2 pairs for a line, 3 for a parabola).
var ErrTooFewSamples = errors.New("fitting: not enough sample pairs")

// LinearFit is a fitted y = Slope*x + Intercept model.
type LinearFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// QuadraticFit is a fitted y = A*x² + B*x + C model.
type QuadraticFit struct {
	A        float64
	B        float64
	C        float64
	RSquared float64
}

// Correlation returns the Pearson correlation coefficient of xs and ys.
func Correlation(xs, ys []float64) float64 {
	return stat.Correlation(xs, ys, nil)
}

// Linear fits a straight line by ordinary least squares.
func Linear(xs, ys []float64) (LinearFit, error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return LinearFit{}, ErrTooFewSamples
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return LinearFit{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
	}, nil
}

// Predict evaluates the line at x.
func (f LinearFit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// Quadratic fits a second-degree polynomial by least squares.
func Quadratic(xs, ys []float64) (QuadraticFit, error) {
	n := len(xs)
	if n < 3 || n != len(ys) {
		return QuadraticFit{}, ErrTooFewSamples
	}

	design := mat.NewDense(n, 3, nil)
	for i, x := range xs {
		design.Set(i, 0, 1)
		design.Set(i, 1, x)
		design.Set(i, 2, x*x)
	}
	rhs := mat.NewDense(n, 1, nil)
	for i, y := range ys {
		rhs.Set(i, 0, y)
	}

	var qr mat.QR
	qr.Factorize(design)
	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, rhs); err != nil {
		return QuadraticFit{}, err
	}

	fit := QuadraticFit{
		C: coef.At(0, 0),
		B: coef.At(1, 0),
		A: coef.At(2, 0),
	}
	fit.RSquared = rSquared(xs, ys, fit.Predict)
	return fit, nil
}

// Predict evaluates the parabola at x.
func (f QuadraticFit) Predict(x float64) float64 {
	return f.A*x*x + f.B*x + f.C
}

func rSquared(xs, ys []float64, predict func(float64) float64) float64 {
	mean := stat.Mean(ys, nil)
	var ssRes, ssTot float64
	for i, x := range xs {
		d := ys[i] - predict(x)
		ssRes += d * d
		t := ys[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
