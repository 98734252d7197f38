// Package evaluation scores holdout predictions.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"stockPredictor/internal/ports"
)

// Report holds the holdout regression metrics.
type Report struct {
	MAE  float64
	MSE  float64
	RMSE float64
	R2   float64
	N    int
}

// String formats the report for the console.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString("Model Evaluation:\n")
	fmt.Fprintf(&b, "Mean Absolute Error: %.4f\n", r.MAE)
	fmt.Fprintf(&b, "Mean Squared Error: %.4f\n", r.MSE)
	fmt.Fprintf(&b, "Root Mean Squared Error: %.4f\n", r.RMSE)
	fmt.Fprintf(&b, "R-squared Score: %.4f\n", r.R2)
	return b.String()
}

// Fields returns the report as log fields.
func (r Report) Fields() map[string]interface{} {
	return map[string]interface{}{
		"mae":  r.MAE,
		"mse":  r.MSE,
		"rmse": r.RMSE,
		"r2":   r.R2,
		"n":    r.N,
	}
}

// Evaluate predicts X with model and compares against y.
func Evaluate(model ports.Predictor, X [][]float64, y []float64) (Report, error) {
	if len(X) == 0 {
		return Report{}, fmt.Errorf("empty holdout set: %w", ports.ErrInsufficientData)
	}
	if len(X) != len(y) {
		return Report{}, fmt.Errorf("%d rows but %d targets: %w", len(X), len(y), ports.ErrInvalidRequest)
	}
	pred, err := model.PredictBatch(X)
	if err != nil {
		return Report{}, fmt.Errorf("predicting holdout: %w", err)
	}
	return Score(y, pred), nil
}

// Score computes all metrics for equal-length actual and predicted values.
func Score(actual, predicted []float64) Report {
	mse := MSE(actual, predicted)
	return Report{
		MAE:  MAE(actual, predicted),
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		R2:   R2(actual, predicted),
		N:    len(actual),
	}
}

// MAE is the mean absolute error.
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var s float64
	for i, a := range actual {
		s += math.Abs(a - predicted[i])
	}
	return s / float64(len(actual))
}

// MSE is the mean squared error.
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var s float64
	for i, a := range actual {
		d := a - predicted[i]
		s += d * d
	}
	return s / float64(len(actual))
}

// R2 is the coefficient of determination. A constant target scores 1 for an
// exact prediction and 0 otherwise; fewer than two samples is undefined (NaN).
func R2(actual, predicted []float64) float64 {
	n := len(actual)
	if n < 2 {
		return math.NaN()
	}
	var mean float64
	for _, a := range actual {
		mean += a
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for i, a := range actual {
		r := a - predicted[i]
		d := a - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
