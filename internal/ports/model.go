package ports

// Predictor is implemented by fitted regressors.
type Predictor interface {
	// Predict returns the prediction for a single feature vector.
	Predict(x []float64) (float64, error)
	// PredictBatch returns one prediction per feature vector.
	PredictBatch(X [][]float64) ([]float64, error)
}
