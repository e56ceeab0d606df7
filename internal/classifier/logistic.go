package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNotFitted is returned by Predict and PredictProba before Fit.
var ErrNotFitted = errors.New("classifier: not fitted")

// TrainConfig controls gradient-descent training.
type TrainConfig struct {
	C         float64 `json:"c"` // inverse regularization strength
	MaxIter   int     `json:"max_iter"`
	Tol       float64 `json:"tol"` // gradient infinity-norm stopping threshold
	LearnRate float64 `json:"learn_rate"`
	Seed      int64   `json:"seed"` // weight initialization seed
}

// DefaultTrainConfig returns the training configuration used by the
// pipeline.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		C:         1.0,
		MaxIter:   1000,
		Tol:       1e-6,
		LearnRate: 0.5,
		Seed:      42,
	}
}

func (c TrainConfig) validate() error {
	if c.C <= 0 {
		return fmt.Errorf("classifier: C must be > 0, got %v", c.C)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("classifier: max iterations must be >= 1, got %d", c.MaxIter)
	}
	if c.Tol < 0 {
		return fmt.Errorf("classifier: tolerance must be >= 0, got %v", c.Tol)
	}
	if c.LearnRate <= 0 {
		return fmt.Errorf("classifier: learn rate must be > 0, got %v", c.LearnRate)
	}
	return nil
}

// LogisticRegression is a binary logistic regression model trained with
// full-batch gradient descent.
type LogisticRegression struct {
	Config  TrainConfig `json:"config"`
	Weights []float64   `json:"weights"`
	Bias    float64     `json:"bias"`
	Epochs  int         `json:"epochs"` // epochs run by the last Fit
}

// New creates an unfitted model with the given training configuration.
func New(cfg TrainConfig) *LogisticRegression {
	return &LogisticRegression{Config: cfg}
}

// Fit trains the model on feature matrix X and binary labels y. It
// minimizes mean cross-entropy with an L2 penalty of ||w||^2/(2*C*n),
// stopping when the gradient infinity norm falls below Tol or MaxIter
// epochs have run. Weights are initialized from the configured seed, so
// training is deterministic for fixed inputs.
func (m *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []int) error {
	if err := m.Config.validate(); err != nil {
		return err
	}
	nFeatures, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}

	n := float64(len(X))
	rng := rand.New(rand.NewSource(m.Config.Seed))
	w := make([]float64, nFeatures)
	for j := range w {
		w[j] = (rng.Float64() - 0.5) * 0.01
	}
	b := 0.0

	grad := make([]float64, nFeatures)
	epochs := 0
	for epoch := 0; epoch < m.Config.MaxIter; epoch++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("classifier: fit: %w", err)
		}
		epochs = epoch + 1

		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i, row := range X {
			p := sigmoid(dot(w, row) + b)
			diff := p - float64(y[i])
			for j, x := range row {
				grad[j] += diff * x
			}
			gradB += diff
		}

		gradMax := 0.0
		for j := range grad {
			grad[j] = grad[j]/n + w[j]/(m.Config.C*n)
			if abs := math.Abs(grad[j]); abs > gradMax {
				gradMax = abs
			}
		}
		gradB /= n
		if math.Abs(gradB) > gradMax {
			gradMax = math.Abs(gradB)
		}

		for j := range w {
			w[j] -= m.Config.LearnRate * grad[j]
		}
		b -= m.Config.LearnRate * gradB

		if gradMax < m.Config.Tol {
			break
		}
	}

	m.Weights = w
	m.Bias = b
	m.Epochs = epochs
	return nil
}

// Predict returns the class (0 or 1) for each row of X.
func (m *LogisticRegression) Predict(X [][]float64) ([]int, error) {
	probas, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		if p[1] >= 0.5 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns [P(class 0), P(class 1)] for each row of X.
func (m *LogisticRegression) PredictProba(X [][]float64) ([][2]float64, error) {
	if m.Weights == nil {
		return nil, ErrNotFitted
	}
	probas := make([][2]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Weights) {
			return nil, fmt.Errorf("classifier: predict: row %d has %d features, model expects %d", i, len(row), len(m.Weights))
		}
		p := sigmoid(dot(m.Weights, row) + m.Bias)
		probas[i] = [2]float64{1 - p, p}
	}
	return probas, nil
}

// FeatureCount returns the number of input features the model expects.
func (m *LogisticRegression) FeatureCount() int {
	return len(m.Weights)
}

func checkTrainingData(X [][]float64, y []int) (nFeatures int, err error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("classifier: fit: no samples")
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("classifier: fit: %d samples but %d labels", len(X), len(y))
	}
	nFeatures = len(X[0])
	if nFeatures == 0 {
		return 0, fmt.Errorf("classifier: fit: samples have no features")
	}
	for i, row := range X {
		if len(row) != nFeatures {
			return 0, fmt.Errorf("classifier: fit: row %d has %d features, row 0 has %d", i, len(row), nFeatures)
		}
	}
	var seen [2]bool
	for i, label := range y {
		if label != 0 && label != 1 {
			return 0, fmt.Errorf("classifier: fit: label %d at index %d is not binary", label, i)
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return 0, fmt.Errorf("classifier: fit: training data contains a single class")
	}
	return nFeatures, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
