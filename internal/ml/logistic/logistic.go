// Package logistic fits binary logistic-regression models with batch
// gradient descent.
package logistic

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyTrainingSet is returned when there is nothing to fit.
	ErrEmptyTrainingSet = errors.New("logistic: empty training set")
	// ErrDimensionMismatch is returned when sample lengths disagree with each
	// other, with the label count, or with a fitted model.
	ErrDimensionMismatch = errors.New("logistic: dimension mismatch")
	// ErrNonFinite is returned when the optimiser diverges.
	ErrNonFinite = errors.New("logistic: non-finite parameters")
)

const epsilon = 1e-9

// Options configures gradient descent.
type Options struct {
	Steps        int
	LearningRate float64
}

// DefaultOptions returns 1000 steps at learning rate 0.1.
func DefaultOptions() Options {
	return Options{Steps: 1000, LearningRate: 0.1}
}

// Weights is a fitted model.
type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Metrics summarises fit quality on a sample set.
type Metrics struct {
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// Train fits weights to samples. labels[i] is the target for samples[i] and
// must lie in [0,1].
func Train(samples [][]float64, labels []float64, opts Options) (Weights, Metrics, error) {
	if opts.Steps <= 0 || opts.LearningRate <= 0 {
		opts = DefaultOptions()
	}

	featureCount, err := validate(samples, labels)
	if err != nil {
		return Weights{}, Metrics{}, err
	}

	n := float64(len(samples))
	coefficients := make([]float64, featureCount)
	grad := make([]float64, featureCount)
	var bias float64

	for step := 0; step < opts.Steps; step++ {
		for j := range grad {
			grad[j] = 0
		}
		var biasGrad float64

		for i, sample := range samples {
			residual := sigmoid(dot(coefficients, sample)+bias) - labels[i]
			for j, x := range sample {
				grad[j] += residual * x
			}
			biasGrad += residual
		}

		for j := range coefficients {
			coefficients[j] -= opts.LearningRate * grad[j] / n
		}
		bias -= opts.LearningRate * biasGrad / n
	}

	w := Weights{Bias: bias, Coefficients: coefficients}
	if !w.finite() {
		return Weights{}, Metrics{}, ErrNonFinite
	}

	metrics, err := Evaluate(w, samples, labels)
	if err != nil {
		return Weights{}, Metrics{}, err
	}
	if math.IsNaN(metrics.Loss) || math.IsInf(metrics.Loss, 0) {
		return Weights{}, Metrics{}, ErrNonFinite
	}
	return w, metrics, nil
}

// Predict returns the positive-class probability for sample.
func (w Weights) Predict(sample []float64) (float64, error) {
	if len(sample) != len(w.Coefficients) {
		return 0, fmt.Errorf("%w: model has %d coefficients, sample has %d", ErrDimensionMismatch, len(w.Coefficients), len(sample))
	}
	return sigmoid(dot(w.Coefficients, sample) + w.Bias), nil
}

// Evaluate computes mean log-loss and accuracy at a 0.5 threshold.
func Evaluate(w Weights, samples [][]float64, labels []float64) (Metrics, error) {
	if len(samples) == 0 {
		return Metrics{}, ErrEmptyTrainingSet
	}
	if len(samples) != len(labels) {
		return Metrics{}, fmt.Errorf("%w: %d samples, %d labels", ErrDimensionMismatch, len(samples), len(labels))
	}

	var loss float64
	var correct int
	for i, sample := range samples {
		p, err := w.Predict(sample)
		if err != nil {
			return Metrics{}, err
		}
		y := labels[i]
		loss += -y*math.Log(p+epsilon) - (1-y)*math.Log(1-p+epsilon)
		if (p >= 0.5) == (y >= 0.5) {
			correct++
		}
	}

	n := float64(len(samples))
	return Metrics{Loss: loss / n, Accuracy: float64(correct) / n}, nil
}

func validate(samples [][]float64, labels []float64) (int, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(samples) != len(labels) {
		return 0, fmt.Errorf("%w: %d samples, %d labels", ErrDimensionMismatch, len(samples), len(labels))
	}

	featureCount := len(samples[0])
	if featureCount == 0 {
		return 0, fmt.Errorf("%w: samples have no features", ErrDimensionMismatch)
	}
	for i, sample := range samples {
		if len(sample) != featureCount {
			return 0, fmt.Errorf("%w: sample %d has %d features, want %d", ErrDimensionMismatch, i, len(sample), featureCount)
		}
		for _, x := range sample {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return 0, fmt.Errorf("%w: sample %d", ErrNonFinite, i)
			}
		}
		if labels[i] < 0 || labels[i] > 1 || math.IsNaN(labels[i]) {
			return 0, fmt.Errorf("logistic: label %d out of range: %v", i, labels[i])
		}
	}
	return featureCount, nil
}

func (w Weights) finite() bool {
	if math.IsNaN(w.Bias) || math.IsInf(w.Bias, 0) {
		return false
	}
	for _, c := range w.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
