package evaluation

import "math"

const (
	decisionThreshold = 0.5
	epsilon           = 1e-9
)

// Confusion counts outcomes at the 0.5 decision threshold. A positive is a
// predicted no-show.
type Confusion struct {
	TruePositive  int
	FalsePositive int
	TrueNegative  int
	FalseNegative int
}

// NewConfusion tallies predictions against labels. Extra entries in the longer
// slice are ignored.
func NewConfusion(probabilities, labels []float64) Confusion {
	var c Confusion
	for i := 0; i < len(probabilities) && i < len(labels); i++ {
		predicted := probabilities[i] >= decisionThreshold
		actual := labels[i] >= decisionThreshold
		switch {
		case predicted && actual:
			c.TruePositive++
		case predicted:
			c.FalsePositive++
		case actual:
			c.FalseNegative++
		default:
			c.TrueNegative++
		}
	}
	return c
}

// Accuracy returns the fraction of correct predictions, 0 when empty.
func (c Confusion) Accuracy() float64 {
	total := c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
	return ratio(c.TruePositive+c.TrueNegative, total)
}

// Precision returns TP / (TP + FP), 0 when nothing was predicted positive.
func (c Confusion) Precision() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalsePositive)
}

// Recall returns TP / (TP + FN), 0 when there are no actual positives.
func (c Confusion) Recall() float64 {
	return ratio(c.TruePositive, c.TruePositive+c.FalseNegative)
}

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// LogLoss computes mean binary cross-entropy. Returns 0 for empty input.
func LogLoss(probabilities, labels []float64) float64 {
	n := min(len(probabilities), len(labels))
	if n == 0 {
		return 0
	}
	var loss float64
	for i := 0; i < n; i++ {
		p, y := probabilities[i], labels[i]
		loss += -y*math.Log(p+epsilon) - (1-y)*math.Log(1-p+epsilon)
	}
	return loss / float64(n)
}

// Brier computes the mean squared error between probability and label.
func Brier(probabilities, labels []float64) float64 {
	n := min(len(probabilities), len(labels))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := probabilities[i] - labels[i]
		sum += d * d
	}
	return sum / float64(n)
}

// Score computes every metric for one predictor.
func Score(probabilities, labels []float64) Scores {
	c := NewConfusion(probabilities, labels)
	return Scores{
		Accuracy:  c.Accuracy(),
		Precision: c.Precision(),
		Recall:    c.Recall(),
		F1:        c.F1(),
		LogLoss:   LogLoss(probabilities, labels),
		Brier:     Brier(probabilities, labels),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
