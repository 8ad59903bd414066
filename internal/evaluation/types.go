package evaluation

import "github.com/CoderVinit/doctor-backend/internal/domain/entities"

// Scores holds classification metrics for one predictor on the holdout set.
type Scores struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	LogLoss   float64 `json:"logLoss"`
	Brier     float64 `json:"brier"`
}

// LevelSummary compares predicted and observed no-show rates within one
// risk bucket. It shows whether the buckets are calibrated.
type LevelSummary struct {
	Count         int     `json:"count"`
	MeanPredicted float64 `json:"meanPredicted"`
	ObservedRate  float64 `json:"observedRate"`
}

// EvalSummary is the outcome of one holdout evaluation.
type EvalSummary struct {
	Records      int                                  `json:"records"`
	Skipped      int                                  `json:"skipped"`
	Cutoff       string                               `json:"cutoff"`
	TrainSamples int                                  `json:"trainSamples"`
	TestSamples  int                                  `json:"testSamples"`
	BaseRate     float64                              `json:"baseRate"`
	Model        Scores                               `json:"model"`
	Fallback     Scores                               `json:"fallback"`
	ByRiskLevel  map[entities.RiskLevel]*LevelSummary `json:"byRiskLevel"`
	Violations   []string                             `json:"violations,omitempty"`
}
