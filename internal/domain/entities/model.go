package entities

import (
	"time"
)

// ModelSource records what data a model was fitted on
type ModelSource string

const (
	ModelSourceSynthetic  ModelSource = "synthetic"
	ModelSourceHistorical ModelSource = "historical"
)

// ModelMetrics summarises the fit of a model on its training set
type ModelMetrics struct {
	Loss     float64 `json:"loss"`
	Accuracy float64 `json:"accuracy"`
}

// TrainedModel is an immutable snapshot of fitted risk-model parameters
type TrainedModel struct {
	Version      string       `json:"version"`
	FeatureNames []string     `json:"featureNames"`
	Bias         float64      `json:"bias"`
	Coefficients []float64    `json:"coefficients"`
	Source       ModelSource  `json:"source"`
	Samples      int          `json:"samples"`
	Metrics      ModelMetrics `json:"metrics"`
	TrainedAt    time.Time    `json:"trainedAt"`
}

// ModelStats describes the live model
type ModelStats struct {
	IsTrained    bool        `json:"isTrained"`
	FeatureCount int         `json:"featureCount"`
	FeatureNames []string    `json:"featureNames"`
	Version      string      `json:"version,omitempty"`
	Source       ModelSource `json:"source,omitempty"`
	Samples      int         `json:"samples,omitempty"`
	TrainedAt    *time.Time  `json:"trainedAt,omitempty"`
}

// RetrainResult is returned by a retraining request
type RetrainResult struct {
	AppointmentsUsed int           `json:"appointmentsUsed"`
	Success          bool          `json:"success"`
	Message          string        `json:"message"`
	Version          string        `json:"version,omitempty"`
	Metrics          *ModelMetrics `json:"metrics,omitempty"`
}

// ModelEventType identifies a model lifecycle event
type ModelEventType string

const (
	ModelEventRetrained ModelEventType = "model.retrained"
)

// ModelEvent announces a model change to other replicas
type ModelEvent struct {
	ID        string         `json:"id"`
	Type      ModelEventType `json:"type"`
	Version   string         `json:"version"`
	Source    ModelSource    `json:"source"`
	Samples   int            `json:"samples"`
	Timestamp time.Time      `json:"timestamp"`
}
