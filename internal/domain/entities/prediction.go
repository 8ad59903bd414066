package entities

// Feature positions inside a FeatureVector
const (
	FeatureCancellationRate = iota
	FeatureCompletionRate
	FeatureTotalAppointments
	FeatureRecentCancellations
	FeatureDaysSinceLastAppointment
	FeatureFirstVisitToDoctor
	FeatureAverageLeadTime
	FeaturePaymentRate
	FeatureMorningSlot
	FeatureAfternoonSlot
	FeatureEveningSlot
	FeatureWeekend

	FeatureCount
)

// FeatureNames lists feature names in vector order
var FeatureNames = [FeatureCount]string{
	"cancellationRate",
	"completionRate",
	"totalAppointmentsNorm",
	"recentCancellationsNorm",
	"daysSinceLastAppointmentNorm",
	"isFirstVisitToDoctor",
	"averageLeadTimeNorm",
	"paymentRate",
	"morningSlot",
	"afternoonSlot",
	"eveningSlot",
	"isWeekend",
}

// FeatureVector is the normalised description of a patient and a candidate
// slot. Every component lies in [0,1].
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// RiskLevel buckets a no-show probability
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// RiskLevelFor buckets p: below 0.25 is low, below 0.5 medium, otherwise high.
func RiskLevelFor(p float64) RiskLevel {
	switch {
	case p < 0.25:
		return RiskLevelLow
	case p < 0.5:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// PredictionSource says which path produced a probability
type PredictionSource string

const (
	PredictionSourceModel    PredictionSource = "model"
	PredictionSourceFallback PredictionSource = "fallback"
)

// Prediction is the explained no-show risk for one prospective appointment
type Prediction struct {
	Probability       float64            `json:"probability"`
	RiskLevel         RiskLevel          `json:"riskLevel"`
	Factors           []string           `json:"factors"`
	Recommendations   []string           `json:"recommendations"`
	FeatureImportance map[string]float64 `json:"featureImportance"`
	ModelConfidence   float64            `json:"modelConfidence"`
	Source            PredictionSource   `json:"source"`
}
