package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

var (
	// ErrTrainingFailed wraps any failure to fit the model. The live model is
	// left untouched when it is returned.
	ErrTrainingFailed = errors.New("risk model training failed")
	// ErrIncompatibleModel is returned when a stored model does not match the
	// current feature layout.
	ErrIncompatibleModel = errors.New("incompatible risk model")
)

// fallbackBias and fallbackWeights score a vector when no model is trained.
const fallbackBias = 0.2

var fallbackWeights = entities.FeatureVector{0.25, -0.2, -0.1, 0.2, 0.05, 0.1, 0.08, -0.15, -0.05, 0, 0.05, 0.08}

// importanceWeights scale feature values into the reported importance map.
var importanceWeights = entities.FeatureVector{0.25, 0.2, 0.1, 0.2, 0.05, 0.1, 0.08, 0.15, 0.05, 0.03, 0.07, 0.08}

// TrainingSet holds aligned feature vectors and no-show labels (1 = no-show).
type TrainingSet struct {
	Vectors []entities.FeatureVector
	Labels  []float64
}

// Len returns the number of samples
func (s TrainingSet) Len() int {
	return len(s.Vectors)
}

// Add appends one labelled sample
func (s *TrainingSet) Add(v entities.FeatureVector, noShow bool) {
	s.Vectors = append(s.Vectors, v)
	if noShow {
		s.Labels = append(s.Labels, 1)
	} else {
		s.Labels = append(s.Labels, 0)
	}
}

// RiskModel is a logistic-regression no-show classifier. The live parameters
// are an immutable snapshot replaced atomically, so Predict never observes a
// partially updated model.
type RiskModel struct {
	live atomic.Pointer[entities.TrainedModel]
	opts logistic.Options
	now  func() time.Time
}

// NewRiskModel creates an untrained model
func NewRiskModel(opts logistic.Options) *RiskModel {
	return &RiskModel{opts: opts, now: time.Now}
}

// Train fits the model to set and installs the result. On failure the
// previous model, or the untrained state, is kept.
func (m *RiskModel) Train(set TrainingSet, source entities.ModelSource) (*entities.TrainedModel, error) {
	if set.Len() != len(set.Labels) {
		return nil, fmt.Errorf("%w: %d vectors, %d labels", ErrTrainingFailed, set.Len(), len(set.Labels))
	}

	samples := make([][]float64, set.Len())
	for i, v := range set.Vectors {
		samples[i] = v.Slice()
	}

	weights, metrics, err := logistic.Train(samples, set.Labels, m.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}

	model := &entities.TrainedModel{
		Version:      uuid.New().String(),
		FeatureNames: featureNames(),
		Bias:         weights.Bias,
		Coefficients: weights.Coefficients,
		Source:       source,
		Samples:      set.Len(),
		Metrics:      entities.ModelMetrics{Loss: metrics.Loss, Accuracy: metrics.Accuracy},
		TrainedAt:    m.now().UTC(),
	}
	m.live.Store(model)
	return model, nil
}

// TrainSynthetic fits the model to n generated samples.
func (m *RiskModel) TrainSynthetic(n int, rng *rand.Rand) (*entities.TrainedModel, error) {
	return m.Train(GenerateSyntheticSet(n, rng), entities.ModelSourceSynthetic)
}

// Load installs a previously trained model after checking it matches the
// current feature layout.
func (m *RiskModel) Load(model *entities.TrainedModel) error {
	if model == nil {
		return fmt.Errorf("%w: nil model", ErrIncompatibleModel)
	}
	if len(model.Coefficients) != entities.FeatureCount {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrIncompatibleModel, len(model.Coefficients), entities.FeatureCount)
	}
	if len(model.FeatureNames) != entities.FeatureCount {
		return fmt.Errorf("%w: %d feature names, want %d", ErrIncompatibleModel, len(model.FeatureNames), entities.FeatureCount)
	}
	for i, name := range entities.FeatureNames {
		if model.FeatureNames[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrIncompatibleModel, i, model.FeatureNames[i], name)
		}
	}
	if !isFinite(model.Bias) {
		return fmt.Errorf("%w: non-finite bias", ErrIncompatibleModel)
	}
	for _, c := range model.Coefficients {
		if !isFinite(c) {
			return fmt.Errorf("%w: non-finite coefficient", ErrIncompatibleModel)
		}
	}

	snapshot := *model
	snapshot.Coefficients = append([]float64(nil), model.Coefficients...)
	snapshot.FeatureNames = append([]string(nil), model.FeatureNames...)
	m.live.Store(&snapshot)
	return nil
}

// Current returns the live model, or nil when untrained.
func (m *RiskModel) Current() *entities.TrainedModel {
	return m.live.Load()
}

// IsTrained reports whether a model is live
func (m *RiskModel) IsTrained() bool {
	return m.live.Load() != nil
}

// Predict returns the raw no-show probability for v and the path that
// produced it. Callers clamp the value.
func (m *RiskModel) Predict(v entities.FeatureVector) (float64, entities.PredictionSource) {
	model := m.live.Load()
	if model == nil {
		return FallbackProbability(v), entities.PredictionSourceFallback
	}

	weights := logistic.Weights{Bias: model.Bias, Coefficients: model.Coefficients}
	p, err := weights.Predict(v.Slice())
	if err != nil {
		log.Error().Err(err).Str("model_version", model.Version).Msg("risk model inference failed")
		return FallbackProbability(v), entities.PredictionSourceFallback
	}
	if !isFinite(p) {
		log.Warn().Str("model_version", model.Version).Msg("risk model produced non-finite probability")
		return FallbackProbability(v), entities.PredictionSourceFallback
	}
	return p, entities.PredictionSourceModel
}

// Stats describes the live model
func (m *RiskModel) Stats() entities.ModelStats {
	stats := entities.ModelStats{
		FeatureCount: entities.FeatureCount,
		FeatureNames: featureNames(),
	}
	if model := m.live.Load(); model != nil {
		trainedAt := model.TrainedAt
		stats.IsTrained = true
		stats.Version = model.Version
		stats.Source = model.Source
		stats.Samples = model.Samples
		stats.TrainedAt = &trainedAt
	}
	return stats
}

// FallbackProbability is the fixed linear rule used when no model is live.
func FallbackProbability(v entities.FeatureVector) float64 {
	p := fallbackBias
	for i, w := range fallbackWeights {
		p += v[i] * w
	}
	return p
}

// Confidence maps a probability to its distance from 0.5, scaled to [0,1].
func Confidence(p float64) float64 {
	return math.Abs(p-0.5) * 2
}

// FeatureImportance returns a static per-feature contribution estimate
// rounded to two decimals. It does not read the fitted coefficients.
func FeatureImportance(v entities.FeatureVector) map[string]float64 {
	out := make(map[string]float64, entities.FeatureCount)
	for i, name := range entities.FeatureNames {
		out[name] = utils.RoundTo(v[i]*importanceWeights[i], 2)
	}
	return out
}

// GenerateSyntheticSet draws n plausible patient/slot samples and labels them
// with a hand-written risk rule plus noise. It is used to bootstrap the model
// before real history exists.
func GenerateSyntheticSet(n int, rng *rand.Rand) TrainingSet {
	set := TrainingSet{
		Vectors: make([]entities.FeatureVector, 0, n),
		Labels:  make([]float64, 0, n),
	}

	for i := 0; i < n; i++ {
		var v entities.FeatureVector

		v[entities.FeatureCancellationRate] = rng.Float64()
		v[entities.FeatureCompletionRate] = rng.Float64()
		v[entities.FeatureTotalAppointments] = math.Floor(rng.Float64()*20) / totalAppointmentsCap
		recentRaw := math.Floor(rng.Float64() * 3)
		v[entities.FeatureRecentCancellations] = recentRaw / recentWindow
		v[entities.FeatureDaysSinceLastAppointment] = math.Floor(rng.Float64()*90) / daysSinceCap
		if rng.Float64() > 0.7 {
			v[entities.FeatureFirstVisitToDoctor] = 1
		}
		leadTime := math.Floor(rng.Float64()*14) / leadTimeCap
		v[entities.FeatureAverageLeadTime] = leadTime
		v[entities.FeaturePaymentRate] = rng.Float64()

		switch {
		case rng.Float64() > 0.66:
			v[entities.FeatureMorningSlot] = 1
		case rng.Float64() > 0.5:
			v[entities.FeatureAfternoonSlot] = 1
		default:
			v[entities.FeatureEveningSlot] = 1
		}
		if rng.Float64() > 0.7 {
			v[entities.FeatureWeekend] = 1
		}

		p := 0.15 +
			v[entities.FeatureCancellationRate]*0.3 +
			(1-v[entities.FeatureCompletionRate])*0.2 +
			recentRaw*0.15 +
			v[entities.FeatureFirstVisitToDoctor]*0.1 +
			leadTime*0.1 -
			v[entities.FeaturePaymentRate]*0.2 +
			v[entities.FeatureEveningSlot]*0.05 +
			v[entities.FeatureWeekend]*0.1
		p = clamp01(p) + (rng.Float64()-0.5)*0.1

		set.Add(v, rng.Float64() < p)
	}
	return set
}

// NewRand returns a deterministic source for seed, or a time-seeded one for 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func featureNames() []string {
	names := make([]string, entities.FeatureCount)
	copy(names, entities.FeatureNames[:])
	return names
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
