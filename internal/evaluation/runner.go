package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

// DefaultHoldout is the share of the most recent appointments held out for
// testing.
const DefaultHoldout = 0.2

// ErrNotEnoughData is returned when the split leaves either side empty.
var ErrNotEnoughData = errors.New("not enough dated appointments for a holdout split")

// Runner fits a fresh risk model on older appointments and scores it on the
// most recent ones, next to the fallback heuristic.
type Runner struct {
	opts      logistic.Options
	holdout   float64
	extractor *services.FeatureExtractor
}

// NewRunner creates a runner. A holdout outside (0,1) means DefaultHoldout.
func NewRunner(opts logistic.Options, holdout float64) *Runner {
	if holdout <= 0 || holdout >= 1 {
		holdout = DefaultHoldout
	}
	return &Runner{opts: opts, holdout: holdout, extractor: services.NewFeatureExtractor()}
}

// Run splits records chronologically by slot date. Test features still see
// the full earlier history of each patient, including training-period visits.
func (r *Runner) Run(records []*entities.AppointmentRecord) (*EvalSummary, error) {
	dates := make(map[*entities.AppointmentRecord]time.Time, len(records))
	ordered := make([]time.Time, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		at, err := utils.ParseSlotDate(rec.SlotDate)
		if err != nil {
			skipped++
			continue
		}
		dates[rec] = at
		ordered = append(ordered, at)
	}
	if len(ordered) < 2 {
		return nil, ErrNotEnoughData
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })
	testCount := max(int(math.Round(float64(len(ordered))*r.holdout)), 1)
	cutoff := ordered[len(ordered)-testCount]

	train, _ := r.extractor.TrainingSet(records, func(rec *entities.AppointmentRecord) bool {
		at, ok := dates[rec]
		return ok && at.Before(cutoff)
	})
	test, _ := r.extractor.TrainingSet(records, func(rec *entities.AppointmentRecord) bool {
		at, ok := dates[rec]
		return ok && !at.Before(cutoff)
	})
	if train.Len() == 0 || test.Len() == 0 {
		return nil, fmt.Errorf("%w: %d train, %d test", ErrNotEnoughData, train.Len(), test.Len())
	}

	model := services.NewRiskModel(r.opts)
	if _, err := model.Train(train, entities.ModelSourceHistorical); err != nil {
		return nil, err
	}

	modelProbs := make([]float64, test.Len())
	fallbackProbs := make([]float64, test.Len())
	byLevel := make(map[entities.RiskLevel]*LevelSummary)
	var positives float64
	for i, v := range test.Vectors {
		p, _ := model.Predict(v)
		modelProbs[i] = p
		fallbackProbs[i] = services.FallbackProbability(v)
		positives += test.Labels[i]

		level := entities.RiskLevelFor(p)
		ls, ok := byLevel[level]
		if !ok {
			ls = &LevelSummary{}
			byLevel[level] = ls
		}
		ls.Count++
		ls.MeanPredicted += p
		ls.ObservedRate += test.Labels[i]
	}
	for _, ls := range byLevel {
		n := float64(ls.Count)
		ls.MeanPredicted /= n
		ls.ObservedRate /= n
	}

	return &EvalSummary{
		Records:      len(records),
		Skipped:      skipped,
		Cutoff:       cutoff.Format(utils.DateLayout),
		TrainSamples: train.Len(),
		TestSamples:  test.Len(),
		BaseRate:     positives / float64(test.Len()),
		Model:        Score(modelProbs, test.Labels),
		Fallback:     Score(fallbackProbs, test.Labels),
		ByRiskLevel:  byLevel,
	}, nil
}
