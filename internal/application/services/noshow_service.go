package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
	"github.com/CoderVinit/doctor-backend/pkg/utils"
)

// DefaultSlotTime is assumed when a prediction request names no slot time
const DefaultSlotTime = "10:00 AM"

// MetricsRecorder receives no-show model telemetry
type MetricsRecorder interface {
	RecordPrediction(ctx context.Context, source string)
	RecordTraining(ctx context.Context, source, outcome string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordPrediction(context.Context, string) {}
func (noopRecorder) RecordTraining(context.Context, string, string, time.Duration) {}

// NoShowConfig tunes NoShowService
type NoShowConfig struct {
	SyntheticSamples   int
	MinTrainingRecords int
	Seed               int64
}

// PredictNoShowRequest identifies the appointment to score
type PredictNoShowRequest struct {
	PatientID string `json:"userId"`
	DoctorID  string `json:"doctorId"`
	SlotDate  string `json:"slotDate,omitempty"`
	SlotTime  string `json:"slotTime,omitempty"`
}

// NoShowService predicts and explains no-show risk and manages the model
// lifecycle: bootstrap, retraining, persistence and cross-replica reloads.
type NoShowService struct {
	appointments repositories.AppointmentRepository
	model        *RiskModel
	extractor    *FeatureExtractor
	store        providers.ModelStore
	eventBus     providers.EventBus
	metrics      MetricsRecorder
	cfg          NoShowConfig
	now          func() time.Time

	rngMu   sync.Mutex
	rng     *rand.Rand
	trainMu sync.Mutex
}

// NewNoShowService creates a new no-show service. store and eventBus may be nil.
func NewNoShowService(
	appointments repositories.AppointmentRepository,
	model *RiskModel,
	store providers.ModelStore,
	eventBus providers.EventBus,
	cfg NoShowConfig,
) *NoShowService {
	if cfg.SyntheticSamples <= 0 {
		cfg.SyntheticSamples = 500
	}
	if cfg.MinTrainingRecords <= 0 {
		cfg.MinTrainingRecords = 50
	}
	return &NoShowService{
		appointments: appointments,
		model:        model,
		extractor:    NewFeatureExtractor(),
		store:        store,
		eventBus:     eventBus,
		metrics:      noopRecorder{},
		cfg:          cfg,
		now:          time.Now,
		rng:          NewRand(cfg.Seed),
	}
}

// SetMetrics sets the telemetry sink
func (s *NoShowService) SetMetrics(m MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// Bootstrap makes a model live at startup: the persisted model when one is
// stored and compatible, otherwise a model fitted to synthetic data.
func (s *NoShowService) Bootstrap(ctx context.Context) error {
	if s.store != nil {
		stored, err := s.store.Load(ctx)
		switch {
		case err == nil:
			loadErr := s.model.Load(stored)
			if loadErr == nil {
				log.Info().
					Str("model_version", stored.Version).
					Str("model_source", string(stored.Source)).
					Int("samples", stored.Samples).
					Msg("Loaded persisted no-show model")
				return nil
			}
			log.Warn().Err(loadErr).Msg("Persisted no-show model rejected, bootstrapping from synthetic data")
		case errors.Is(err, providers.ErrModelNotFound):
			log.Info().Msg("No persisted no-show model, bootstrapping from synthetic data")
		default:
			log.Warn().Err(err).Msg("Failed to read persisted no-show model, bootstrapping from synthetic data")
		}
	}

	start := time.Now()
	s.rngMu.Lock()
	model, err := s.model.TrainSynthetic(s.cfg.SyntheticSamples, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		s.metrics.RecordTraining(ctx, string(entities.ModelSourceSynthetic), "failed", time.Since(start))
		log.Error().Err(err).Msg("Synthetic bootstrap failed, predictions will use the fallback rule")
		return err
	}
	s.metrics.RecordTraining(ctx, string(entities.ModelSourceSynthetic), "success", time.Since(start))

	log.Info().
		Int("samples", model.Samples).
		Float64("loss", model.Metrics.Loss).
		Float64("accuracy", model.Metrics.Accuracy).
		Msg("No-show model trained on synthetic data")
	return nil
}

// PredictNoShow scores the risk that the patient misses the appointment.
func (s *NoShowService) PredictNoShow(ctx context.Context, req PredictNoShowRequest) (*entities.Prediction, error) {
	ctx, span := observability.StartSpan(ctx, "NoShowService.PredictNoShow")
	defer span.End()

	if req.PatientID == "" {
		return nil, apperrors.NewValidationError("userId is required")
	}
	if req.DoctorID == "" {
		return nil, apperrors.NewValidationError("doctorId is required")
	}
	if req.SlotDate == "" {
		req.SlotDate = s.now().UTC().Format(utils.DateLayout)
	}
	if req.SlotTime == "" {
		req.SlotTime = DefaultSlotTime
	}

	target, err := utils.ParseSlotDate(req.SlotDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid slotDate: " + req.SlotDate)
	}

	history, err := s.appointments.ListByPatient(ctx, req.PatientID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	vector, err := s.extractor.Extract(PriorTo(history, target), req.DoctorID, req.SlotDate, req.SlotTime)
	if err != nil {
		return nil, err
	}

	raw, source := s.model.Predict(vector)
	s.metrics.RecordPrediction(ctx, string(source))

	p := clamp01(raw)
	level := entities.RiskLevelFor(p)

	observability.SetSpanAttributes(span,
		attribute.String("noshow.source", string(source)),
		attribute.String("noshow.risk_level", string(level)),
	)

	return &entities.Prediction{
		Probability:       utils.RoundTo(p, 2),
		RiskLevel:         level,
		Factors:           riskFactors(vector),
		Recommendations:   interventions(level, vector),
		FeatureImportance: FeatureImportance(vector),
		ModelConfidence:   utils.RoundTo(Confidence(p), 2),
		Source:            source,
	}, nil
}

// RetrainModel fits the model to the full appointment history. Fewer records
// than the configured minimum yields an InsufficientData error and keeps the
// live model.
func (s *NoShowService) RetrainModel(ctx context.Context) (*entities.RetrainResult, error) {
	ctx, span := observability.StartSpan(ctx, "NoShowService.RetrainModel")
	defer span.End()

	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	records, err := s.appointments.List(ctx, repositories.AppointmentFilter{})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if len(records) < s.cfg.MinTrainingRecords {
		s.metrics.RecordTraining(ctx, string(entities.ModelSourceHistorical), "insufficient_data", 0)
		log.Warn().
			Int("records", len(records)).
			Int("required", s.cfg.MinTrainingRecords).
			Msg("Not enough appointment history for retraining, keeping current model")
		return nil, apperrors.NewInsufficientDataError(len(records), s.cfg.MinTrainingRecords)
	}

	set := s.buildTrainingSet(records)

	start := time.Now()
	model, err := s.model.Train(set, entities.ModelSourceHistorical)
	if err != nil {
		s.metrics.RecordTraining(ctx, string(entities.ModelSourceHistorical), "failed", time.Since(start))
		observability.RecordError(span, err)
		log.Error().Err(err).Int("samples", set.Len()).Msg("No-show retraining failed, keeping current model")
		return nil, apperrors.NewInternalError("model training failed", err)
	}
	s.metrics.RecordTraining(ctx, string(entities.ModelSourceHistorical), "success", time.Since(start))

	log.Info().
		Str("model_version", model.Version).
		Int("appointments", len(records)).
		Int("samples", model.Samples).
		Float64("loss", model.Metrics.Loss).
		Float64("accuracy", model.Metrics.Accuracy).
		Msg("No-show model retrained on appointment history")

	s.persistAndAnnounce(ctx, model)

	metrics := model.Metrics
	return &entities.RetrainResult{
		AppointmentsUsed: len(records),
		Success:          true,
		Message:          fmt.Sprintf("Model retrained on %d appointments", len(records)),
		Version:          model.Version,
		Metrics:          &metrics,
	}, nil
}

func (s *NoShowService) buildTrainingSet(records []*entities.AppointmentRecord) TrainingSet {
	set, skipped := s.extractor.TrainingSet(records, nil)
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Skipped appointments with unparseable slot dates")
	}
	return set
}

func (s *NoShowService) persistAndAnnounce(ctx context.Context, model *entities.TrainedModel) {
	if s.store != nil {
		if err := s.store.Save(ctx, model); err != nil {
			log.Warn().Err(err).Str("model_version", model.Version).Msg("Failed to persist no-show model")
			return
		}
	}

	if s.eventBus == nil {
		return
	}
	event := &entities.ModelEvent{
		ID:        uuid.New().String(),
		Type:      entities.ModelEventRetrained,
		Version:   model.Version,
		Source:    model.Source,
		Samples:   model.Samples,
		Timestamp: s.now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelModelUpdates, event); err != nil {
		log.Warn().Err(err).Str("model_version", model.Version).Msg("Failed to publish model event")
	}
}

// WatchModelEvents reloads the persisted model whenever another replica
// announces a retrain. It blocks until ctx is done or the subscription closes.
func (s *NoShowService) WatchModelEvents(ctx context.Context) error {
	if s.eventBus == nil || s.store == nil {
		return nil
	}

	events, err := s.eventBus.Subscribe(ctx, providers.EventChannelModelUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to model events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.handleModelEvent(ctx, event)
		}
	}
}

func (s *NoShowService) handleModelEvent(ctx context.Context, event *entities.ModelEvent) {
	if event == nil || event.Type != entities.ModelEventRetrained {
		return
	}
	if current := s.model.Current(); current != nil && current.Version == event.Version {
		return
	}

	stored, err := s.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("model_version", event.Version).Msg("Failed to load announced model")
		return
	}
	if err := s.model.Load(stored); err != nil {
		log.Warn().Err(err).Str("model_version", stored.Version).Msg("Announced model rejected")
		return
	}
	log.Info().Str("model_version", stored.Version).Msg("Reloaded no-show model from store")
}

// StartPeriodicRetraining retrains on every tick until ctx is done. A
// non-positive interval disables it.
func (s *NoShowService) StartPeriodicRetraining(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Periodic retraining stopped")
			return
		case <-ticker.C:
			if _, err := s.RetrainModel(ctx); err != nil {
				if apperrors.IsType(err, apperrors.ErrorTypeInsufficientData) {
					log.Info().Err(err).Msg("Periodic retraining skipped")
					continue
				}
				log.Error().Err(err).Msg("Periodic retraining failed")
			}
		}
	}
}

// AnalyzePatternsByTimeSlot returns the no-show rate per slot time, rounded to
// two decimals. An empty doctorID covers all doctors.
func (s *NoShowService) AnalyzePatternsByTimeSlot(ctx context.Context, doctorID string) (map[string]float64, error) {
	records, err := s.appointments.List(ctx, repositories.AppointmentFilter{DoctorID: doctorID})
	if err != nil {
		return nil, err
	}

	type tally struct{ total, noShows int }
	bySlot := make(map[string]*tally)
	for _, r := range records {
		if r == nil {
			continue
		}
		t, ok := bySlot[r.SlotTime]
		if !ok {
			t = &tally{}
			bySlot[r.SlotTime] = t
		}
		t.total++
		if r.NoShow() {
			t.noShows++
		}
	}

	rates := make(map[string]float64, len(bySlot))
	for slot, t := range bySlot {
		rates[slot] = utils.RoundTo(float64(t.noShows)/float64(t.total), 2)
	}
	return rates, nil
}

// ModelStats describes the live model
func (s *NoShowService) ModelStats() entities.ModelStats {
	return s.model.Stats()
}
