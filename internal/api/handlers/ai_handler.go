package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

// DoctorRecommender ranks doctors for a symptom description
type DoctorRecommender interface {
	RecommendDoctors(ctx context.Context, symptoms string, limit int) ([]*entities.DoctorMatch, error)
}

// SlotRecommender ranks a doctor's free slots
type SlotRecommender interface {
	GetOptimalSlots(ctx context.Context, doctorID, date string) (*entities.SlotRecommendation, error)
}

// NoShowPredictor scores no-show risk and manages the risk model
type NoShowPredictor interface {
	PredictNoShow(ctx context.Context, req services.PredictNoShowRequest) (*entities.Prediction, error)
	RetrainModel(ctx context.Context) (*entities.RetrainResult, error)
	ModelStats() entities.ModelStats
	AnalyzePatternsByTimeSlot(ctx context.Context, doctorID string) (map[string]float64, error)
}

// InsightComposer summarises free-text symptoms
type InsightComposer interface {
	Compose(symptoms string) *entities.HealthInsight
}

// AIHandler serves the /api/ai endpoints
type AIHandler struct {
	doctors  DoctorRecommender
	slots    SlotRecommender
	noShow   NoShowPredictor
	insights InsightComposer
}

// NewAIHandler creates a new AI handler
func NewAIHandler(doctors DoctorRecommender, slots SlotRecommender, noShow NoShowPredictor, insights InsightComposer) *AIHandler {
	return &AIHandler{
		doctors:  doctors,
		slots:    slots,
		noShow:   noShow,
		insights: insights,
	}
}

type recommendDoctorsRequest struct {
	Symptoms string `json:"symptoms"`
	Limit    *int   `json:"limit,omitempty"`
}

type healthInsightsRequest struct {
	Symptoms string `json:"symptoms"`
}

// RecommendDoctors handles POST /api/ai/recommend-doctors
func (h *AIHandler) RecommendDoctors(w http.ResponseWriter, r *http.Request) {
	var req recommendDoctorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		respondWithError(w, http.StatusBadRequest, "symptoms is required")
		return
	}

	limit := 0
	if req.Limit != nil {
		if *req.Limit < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be at least 1")
			return
		}
		limit = *req.Limit
	}

	matches, err := h.doctors.RecommendDoctors(r.Context(), req.Symptoms, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, "Doctors recommended successfully", matches)
}

// GetOptimalSlots handles GET /api/ai/optimal-slots?doctorId=&date=
func (h *AIHandler) GetOptimalSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rec, err := h.slots.GetOptimalSlots(r.Context(), query.Get("doctorId"), query.Get("date"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, "Optimal slots retrieved successfully", rec)
}

// PredictNoShow handles POST /api/ai/predict-no-show
func (h *AIHandler) PredictNoShow(w http.ResponseWriter, r *http.Request) {
	var req services.PredictNoShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	prediction, err := h.noShow.PredictNoShow(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, "No-show prediction generated using ML model", prediction)
}

// GetModelStats handles GET /api/ai/model-stats
func (h *AIHandler) GetModelStats(w http.ResponseWriter, r *http.Request) {
	respondWithData(w, "Model statistics retrieved", h.noShow.ModelStats())
}

// RetrainModel handles POST /api/ai/retrain-model
func (h *AIHandler) RetrainModel(w http.ResponseWriter, r *http.Request) {
	result, err := h.noShow.RetrainModel(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, result.Message, result)
}

// GetHealthInsights handles POST /api/ai/health-insights
func (h *AIHandler) GetHealthInsights(w http.ResponseWriter, r *http.Request) {
	var req healthInsightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		respondWithError(w, http.StatusBadRequest, "symptoms is required")
		return
	}
	respondWithData(w, "Health insights generated", h.insights.Compose(req.Symptoms))
}

// GetNoShowPatterns handles GET /api/ai/no-show-patterns?doctorId=
func (h *AIHandler) GetNoShowPatterns(w http.ResponseWriter, r *http.Request) {
	rates, err := h.noShow.AnalyzePatternsByTimeSlot(r.Context(), r.URL.Query().Get("doctorId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithData(w, "No-show patterns retrieved", rates)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		return
	}
}
