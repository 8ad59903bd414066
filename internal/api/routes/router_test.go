package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoderVinit/doctor-backend/internal/api/handlers"
	"github.com/CoderVinit/doctor-backend/internal/api/middleware"
	"github.com/CoderVinit/doctor-backend/internal/api/routes"
	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
)

const secret = "router-secret"

type emptyAppointments struct{}

func (emptyAppointments) ListByPatient(context.Context, string) ([]*entities.AppointmentRecord, error) {
	return []*entities.AppointmentRecord{}, nil
}

func (emptyAppointments) List(context.Context, repositories.AppointmentFilter) ([]*entities.AppointmentRecord, error) {
	return []*entities.AppointmentRecord{}, nil
}

func (emptyAppointments) BookedSlots(context.Context, string, string) ([]string, error) {
	return []string{}, nil
}

func (emptyAppointments) Create(context.Context, *entities.AppointmentRecord) error {
	return nil
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	specialties, err := services.LoadSpecialties("")
	require.NoError(t, err)
	matcher := services.NewSymptomMatcher(specialties)

	appointments := emptyAppointments{}
	model := services.NewRiskModel(logistic.Options{Steps: 50, LearningRate: 0.1})
	noShow := services.NewNoShowService(appointments, model, nil, nil, services.NoShowConfig{})

	aiHandler := handlers.NewAIHandler(
		services.NewDoctorRecommendationService(nil, nil, matcher),
		services.NewSlotService(appointments, nil),
		noShow,
		services.NewInsightComposer(matcher),
	)
	router := routes.NewRouter(aiHandler, middleware.NewAuthenticator(secret), nil, routes.Options{})
	return router.SetupRoutes()
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1", "role": "patient"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newServer(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_OptimalSlots(t *testing.T) {
	w := httptest.NewRecorder()
	newServer(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai/optimal-slots?doctorId=doc-1&date=2025-01-15", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool                        `json:"success"`
		Data    entities.SlotRecommendation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Len(t, env.Data.Slots, len(services.SlotCatalogue))
	require.NotNil(t, env.Data.Recommended)
	assert.Equal(t, "10:00 AM", env.Data.Recommended.Time)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	server := newServer(t)
	for _, path := range []string{"/api/ai/predict-no-show", "/api/ai/retrain-model"} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_PredictNoShowWithToken(t *testing.T) {
	body := bytes.NewBufferString(`{"userId":"user-1","doctorId":"doc-1","slotDate":"2025-01-18","slotTime":"06:00 PM"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ai/predict-no-show", body)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	newServer(t).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data entities.Prediction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, entities.PredictionSourceFallback, env.Data.Source)
	assert.Equal(t, entities.RiskLevelMedium, env.Data.RiskLevel)
}

func TestRouter_RetrainWithoutHistoryIs422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/retrain-model", nil)
	req.Header.Set("Authorization", bearer(t))
	w := httptest.NewRecorder()
	newServer(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRouter_MethodMismatch(t *testing.T) {
	w := httptest.NewRecorder()
	newServer(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ai/recommend-doctors", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
