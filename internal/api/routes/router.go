package routes

import (
	"net/http"

	"github.com/CoderVinit/doctor-backend/internal/api/handlers"
	"github.com/CoderVinit/doctor-backend/internal/api/middleware"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	aiHandler          *handlers.AIHandler
	modelEventsHandler *handlers.ModelEventsHandler

	auth            *middleware.Authenticator
	cacheMiddleware *middleware.CacheMiddleware
	doctorRepo      repositories.DoctorRepository
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// Options carries the optional router collaborators
type Options struct {
	ModelEventsHandler *handlers.ModelEventsHandler
	CacheMiddleware    *middleware.CacheMiddleware
	Metrics            *observability.Metrics
	AllowedOrigins     []string
}

// NewRouter creates a new router. doctorRepo backs the per-request loaders.
func NewRouter(
	aiHandler *handlers.AIHandler,
	auth *middleware.Authenticator,
	doctorRepo repositories.DoctorRepository,
	opts Options,
) *Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Router{
		mux:                http.NewServeMux(),
		aiHandler:          aiHandler,
		modelEventsHandler: opts.ModelEventsHandler,
		auth:               auth,
		cacheMiddleware:    opts.CacheMiddleware,
		doctorRepo:         doctorRepo,
		metrics:            opts.Metrics,
		allowedOrigins:     origins,
	}
}

func (r *Router) handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, middleware.RecordRoute(h))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.handle("GET /health", http.HandlerFunc(handlers.Health))

	r.handle("POST /api/ai/recommend-doctors", http.HandlerFunc(r.aiHandler.RecommendDoctors))
	r.handle("GET /api/ai/optimal-slots", http.HandlerFunc(r.aiHandler.GetOptimalSlots))
	r.handle("GET /api/ai/model-stats", http.HandlerFunc(r.aiHandler.GetModelStats))
	r.handle("POST /api/ai/health-insights", http.HandlerFunc(r.aiHandler.GetHealthInsights))
	r.handle("GET /api/ai/no-show-patterns", http.HandlerFunc(r.aiHandler.GetNoShowPatterns))

	r.handle("POST /api/ai/predict-no-show", r.auth.RequireAuth(http.HandlerFunc(r.aiHandler.PredictNoShow)))

	var retrain http.Handler = http.HandlerFunc(r.aiHandler.RetrainModel)
	if r.cacheMiddleware != nil {
		retrain = r.cacheMiddleware.InvalidateOnSuccess(retrain)
	}
	r.handle("POST /api/ai/retrain-model", r.auth.RequireAuth(retrain))

	if r.modelEventsHandler != nil {
		r.handle("GET /api/ai/model-events", http.HandlerFunc(r.modelEventsHandler.StreamModelEvents))
	}

	// last applied wraps outermost
	var handler http.Handler = r.mux
	handler = middleware.LoadersMiddleware(r.doctorRepo)(handler)
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache hits
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
