package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/adapters/cache"
	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	"github.com/CoderVinit/doctor-backend/internal/adapters/events"
	"github.com/CoderVinit/doctor-backend/internal/adapters/modelstore"
	"github.com/CoderVinit/doctor-backend/internal/adapters/search"
	"github.com/CoderVinit/doctor-backend/internal/api/handlers"
	"github.com/CoderVinit/doctor-backend/internal/api/middleware"
	"github.com/CoderVinit/doctor-backend/internal/api/routes"
	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/postgres"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/redis"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/typesense"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
	"github.com/CoderVinit/doctor-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTELExport(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	db := pgClient.DB()

	baseDoctorAdapter := database.NewDoctorAdapter(db)
	appointmentAdapter := database.NewAppointmentAdapter(db)

	// Redis is optional: without it the model is not persisted, replicas do
	// not hear about retrains and nothing is cached.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		modelStore    providers.ModelStore
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without cache and model persistence")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient.Client())
			eventBus = events.NewRedisEventBus(redisClient.Client())
			modelStore = modelstore.NewRedisModelStore(redisClient.Client(), modelstore.DefaultKey)
			log.Info().Str("addr", redisClient.Addr()).Msg("Redis client initialized")
		}
	}

	var doctorAdapter repositories.DoctorRepository = baseDoctorAdapter
	if cacheProvider != nil {
		doctorAdapter = database.NewCachedDoctorAdapter(baseDoctorAdapter, cacheProvider, metrics)
	}

	var searchRepo repositories.DoctorSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, doctor search falls back to the database")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	specialties, err := services.LoadSpecialties(cfg.Catalog.SpecialtiesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load specialty catalogue")
	}
	matcher := services.NewSymptomMatcher(specialties)

	model := services.NewRiskModel(logistic.Options{
		Steps:        cfg.Model.TrainingSteps,
		LearningRate: cfg.Model.LearningRate,
	})
	noShowService := services.NewNoShowService(appointmentAdapter, model, modelStore, eventBus, services.NoShowConfig{
		SyntheticSamples:   cfg.Model.SyntheticSamples,
		MinTrainingRecords: cfg.Model.MinTrainingRecords,
		Seed:               cfg.Model.Seed,
	})
	noShowService.SetMetrics(metrics)
	if err := noShowService.Bootstrap(ctx); err != nil {
		log.Error().Err(err).Msg("No-show model bootstrap failed, predictions use the fallback heuristic")
	}
	go func() {
		if err := noShowService.WatchModelEvents(ctx); err != nil {
			log.Warn().Err(err).Msg("Model event watcher stopped")
		}
	}()
	go noShowService.StartPeriodicRetraining(ctx, cfg.Model.RetrainInterval)

	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(baseDoctorAdapter, cacheProvider)
		warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	aiHandler := handlers.NewAIHandler(
		services.NewDoctorRecommendationService(doctorAdapter, searchRepo, matcher),
		services.NewSlotService(appointmentAdapter, services.NewSlotScorer()),
		noShowService,
		services.NewInsightComposer(matcher),
	)

	opts := routes.Options{
		Metrics:        metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if eventBus != nil {
		opts.ModelEventsHandler = handlers.NewModelEventsHandler(eventBus, 0)
	}
	if cacheProvider != nil {
		opts.CacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics, nil)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; protected routes reject every request")
	}

	router := routes.NewRouter(aiHandler, middleware.NewAuthenticator(cfg.Auth.JWTSecret), doctorAdapter, opts)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset so the model event stream is not cut off
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
