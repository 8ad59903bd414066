package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	"github.com/CoderVinit/doctor-backend/internal/adapters/events"
	"github.com/CoderVinit/doctor-backend/internal/adapters/modelstore"
	"github.com/CoderVinit/doctor-backend/internal/application/services"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/postgres"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/redis"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
	"github.com/CoderVinit/doctor-backend/pkg/config"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
)

func main() {
	var dryRun bool
	var minRecords int
	flag.BoolVar(&dryRun, "dry-run", false, "train and report without persisting or announcing the model")
	flag.IntVar(&minRecords, "min-records", 0, "override MODEL_MIN_TRAINING_RECORDS")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-retrain", cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()
	appointments := database.NewAppointmentAdapter(pgClient.DB())

	var (
		store    providers.ModelStore
		eventBus providers.EventBus
	)
	if !dryRun {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis; use -dry-run to train without persisting")
		}
		defer redisClient.Close()
		store = modelstore.NewRedisModelStore(redisClient.Client(), modelstore.DefaultKey)
		eventBus = events.NewRedisEventBus(redisClient.Client())
		defer eventBus.Close()
	}

	if minRecords <= 0 {
		minRecords = cfg.Model.MinTrainingRecords
	}
	model := services.NewRiskModel(logistic.Options{
		Steps:        cfg.Model.TrainingSteps,
		LearningRate: cfg.Model.LearningRate,
	})
	svc := services.NewNoShowService(appointments, model, store, eventBus, services.NoShowConfig{
		SyntheticSamples:   cfg.Model.SyntheticSamples,
		MinTrainingRecords: minRecords,
		Seed:               cfg.Model.Seed,
	})

	result, err := svc.RetrainModel(ctx)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeInsufficientData) {
			log.Warn().Err(err).Msg("Retraining skipped")
			os.Exit(3)
		}
		log.Fatal().Err(err).Msg("Retraining failed")
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
