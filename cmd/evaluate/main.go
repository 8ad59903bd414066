package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/evaluation"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/postgres"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	"github.com/CoderVinit/doctor-backend/internal/ml/logistic"
	"github.com/CoderVinit/doctor-backend/pkg/config"
)

func main() {
	var (
		file     string
		holdout  float64
		strict   bool
		minAcc   float64
		maxBrier float64
	)
	flag.StringVar(&file, "file", "", "evaluate a JSON appointment export instead of the database")
	flag.Float64Var(&holdout, "holdout", evaluation.DefaultHoldout, "share of the most recent appointments held out")
	flag.BoolVar(&strict, "strict", false, "exit non-zero when a guardrail is violated")
	flag.Float64Var(&minAcc, "min-accuracy", 0, "minimum holdout accuracy")
	flag.Float64Var(&maxBrier, "max-brier", 0.25, "maximum holdout Brier score")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-evaluate", cfg.App.Env, cfg.App.LogLevel)

	records, err := loadRecords(context.Background(), cfg, file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load appointment history")
	}

	runner := evaluation.NewRunner(logistic.Options{
		Steps:        cfg.Model.TrainingSteps,
		LearningRate: cfg.Model.LearningRate,
	}, holdout)
	summary, err := runner.Run(records)
	if err != nil {
		log.Fatal().Err(err).Int("records", len(records)).Msg("Evaluation failed")
	}

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinAccuracy:  minAcc,
		MaxBrier:     maxBrier,
		BeatFallback: true,
	})
	summary.Violations = guardrails.Check(summary)

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if strict && len(summary.Violations) > 0 {
		os.Exit(2)
	}
}

func loadRecords(ctx context.Context, cfg *config.Config, file string) ([]*entities.AppointmentRecord, error) {
	if file != "" {
		records, err := evaluation.LoadRecords(file)
		if err != nil {
			return nil, err
		}
		return records, evaluation.ValidateRecords(records)
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	defer pgClient.Close()

	appointments := database.NewAppointmentAdapter(pgClient.DB())
	return appointments.List(ctx, repositories.AppointmentFilter{})
}
