package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/adapters/database"
	"github.com/CoderVinit/doctor-backend/internal/adapters/search"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/postgres"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/clients/typesense"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
	"github.com/CoderVinit/doctor-backend/pkg/config"
)

const pageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.App.Env, cfg.App.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	doctorRepo := database.NewDoctorAdapter(pgClient.DB())

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.DoctorsCollection).Msg("Reset requested, deleting collection")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}
	index := search.NewTypesenseAdapter(tsClient)

	var indexed, failed int
	for offset := 0; ; offset += pageSize {
		doctors, err := doctorRepo.List(ctx, repositories.DoctorFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}

		for _, d := range doctors {
			if d == nil {
				continue
			}
			if err := index.Index(ctx, d); err != nil {
				failed++
				log.Warn().Err(err).Str("doctor_id", d.ID).Msg("Failed to index doctor")
				continue
			}
			indexed++
		}

		if len(doctors) < pageSize {
			break
		}
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("Indexing complete")
	return nil
}
