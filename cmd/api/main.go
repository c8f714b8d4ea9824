package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"seqab/adapters/estimator"
	"seqab/adapters/excel"
	"seqab/adapters/postgres"
	"seqab/adapters/rng"
	"seqab/app"
	"seqab/internal"
	"seqab/internal/config"
	"seqab/ports"
	"seqab/ui"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var repo ports.PlanRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := postgres.EnsureSchema(db); err != nil {
			log.Fatalf("failed to prepare schema: %v", err)
		}
		repo = postgres.NewPlanRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, plans are not persisted")
	}

	streams := rng.NewStreamFactory()
	service := app.NewExperimentService(
		estimator.NewAutoEstimator(streams),
		estimator.NewRaceWalkPlanner(),
		repo,
		excel.NewReportWriter(),
		logger,
	)

	httpApp := ui.NewApp(service, logger)
	if err := httpApp.Serve(ui.Config{Port: cfg.Server.Port}); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
