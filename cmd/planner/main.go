package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/planloom/planloom/internal/config"
	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/recalc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()

	database, err := db.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewSQLiteUnitOfWork(database)

	var observer recalc.Observer = recalc.NoopObserver{}
	if envEnabled("PLANNER_LOG_RECALC") {
		observer = recalc.NewLogObserver(os.Stderr)
	}

	loop := recalc.NewLoop(uow, cfg.GA, cfg.Debounce, observer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop.Run(ctx)
	return nil
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
