package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/billsync/backend/internal/application/reconciliation"
	"github.com/billsync/backend/internal/bootstrap"
	"github.com/billsync/backend/internal/infrastructure/config"
)

// main runs one periodic poll and prints its report as JSON on stdout.
// It exits 1 when the tenant registry cannot be read.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	// stdout carries the report
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return 1
	}
	log := app.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	report, err := app.Sync.Run(ctx)
	if err != nil {
		var regErr *reconciliation.RegistryError
		if errors.As(err, &regErr) {
			log.Error("Periodic sync failed", zap.Error(err))
			_ = writeJSON(map[string]string{"error": err.Error()})
			return 1
		}
		log.Error("Periodic sync failed unexpectedly", zap.Error(err))
		return 1
	}

	if err := writeJSON(report); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		return 1
	}
	return 0
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
