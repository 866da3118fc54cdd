package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/extract"
	"github.com/dgallion1/pdfoutline/internal/pipeline"
)

// Batch entry point: sweep INPUT_DIR once, write one JSON artifact per
// PDF to OUTPUT_DIR, then optionally keep watching for new files.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.NewRunner(cfg, extract.NewEngine(), log)

	summary, err := runner.Run(ctx)
	if err != nil {
		log.Error("batch run aborted", "error", err)
		os.Exit(1)
	}
	log.Info("batch complete",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"stats", runner.StatsSnapshot(),
	)

	if cfg.WatchInput {
		if err := runner.Watch(ctx); err != nil {
			log.Error("watch failed", "error", err)
			os.Exit(1)
		}
	}
}
