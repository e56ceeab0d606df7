package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/crimson-sun/timbre/internal/config"
	"github.com/crimson-sun/timbre/internal/logging"
	"github.com/crimson-sun/timbre/internal/pipeline"
)

func main() {
	cfg := config.Load()

	log := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	p := pipeline.New(pipeline.Config{
		OutputDir:      cfg.OutputDir,
		RuntimeLibPath: cfg.RuntimeLibPath,
		RunID:          runID,
		Log:            log,
	})

	// Set up graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("training run failed")
	}
}
