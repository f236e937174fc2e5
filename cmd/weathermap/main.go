package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/msm-weather-map/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/msm-weather-map/internal/adapter/http"
	"github.com/couchcryptid/msm-weather-map/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/msm-weather-map/internal/adapter/kafka"
	"github.com/couchcryptid/msm-weather-map/internal/adapter/wgrib2"
	"github.com/couchcryptid/msm-weather-map/internal/config"
	"github.com/couchcryptid/msm-weather-map/internal/observability"
	"github.com/couchcryptid/msm-weather-map/internal/pipeline"
)

func main() {
	os.Exit(run())
}

// run wires the pipeline and returns the process exit code.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := filestore.NewStore(cfg.OutputPath(), cfg.OutputCompression, logger)
	if err != nil {
		logger.Error("failed to create output store", "error", err)
		return 1
	}

	stages := pipeline.Stages{
		Acquirer:    jma.NewClient(cfg.SourceBaseURL, cfg.SourceTimeout, logger),
		Converter:   wgrib2.NewConverter(cfg.Wgrib2Cmd, logger),
		Extractor:   wgrib2.NewReader(cfg.ParseMode, logger),
		Transformer: pipeline.NewTransformer(cfg.Transform, logger),
		Loader:      store,
		Cleaner:     store,
	}

	// Kafka publication is feature-flagged via KAFKA_ENABLED.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		stages.Publisher = writer
		logger.Info("kafka publication enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publication disabled")
	}

	p := pipeline.New(stages, pipeline.Settings{
		GridPath:        cfg.GridPath(),
		CSVPath:         cfg.CSVPath(),
		SkipAcquisition: cfg.SkipAcquisition,
		Cleanup:         cfg.Cleanup,
		SourceLag:       cfg.SourceLag,
		SourceCycle:     cfg.SourceCycle,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if cfg.Schedule == "" {
		if _, err := p.RunOnce(ctx); err != nil {
			code = 1
		}
	} else if err := serve(ctx, cfg, p, logger); err != nil {
		logger.Error("scheduler error", "error", err)
		code = 1
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	return code
}

// serve runs the pipeline on the configured schedule alongside the HTTP
// server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	scheduler, err := pipeline.NewScheduler(p, cfg.Schedule, logger)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := scheduler.Run(ctx)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
