package main

import (
	"context"
	"os"
	"time"

	"logbook/internal/backend"
	"logbook/internal/cli"
	"logbook/internal/log"
	"logbook/internal/services"
	"logbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting logbook-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create mirror", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	ledger := cli.InitLedger(logger, cfg.LedgerDBPath)
	defer ledger.Close()

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("Worker requires a broker connection")
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker only reads tables; it never announces saves itself.
	rs := services.NewRecordService(cli.NewCSVStore(cfg, logger), cli.RecordPaths(cfg), nil, logger.WithComponent(log.ComponentStore))
	mw := worker.NewMirrorWorker(rs, result.Mirror, ledger, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Mirror worker running",
		"backend", backendCfg.Type,
		"sync_interval", cfg.SyncInterval.String())
	if err := mw.Run(ctx, amqpClient, cfg.SyncInterval); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
