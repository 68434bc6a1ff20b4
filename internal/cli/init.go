// Package cli provides common CLI initialization utilities shared by
// cmd/logbook, cmd/logbook-worker and cmd/logbookctl.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"logbook/internal/amqp"
	"logbook/internal/config"
	"logbook/internal/log"
	"logbook/internal/records"
	"logbook/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, applies the paths file and
// validates the result. Exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.LoadPaths(); err != nil {
		logger.Error("Failed to load paths file", log.FieldError, err, log.FieldFile, cfg.PathsFile)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// RecordPaths resolves the backing file of every record kind.
func RecordPaths(cfg *config.Config) map[records.Kind]string {
	paths := make(map[records.Kind]string, len(records.DefaultFiles))
	for _, kind := range records.Kinds() {
		paths[kind] = cfg.FilePath(string(kind), records.DefaultFiles[kind])
	}
	return paths
}

// NewCSVStore builds the record store with the configured save mode.
func NewCSVStore(cfg *config.Config, logger *log.Logger) *storage.CSVStore {
	return storage.NewCSVStore(
		storage.WithAtomicSave(cfg.AtomicSave),
		storage.WithLogger(logger.WithComponent(log.ComponentStore)),
	)
}

// InitLedger opens the mirror ledger at dbPath, running migrations.
// Returns the ledger or exits the process on failure.
func InitLedger(logger *log.Logger, dbPath string) *storage.Ledger {
	ledger, err := storage.OpenLedger(dbPath)
	if err != nil {
		logger.Error("Failed to initialize mirror ledger", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return ledger
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client means
// saves are not announced; connection failures are logged, not fatal.
func InitAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, saved tables will not be announced")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without mirror messages", log.FieldError, err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
