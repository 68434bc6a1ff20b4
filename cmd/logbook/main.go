package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"logbook/internal/certs"
	"logbook/internal/cli"
	apphttp "logbook/internal/http"
	"logbook/internal/log"
	"logbook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.NewCSVStore(cfg, logger)

	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher services.TableSavedPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	rs := services.NewRecordService(store, cli.RecordPaths(cfg), publisher, logger.WithComponent(log.ComponentStore))
	training := services.NewTrainingService(rs, certs.NewStore(cfg.CertificateDir, logger.WithComponent(log.ComponentCerts)))
	svc := apphttp.NewServices(rs, training)

	// Older rosters are rewritten once in the current header layout.
	if rewritten, err := svc.Attendance.EnsureRoster(context.Background()); err != nil {
		logger.Warn("Failed to migrate roster file", log.FieldError, err)
	} else if rewritten {
		logger.Info("Roster file rewritten with current headers")
	}

	checks := []apphttp.ReadinessCheck{{
		Name: "data_dir",
		Check: func(context.Context) error {
			info, err := os.Stat(cfg.DataDir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", cfg.DataDir)
			}
			return nil
		},
	}}
	if amqpClient != nil {
		checks = append(checks, apphttp.ReadinessCheck{
			Name: "amqp",
			Check: func(context.Context) error {
				if !amqpClient.Healthy() {
					return errors.New("circuit open")
				}
				return nil
			},
		})
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger, apphttp.Options{Checks: checks})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting logbook server",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
