// Command logbookctl prints logbook tables and chart aggregates from the
// command line, reading the same files and configuration as the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"logbook/internal/cli"
	"logbook/internal/config"
	"logbook/internal/log"
	"logbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "logbookctl",
		Short:         "Inspect logbook record tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	open := func() (*services.RecordService, *config.Config, error) {
		logger := cli.SetupLogger(logLevel).WithComponent(log.ComponentCLI)
		cfg := config.Load()
		if err := cfg.LoadPaths(); err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		rs := services.NewRecordService(cli.NewCSVStore(cfg, logger), cli.RecordPaths(cfg), nil, logger)
		return rs, cfg, nil
	}

	root.AddCommand(
		newKindsCmd(),
		newShowCmd(open),
		newCountCmd(open),
		newDueCmd(open),
		newMonthlyCmd(open),
		newFYCmd(open),
		newLedgerCmd(open),
	)
	return root
}
