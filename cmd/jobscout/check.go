package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobscout/internal/notify"
	"jobscout/internal/state"
)

var checkIgnoreState bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scan once, print what would be notified, mark nothing",
	Long:  "One-shot dry cycle: fetches every enabled source and logs the postings a real run would notify about. The state store is read but never written, and nothing is pushed externally.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkIgnoreState, "ignore-state", false, "treat the processed set as empty, showing everything currently listed")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFile)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing will be marked processed or pushed")

	var st state.Store
	if checkIgnoreState {
		st = state.NewNopStore()
	} else {
		opened, err := state.Open(cfg.State.Backend, cfg.State.Path)
		if err != nil {
			logger.Error("failed to open state store", "error", err)
			os.Exit(1)
		}
		defer opened.Close()
		st = state.ReadOnly{Store: opened}
	}

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	notifier := notify.NewLogNotifier(logger)

	// Seeding is disabled so a first run against an empty set still shows
	// every current posting instead of silently swallowing them.
	runner, err := buildRunner(cfg, st, notifier, false, httpClient, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("check aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("check complete")
	return nil
}
