package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobscout/internal/runlock"
	"jobscout/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan all sources once, notify, exit",
	Long:  "One full cycle: fetch every enabled source, notify about postings never seen before, persist the grown processed set, exit. Degraded sources do not fail the run; only an unusable state store does.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFile)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.EnabledSources()),
		"state_backend", cfg.State.Backend,
		"enrichment", cfg.Enrichment.Provider,
		"notification", cfg.Notification.Type,
	)

	if cfg.State.Lock {
		lock, ok, err := runlock.Acquire(cfg.State.Path)
		if err != nil {
			logger.Error("failed to acquire run lock", "error", err)
			os.Exit(1)
		}
		if !ok {
			logger.Warn("another process holds the state lock, exiting")
			return nil
		}
		defer lock.Release()
	}

	st, err := state.Open(cfg.State.Backend, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	notifier := setupNotifier(cfg, httpClient, logger)

	runner, err := buildRunner(cfg, st, notifier, cfg.State.SeedOnEmpty, httpClient, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}
	return nil
}
