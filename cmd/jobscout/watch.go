package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobscout/internal/runlock"
	"jobscout/internal/scheduler"
	"jobscout/internal/state"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run on an interval until interrupted",
	Long:  "Runs one cycle immediately, then again every interval; blocks until SIGINT/SIGTERM. The state lock is held for the whole session.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "override the configured run interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFile)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	interval := cfg.Interval
	if watchInterval > 0 {
		interval = watchInterval
	}

	logger.Info("config loaded",
		"sources", len(cfg.EnabledSources()),
		"interval", interval.String(),
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

	sched := scheduler.New(runner, interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
