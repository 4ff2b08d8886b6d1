package main

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"jobscout/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification through the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFile)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.Fetch.Timeout}
	n := setupNotifier(cfg, httpClient, logger)

	if err := notify.SendTestMessage(context.Background(), n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
