package notify

import (
	"context"
	"log/slog"

	"jobscout/internal/model"
)

// Ensure LogNotifier implements both notifier interfaces.
var (
	_ model.Notifier       = (*LogNotifier)(nil)
	_ model.StatusNotifier = (*LogNotifier)(nil)
)

// LogNotifier writes new postings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting with source, title, company, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, postings []model.Posting) error {
	for _, p := range postings {
		args := []any{"source", p.Source, "title", p.Title, "company", p.Company, "url", p.URL}
		if p.Enrichment != nil {
			args = append(args, "relevant", p.Enrichment.Relevant)
			if p.Enrichment.Summary != "" {
				args = append(args, "summary", p.Enrichment.Summary)
			}
		}
		n.logger.Info("new posting", args...)
	}
	return nil
}

// NotifyStatus logs a run status message.
func (n *LogNotifier) NotifyStatus(_ context.Context, message string) error {
	n.logger.Info("run status", "message", message)
	return nil
}
