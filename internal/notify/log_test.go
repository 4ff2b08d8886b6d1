package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"jobscout/internal/model"
)

func TestLogNotifier_Notify_zeroPostings(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify(context.Background(), []model.Posting{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
}

func TestLogNotifier_WritesPostingFields(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	p := samplePosting("Junior Engineer", "Acme")
	p.Enrichment = &model.Enrichment{Relevant: true, Summary: "Entry-level role."}

	if err := n.Notify(context.Background(), []model.Posting{p}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"Junior Engineer", "Acme", "acme.example/jobs/1", "relevant=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogNotifier_StatusMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.NotifyStatus(context.Background(), "nothing new"); err != nil {
		t.Fatalf("NotifyStatus() = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "nothing new") {
		t.Errorf("log output missing status message:\n%s", buf.String())
	}
}
