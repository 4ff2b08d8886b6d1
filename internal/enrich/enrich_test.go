package enrich

import (
	"context"
	"testing"
	"time"

	"jobscout/internal/model"
)

// --- Mocks ---

type countingEnricher struct {
	calls int
}

func (c *countingEnricher) Enrich(_ context.Context, _ model.Posting) (*model.Enrichment, error) {
	c.calls++
	return &model.Enrichment{Relevant: true}, nil
}

func TestPaced_SpacesCalls(t *testing.T) {
	inner := &countingEnricher{}
	// 1200 requests per minute puts 50ms between calls.
	paced := NewPaced(inner, 1200)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := paced.Enrich(context.Background(), model.Posting{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("3 calls took %v, expected at least ~100ms of pacing", elapsed)
	}
}

func TestPaced_NoCapPassesThrough(t *testing.T) {
	inner := &countingEnricher{}
	paced := NewPaced(inner, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := paced.Enrich(context.Background(), model.Posting{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("uncapped calls took %v, expected no pacing", elapsed)
	}
}

func TestPaced_ContextCancellation(t *testing.T) {
	inner := &countingEnricher{}
	// 6 requests per minute puts 10s between calls.
	paced := NewPaced(inner, 6)

	if _, err := paced.Enrich(context.Background(), model.Posting{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := paced.Enrich(ctx, model.Posting{}); err == nil {
		t.Fatal("expected error when context expires while waiting")
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, cancelled wait should not reach the inner enricher", inner.calls)
	}
}

func TestNop_ReturnsNothing(t *testing.T) {
	got, err := NewNop().Enrich(context.Background(), samplePosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("enrichment = %+v, want nil", got)
	}
}
