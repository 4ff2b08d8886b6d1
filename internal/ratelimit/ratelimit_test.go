package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWaitURL_SameHost_EnforcesDelay(t *testing.T) {
	limiter := NewHostLimiter(100*time.Millisecond, 1)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.WaitURL(ctx, "https://boards.example.com/a"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.WaitURL(ctx, "https://boards.example.com/b"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWaitURL_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewHostLimiter(200*time.Millisecond, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "https://a.example.com/jobs"); err != nil {
		t.Fatalf("first host wait: %v", err)
	}

	// A different host must not be held back by the first one's bucket.
	start := time.Now()
	if err := limiter.WaitURL(ctx, "https://b.example.com/jobs"); err != nil {
		t.Fatalf("second host wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected second host wait to be near-instant, got %v", elapsed)
	}
}

func TestWaitURL_ContextCancellation(t *testing.T) {
	limiter := NewHostLimiter(5*time.Second, 1)

	if err := limiter.WaitURL(context.Background(), "https://a.example.com/jobs"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	if err := limiter.WaitURL(ctx, "https://a.example.com/jobs"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

func TestWaitURL_UnparseableURLSharesBucket(t *testing.T) {
	limiter := NewHostLimiter(100*time.Millisecond, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "::not a url::"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.WaitURL(ctx, "%%also-bad"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected bad URLs to share one bucket, waited only %v", elapsed)
	}
}

// --- Mock for rate-limited Fetcher test ---

type recordingFetcher struct {
	called bool
}

func (f *recordingFetcher) FetchPage(_ context.Context, _ string) ([]byte, error) {
	f.called = true
	return []byte("ok"), nil
}

func TestFetcher_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewHostLimiter(100*time.Millisecond, 1)
	inner := &recordingFetcher{}
	fetcher := NewFetcher(inner, limiter)
	ctx := context.Background()

	// First call seeds the bucket, then delegates.
	if _, err := fetcher.FetchPage(ctx, "https://boards.example.com/a"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner fetcher was not called on first fetch")
	}

	inner.called = false

	start := time.Now()
	if _, err := fetcher.FetchPage(ctx, "https://boards.example.com/b"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	elapsed := time.Since(start)

	if !inner.called {
		t.Fatal("inner fetcher was not called on second fetch")
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
}
