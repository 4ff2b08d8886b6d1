package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type stubFetcher struct {
	body  []byte
	err   error
	calls int
}

func (s *stubFetcher) FetchPage(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.body, s.err
}

func TestHydrate_FillsMissingFields(t *testing.T) {
	page := `<html><head><title>  Junior Developer | Acme  </title></head><body><p>Great   role, apply today.</p></body></html>`
	fetcher := &stubFetcher{body: []byte(page)}
	h := NewHydrator(fetcher, discardLogger())

	p := model.Posting{Source: "google", URL: "https://careers.acme.example/j/1"}
	if !h.Hydrate(context.Background(), &p) {
		t.Error("Hydrate should report the page fetch")
	}

	if p.Title != "Junior Developer | Acme" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Description != "Great role, apply today." {
		t.Errorf("Description = %q", p.Description)
	}
	if p.Company != "careers.acme.example" {
		t.Errorf("Company = %q, want hostname fallback", p.Company)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestHydrate_FetchFailureFallsBack(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	h := NewHydrator(fetcher, discardLogger())

	p := model.Posting{Source: "google", URL: "https://careers.acme.example/j/1"}
	if h.Hydrate(context.Background(), &p) {
		t.Error("Hydrate reported a fetch that never landed")
	}

	if p.Title != FallbackTitle {
		t.Errorf("Title = %q, want %q after failed fetch", p.Title, FallbackTitle)
	}
}

func TestHydrate_SkipsCompletePostings(t *testing.T) {
	fetcher := &stubFetcher{body: []byte("<html></html>")}
	h := NewHydrator(fetcher, discardLogger())

	p := model.Posting{
		Source:      "acme",
		Title:       "Engineer",
		Description: "Already extracted",
		URL:         "https://acme.example/jobs/1",
	}
	h.Hydrate(context.Background(), &p)

	if fetcher.calls != 0 {
		t.Errorf("fetch calls = %d, complete posting should not be fetched", fetcher.calls)
	}
	if p.Title != "Engineer" {
		t.Errorf("Title = %q, want untouched", p.Title)
	}
}

func TestHydrate_NoURLGetsFallbackTitle(t *testing.T) {
	fetcher := &stubFetcher{}
	h := NewHydrator(fetcher, discardLogger())

	p := model.Posting{Source: "acme"}
	h.Hydrate(context.Background(), &p)

	if fetcher.calls != 0 {
		t.Error("posting without URL triggered a fetch")
	}
	if p.Title != FallbackTitle {
		t.Errorf("Title = %q, want %q", p.Title, FallbackTitle)
	}
}

func TestHydrate_UntitledPageFallsBack(t *testing.T) {
	fetcher := &stubFetcher{body: []byte("<html><body><p>just text</p></body></html>")}
	h := NewHydrator(fetcher, discardLogger())

	p := model.Posting{Source: "google", URL: "https://x.example/1"}
	h.Hydrate(context.Background(), &p)

	if p.Title != FallbackTitle {
		t.Errorf("Title = %q, want %q for an untitled page", p.Title, FallbackTitle)
	}
	if p.Description != "just text" {
		t.Errorf("Description = %q", p.Description)
	}
}

func TestNeedsHydration(t *testing.T) {
	cases := []struct {
		name string
		p    model.Posting
		want bool
	}{
		{"untitled with URL", model.Posting{URL: "https://x.example/1"}, true},
		{"no description", model.Posting{Title: "Engineer", URL: "https://x.example/1"}, true},
		{"complete", model.Posting{Title: "Engineer", Description: "d", URL: "https://x.example/1"}, false},
		{"no URL", model.Posting{Title: ""}, false},
	}
	for _, c := range cases {
		if got := NeedsHydration(c.p); got != c.want {
			t.Errorf("%s: NeedsHydration = %v, want %v", c.name, got, c.want)
		}
	}
}
