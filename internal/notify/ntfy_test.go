package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePosting(title, company string) model.Posting {
	return model.Posting{
		Source:     "acme careers",
		Title:      title,
		Company:    company,
		URL:        "https://acme.example/jobs/1",
		Discovered: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestNtfyNotifier_EmptyPostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())

	if err := n.Notify(context.Background(), nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestNtfyNotifier_SingleMessageHeaders(t *testing.T) {
	var gotPath, gotTitle, gotClick, gotTags, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotClick = r.Header.Get("Click")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	p := samplePosting("Junior Backend Engineer", "Acme")
	p.Enrichment = &model.Enrichment{Relevant: true, Summary: "Entry-level Go role."}

	if err := n.Notify(context.Background(), []model.Posting{p}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	if gotPath != "/jobs" {
		t.Errorf("path = %q, want /jobs", gotPath)
	}
	if gotTitle != "New job posting found" {
		t.Errorf("Title header = %q", gotTitle)
	}
	if gotClick != "https://acme.example/jobs/1" {
		t.Errorf("Click header = %q", gotClick)
	}
	if gotTags != "briefcase" {
		t.Errorf("Tags header = %q", gotTags)
	}
	if !strings.Contains(gotBody, "Junior Backend Engineer (Acme)") {
		t.Errorf("body = %q, want posting title and company", gotBody)
	}
	if !strings.Contains(gotBody, "Entry-level Go role.") {
		t.Errorf("body = %q, want enrichment summary", gotBody)
	}
}

func TestNtfyNotifier_MultiplePostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	postings := []model.Posting{
		samplePosting("Engineer 1", "A"),
		samplePosting("Engineer 2", "B"),
	}

	if err := n.Notify(context.Background(), postings); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestNtfyNotifier_DigestBatchesIntoOneMessage(t *testing.T) {
	var calls atomic.Int32
	var gotTitle, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotTitle = r.Header.Get("Title")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", true, srv.Client(), discardLogger())
	postings := []model.Posting{
		samplePosting("Engineer 1", "A"),
		samplePosting("Engineer 2", "B"),
		samplePosting("Engineer 3", "C"),
	}

	if err := n.Notify(context.Background(), postings); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 1 {
		t.Fatalf("expected 1 HTTP call in digest mode, got %d", c)
	}
	if gotTitle != "3 new job postings" {
		t.Errorf("Title header = %q", gotTitle)
	}
	for _, want := range []string{"Engineer 1 (A)", "Engineer 2 (B)", "Engineer 3 (C)"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("digest body missing %q", want)
		}
	}
}

func TestNtfyNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	postings := []model.Posting{
		samplePosting("A", "X"),
		samplePosting("B", "Y"),
	}

	if err := n.Notify(context.Background(), postings); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestNtfyNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	postings := []model.Posting{
		samplePosting("Fails", "A"),
		samplePosting("Succeeds", "B"),
	}

	if err := n.Notify(context.Background(), postings); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestNtfyNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	err := n.Notify(context.Background(), []model.Posting{samplePosting("Rate Limited", "Test")})
	if err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestNtfyNotifier_StatusMessage(t *testing.T) {
	var gotTitle, gotTags, gotClick, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		gotClick = r.Header.Get("Click")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	if err := n.NotifyStatus(context.Background(), "No new postings found in the last run."); err != nil {
		t.Fatalf("NotifyStatus() = %v, want nil", err)
	}

	if gotTitle != "Job search complete" {
		t.Errorf("Title header = %q", gotTitle)
	}
	if gotTags != "search,x" {
		t.Errorf("Tags header = %q", gotTags)
	}
	if gotClick != "" {
		t.Errorf("Click header = %q, want unset", gotClick)
	}
	if gotBody != "No new postings found in the last run." {
		t.Errorf("body = %q", gotBody)
	}
}

func TestSendTestMessage(t *testing.T) {
	var gotTags string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTags = r.Header.Get("Tags")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfyNotifier(srv.URL, "jobs", false, srv.Client(), discardLogger())
	if err := SendTestMessage(context.Background(), n); err != nil {
		t.Fatalf("SendTestMessage() = %v, want nil", err)
	}
	if gotTags != "briefcase" {
		t.Errorf("Tags header = %q", gotTags)
	}
}
