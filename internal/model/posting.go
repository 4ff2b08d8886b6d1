package model

import (
	"context"
	"time"
)

// Identity is the stable deduplication key for a posting. Postings with a
// usable link use their canonicalized URL verbatim; link-less or
// unstable-link postings fall back to a "t:"-prefixed content hash.
type Identity string

// Posting is one job listing extracted during a run. Postings are transient:
// they are rebuilt from source content every run and only their identities
// survive in the processed set.
type Posting struct {
	Source      string // configured source name
	Title       string
	Company     string
	URL         string // resolved absolute link, empty if the source had none
	Description string
	Discovered  time.Time // our clock, set at extraction
	URLUnstable bool      // source marks its links as session-scoped
	Enrichment  *Enrichment
}

// Enrichment holds the language-model assessment attached after dedup.
// It never participates in identity.
type Enrichment struct {
	Relevant bool
	Summary  string
	Model    string
}

// RunSummary aggregates the counts reported at the end of a pipeline run.
type RunSummary struct {
	Started            time.Time
	Duration           time.Duration
	SourcesOK          int
	SourceFailures     int
	PagesFetched       int // listing pages plus hydrated landing pages
	Extracted          int
	Skipped            int // malformed entries dropped during extraction
	Filtered           int
	New                int
	AlreadySeen        int
	Enriched           int
	EnrichmentFailures int
	ScreenedOut        int // enriched, judged not relevant, merged but not notified
	Notified           int
	NotifyFailures     int
	StateSize          int // processed-set size after merge
}

// PageFetcher retrieves the raw bytes of a single page or feed URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Notifier delivers new postings to the user.
type Notifier interface {
	Notify(ctx context.Context, postings []Posting) error
}

// StatusNotifier is implemented by notifiers that can also push a short
// status line, e.g. the nothing-new heartbeat.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, message string) error
}

// Filter decides whether a posting is worth processing at all.
type Filter interface {
	Match(p Posting) bool
}
