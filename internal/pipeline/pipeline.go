// Package pipeline runs one discovery cycle: fetch and extract every
// enabled source, drop already-processed postings, hydrate and score the
// fresh ones, notify, and persist the grown processed set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"jobscout/internal/dedup"
	"jobscout/internal/extract"
	"jobscout/internal/model"
	"jobscout/internal/state"
)

// heartbeatMessage is pushed when a run ends with nothing to notify.
const heartbeatMessage = "No new relevant postings found in the last run."

// Enricher scores a posting's relevance. A nil enrichment with a nil error
// means no assessment was made.
type Enricher interface {
	Enrich(ctx context.Context, p model.Posting) (*model.Enrichment, error)
}

// Source couples a configured source with its fetch chain and extractor.
type Source struct {
	Name      string
	URL       string
	Fetcher   model.PageFetcher
	Extractor extract.Extractor
}

// Options tunes a Runner's budgets and behavior switches.
type Options struct {
	SourceTimeout     time.Duration // fetch+extract budget per source
	Concurrency       int           // concurrent sources, also concurrent hydrations
	EnrichTimeout     time.Duration // budget per enrichment call
	EnrichConcurrency int
	SeedOnEmpty       bool // empty state: mark everything processed, notify nothing
	Heartbeat         bool // push a status message when a run finds nothing
}

// Runner owns one full pipeline cycle over all sources. The processed set
// is read once at the start of a run and replaced once at the end; the
// concurrent stages in between never touch it.
type Runner struct {
	sources  []Source
	filter   model.Filter
	hydrator *extract.Hydrator
	enricher Enricher
	notifier model.Notifier
	store    state.Store
	opts     Options
	logger   *slog.Logger
}

// NewRunner creates a runner wired with all its dependencies.
func NewRunner(
	sources []Source,
	filter model.Filter,
	hydrator *extract.Hydrator,
	enricher Enricher,
	notifier model.Notifier,
	store state.Store,
	opts Options,
	logger *slog.Logger,
) *Runner {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 2 * time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = 30 * time.Second
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 2
	}
	return &Runner{
		sources:  sources,
		filter:   filter,
		hydrator: hydrator,
		enricher: enricher,
		notifier: notifier,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Run executes one cycle and reports its counts. Failing sources, filtered
// postings, enrichment trouble, and undeliverable notifications all degrade
// the run without aborting it; only a failed state save returns an error,
// since losing the processed set would re-notify everything next run.
func (r *Runner) Run(ctx context.Context) (*model.RunSummary, error) {
	started := time.Now()
	summary := model.RunSummary{Started: started}

	set, err := r.store.Load()
	var corrupt *state.CorruptError
	if errors.As(err, &corrupt) {
		// Load hands back a usable empty set alongside the error.
		r.logger.Warn("state unreadable, continuing from an empty set", "error", err)
	} else if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	extracted := r.collect(ctx, &summary)

	var candidates []model.Posting
	for _, p := range extracted {
		if r.filter.Match(p) {
			candidates = append(candidates, p)
		} else {
			summary.Filtered++
		}
	}

	fresh, seen := dedup.Partition(candidates, set)
	summary.AlreadySeen = seen

	seeding := r.opts.SeedOnEmpty && set.IsEmpty() && len(fresh) > 0
	if seeding {
		r.logger.Info("state is empty, seeding without notifying", "postings", len(fresh))
	} else {
		r.hydrate(ctx, fresh, &summary)
		fresh = r.refilter(fresh, &summary)
		r.enrich(ctx, fresh, &summary)

		toNotify := make([]model.Posting, 0, len(fresh))
		for _, p := range fresh {
			if p.Enrichment != nil && !p.Enrichment.Relevant {
				summary.ScreenedOut++
				continue
			}
			toNotify = append(toNotify, p)
		}

		if len(toNotify) > 0 {
			if err := r.notifier.Notify(ctx, toNotify); err != nil {
				r.logger.Error("notification failed", "postings", len(toNotify), "error", err)
				summary.NotifyFailures = len(toNotify)
			} else {
				summary.Notified = len(toNotify)
			}
		} else if r.opts.Heartbeat {
			if sn, ok := r.notifier.(model.StatusNotifier); ok {
				if err := sn.NotifyStatus(ctx, heartbeatMessage); err != nil {
					r.logger.Warn("status notification failed", "error", err)
				}
			}
		}
	}
	summary.New = len(fresh)

	// Everything that reached this point is marked processed, including
	// screened-out and undelivered postings. A posting is only notified
	// once, ever; redelivery on failure is deliberately not attempted.
	merged := set.Merge(time.Now(), fresh...)
	if err := r.store.Save(merged); err != nil {
		return &summary, fmt.Errorf("persist state: %w", err)
	}
	summary.StateSize = merged.Len()

	summary.Duration = time.Since(started)
	r.logger.Info("run complete",
		"sources_ok", summary.SourcesOK,
		"source_failures", summary.SourceFailures,
		"pages_fetched", summary.PagesFetched,
		"extracted", summary.Extracted,
		"skipped", summary.Skipped,
		"filtered", summary.Filtered,
		"new", summary.New,
		"already_seen", summary.AlreadySeen,
		"enriched", summary.Enriched,
		"enrichment_failures", summary.EnrichmentFailures,
		"screened_out", summary.ScreenedOut,
		"notified", summary.Notified,
		"notify_failures", summary.NotifyFailures,
		"state_size", summary.StateSize,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return &summary, nil
}

// collect fetches and extracts all sources concurrently. Results keep
// config order so identical runs partition identically. A failing source
// never cancels its siblings.
func (r *Runner) collect(ctx context.Context, summary *model.RunSummary) []model.Posting {
	results := make([][]model.Posting, len(r.sources))
	skips := make([]int, len(r.sources))
	fetched := make([]bool, len(r.sources))
	failures := make([]error, len(r.sources))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, src := range r.sources {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, r.opts.SourceTimeout)
			defer cancel()

			body, err := src.Fetcher.FetchPage(tctx, src.URL)
			if err != nil {
				failures[i] = fmt.Errorf("fetch: %w", err)
				return nil
			}
			fetched[i] = true
			postings, skipped, err := src.Extractor.Extract(src.URL, body)
			if err != nil {
				failures[i] = fmt.Errorf("extract: %w", err)
				return nil
			}
			results[i], skips[i] = postings, skipped
			return nil
		})
	}
	_ = g.Wait()

	var extracted []model.Posting
	for i, src := range r.sources {
		if fetched[i] {
			summary.PagesFetched++
		}
		if failures[i] != nil {
			r.logger.Error("source failed", "source", src.Name, "error", failures[i])
			summary.SourceFailures++
			continue
		}
		r.logger.Debug("source done", "source", src.Name, "postings", len(results[i]), "skipped", skips[i])
		summary.SourcesOK++
		summary.Skipped += skips[i]
		extracted = append(extracted, results[i]...)
	}
	summary.Extracted = len(extracted)
	return extracted
}

// hydrate fills missing titles and descriptions concurrently. Each worker
// owns its slice slot, so no locking is needed.
func (r *Runner) hydrate(ctx context.Context, fresh []model.Posting, summary *model.RunSummary) {
	fetched := make([]bool, len(fresh))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i := range fresh {
		g.Go(func() error {
			fetched[i] = r.hydrator.Hydrate(ctx, &fresh[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range fetched {
		if f {
			summary.PagesFetched++
		}
	}
}

// refilter re-applies the title filter now that hydration has produced real
// titles. Postings whose hydration failed still carry the fallback title and
// cannot be judged, so they pass. Dropped postings are not marked processed;
// if they reappear they will be hydrated and judged again.
func (r *Runner) refilter(fresh []model.Posting, summary *model.RunSummary) []model.Posting {
	kept := fresh[:0]
	for _, p := range fresh {
		if p.Title == extract.FallbackTitle || r.filter.Match(p) {
			kept = append(kept, p)
		} else {
			summary.Filtered++
		}
	}
	return kept
}

// enrich scores postings concurrently within the per-call budget. A failed
// call leaves its posting unenriched and therefore still notifiable.
func (r *Runner) enrich(ctx context.Context, fresh []model.Posting, summary *model.RunSummary) {
	failures := make([]error, len(fresh))

	var g errgroup.Group
	g.SetLimit(r.opts.EnrichConcurrency)
	for i := range fresh {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, r.opts.EnrichTimeout)
			defer cancel()

			enrichment, err := r.enricher.Enrich(tctx, fresh[i])
			if err != nil {
				failures[i] = err
				return nil
			}
			fresh[i].Enrichment = enrichment
			return nil
		})
	}
	_ = g.Wait()

	for i := range fresh {
		if failures[i] != nil {
			r.logger.Warn("enrichment failed", "title", fresh[i].Title, "error", failures[i])
			summary.EnrichmentFailures++
			continue
		}
		if fresh[i].Enrichment != nil {
			summary.Enriched++
		}
	}
}
