package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobscout/internal/model"
)

// HostLimiter enforces a request rate per hostname so a run never hammers a
// single site, however many sources point at it.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewHostLimiter creates a limiter allowing one request per minDelay to each
// host, with the given burst. A zero minDelay disables limiting.
func NewHostLimiter(minDelay time.Duration, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	r := rate.Inf
	if minDelay > 0 {
		r = rate.Every(minDelay)
	}
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: r,
		b: burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

// WaitURL blocks until the host of raw may be contacted again, or the
// context is cancelled. Unparseable URLs share a single bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}

// Fetcher is a decorator that waits for the host limiter before delegating
// to the wrapped PageFetcher. All fetchers in a run share one limiter so the
// per-host gap holds across sources.
type Fetcher struct {
	inner   model.PageFetcher
	limiter *HostLimiter
}

// NewFetcher wraps a PageFetcher with per-host rate limiting.
func NewFetcher(inner model.PageFetcher, limiter *HostLimiter) *Fetcher {
	return &Fetcher{inner: inner, limiter: limiter}
}

// FetchPage waits for the limiter to allow a request to the URL's host, then
// delegates to the wrapped fetcher.
func (f *Fetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.WaitURL(ctx, url); err != nil {
		return nil, err
	}
	return f.inner.FetchPage(ctx, url)
}
