package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/model"
)

// FallbackTitle keeps a posting notifiable when its page gave us nothing.
const FallbackTitle = "No Title Found"

// Hydrator fills missing titles and descriptions by fetching a posting's
// landing page. It runs only on postings that survived dedup, so links seen
// in earlier runs never cost a request.
type Hydrator struct {
	fetcher model.PageFetcher
	logger  *slog.Logger
}

// NewHydrator returns a hydrator using the given fetcher, which should be
// the same retrying, rate-limited chain the sources use.
func NewHydrator(fetcher model.PageFetcher, logger *slog.Logger) *Hydrator {
	return &Hydrator{fetcher: fetcher, logger: logger}
}

// NeedsHydration reports whether p would gain anything from a page fetch.
func NeedsHydration(p model.Posting) bool {
	return p.URL != "" && (p.Title == "" || p.Description == "")
}

// Hydrate fetches p's page and fills Title, Company and Description where
// empty, reporting whether a page was actually fetched. Any failure leaves
// the posting notifiable under a fallback title; hydration never removes a
// posting.
func (h *Hydrator) Hydrate(ctx context.Context, p *model.Posting) bool {
	defer func() {
		if p.Title == "" {
			p.Title = FallbackTitle
		}
	}()

	if !NeedsHydration(*p) {
		return false
	}

	body, err := h.fetcher.FetchPage(ctx, p.URL)
	if err != nil {
		h.logger.Warn("hydration fetch failed", "url", p.URL, "error", err)
		return false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		h.logger.Warn("hydration parse failed", "url", p.URL, "error", err)
		return true
	}

	if p.Title == "" {
		p.Title = cleanText(doc.Find("title").First().Text())
	}
	if p.Description == "" {
		p.Description = cleanText(doc.Find("body").First().Text())
	}
	if p.Company == "" {
		if u, err := url.Parse(p.URL); err == nil {
			p.Company = u.Hostname()
		}
	}
	return true
}
