package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/model"
)

// GoogleExtractor pulls outbound result links from a Google search results
// page. Google wraps every organic result as /url?q=<target>; links back to
// google itself are navigation, not results. Candidates come out untitled
// with the target hostname as company; hydration fills in the rest for the
// ones that turn out to be new.
type GoogleExtractor struct {
	source string
}

// NewGoogleExtractor returns an extractor for one configured search source.
func NewGoogleExtractor(source string) *GoogleExtractor {
	return &GoogleExtractor{source: source}
}

// Extract collects /url?q= targets from body, dropping google self-links
// and in-page duplicates. Redirect hrefs whose target cannot be recovered
// are counted as skipped.
func (e *GoogleExtractor) Extract(pageURL string, body []byte) ([]model.Posting, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	now := time.Now()
	seen := map[string]bool{}
	var postings []model.Posting
	skipped := 0

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "/url?q=") {
			return
		}
		target := unwrapResultLink(href)
		if target == "" {
			skipped++
			return
		}
		if strings.Contains(target, "google.com") {
			return
		}
		if seen[target] {
			return
		}
		seen[target] = true

		host := ""
		if u, err := url.Parse(target); err == nil {
			host = u.Hostname()
		}

		postings = append(postings, model.Posting{
			Source:     e.source,
			Company:    host,
			URL:        target,
			Discovered: now,
		})
	})

	return postings, skipped, nil
}

// unwrapResultLink extracts the q parameter from a /url?q= redirect href.
func unwrapResultLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("q"))
}
