package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobscout/internal/model"
)

// RSSExtractor reads feed items as posting candidates. The feed title backs
// the company field when an item names no author.
type RSSExtractor struct {
	source      string
	unstableURL bool
}

// NewRSSExtractor returns an extractor for one configured feed source.
func NewRSSExtractor(source string, unstableURL bool) *RSSExtractor {
	return &RSSExtractor{source: source, unstableURL: unstableURL}
}

// Extract parses body as RSS or Atom. Items with neither title nor link are
// counted as skipped.
func (e *RSSExtractor) Extract(pageURL string, body []byte) ([]model.Posting, int, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse feed %s: %w", pageURL, err)
	}

	now := time.Now()
	var postings []model.Posting
	skipped := 0

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := cleanText(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" && link == "" {
			skipped++
			continue
		}

		company := feed.Title
		if item.Author != nil && item.Author.Name != "" {
			company = item.Author.Name
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		postings = append(postings, model.Posting{
			Source:      e.source,
			Title:       title,
			Company:     cleanText(company),
			URL:         link,
			Description: cleanText(stripHTML(desc)),
			Discovered:  now,
			URLUnstable: e.unstableURL,
		})
	}

	return postings, skipped, nil
}
