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

// Schema is the selector set an html source is parsed with.
type Schema struct {
	Item     string // one match per posting
	Title    string
	Link     string // matched within the item; empty means the item node itself
	LinkAttr string // defaults to href
	Company  string
	Summary  string
}

// HTMLExtractor walks a listing page with CSS selectors and produces one
// candidate per item node.
type HTMLExtractor struct {
	source      string
	schema      Schema
	unstableURL bool
}

// NewHTMLExtractor returns an extractor for one configured html source.
// unstableURL marks the produced postings as having session-scoped links.
func NewHTMLExtractor(source string, schema Schema, unstableURL bool) *HTMLExtractor {
	if schema.LinkAttr == "" {
		schema.LinkAttr = "href"
	}
	return &HTMLExtractor{source: source, schema: schema, unstableURL: unstableURL}
}

// Extract parses body and returns one posting per item match. Relative links
// resolve against pageURL. Items with neither a title nor a usable link are
// counted as skipped rather than silently dropped.
func (e *HTMLExtractor) Extract(pageURL string, body []byte) ([]model.Posting, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	now := time.Now()
	var postings []model.Posting
	skipped := 0

	doc.Find(e.schema.Item).Each(func(_ int, item *goquery.Selection) {
		title := cleanText(item.Find(e.schema.Title).First().Text())

		link := ""
		if e.schema.Link != "" {
			if raw, ok := item.Find(e.schema.Link).First().Attr(e.schema.LinkAttr); ok {
				link = resolveLink(base, raw)
			}
		} else if raw, ok := item.Attr(e.schema.LinkAttr); ok {
			// The item node itself is the anchor.
			link = resolveLink(base, raw)
		}

		if title == "" && link == "" {
			skipped++
			return
		}

		p := model.Posting{
			Source:      e.source,
			Title:       title,
			URL:         link,
			Discovered:  now,
			URLUnstable: e.unstableURL,
		}
		if e.schema.Company != "" {
			p.Company = cleanText(item.Find(e.schema.Company).First().Text())
		}
		if e.schema.Summary != "" {
			p.Description = cleanText(item.Find(e.schema.Summary).First().Text())
		}
		postings = append(postings, p)
	})

	return postings, skipped, nil
}

// resolveLink makes raw absolute against base and drops non-http schemes
// (mailto:, javascript: and friends are navigation, not postings).
func resolveLink(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
