package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobscout/internal/model"
)

// Extractor turns one fetched page into posting candidates. Implementations
// re-parse from the raw bytes on every call and carry no state between
// pages, so extraction stays idempotent.
type Extractor interface {
	Extract(pageURL string, body []byte) (postings []model.Posting, skipped int, err error)
}

// cleanText collapses whitespace and non-breaking spaces.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// stripHTML flattens markup fragments (feed descriptions mostly) to text.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
