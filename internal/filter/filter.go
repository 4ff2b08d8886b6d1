package filter

import (
	"strings"

	"jobscout/internal/model"
)

// Ensure TitleFilter implements model.Filter.
var _ model.Filter = (*TitleFilter)(nil)

// TitleFilter matches postings whose title contains any include keyword and
// none of the exclude keywords. Matching is case-insensitive. Empty keyword
// lists are treated as "match all".
type TitleFilter struct {
	keywords []string
	excludes []string
}

// NewTitleFilter returns a filter over title keywords (case-insensitive
// substring match).
func NewTitleFilter(keywords, excludes []string) *TitleFilter {
	return &TitleFilter{
		keywords: keywords,
		excludes: excludes,
	}
}

// Match returns true if the posting's title contains any include keyword and
// no exclude keyword. Untitled postings pass; they are re-checked once
// hydration has given them a title.
func (f *TitleFilter) Match(p model.Posting) bool {
	titleLower := strings.ToLower(p.Title)
	if titleLower == "" {
		return true
	}

	for _, kw := range f.excludes {
		if kw != "" && strings.Contains(titleLower, strings.ToLower(kw)) {
			return false
		}
	}

	if len(f.keywords) > 0 {
		matched := false
		for _, kw := range f.keywords {
			if strings.Contains(titleLower, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}
