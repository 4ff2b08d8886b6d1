// Package enrich scores postings for relevance with a language model.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"jobscout/internal/model"
)

// Enricher assesses a single posting. A nil result with a nil error means
// the provider performed no assessment.
type Enricher interface {
	Enrich(ctx context.Context, p model.Posting) (*model.Enrichment, error)
}

// contentLimit caps how much posting text goes into a prompt.
const contentLimit = 2000

// promptData is the context available to prompt templates.
type promptData struct {
	Title   string
	Company string
	Source  string
	Content string
}

func renderPrompt(tmpl *template.Template, p model.Posting) (string, error) {
	content := p.Description
	if len(content) > contentLimit {
		content = content[:contentLimit]
	}
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Title:   p.Title,
		Company: p.Company,
		Source:  p.Source,
		Content: content,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Paced spaces out calls to an inner enricher so a whole run stays under
// the provider's request quota.
type Paced struct {
	inner   Enricher
	limiter *rate.Limiter
}

// NewPaced wraps inner with an aggregate requests-per-minute cap.
// A non-positive cap disables pacing.
func NewPaced(inner Enricher, requestsPerMinute int) *Paced {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &Paced{inner: inner, limiter: limiter}
}

// Enrich waits for the limiter, then delegates.
func (p *Paced) Enrich(ctx context.Context, posting model.Posting) (*model.Enrichment, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Enrich(ctx, posting)
}
