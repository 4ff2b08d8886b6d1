package enrich

import (
	"context"

	"jobscout/internal/model"
)

// Nop performs no assessment; used when enrichment.provider is "none".
type Nop struct{}

// NewNop returns a Nop enricher.
func NewNop() *Nop {
	return &Nop{}
}

// Enrich returns no assessment.
func (Nop) Enrich(_ context.Context, _ model.Posting) (*model.Enrichment, error) {
	return nil, nil
}
