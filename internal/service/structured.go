package service

import (
	"context"
	"fmt"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

// StructuredAdapter retrieves candidates by attribute filters against the
// relational store.
type StructuredAdapter struct {
	store filterSearcher
	// minFilterCount is the cost gate: constraint sets with fewer
	// structured filters would degenerate into a full-table scan and are
	// rejected with an empty result instead.
	minFilterCount int
}

// NewStructuredAdapter creates a structured retrieval adapter.
func NewStructuredAdapter(store filterSearcher, minFilterCount int) *StructuredAdapter {
	if minFilterCount < 1 {
		minFilterCount = 1
	}
	return &StructuredAdapter{
		store:          store,
		minFilterCount: minFilterCount,
	}
}

// Source identifies this adapter's candidates.
func (a *StructuredAdapter) Source() model.Source {
	return model.SourceStructured
}

// Retrieve translates constraints into a bounded filter query. Results
// come back ordered by recency; the raw score is positional within that
// ordering, comparable only to other structured scores.
func (a *StructuredAdapter) Retrieve(ctx context.Context, constraints *model.Constraints, limit int) ([]model.CandidateResult, error) {
	if constraints.FilterCount() < a.minFilterCount {
		// Not an error: an unfiltered query is rejected to protect the
		// store, and fusion proceeds on the semantic contribution.
		return nil, nil
	}

	properties, err := a.store.FilterSearch(ctx, constraints, limit)
	if err != nil {
		return nil, fmt.Errorf("structured adapter: %w", err)
	}

	candidates := make([]model.CandidateResult, 0, len(properties))
	total := len(properties)
	for i, property := range properties {
		candidates = append(candidates, model.CandidateResult{
			Source:     model.SourceStructured,
			PropertyID: property.PropertyID,
			RawScore:   1.0 - float64(i)/float64(total),
			Property:   property,
		})
	}

	return candidates, nil
}
