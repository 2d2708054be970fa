package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

// SemanticAdapter retrieves candidates by embedding similarity against the
// pgvector index.
type SemanticAdapter struct {
	embedder Embedder
	store    vectorSearcher
}

// NewSemanticAdapter creates a semantic retrieval adapter.
func NewSemanticAdapter(embedder Embedder, store vectorSearcher) *SemanticAdapter {
	return &SemanticAdapter{
		embedder: embedder,
		store:    store,
	}
}

// Source identifies this adapter's candidates.
func (a *SemanticAdapter) Source() model.Source {
	return model.SourceSemantic
}

// Retrieve embeds the free-text residual and returns the nearest
// neighbors with their raw similarity. An empty residual means there is no
// semantic signal: the adapter returns an empty list rather than an
// arbitrary neighbor set.
func (a *SemanticAdapter) Retrieve(ctx context.Context, constraints *model.Constraints, limit int) ([]model.CandidateResult, error) {
	residual := ""
	if constraints != nil {
		residual = strings.TrimSpace(constraints.Residual)
	}
	if residual == "" {
		return nil, nil
	}

	embedding, err := a.embedder.Embed(ctx, residual)
	if err != nil {
		return nil, fmt.Errorf("semantic adapter: %w", err)
	}

	hits, err := a.store.VectorSearch(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic adapter: %w", err)
	}

	candidates := make([]model.CandidateResult, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, model.CandidateResult{
			Source:     model.SourceSemantic,
			PropertyID: hit.PropertyID,
			RawScore:   hit.Similarity,
			Property:   hit.PropertySnapshot,
		})
	}

	return candidates, nil
}
