package service

import (
	"context"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/repository"
)

// RetrievalAdapter is the shared contract of both retrieval strategies.
// Implementations must respect context cancellation and be stateless with
// respect to a single call.
type RetrievalAdapter interface {
	Source() model.Source
	Retrieve(ctx context.Context, constraints *model.Constraints, limit int) ([]model.CandidateResult, error)
}

// vectorSearcher is the slice of the repository the semantic adapter needs.
type vectorSearcher interface {
	VectorSearch(ctx context.Context, embedding []float32, limit int) ([]repository.SemanticHit, error)
}

// filterSearcher is the slice of the repository the structured adapter needs.
type filterSearcher interface {
	FilterSearch(ctx context.Context, constraints *model.Constraints, limit int) ([]model.PropertySnapshot, error)
}
