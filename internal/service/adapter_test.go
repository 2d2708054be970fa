package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/config"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/repository"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeVectorStore struct {
	hits  []repository.SemanticHit
	err   error
	calls int
}

func (f *fakeVectorStore) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]repository.SemanticHit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeFilterStore struct {
	rows  []model.PropertySnapshot
	err   error
	calls int
}

func (f *fakeFilterStore) FilterSearch(ctx context.Context, constraints *model.Constraints, limit int) ([]model.PropertySnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestSemanticAdapter_EmptyResidualSkipsEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	store := &fakeVectorStore{}
	adapter := NewSemanticAdapter(embedder, store)

	candidates, err := adapter.Retrieve(context.Background(), &model.Constraints{Residual: "   "}, 10)

	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, embedder.calls, "no residual text means no embedding call")
	assert.Zero(t, store.calls)
}

func TestSemanticAdapter_MapsHitsToCandidates(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	store := &fakeVectorStore{hits: []repository.SemanticHit{
		{PropertySnapshot: model.PropertySnapshot{PropertyID: 11, Title: "Marina View"}, Similarity: 0.93},
		{PropertySnapshot: model.PropertySnapshot{PropertyID: 12, Title: "JBR Walk"}, Similarity: 0.81},
	}}
	adapter := NewSemanticAdapter(embedder, store)

	candidates, err := adapter.Retrieve(context.Background(), &model.Constraints{Residual: "sea view"}, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, model.SourceSemantic, candidates[0].Source)
	assert.Equal(t, int64(11), candidates[0].PropertyID)
	assert.Equal(t, 0.93, candidates[0].RawScore)
	assert.Equal(t, "Marina View", candidates[0].Property.Title)
	assert.Equal(t, 1, embedder.calls)
}

func TestSemanticAdapter_EmbedderErrorPropagates(t *testing.T) {
	embedErr := errors.New("upstream rate limited")
	embedder := &fakeEmbedder{err: embedErr}
	store := &fakeVectorStore{}
	adapter := NewSemanticAdapter(embedder, store)

	_, err := adapter.Retrieve(context.Background(), &model.Constraints{Residual: "sea view"}, 10)

	assert.ErrorIs(t, err, embedErr)
	assert.Zero(t, store.calls, "a failed embedding must not reach the store")
}

func TestStructuredAdapter_CostGateReturnsEmpty(t *testing.T) {
	store := &fakeFilterStore{rows: []model.PropertySnapshot{{PropertyID: 1}}}
	adapter := NewStructuredAdapter(store, 2)

	bedrooms := 3
	candidates, err := adapter.Retrieve(context.Background(), &model.Constraints{Bedrooms: &bedrooms}, 10)

	require.NoError(t, err, "too few filters is a skip, not a failure")
	assert.Empty(t, candidates)
	assert.Zero(t, store.calls, "the gate must fire before the store is queried")
}

func TestStructuredAdapter_PositionalScores(t *testing.T) {
	store := &fakeFilterStore{rows: []model.PropertySnapshot{
		{PropertyID: 1},
		{PropertyID: 2},
		{PropertyID: 3},
		{PropertyID: 4},
	}}
	adapter := NewStructuredAdapter(store, 1)

	bedrooms := 2
	candidates, err := adapter.Retrieve(context.Background(), &model.Constraints{Bedrooms: &bedrooms}, 10)

	require.NoError(t, err)
	require.Len(t, candidates, 4)
	assert.Equal(t, 1.0, candidates[0].RawScore, "first row carries the full score")
	assert.Equal(t, 0.25, candidates[3].RawScore)
	for i := 1; i < len(candidates); i++ {
		assert.Greater(t, candidates[i-1].RawScore, candidates[i].RawScore, "scores must strictly decrease with position")
	}
}

func TestStructuredAdapter_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("db connection reset")
	store := &fakeFilterStore{err: storeErr}
	adapter := NewStructuredAdapter(store, 1)

	bedrooms := 2
	_, err := adapter.Retrieve(context.Background(), &model.Constraints{Bedrooms: &bedrooms}, 10)

	assert.ErrorIs(t, err, storeErr)
}

func TestOpenAIEmbedder_DisabledWithoutKey(t *testing.T) {
	embedder := NewOpenAIEmbedder(
		&config.OpenAIConfig{EmbeddingModel: "text-embedding-3-small", EmbeddingDimensions: 1536},
		&config.BreakerConfig{FailureRatio: 0.6, MinRequests: 5, OpenTimeout: time.Second},
	)

	_, err := embedder.Embed(context.Background(), "sea view apartment")

	assert.ErrorIs(t, err, ErrEmbeddingDisabled)
}
