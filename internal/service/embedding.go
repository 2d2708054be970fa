package service

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/config"
)

// Embedder converts free text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings API. Calls run
// through a circuit breaker so a flapping upstream fails fast instead of
// burning the adapter sub-deadline on every request.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	breaker *gobreaker.CircuitBreaker[[]float32]
	enabled bool
}

// NewOpenAIEmbedder creates an embedder from configuration. When no API
// key is configured the embedder is disabled and Embed returns
// ErrEmbeddingDisabled; the semantic adapter degrades to an empty
// contribution.
func NewOpenAIEmbedder(cfg *config.OpenAIConfig, breakerCfg *config.BreakerConfig) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:   cfg.EmbeddingModel,
		dims:    cfg.EmbeddingDimensions,
		enabled: cfg.Enabled,
	}
	if !cfg.Enabled {
		return e
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = cfg.APIBase
	}
	e.client = openai.NewClientWithConfig(clientCfg)

	e.breaker = gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:    "openai-embeddings",
		Timeout: breakerCfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breakerCfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Warning: circuit breaker %s changed state %s -> %s", name, from, to)
		},
	})

	return e
}

// Embed returns the embedding vector for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.enabled {
		return nil, ErrEmbeddingDisabled
	}

	return e.breaker.Execute(func() ([]float32, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: e.dims,
		})
		if err != nil {
			return nil, fmt.Errorf("embeddings request failed: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("embeddings response contained no data")
		}
		return resp.Data[0].Embedding, nil
	})
}
