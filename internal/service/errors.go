package service

import "errors"

var (
	// ErrRetrievalUnavailable is returned when every applicable adapter
	// failed or timed out and there is nothing to fuse.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: all sources failed")

	// ErrEmbeddingDisabled is returned by the embedding client when no
	// API key is configured.
	ErrEmbeddingDisabled = errors.New("embedding client disabled")
)
