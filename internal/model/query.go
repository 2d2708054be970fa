package model

import "time"

// Query is a single user query. Immutable once submitted.
type Query struct {
	Text      string    `json:"text"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// SessionContext carries short-term conversation state from prior turns.
// The interpreter uses it to fill constraint gaps (e.g. "show me cheaper
// ones" after a Marina search keeps the Marina location).
type SessionContext struct {
	LastIntent      Intent       `json:"last_intent,omitempty"`
	LastConstraints *Constraints `json:"last_constraints,omitempty"`
}

// SearchRequest represents a search query request.
type SearchRequest struct {
	Query   string          `json:"query" binding:"required"`
	Session *SessionContext `json:"session,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// RankedResults is the orchestrator's response: a fused, relevance-ranked
// result set. Partial is set when one retrieval source failed and fusion
// proceeded with the other alone.
type RankedResults struct {
	SearchID string           `json:"search_id"`
	Items    []FusedResult    `json:"items"`
	Partial  bool             `json:"partial"`
	Took     int64            `json:"took_ms"`
	Interp   *InterpretResult `json:"interpretation,omitempty"`
	CacheHit bool             `json:"cache_hit"`
}

// PurgeRequest asks the cache coordinator to drop entries by key prefix.
type PurgeRequest struct {
	Prefix string `json:"prefix" binding:"required"`
}

// PurgeResponse reports how many cache entries were dropped.
type PurgeResponse struct {
	Purged int `json:"purged"`
}
