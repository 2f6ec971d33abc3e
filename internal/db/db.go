package db

import (
	"context"
	"time"
)

// Store is the vector/lexical store contract.
type Store interface {
	Searcher
	Pinger
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Searcher provides search operations over an indexed collection.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*ResultSet, error)
	HybridSearch(ctx context.Context, q *HybridQuery) (*ResultSet, error)
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Pinger
	Close()
}

// SearchQuery describes a single-field search against one index field.
// Data is either raw query text (sparse/lexical field) or a []float32
// embedding (dense field).
type SearchQuery struct {
	Collection   string
	Data         any
	AnnsField    string
	Limit        int
	Filter       string
	OutputFields []string
	Params       map[string]any
}

// AnnRequest is one half of a fused hybrid search. Each half carries its
// own data, field and filter but shares the fused call's limit semantics.
type AnnRequest struct {
	Data      any
	AnnsField string
	Limit     int
	Filter    string
	Params    map[string]any
}

// HybridQuery describes a fused multi-request search reranked with RRF.
type HybridQuery struct {
	Collection   string
	Requests     []AnnRequest
	RerankK      int
	Limit        int
	OutputFields []string
}

// Hit is a raw store hit: opaque id, mode-dependent distance, field map.
type Hit struct {
	ID       any
	Distance float64
	Entity   map[string]any
}

// ResultSet groups hits into one ordered batch per issued query.
// Order within a batch is the backend ranking.
type ResultSet struct {
	Batches [][]Hit
}
