package milvus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OpenPecha/openpecha-search/internal/db"
)

// searchBody is the /v2/vectordb/entities/search request payload.
type searchBody struct {
	CollectionName string        `json:"collectionName"`
	Data           []any         `json:"data"`
	AnnsField      string        `json:"annsField"`
	Limit          int           `json:"limit"`
	Filter         string        `json:"filter,omitempty"`
	OutputFields   []string      `json:"outputFields,omitempty"`
	SearchParams   *searchParams `json:"searchParams,omitempty"`
}

type searchParams struct {
	Params map[string]any `json:"params"`
}

// hybridBody is the /v2/vectordb/entities/hybrid_search request payload.
type hybridBody struct {
	CollectionName string         `json:"collectionName"`
	Search         []annSubSearch `json:"search"`
	Rerank         rerank         `json:"rerank"`
	Limit          int            `json:"limit"`
	OutputFields   []string       `json:"outputFields,omitempty"`
}

type annSubSearch struct {
	Data      []any          `json:"data"`
	AnnsField string         `json:"annsField"`
	Limit     int            `json:"limit"`
	Filter    string         `json:"filter,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

type rerank struct {
	Strategy string       `json:"strategy"`
	Params   rerankParams `json:"params"`
}

type rerankParams struct {
	K int `json:"k"`
}

// Search runs a single-field search (sparse text or dense vector).
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.ResultSet, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if q.AnnsField == "" {
		return nil, fmt.Errorf("anns field is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	body := searchBody{
		CollectionName: q.Collection,
		Data:           []any{q.Data},
		AnnsField:      q.AnnsField,
		Limit:          q.Limit,
		Filter:         q.Filter,
		OutputFields:   q.OutputFields,
	}
	if len(q.Params) > 0 {
		body.SearchParams = &searchParams{Params: q.Params}
	}

	raw, err := s.post(ctx, db.OpSearch, body)
	if err != nil {
		return nil, err
	}

	hits, err := parseHits(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	// One query datum per call, so one batch.
	return &db.ResultSet{Batches: [][]db.Hit{hits}}, nil
}

// HybridSearch runs a fused multi-request search with RRF reranking.
// The backend fuses the sub-rankings and returns a single ordered batch.
func (s *Store) HybridSearch(ctx context.Context, q *db.HybridQuery) (*db.ResultSet, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if len(q.Requests) == 0 {
		return nil, fmt.Errorf("at least one sub-request is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	subs := make([]annSubSearch, len(q.Requests))
	for i, r := range q.Requests {
		subs[i] = annSubSearch{
			Data:      []any{r.Data},
			AnnsField: r.AnnsField,
			Limit:     r.Limit,
			Filter:    r.Filter,
			Params:    r.Params,
		}
	}

	body := hybridBody{
		CollectionName: q.Collection,
		Search:         subs,
		Rerank:         rerank{Strategy: "rrf", Params: rerankParams{K: q.RerankK}},
		Limit:          q.Limit,
		OutputFields:   q.OutputFields,
	}

	raw, err := s.post(ctx, db.OpHybridSearch, body)
	if err != nil {
		return nil, err
	}

	hits, err := parseHits(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpHybridSearch, Err: err}
	}

	return &db.ResultSet{Batches: [][]db.Hit{hits}}, nil
}

// parseHits converts the raw data array into hits. Each element carries
// "id" and "distance" alongside the requested output fields inline;
// everything else becomes the entity map. A missing distance defaults to 0.
func parseHits(raw json.RawMessage) ([]db.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse hits: %w", err)
	}

	hits := make([]db.Hit, 0, len(rows))
	for _, row := range rows {
		hit := db.Hit{
			ID:     row["id"],
			Entity: make(map[string]any, len(row)),
		}
		if d, ok := row["distance"].(float64); ok {
			hit.Distance = d
		}
		for k, v := range row {
			if k == "id" || k == "distance" {
				continue
			}
			hit.Entity[k] = v
		}
		hits = append(hits, hit)
	}

	return hits, nil
}
