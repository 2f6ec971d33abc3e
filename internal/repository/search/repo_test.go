package search

import (
	"context"
	"errors"
	"testing"

	"github.com/OpenPecha/openpecha-search/internal/db"
	"github.com/OpenPecha/openpecha-search/internal/domain"
)

type mockStore struct {
	rs  *db.ResultSet
	err error

	lastQuery  *db.SearchQuery
	lastHybrid *db.HybridQuery
}

func (m *mockStore) Search(_ context.Context, q *db.SearchQuery) (*db.ResultSet, error) {
	m.lastQuery = q
	return m.rs, m.err
}

func (m *mockStore) HybridSearch(_ context.Context, q *db.HybridQuery) (*db.ResultSet, error) {
	m.lastHybrid = q
	return m.rs, m.err
}

func testConfig() Config {
	return Config{
		Collection:     "test_kangyur_tengyur",
		SparseField:    "sparce_vector",
		DenseField:     "dense_vector",
		TextField:      "text",
		RRFK:           60,
		DenseDropRatio: 0.2,
	}
}

func TestSearchBM25_BuildsQuery(t *testing.T) {
	store := &mockStore{rs: &db.ResultSet{}}
	repo := New(store, testConfig())

	_, err := repo.SearchBM25(context.Background(), "dharma", 10, `title == "Chapter1"`, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := store.lastQuery
	if q == nil {
		t.Fatal("no query captured")
	}
	if q.Collection != "test_kangyur_tengyur" {
		t.Errorf("collection = %q", q.Collection)
	}
	if q.AnnsField != "sparce_vector" {
		t.Errorf("anns field = %q", q.AnnsField)
	}
	if q.Data != "dharma" {
		t.Errorf("data = %v, want raw query text", q.Data)
	}
	if q.Filter != `title == "Chapter1"` {
		t.Errorf("filter = %q", q.Filter)
	}
	if len(q.OutputFields) != 1 || q.OutputFields[0] != "text" {
		t.Errorf("output fields = %v", q.OutputFields)
	}
}

func TestSearchSemantic_BuildsQuery(t *testing.T) {
	store := &mockStore{rs: &db.ResultSet{}}
	repo := New(store, testConfig())

	vec := []float32{0.1, 0.2, 0.3}
	_, err := repo.SearchSemantic(context.Background(), vec, 5, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := store.lastQuery
	if q.AnnsField != "dense_vector" {
		t.Errorf("anns field = %q", q.AnnsField)
	}
	if q.Limit != 5 {
		t.Errorf("limit = %d", q.Limit)
	}
	if q.OutputFields != nil {
		t.Errorf("output fields should be omitted, got %v", q.OutputFields)
	}
}

func TestSearchExact_PhrasePredicate(t *testing.T) {
	store := &mockStore{rs: &db.ResultSet{}}
	repo := New(store, testConfig())

	_, err := repo.SearchExact(context.Background(), "test phrase", 10, `title == "Chapter1"`, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `PHRASE_MATCH(text, 'test phrase') && title == "Chapter1"`
	if store.lastQuery.Filter != want {
		t.Errorf("filter = %q, want %q", store.lastQuery.Filter, want)
	}
}

func TestSearchExact_EscapesQuotes(t *testing.T) {
	store := &mockStore{rs: &db.ResultSet{}}
	repo := New(store, testConfig())

	_, err := repo.SearchExact(context.Background(), "it's here", 10, "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `PHRASE_MATCH(text, 'it\'s here')`
	if store.lastQuery.Filter != want {
		t.Errorf("filter = %q, want %q", store.lastQuery.Filter, want)
	}
}

func TestSearchHybrid_BuildsFusedQuery(t *testing.T) {
	store := &mockStore{rs: &db.ResultSet{}}
	repo := New(store, testConfig())

	vec := []float32{0.5}
	_, err := repo.SearchHybrid(context.Background(), "dharma", vec, 7, `title == "T1"`, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := store.lastHybrid
	if q == nil {
		t.Fatal("no hybrid query captured")
	}
	if len(q.Requests) != 2 {
		t.Fatalf("expected 2 sub-requests, got %d", len(q.Requests))
	}

	sparse, dense := q.Requests[0], q.Requests[1]
	if sparse.AnnsField != "sparce_vector" || sparse.Data != "dharma" {
		t.Errorf("sparse half = %+v", sparse)
	}
	if sparse.Params != nil {
		t.Errorf("sparse half should carry no params, got %v", sparse.Params)
	}
	if dense.AnnsField != "dense_vector" {
		t.Errorf("dense half field = %q", dense.AnnsField)
	}
	if dense.Params["drop_ratio_search"] != 0.2 {
		t.Errorf("dense params = %v", dense.Params)
	}
	if sparse.Filter != `title == "T1"` || dense.Filter != `title == "T1"` {
		t.Error("both halves must carry the filter")
	}
	if sparse.Limit != 7 || dense.Limit != 7 || q.Limit != 7 {
		t.Error("limit must apply to both halves and the fused result")
	}
	if q.RerankK != 60 {
		t.Errorf("rerank k = %d, want 60", q.RerankK)
	}
}

func TestNew_DefaultRRFK(t *testing.T) {
	repo := New(&mockStore{rs: &db.ResultSet{}}, Config{Collection: "c"})
	if repo.cfg.RRFK != DefaultRRFK {
		t.Errorf("rrf k = %d, want %d", repo.cfg.RRFK, DefaultRRFK)
	}
}

func TestFlatten(t *testing.T) {
	rs := &db.ResultSet{Batches: [][]db.Hit{
		{
			{ID: int64(1), Distance: 0.9, Entity: map[string]any{"text": "a"}},
			{ID: int64(2), Distance: 0.8, Entity: nil},
		},
		{
			{ID: "doc-3", Distance: 0.7, Entity: map[string]any{"text": "c"}},
		},
	}}

	results := flatten(rs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID() != int64(1) || results[2].ID() != "doc-3" {
		t.Error("batch order must be preserved")
	}
	if results[1].Entity() == nil {
		t.Error("nil entity must normalize to an empty map")
	}
}

func TestFlatten_Nil(t *testing.T) {
	if got := flatten(nil); got != nil {
		t.Errorf("flatten(nil) = %v", got)
	}
}

func TestSearch_ErrorsWrapBackendSentinel(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	repo := New(store, testConfig())

	_, err := repo.SearchBM25(context.Background(), "q", 10, "", true)
	if !errors.Is(err, domain.ErrSearchBackendError) {
		t.Fatalf("expected ErrSearchBackendError, got %v", err)
	}

	_, err = repo.SearchHybrid(context.Background(), "q", []float32{0.1}, 10, "", true)
	if !errors.Is(err, domain.ErrSearchBackendError) {
		t.Fatalf("expected ErrSearchBackendError, got %v", err)
	}
}
