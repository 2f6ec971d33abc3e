package search

import (
	"context"
	"fmt"

	"github.com/OpenPecha/openpecha-search/internal/db"
	"github.com/OpenPecha/openpecha-search/internal/domain"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/filter"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.ResultSet, error)
	HybridSearch(ctx context.Context, q *db.HybridQuery) (*db.ResultSet, error)
}

// Config names the collection and index fields the queries run against.
type Config struct {
	Collection  string
	SparseField string
	DenseField  string
	TextField   string
	// RRFK is the reciprocal rank fusion constant passed to the backend
	// reranker (standard value from Cormack et al. 2009).
	RRFK int
	// DenseDropRatio is the drop_ratio_search param on the hybrid dense half.
	DenseDropRatio float64
}

// DefaultRRFK is the reranker constant used when none is configured.
const DefaultRRFK = 60

// Repo builds per-mode backend queries and normalizes hit batches.
type Repo struct {
	store store
	cfg   Config
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	return &Repo{store: s, cfg: cfg}
}

// SearchBM25 runs a relevance-ranked lexical search over the sparse field.
func (r *Repo) SearchBM25(
	ctx context.Context, query string, limit int, filterExpr string, includeText bool,
) ([]result.Result, error) {
	q := &db.SearchQuery{
		Collection:   r.cfg.Collection,
		Data:         query,
		AnnsField:    r.cfg.SparseField,
		Limit:        limit,
		Filter:       filterExpr,
		OutputFields: r.outputFields(includeText),
	}

	rs, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search bm25: %w", domain.ErrSearchBackendError, err)
	}

	return flatten(rs), nil
}

// SearchSemantic runs a dense-vector similarity search with a query embedding.
func (r *Repo) SearchSemantic(
	ctx context.Context, vector []float32, limit int, filterExpr string, includeText bool,
) ([]result.Result, error) {
	q := &db.SearchQuery{
		Collection:   r.cfg.Collection,
		Data:         vector,
		AnnsField:    r.cfg.DenseField,
		Limit:        limit,
		Filter:       filterExpr,
		OutputFields: r.outputFields(includeText),
	}

	rs, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search semantic: %w", domain.ErrSearchBackendError, err)
	}

	return flatten(rs), nil
}

// SearchExact runs a phrase-match search: the query becomes a PHRASE_MATCH
// predicate over the text field, AND-combined with any compiled filter.
// The phrase literal is escaped before conjunction so a quote in the query
// cannot terminate the predicate early.
func (r *Repo) SearchExact(
	ctx context.Context, query string, limit int, filterExpr string, includeText bool,
) ([]result.Result, error) {
	predicate := fmt.Sprintf("PHRASE_MATCH(%s, '%s')", r.cfg.TextField, filter.EscapePhrase(query))
	if filterExpr != "" {
		predicate = predicate + " && " + filterExpr
	}

	q := &db.SearchQuery{
		Collection:   r.cfg.Collection,
		Data:         query,
		AnnsField:    r.cfg.SparseField,
		Limit:        limit,
		Filter:       predicate,
		OutputFields: r.outputFields(includeText),
	}

	rs, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search exact: %w", domain.ErrSearchBackendError, err)
	}

	return flatten(rs), nil
}

// SearchHybrid issues the sparse and dense sub-queries as one fused backend
// call reranked with RRF. Both halves share the limit and the filter; each
// is independently filterable at the backend. The caller supplies the query
// embedding, so it is generated exactly once per hybrid request.
func (r *Repo) SearchHybrid(
	ctx context.Context, query string, vector []float32, limit int, filterExpr string, includeText bool,
) ([]result.Result, error) {
	q := &db.HybridQuery{
		Collection: r.cfg.Collection,
		Requests: []db.AnnRequest{
			{
				Data:      query,
				AnnsField: r.cfg.SparseField,
				Limit:     limit,
				Filter:    filterExpr,
			},
			{
				Data:      vector,
				AnnsField: r.cfg.DenseField,
				Limit:     limit,
				Filter:    filterExpr,
				Params:    map[string]any{"drop_ratio_search": r.cfg.DenseDropRatio},
			},
		},
		RerankK:      r.cfg.RRFK,
		Limit:        limit,
		OutputFields: r.outputFields(includeText),
	}

	rs, err := r.store.HybridSearch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search hybrid: %w", domain.ErrSearchBackendError, err)
	}

	return flatten(rs), nil
}

// outputFields resolves the requested entity fields from the include-text flag.
func (r *Repo) outputFields(includeText bool) []string {
	if !includeText {
		return nil
	}
	return []string{r.cfg.TextField}
}

// flatten folds possibly multiple hit batches into one ordered sequence,
// preserving backend-given order. No deduplication: duplicate IDs across
// the halves of a hybrid query are resolved by the backend's fusion.
func flatten(rs *db.ResultSet) []result.Result {
	if rs == nil {
		return nil
	}

	var results []result.Result
	for _, batch := range rs.Batches {
		for _, hit := range batch {
			entity := hit.Entity
			if entity == nil {
				entity = map[string]any{}
			}
			results = append(results, result.New(hit.ID, hit.Distance, entity))
		}
	}
	return results
}
