package search

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenPecha/openpecha-search/internal/domain/search/mode"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/request"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/result"
	"github.com/OpenPecha/openpecha-search/internal/metrics"
)

// Service dispatches a validated search request to one of the four
// retrieval strategies.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Search executes a search across bm25, semantic, hybrid, or exact modes.
// The filter is compiled once; the embedding provider is invoked only when
// the mode needs a query vector, and at most once per request. Failures
// surface immediately: no retries, no partial responses.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	start := time.Now()

	filterExpr, _ := req.Filter().Compile()

	var results []result.Result
	var err error

	switch req.Mode() {
	case mode.BM25:
		results, err = s.repo.SearchBM25(ctx, req.Query(), req.Limit(), filterExpr, req.IncludeText())
	case mode.Semantic:
		var vector []float32
		vector, err = s.embedQuery(ctx, req.Query())
		if err == nil {
			results, err = s.repo.SearchSemantic(ctx, vector, req.Limit(), filterExpr, req.IncludeText())
		}
	case mode.Hybrid:
		var vector []float32
		vector, err = s.embedQuery(ctx, req.Query())
		if err == nil {
			results, err = s.repo.SearchHybrid(ctx, req.Query(), vector, req.Limit(), filterExpr, req.IncludeText())
		}
	case mode.Exact:
		results, err = s.repo.SearchExact(ctx, req.Query(), req.Limit(), filterExpr, req.IncludeText())
	default:
		// Unreachable through request.New; guards a zero-value Request.
		err = fmt.Errorf("unsupported search mode: %s", req.Mode())
	}

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "error").Inc()
		return result.Response{}, err
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(req.Mode()), "success").Inc()
	metrics.SearchRequestDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())

	return result.NewResponse(req.Query(), req.Mode(), results), nil
}

// embedQuery fetches the query embedding. This is the only embedding call
// on any path, including hybrid, where the vector is reused for the fused
// sub-query.
func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return res.Embedding, nil
}
