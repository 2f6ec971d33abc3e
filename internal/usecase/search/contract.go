package search

import (
	"context"

	"github.com/OpenPecha/openpecha-search/internal/domain"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
// Filter expressions arrive pre-compiled; an empty string means no filter.
type Repository interface {
	SearchBM25(
		ctx context.Context, query string, limit int,
		filterExpr string, includeText bool,
	) ([]result.Result, error)

	SearchSemantic(
		ctx context.Context, vector []float32, limit int,
		filterExpr string, includeText bool,
	) ([]result.Result, error)

	SearchExact(
		ctx context.Context, query string, limit int,
		filterExpr string, includeText bool,
	) ([]result.Result, error)

	SearchHybrid(
		ctx context.Context, query string, vector []float32, limit int,
		filterExpr string, includeText bool,
	) ([]result.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
