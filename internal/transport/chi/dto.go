package chi

// Wire types for the HTTP API. Written by hand: the surface is small
// enough that a codegen pipeline would cost more than it saves.

// ErrorCode classifies API failures for clients.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeSearchBackendError     ErrorCode = "search_backend_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchFilter narrows a search to matching metadata.
type SearchFilter struct {
	Title string `json:"title"`
}

// SearchRequest is the POST /search payload. Pointer fields distinguish
// "omitted" from an explicit zero value.
type SearchRequest struct {
	Query      string        `json:"query"`
	SearchType string        `json:"search_type"`
	Limit      *int          `json:"limit,omitempty"`
	ReturnText *bool         `json:"return_text,omitempty"`
	Filter     *SearchFilter `json:"filter,omitempty"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ID       any            `json:"id"`
	Distance float64        `json:"distance"`
	Entity   map[string]any `json:"entity"`
}

// SearchResponse echoes the query and resolved mode alongside the hits.
type SearchResponse struct {
	Query      string             `json:"query"`
	SearchType string             `json:"search_type"`
	Results    []SearchResultItem `json:"results"`
	Count      int                `json:"count"`
}

// InfoResponse is the GET / service banner.
type InfoResponse struct {
	Service     string   `json:"service"`
	Version     string   `json:"version"`
	Status      string   `json:"status"`
	SearchTypes []string `json:"search_types"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
