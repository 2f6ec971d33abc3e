package result

import "github.com/OpenPecha/openpecha-search/internal/domain/search/mode"

// Result is a single normalized search hit. The ID is opaque: the store
// may return numeric or string identifiers.
type Result struct {
	id       any
	distance float64
	entity   map[string]any
}

// New creates a search result.
func New(id any, distance float64, entity map[string]any) Result {
	return Result{id: id, distance: distance, entity: entity}
}

// ID returns the opaque document identifier.
func (r *Result) ID() any { return r.id }

// Distance returns the mode-dependent relevance score.
func (r *Result) Distance() float64 { return r.distance }

// Entity returns the requested document fields.
func (r *Result) Entity() map[string]any { return r.entity }

// Response is the complete answer to one search request. Result order is
// the ranking; Count is always derived from the result slice.
type Response struct {
	query      string
	searchMode mode.Mode
	results    []Result
}

// NewResponse creates a search response.
func NewResponse(query string, m mode.Mode, results []Result) Response {
	return Response{query: query, searchMode: m, results: results}
}

// Query returns the original query text.
func (r *Response) Query() string { return r.query }

// Mode returns the resolved search mode.
func (r *Response) Mode() mode.Mode { return r.searchMode }

// Results returns the ranked result sequence.
func (r *Response) Results() []Result { return r.results }

// Count returns the number of results.
func (r *Response) Count() int { return len(r.results) }
