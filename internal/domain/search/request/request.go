package request

import (
	"fmt"

	"github.com/OpenPecha/openpecha-search/internal/domain"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/filter"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	MinLimit       = 1
	MaxLimit       = 100
	DefaultLimit   = 10
)

// Request is a validated, immutable search query.
type Request struct {
	query       string
	searchMode  mode.Mode
	limit       int
	includeText bool
	queryFilter filter.Filter
}

// New validates and normalizes search parameters.
// A zero limit means "not set" and resolves to DefaultLimit; any other
// out-of-range value is rejected. All validation errors wrap
// domain.ErrInvalidRequest so the transport can map them to a client fault.
func New(
	query string,
	m mode.Mode,
	limit int,
	includeText bool,
	f filter.Filter,
) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if m == "" {
		m = mode.Default
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid search mode %q", domain.ErrInvalidRequest, m)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < MinLimit || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: limit must be between %d and %d", domain.ErrInvalidRequest, MinLimit, MaxLimit)
	}

	return Request{
		query:       query,
		searchMode:  m,
		limit:       limit,
		includeText: includeText,
		queryFilter: f,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// IncludeText reports whether document text should be returned with hits.
func (r *Request) IncludeText() bool { return r.includeText }

// Filter returns the optional structured filter.
func (r *Request) Filter() filter.Filter { return r.queryFilter }
