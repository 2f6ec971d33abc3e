package mode

import (
	"fmt"
	"strings"
)

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses BM25 and semantic rankings via RRF.
	Hybrid   Mode = "hybrid"
	BM25     Mode = "bm25"
	Semantic Mode = "semantic"
	// Exact matches a literal phrase instead of ranking by relevance.
	Exact Mode = "exact"
)

// Default is the mode used when the caller does not specify one.
const Default = Hybrid

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == BM25 || m == Semantic || m == Exact
}

// NeedsEmbedding reports whether the mode requires a query embedding.
func (m Mode) NeedsEmbedding() bool {
	return m == Semantic || m == Hybrid
}

// Parse resolves a raw search_type string into a Mode.
// Matching is case-insensitive; an empty string resolves to Default.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Default, nil
	}
	m := Mode(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid search_type %q: must be one of: %s, %s, %s, %s",
			s, Hybrid, BM25, Semantic, Exact)
	}
	return m, nil
}
