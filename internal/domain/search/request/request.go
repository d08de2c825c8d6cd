package request

import (
	"fmt"
	"strings"

	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/mode"
)

// Request limit bounds.
const (
	// DefaultLimit is applied when no limit is given.
	DefaultLimit = 10
	// MaxLimit caps the search result count.
	MaxLimit = 50
)

// Request is a validated search query.
type Request struct {
	query   string
	mode    mode.Mode
	filters creator.Filters
	limit   int
	// weight overrides the hybrid semantic share; negative means unset.
	weight float64
}

// New validates and normalizes search parameters.
// An empty mode defaults to hybrid; the limit clamps to [1, MaxLimit].
func New(query string, m mode.Mode, filters creator.Filters, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("%w: unsupported search mode %q", domain.ErrInvalidRequest, m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{query: query, mode: m, filters: filters, limit: limit, weight: -1}, nil
}

// WithWeight returns a copy overriding the hybrid semantic share.
func (r Request) WithWeight(w float64) (Request, error) {
	if w < 0 || w > 1 {
		return Request{}, fmt.Errorf("%w: weight must be in [0,1], got %v", domain.ErrInvalidRequest, w)
	}
	r.weight = w
	return r, nil
}

// Query returns the search text.
func (r *Request) Query() string { return r.query }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.mode }

// Filters returns the filter tuple.
func (r *Request) Filters() creator.Filters { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Weight returns the semantic-share override and whether one was set.
func (r *Request) Weight() (float64, bool) {
	if r.weight < 0 {
		return 0, false
	}
	return r.weight, true
}
