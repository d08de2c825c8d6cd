package request

import (
	"fmt"

	"github.com/fanlore-io/creatordex/internal/domain"
)

// Similar limit bounds.
const (
	// DefaultSimilarLimit is applied when no limit is given.
	DefaultSimilarLimit = 10
	// MaxSimilarLimit caps the similar-creators result count.
	MaxSimilarLimit = 20
)

// SimilarRequest is a validated "find similar creators" query.
type SimilarRequest struct {
	creatorID string
	limit     int
}

// NewSimilar validates and normalizes similar request parameters.
// The limit clamps to [1, MaxSimilarLimit].
func NewSimilar(creatorID string, limit int) (SimilarRequest, error) {
	if creatorID == "" {
		return SimilarRequest{}, fmt.Errorf("%w: creator ID is required", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > MaxSimilarLimit {
		limit = MaxSimilarLimit
	}

	return SimilarRequest{creatorID: creatorID, limit: limit}, nil
}

// CreatorID returns the source creator identifier.
func (r *SimilarRequest) CreatorID() string { return r.creatorID }

// Limit returns the maximum results to return.
func (r *SimilarRequest) Limit() int { return r.limit }
