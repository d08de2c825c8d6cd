package similar

import (
	"context"
	"time"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// Repository is the document-store contract for similarity resolution.
type Repository interface {
	// GetByID loads the full source record, embedding and similarity cache
	// included.
	GetByID(ctx context.Context, id string) (creator.Record, error)
	// SearchKNN returns unfiltered nearest neighbours with similarity scores.
	SearchKNN(ctx context.Context, vector []float32, k int) ([]creator.Scored, error)
	// ByCategory returns published creators carrying the category, excluding
	// one identifier.
	ByCategory(ctx context.Context, category, excludeID string, limit int) ([]creator.Record, error)
	// SetSimilar persists resolved entries onto the source document.
	SetSimilar(ctx context.Context, id string, entries []creator.SimilarEntry, computedAt time.Time) error
}
