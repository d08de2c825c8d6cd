package search

import (
	"context"

	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// VectorSearcher runs KNN queries against the document store. Candidates come
// back unfiltered with similarity scores; the service post-filters in memory.
type VectorSearcher interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]creator.Scored, error)
}

// KeywordSearcher runs fuzzy text queries against the in-process index.
type KeywordSearcher interface {
	Search(ctx context.Context, query string, filters creator.Filters, limit int) ([]creator.Scored, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
