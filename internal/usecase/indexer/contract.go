package indexer

import (
	"context"

	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// Store writes creator records and maintains the search index.
type Store interface {
	EnsureIndex(ctx context.Context, vectorDim int) error
	UpsertMany(ctx context.Context, recs []creator.Record) error
}

// Embedder vectorizes profile text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
