// Package indexer ingests creator records into the document store,
// vectorizing profiles that arrive without an embedding.
package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// DefaultBatchSize is the maximum number of records per Ingest call.
const DefaultBatchSize = 100

// Result is the outcome of processing one record in a bulk ingest.
type Result struct {
	id  string
	err error
}

func okResult(id string) Result             { return Result{id: id} }
func errResult(id string, err error) Result { return Result{id: id, err: err} }

// ID returns the record identifier.
func (r Result) ID() string { return r.id }

// OK reports whether the record was ingested.
func (r Result) OK() bool { return r.err == nil }

// Err returns the ingest error, if any.
func (r Result) Err() error { return r.err }

// Service handles bulk creator ingestion with per-record error reporting.
type Service struct {
	store     Store
	embed     Embedder
	batchSize int
}

// New creates an ingest service. embed can be nil when all records carry
// precomputed embeddings.
func New(store Store, embed Embedder) *Service {
	return &Service{store: store, embed: embed, batchSize: DefaultBatchSize}
}

// WithBatchSize configures the maximum batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// EnsureIndex creates the creator search index if it does not exist yet.
func (s *Service) EnsureIndex(ctx context.Context, vectorDim int) error {
	if err := s.store.EnsureIndex(ctx, vectorDim); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	return nil
}

// Ingest vectorizes and stores records, reporting a per-record outcome.
// Records that already carry an embedding are written as-is.
func (s *Service) Ingest(ctx context.Context, records []creator.Record) []Result {
	results := make([]Result, len(records))

	if len(records) > s.batchSize {
		err := fmt.Errorf("batch size exceeds %d: %w", s.batchSize, domain.ErrInvalidRequest)
		for i, rec := range records {
			results[i] = errResult(rec.ID(), err)
		}
		return results
	}

	// Vectorize records that arrived without an embedding.
	var missing []int
	var texts []string
	for i, rec := range records {
		if len(rec.Embedding()) > 0 {
			continue
		}
		missing = append(missing, i)
		texts = append(texts, profileText(rec))
	}

	if len(missing) > 0 {
		embedded, err := s.batchEmbed(ctx, texts)
		if err != nil {
			for _, i := range missing {
				results[i] = errResult(records[i].ID(), fmt.Errorf("vectorize: %w", err))
			}
		} else {
			for j, i := range missing {
				records[i] = records[i].WithEmbedding(embedded.Embeddings[j])
			}
		}
	}

	upsert := make([]creator.Record, 0, len(records))
	upsertIdx := make([]int, 0, len(records))
	for i := range records {
		if results[i].err != nil {
			continue
		}
		upsert = append(upsert, records[i])
		upsertIdx = append(upsertIdx, i)
	}
	if len(upsert) == 0 {
		return results
	}

	if err := s.store.UpsertMany(ctx, upsert); err != nil {
		for _, i := range upsertIdx {
			results[i] = errResult(records[i].ID(), fmt.Errorf("upsert: %w", err))
		}
		return results
	}

	for _, i := range upsertIdx {
		results[i] = okResult(records[i].ID())
	}
	return results
}

func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if s.embed == nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("no embedder configured: %w", domain.ErrEmbeddingProviderError)
	}
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}

// profileText flattens the embeddable profile fields into one document.
func profileText(rec creator.Record) string {
	parts := make([]string, 0, 6)
	parts = append(parts, rec.Name())
	if dn := rec.Profile().DisplayName(); dn != "" && dn != rec.Name() {
		parts = append(parts, dn)
	}
	if sb := rec.Profile().ShortBio(); sb != "" {
		parts = append(parts, sb)
	}
	if bio := rec.Profile().Bio(); bio != "" {
		parts = append(parts, bio)
	}
	if topics := rec.Topics(); len(topics) > 0 {
		parts = append(parts, strings.Join(topics, " "))
	}
	if cats := rec.Categories(); len(cats) > 0 {
		parts = append(parts, strings.Join(cats, " "))
	}
	return strings.Join(parts, "\n")
}
