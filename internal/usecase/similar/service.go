// Package similar resolves "creators like this one" through a three-stage
// chain: the precomputed cache on the source document, then a live vector
// KNN query, then a same-category fallback. Exactly one stage produces the
// answer; live KNN results are written back onto the source document so the
// next lookup takes the precomputed path.
package similar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/request"
	"github.com/fanlore-io/creatordex/internal/metrics"
)

const (
	// similarOverfetch pads the KNN query: the source itself comes back and
	// unpublished candidates get dropped.
	similarOverfetch = 2
	writeBackTimeout = 2 * time.Second
)

// Result carries the resolved similar creators and how they were produced.
type Result struct {
	Entries []creator.SimilarEntry
	// Precomputed is set when the entries came from the source document's
	// similarity cache.
	Precomputed bool
	// Fallback is set when no vector path was available and the entries (if
	// any) came from the category fallback, with no real similarity scores.
	Fallback bool
}

// Service resolves similar creators.
type Service struct {
	repo   Repository
	logger *zap.Logger

	spawn func(func())
}

// New creates a similarity resolver.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		spawn:  func(fn func()) { go fn() },
	}
}

// Similar returns up to the request limit of creators similar to the source.
// A missing source propagates as domain.ErrCreatorNotFound.
func (s *Service) Similar(ctx context.Context, req *request.SimilarRequest) (Result, error) {
	source, err := s.repo.GetByID(ctx, req.CreatorID())
	if err != nil {
		return Result{}, fmt.Errorf("get source creator: %w", err)
	}

	if entries := source.Similar(); len(entries) > 0 {
		metrics.SimilarResolutionsTotal.WithLabelValues("precomputed").Inc()
		return Result{Entries: truncate(entries, req.Limit()), Precomputed: true}, nil
	}

	if vec := source.Embedding(); len(vec) > 0 {
		return s.resolveKNN(ctx, &source, vec, req.Limit())
	}

	return s.resolveCategory(ctx, &source, req.Limit())
}

// resolveKNN is terminal once the source has an embedding: an empty filtered
// candidate set is a valid answer, not a reason to fall back.
func (s *Service) resolveKNN(ctx context.Context, source *creator.Record, vec []float32, limit int) (Result, error) {
	candidates, err := s.repo.SearchKNN(ctx, vec, similarOverfetch*(limit+1))
	if err != nil {
		return Result{}, fmt.Errorf("similar knn: %w", err)
	}

	entries := make([]creator.SimilarEntry, 0, limit)
	for _, c := range candidates {
		if c.Record.ID() == source.ID() || !c.Record.Published() {
			continue
		}
		entries = append(entries, creator.SimilarEntry{
			ID:    c.Record.ID(),
			Score: c.Score,
			Slug:  c.Record.Slug(),
			Name:  c.Record.Name(),
		})
		if len(entries) == limit {
			break
		}
	}

	if len(entries) > 0 {
		s.writeBack(source.ID(), entries)
	}
	metrics.SimilarResolutionsTotal.WithLabelValues("knn").Inc()
	return Result{Entries: entries}, nil
}

// resolveCategory matches on the first category only; scores are reported as
// zero since no distance metric backs them.
func (s *Service) resolveCategory(ctx context.Context, source *creator.Record, limit int) (Result, error) {
	category := source.FirstCategory()
	if category == "" {
		metrics.SimilarResolutionsTotal.WithLabelValues("empty").Inc()
		return Result{Fallback: true}, nil
	}

	records, err := s.repo.ByCategory(ctx, category, source.ID(), limit)
	if err != nil {
		return Result{}, fmt.Errorf("similar category fallback: %w", err)
	}

	entries := make([]creator.SimilarEntry, 0, len(records))
	for i := range records {
		entries = append(entries, creator.SimilarEntry{
			ID:   records[i].ID(),
			Slug: records[i].Slug(),
			Name: records[i].Name(),
		})
	}
	metrics.SimilarResolutionsTotal.WithLabelValues("category").Inc()
	return Result{Entries: entries, Fallback: true}, nil
}

// writeBack persists resolved entries onto the source document,
// fire-and-forget.
func (s *Service) writeBack(id string, entries []creator.SimilarEntry) {
	s.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()
		if err := s.repo.SetSimilar(ctx, id, entries, time.Now()); err != nil {
			s.logger.Warn("Failed to store similar creators",
				zap.String("creator_id", id), zap.Error(err))
			metrics.CacheWritebackFailuresTotal.WithLabelValues("similar").Inc()
		}
	})
}

func truncate(entries []creator.SimilarEntry, limit int) []creator.SimilarEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
