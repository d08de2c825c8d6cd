package creatordex

import (
	"context"
	"fmt"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/domain/search/mode"
	"github.com/fanlore-io/creatordex/internal/domain/search/request"
)

// Search returns ranked creators for a text query. In hybrid mode a failed
// semantic path degrades the result to keyword contributions; in semantic
// mode the failure propagates.
func (e *Engine) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	r, err := request.New(req.Query, mode.Mode(req.Mode), creator.Filters{
		Category: req.Category,
		Region:   req.Region,
		Language: req.Language,
		Gender:   req.Gender,
	}, req.Limit)
	if err != nil {
		return nil, err
	}
	if req.SemanticWeight != nil {
		if r, err = r.WithWeight(*req.SemanticWeight); err != nil {
			return nil, err
		}
	}

	matches, err := e.searcher.Search(ctx, &r)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(matches))
	for i := range matches {
		out[i] = matchFromDomain(&matches[i])
	}
	return out, nil
}

// Similar returns up to limit creators similar to the given one, resolving
// through the precomputed cache, live vector search, and category fallback
// in that order. A missing source yields ErrCreatorNotFound.
func (e *Engine) Similar(ctx context.Context, creatorID string, limit int) (SimilarResult, error) {
	r, err := request.NewSimilar(creatorID, limit)
	if err != nil {
		return SimilarResult{}, err
	}
	res, err := e.similar.Similar(ctx, &r)
	if err != nil {
		return SimilarResult{}, err
	}
	return similarFromDomain(res), nil
}

// LookupBySlugPrefix returns published creators whose slug starts with the
// prefix.
func (e *Engine) LookupBySlugPrefix(ctx context.Context, prefix string, limit int) ([]Creator, error) {
	records, err := e.creators.LookupBySlugPrefix(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	return creatorsFromRecords(records), nil
}

// GetMany loads creators by identifier in one round trip. Missing
// identifiers are skipped; embeddings are never returned.
func (e *Engine) GetMany(ctx context.Context, ids []string) ([]Creator, error) {
	records, err := e.creators.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return creatorsFromRecords(records), nil
}

// Ingest validates, vectorizes and stores creator records, reporting a
// per-record outcome. The snapshot caches are not invalidated automatically;
// call Invalidate after a bulk load to serve the new records immediately.
func (e *Engine) Ingest(ctx context.Context, creators []Creator) []IngestResult {
	records := make([]creator.Record, 0, len(creators))
	out := make([]IngestResult, len(creators))
	indices := make([]int, 0, len(creators))
	for i, c := range creators {
		rec, err := recordFromCreator(c)
		if err != nil {
			out[i] = IngestResult{ID: c.ID, Err: fmt.Errorf("%w: %s", ErrInvalidRequest, err)}
			continue
		}
		records = append(records, rec)
		indices = append(indices, i)
	}

	for j, res := range e.ingester.Ingest(ctx, records) {
		out[indices[j]] = IngestResult{ID: res.ID(), Err: res.Err()}
	}
	return out
}

// EnsureIndex creates the search index if it does not exist yet.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	return e.ingester.EnsureIndex(ctx, e.vectorDim)
}

// Warm resolves the snapshot and builds the full keyword index so the first
// request does not pay the cold-start cost.
func (e *Engine) Warm(ctx context.Context) error {
	if err := e.keywords.Warm(ctx); err != nil {
		return fmt.Errorf("warm: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot and keyword-index caches on both tiers,
// best-effort on the distributed one. The next read rebuilds.
func (e *Engine) Invalidate(ctx context.Context) {
	e.snapshots.Invalidate(ctx)
	e.keywords.Invalidate(ctx)
}

// Health reports component health and snapshot freshness.
func (e *Engine) Health(ctx context.Context) HealthReport {
	return healthFromDomain(e.health.Check(ctx))
}

func creatorsFromRecords(records []creator.Record) []Creator {
	out := make([]Creator, len(records))
	for i := range records {
		out[i] = creatorFromRecord(&records[i])
	}
	return out
}
