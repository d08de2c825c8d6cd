// Package creators is the document-store repository for creator records.
package creators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fanlore-io/creatordex/internal/db"
	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

const (
	docKeyPrefix = domain.KeyPrefix + "creator:"
	indexName    = domain.KeyPrefix + "creators:idx"

	// listPageSize bounds one page of the full published scan.
	listPageSize = 500
)

// store is the consumer interface for creator persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchTags(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
	Count(ctx context.Context, q *db.TagQuery) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements the document-store side of snapshot loading, vector
// search, similarity fallback queries and record reads.
type Repo struct {
	store store
}

// New creates a creators repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Key returns the document key for a creator identifier.
func Key(id string) string {
	return docKeyPrefix + id
}

// EnsureIndex creates the search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndexBuilder(indexName).
		Prefix(docKeyPrefix).
		Tag("$.id", "id").
		Tag("$.slug", "slug").
		Tag("$.published", "published").
		Tag("$.categories[*]", "categories").
		Tag("$.category", "category").
		Tag("$.languages[*]", "languages").
		Tag("$.region", "region").
		Tag("$.gender", "gender").
		VectorHNSW("$.embedding", "vector", vectorDim, db.DistanceCosine).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// ListPublished loads every published creator in the lightweight
// projection, paging through the index.
func (r *Repo) ListPublished(ctx context.Context) ([]creator.Record, error) {
	var records []creator.Record
	offset := 0
	for {
		sr, err := r.store.SearchTags(ctx, &db.TagQuery{
			Index:        indexName,
			Tags:         map[string]string{"published": "true"},
			Offset:       offset,
			Limit:        listPageSize,
			ReturnFields: liteReturnFields,
		})
		if err != nil {
			return nil, fmt.Errorf("list published: %w", err)
		}
		for _, entry := range sr.Entries {
			rec, err := recordFromFields(entry.Fields)
			if err != nil {
				return nil, fmt.Errorf("list published: %w", err)
			}
			records = append(records, rec)
		}
		offset += len(sr.Entries)
		if len(sr.Entries) == 0 || offset >= sr.Total {
			return records, nil
		}
	}
}

// CountPublished returns the number of published creators in the index.
func (r *Repo) CountPublished(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, &db.TagQuery{
		Index: indexName,
		Tags:  map[string]string{"published": "true"},
	})
	if err != nil {
		return 0, fmt.Errorf("count published: %w", err)
	}
	return n, nil
}

// GetByID loads the full record, embedding and similarity cache included.
// Returns domain.ErrCreatorNotFound for missing identifiers.
func (r *Repo) GetByID(ctx context.Context, id string) (creator.Record, error) {
	data, err := r.store.JSONGet(ctx, Key(id), "$")
	if err != nil {
		if isKeyNotFound(err) {
			return creator.Record{}, fmt.Errorf("creator %s: %w", id, domain.ErrCreatorNotFound)
		}
		return creator.Record{}, fmt.Errorf("get creator %s: %w", id, err)
	}
	rec, err := recordFromPathData(data)
	if err != nil {
		return creator.Record{}, fmt.Errorf("get creator %s: %w", id, err)
	}
	return rec, nil
}

// GetMany loads full records for the given identifiers in one round trip.
// Missing identifiers are skipped; order follows the input.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]creator.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}
	raw, err := r.store.JSONGetMulti(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("get creators: %w", err)
	}
	records := make([]creator.Record, 0, len(ids))
	for i, data := range raw {
		if data == nil {
			continue
		}
		rec, err := recordFromPathData(data)
		if err != nil {
			return nil, fmt.Errorf("get creator %s: %w", ids[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Upsert writes one full creator document.
func (r *Repo) Upsert(ctx context.Context, rec creator.Record) error {
	data, err := json.Marshal(docFromRecord(rec))
	if err != nil {
		return fmt.Errorf("marshal creator %s: %w", rec.ID(), err)
	}
	if err := r.store.JSONSet(ctx, Key(rec.ID()), "$", data); err != nil {
		return fmt.Errorf("upsert creator %s: %w", rec.ID(), err)
	}
	return nil
}

// UpsertMany writes full creator documents in one round trip.
func (r *Repo) UpsertMany(ctx context.Context, recs []creator.Record) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]db.JSONSetItem, len(recs))
	for i, rec := range recs {
		data, err := json.Marshal(docFromRecord(rec))
		if err != nil {
			return fmt.Errorf("marshal creator %s: %w", rec.ID(), err)
		}
		items[i] = db.JSONSetItem{Key: Key(rec.ID()), Path: "$", Data: data}
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert creators: %w", err)
	}
	return nil
}

// SearchKNN runs a vector query returning lightweight records with
// similarity scores. Candidates are not filtered here; callers post-filter
// in memory.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]creator.Scored, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Index:        indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: liteReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	scored := make([]creator.Scored, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		rec, err := recordFromFields(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("knn search: %w", err)
		}
		scored = append(scored, creator.Scored{Record: rec, Score: entry.Score})
	}
	return scored, nil
}

// ByCategory returns up to limit published creators carrying the category,
// excluding one identifier.
func (r *Repo) ByCategory(ctx context.Context, category, excludeID string, limit int) ([]creator.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	sr, err := r.store.SearchTags(ctx, &db.TagQuery{
		Index: indexName,
		Tags: map[string]string{
			"published":  "true",
			"categories": category,
		},
		Limit:        limit + 1,
		ReturnFields: liteReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("category query %q: %w", category, err)
	}
	records := make([]creator.Record, 0, limit)
	for _, entry := range sr.Entries {
		rec, err := recordFromFields(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("category query %q: %w", category, err)
		}
		if rec.ID() == excludeID {
			continue
		}
		records = append(records, rec)
		if len(records) == limit {
			break
		}
	}
	return records, nil
}

// LookupBySlugPrefix returns published creators whose slug starts with the
// prefix.
func (r *Repo) LookupBySlugPrefix(ctx context.Context, prefix string, limit int) ([]creator.Record, error) {
	if prefix == "" || limit <= 0 {
		return nil, nil
	}
	sr, err := r.store.SearchTags(ctx, &db.TagQuery{
		Index:        indexName,
		Tags:         map[string]string{"published": "true"},
		Prefix:       &db.TagPrefix{Field: "slug", Value: prefix},
		Limit:        limit,
		ReturnFields: liteReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("slug prefix %q: %w", prefix, err)
	}
	records := make([]creator.Record, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		rec, err := recordFromFields(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("slug prefix %q: %w", prefix, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SetSimilar writes the similarity cache field onto a creator document.
func (r *Repo) SetSimilar(ctx context.Context, id string, entries []creator.SimilarEntry, computedAt time.Time) error {
	data, err := json.Marshal(similarDocs(entries))
	if err != nil {
		return fmt.Errorf("marshal similar for %s: %w", id, err)
	}
	items := []db.JSONSetItem{
		{Key: Key(id), Path: "$.similar", Data: data},
		{Key: Key(id), Path: "$.similar_computed_at", Data: []byte(strconv.FormatInt(computedAt.Unix(), 10))},
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("set similar for %s: %w", id, err)
	}
	return nil
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, db.ErrKeyNotFound)
}
