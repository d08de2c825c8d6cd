// Package keyword serves fuzzy text search over the published-creator
// snapshot. It keeps one full index per snapshot generation plus a small LRU
// of filter-scoped sub-indices, and persists the full index to the
// distributed cache so sibling processes can skip a cold rebuild.
package keyword

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/db"
	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
	"github.com/fanlore-io/creatordex/internal/metrics"
	"github.com/fanlore-io/creatordex/internal/textindex"
)

const (
	storedIndexKey   = domain.KeyPrefix + "kwindex:v1"
	writeBackTimeout = 2 * time.Second
)

// Defaults for Config fields left zero.
const (
	DefaultThreshold        = 0.8
	DefaultFilteredTTL      = 5 * time.Minute
	DefaultFilteredCapacity = 20
	DefaultRemoteTTL        = 600 * time.Second
)

// DefaultWeights returns the standard per-field search weights.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"name":         1.0,
		"display_name": 0.9,
		"slug":         0.8,
		"topics":       0.6,
		"categories":   0.5,
		"short_bio":    0.4,
		"bio":          0.3,
	}
}

// Config holds the keyword index settings.
type Config struct {
	// Weights maps indexed field names to relative importance.
	Weights map[string]float64
	// Threshold is the minimum Jaro-Winkler similarity for fuzzy matches.
	Threshold float64
	// FilteredTTL bounds reuse of a filter-scoped sub-index.
	FilteredTTL time.Duration
	// FilteredCapacity caps the filtered sub-index cache.
	FilteredCapacity int
	// RemoteTTL is the TTL for the serialized index in the distributed cache.
	RemoteTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Weights == nil {
		c.Weights = DefaultWeights()
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.FilteredTTL == 0 {
		c.FilteredTTL = DefaultFilteredTTL
	}
	if c.FilteredCapacity == 0 {
		c.FilteredCapacity = DefaultFilteredCapacity
	}
	if c.RemoteTTL == 0 {
		c.RemoteTTL = DefaultRemoteTTL
	}
	return c
}

// fullIndex pairs an index with the snapshot it was built from so both swap
// in one atomic store.
type fullIndex struct {
	index *textindex.Index
	snap  *creator.Snapshot
}

type filteredEntry struct {
	index   *textindex.Index
	snap    *creator.Snapshot
	builtAt time.Time
}

// Service owns the full and filtered keyword indices.
type Service struct {
	snaps  SnapshotProvider
	kv     KVStore
	cfg    Config
	logger *zap.Logger

	// mu serializes full-index rebuilds; reads go through the atomic pointer.
	mu   sync.Mutex
	full atomic.Pointer[fullIndex]

	filtered *lru.Cache[string, *filteredEntry]

	spawn func(func())
}

// New creates the keyword service. kv may be nil to disable index
// persistence (restore and write-back become no-ops).
func New(snaps SnapshotProvider, kv KVStore, cfg Config, logger *zap.Logger) (*Service, error) {
	cfg = cfg.withDefaults()
	cache, err := lru.NewWithEvict[string, *filteredEntry](cfg.FilteredCapacity, func(string, *filteredEntry) {
		metrics.FilteredIndexEvictionsTotal.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("filtered index cache: %w", err)
	}
	return &Service{
		snaps:    snaps,
		kv:       kv,
		cfg:      cfg,
		logger:   logger,
		filtered: cache,
		spawn:    func(fn func()) { go fn() },
	}, nil
}

// Search returns up to limit records scored against the query, descending.
// With filters set, the query runs over a filter-scoped sub-index.
func (s *Service) Search(ctx context.Context, query string, filters creator.Filters, limit int) ([]creator.Scored, error) {
	snap, err := s.snaps.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot: %w", err)
	}

	idx, err := s.indexFor(ctx, snap, filters)
	if err != nil {
		return nil, err
	}

	hits := idx.Search(query, limit)
	out := make([]creator.Scored, 0, len(hits))
	for _, h := range hits {
		rec, ok := snap.ByID(h.ID)
		if !ok {
			continue
		}
		out = append(out, creator.Scored{Record: *rec, Score: h.Score})
	}
	return out, nil
}

// Warm resolves the snapshot and builds the full index ahead of traffic.
func (s *Service) Warm(ctx context.Context) error {
	snap, err := s.snaps.Get(ctx)
	if err != nil {
		return fmt.Errorf("resolve snapshot: %w", err)
	}
	if _, err := s.fullFor(ctx, snap); err != nil {
		return err
	}
	return nil
}

// Invalidate drops the in-memory indices and the stored serialized copy.
// Distributed-cache failures are absorbed; the next search rebuilds.
func (s *Service) Invalidate(ctx context.Context) {
	s.full.Store(nil)
	s.filtered.Purge()

	if s.kv == nil {
		return
	}
	if err := s.kv.Del(ctx, storedIndexKey); err != nil {
		s.logger.Warn("Failed to delete stored keyword index", zap.Error(err))
	}
}

func (s *Service) indexFor(ctx context.Context, snap *creator.Snapshot, filters creator.Filters) (*textindex.Index, error) {
	if filters.Empty() {
		return s.fullFor(ctx, snap)
	}
	return s.filteredFor(snap, filters)
}

// fullFor returns the full index for the given snapshot, rebuilding only when
// the snapshot reference changed.
func (s *Service) fullFor(ctx context.Context, snap *creator.Snapshot) (*textindex.Index, error) {
	if cur := s.full.Load(); cur != nil && cur.snap == snap {
		return cur.index, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.full.Load(); cur != nil && cur.snap == snap {
		return cur.index, nil
	}

	idx := s.restoreStored(ctx, snap)
	if idx != nil {
		metrics.KeywordIndexBuildsTotal.WithLabelValues("full", "restored").Inc()
	} else {
		var err error
		idx, err = s.buildIndex(snap, snap.Records())
		if err != nil {
			return nil, err
		}
		metrics.KeywordIndexBuildsTotal.WithLabelValues("full", "built").Inc()
		s.persistStored(idx)
	}

	s.full.Store(&fullIndex{index: idx, snap: snap})
	return idx, nil
}

// filteredFor returns a sub-index for the filter tuple, reusing a cached one
// only while it still refers to the current snapshot and is within TTL.
func (s *Service) filteredFor(snap *creator.Snapshot, filters creator.Filters) (*textindex.Index, error) {
	key := filters.Key()
	if entry, ok := s.filtered.Get(key); ok {
		if entry.snap == snap && time.Since(entry.builtAt) < s.cfg.FilteredTTL {
			return entry.index, nil
		}
	}

	idx, err := s.buildIndex(snap, creator.FilterRecords(snap.Records(), filters))
	if err != nil {
		return nil, err
	}
	metrics.KeywordIndexBuildsTotal.WithLabelValues("filtered", "built").Inc()

	// Add replaces a stale entry in place and evicts the LRU entry on
	// capacity overflow.
	s.filtered.Add(key, &filteredEntry{index: idx, snap: snap, builtAt: time.Now()})
	return idx, nil
}

func (s *Service) buildIndex(snap *creator.Snapshot, records []creator.Record) (*textindex.Index, error) {
	idx, err := textindex.New(s.cfg.Weights, s.cfg.Threshold, snap.Fingerprint())
	if err != nil {
		return nil, fmt.Errorf("build keyword index: %w", err)
	}
	for i := range records {
		addRecord(idx, &records[i])
	}
	return idx, nil
}

// addRecord flattens one record into its indexable text fields.
func addRecord(idx *textindex.Index, r *creator.Record) {
	idx.Add(r.ID(), map[string]string{
		"name":         r.Name(),
		"display_name": r.Profile().DisplayName(),
		"slug":         r.Slug(),
		"topics":       strings.Join(r.Topics(), " "),
		"categories":   strings.Join(r.Categories(), " "),
		"short_bio":    r.Profile().ShortBio(),
		"bio":          r.Profile().Bio(),
	})
}

// restoreStored loads the serialized index from the distributed cache and
// adopts it only when it matches the current snapshot and settings.
func (s *Service) restoreStored(ctx context.Context, snap *creator.Snapshot) *textindex.Index {
	if s.kv == nil {
		return nil
	}

	data, err := s.kv.Get(ctx, storedIndexKey)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("Failed to read stored keyword index", zap.Error(err))
		}
		return nil
	}

	idx, err := textindex.Deserialize(data)
	if err != nil {
		s.logger.Warn("Failed to decode stored keyword index", zap.Error(err))
		return nil
	}
	if idx.Fingerprint() != snap.Fingerprint() {
		s.logger.Debug("Stored keyword index is for another snapshot generation")
		return nil
	}
	if !idx.CompatibleWith(s.cfg.Weights, s.cfg.Threshold) {
		s.logger.Info("Stored keyword index uses different settings, rebuilding")
		return nil
	}
	return idx
}

// persistStored writes the serialized index back, fire-and-forget.
func (s *Service) persistStored(idx *textindex.Index) {
	if s.kv == nil {
		return
	}

	data, err := idx.Serialize()
	if err != nil {
		s.logger.Warn("Failed to serialize keyword index", zap.Error(err))
		return
	}

	s.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()
		if err := s.kv.SetWithTTL(ctx, storedIndexKey, data, int64(s.cfg.RemoteTTL/time.Second)); err != nil {
			s.logger.Warn("Failed to store keyword index", zap.Error(err))
			metrics.CacheWritebackFailuresTotal.WithLabelValues("keyword_index").Inc()
		}
	})
}
