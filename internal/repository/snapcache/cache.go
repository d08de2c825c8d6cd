// Package snapcache serves the published-creator snapshot through a tiered
// cache: in-process entry, distributed mirror, document store.
package snapcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fanlore-io/creatordex/internal/db"
	"github.com/fanlore-io/creatordex/internal/domain"
	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

const snapshotKey = domain.KeyPrefix + "snapshot:v1"

// mirrorTimeout bounds the background write-back to the distributed tier.
const mirrorTimeout = 2 * time.Second

// docStore is the consumer interface for the document-store tier (ISP).
type docStore interface {
	ListPublished(ctx context.Context) ([]creator.Record, error)
}

// kv is the consumer interface for the distributed tier (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int64) error
	Del(ctx context.Context, keys ...string) error
}

// Config holds the cache TTLs.
type Config struct {
	// TTL is how long the in-process entry stays fresh.
	TTL time.Duration
	// RemoteTTL is the expiry written on the distributed mirror.
	RemoteTTL time.Duration
}

// Cache resolves the current snapshot. The in-process entry is shared
// across requests without a lock: concurrent refreshes may duplicate work,
// and the later write wins by plain pointer replacement.
type Cache struct {
	store       docStore
	remote      kv // nil disables the distributed tier
	cfg         Config
	resolutions *prometheus.CounterVec // label "source", passed explicitly
	failures    *prometheus.CounterVec // label "kind", passed explicitly
	logger      *zap.Logger

	current atomic.Pointer[creator.Snapshot]

	// spawn runs the fire-and-forget mirror write. Tests replace it to
	// make the write synchronous.
	spawn func(func())
}

// New creates a snapshot cache. remote may be nil when no distributed
// cache is configured.
func New(
	store docStore,
	remote kv,
	cfg Config,
	resolutions *prometheus.CounterVec,
	failures *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:       store,
		remote:      remote,
		cfg:         cfg,
		resolutions: resolutions,
		failures:    failures,
		logger:      logger,
		spawn:       func(fn func()) { go fn() },
	}
}

// Get resolves the snapshot: fresh in-process entry, then distributed
// mirror, then a document-store load. Only the last tier can fail the
// call; cache-tier problems are logged and fallen through.
func (c *Cache) Get(ctx context.Context) (*creator.Snapshot, error) {
	if snap := c.current.Load(); snap != nil && snap.Age() < c.cfg.TTL {
		c.incResolution("memory")
		return snap, nil
	}

	if snap, ok := c.fromRemote(ctx); ok {
		c.current.Store(snap)
		c.incResolution("distributed")
		return snap, nil
	}

	snap, err := c.fromStore(ctx)
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)
	c.incResolution("store")
	c.mirror(snap)
	return snap, nil
}

// Current returns the in-process entry without resolving, possibly nil or
// expired. Health checks read it to report snapshot age.
func (c *Cache) Current() *creator.Snapshot {
	return c.current.Load()
}

// Invalidate drops the in-process entry and best-effort deletes the
// distributed mirror. It does not trigger a rebuild.
func (c *Cache) Invalidate(ctx context.Context) {
	c.current.Store(nil)
	if c.remote == nil {
		return
	}
	if err := c.remote.Del(ctx, snapshotKey); err != nil {
		c.logger.Warn("Failed to delete snapshot mirror", zap.Error(err))
	}
}

func (c *Cache) fromRemote(ctx context.Context) (*creator.Snapshot, bool) {
	if c.remote == nil {
		return nil, false
	}
	data, err := c.remote.Get(ctx, snapshotKey)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read snapshot mirror", zap.Error(err))
		}
		return nil, false
	}
	snap, err := unmarshalSnapshot(data, time.Now())
	if err != nil {
		c.logger.Warn("Failed to parse snapshot mirror", zap.Error(err))
		return nil, false
	}
	return snap, true
}

func (c *Cache) fromStore(ctx context.Context) (*creator.Snapshot, error) {
	records, err := c.store.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return creator.NewSnapshot(records, time.Now()), nil
}

// mirror writes the snapshot to the distributed tier without blocking the
// caller. Failures are logged and counted, never surfaced.
func (c *Cache) mirror(snap *creator.Snapshot) {
	if c.remote == nil {
		return
	}
	data, err := marshalSnapshot(snap)
	if err != nil {
		c.logger.Warn("Failed to serialize snapshot mirror", zap.Error(err))
		return
	}
	ttl := int64(c.cfg.RemoteTTL.Seconds())
	c.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := c.remote.SetWithTTL(ctx, snapshotKey, data, ttl); err != nil {
			c.incFailure("snapshot")
			c.logger.Warn("Failed to write snapshot mirror", zap.Error(err))
		}
	})
}

func (c *Cache) incResolution(source string) {
	if c.resolutions != nil {
		c.resolutions.WithLabelValues(source).Inc()
	}
}

func (c *Cache) incFailure(kind string) {
	if c.failures != nil {
		c.failures.WithLabelValues(kind).Inc()
	}
}
