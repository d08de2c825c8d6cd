package keyword

import (
	"context"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// SnapshotProvider resolves the current published-creator snapshot.
type SnapshotProvider interface {
	Get(ctx context.Context) (*creator.Snapshot, error)
}

// KVStore persists serialized indices in the distributed cache.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttlSeconds int64) error
	Del(ctx context.Context, keys ...string) error
}
