package health

import (
	"context"

	"github.com/fanlore-io/creatordex/internal/domain/creator"
)

// StorePinger checks document-store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotHolder exposes the in-process snapshot entry without resolving it.
type SnapshotHolder interface {
	Current() *creator.Snapshot
}
