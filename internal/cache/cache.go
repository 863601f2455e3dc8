package cache

import (
	"context"
	"time"

	"brewtab/internal/catalog"
)

// SnapshotCache shares the latest catalog snapshot across process restarts
// and terminals, so a cold start can serve the floor before the source is
// reachable.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*catalog.Snapshot, bool, error)
	Set(ctx context.Context, key string, snap *catalog.Snapshot, ttl time.Duration) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) (*catalog.Snapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ *catalog.Snapshot, _ time.Duration) error {
	return nil
}
