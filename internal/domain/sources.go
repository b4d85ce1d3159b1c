package domain

import "context"

// SnapshotSource yields current market snapshots. Implementations live in the
// platform layer (REST polling, websocket feed); the detection core only ever
// sees the resulting slice and tolerates an empty one.
type SnapshotSource interface {
	Snapshots(ctx context.Context, category string, limit int) ([]Snapshot, error)
}

// GasPriceSource returns the current network fee price in gwei. The core does
// not validate the range; it only feeds the value into cost estimation.
type GasPriceSource interface {
	GasPriceGwei(ctx context.Context) (float64, error)
}

// SnapshotCache caches the latest snapshot per market.
type SnapshotCache interface {
	Set(ctx context.Context, snap Snapshot) error
	SetBatch(ctx context.Context, snaps []Snapshot) error
	Get(ctx context.Context, marketID string) (Snapshot, error)
}

// SignalBus is a lightweight pub/sub channel for detection events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ArchiveWriter persists opportunity batches to object storage.
type ArchiveWriter interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
}
