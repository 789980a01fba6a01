package storage

import (
	"context"
	"errors"
	"time"

	"silentping/internal/services/delivery"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage. If Enabled is false the store is nil and every
// caller treats that as "no persistence".
type Config struct {
	Enabled     bool
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// Store is the persistence API used by the services.
type Store interface {
	// RecordDelivery appends one delivery-log row. Satisfies
	// delivery.Recorder.
	RecordDelivery(ctx context.Context, rec delivery.Record) error

	// RecentDeliveries returns up to limit rows, newest first.
	RecentDeliveries(ctx context.Context, limit int) ([]delivery.Record, error)

	// PruneDeliveries removes rows older than before; returns rows removed.
	PruneDeliveries(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
