package delivery

import (
	"context"
	"time"

	"silentping/pkg/mention"
)

type Config struct {
	Enabled bool

	// SendDelay is the fixed pause between consecutive requests. Zero means
	// no pacing.
	SendDelay time.Duration

	// StatusMax / StatusTTL bound the in-memory report map.
	StatusMax int
	StatusTTL time.Duration
}

type job struct {
	id       string
	name     string
	payloads []mention.Payload
}

// IndexedError records one failed payload by its position in the job.
type IndexedError struct {
	Index int
	Err   string
}

// Report is the outcome of one job. OK is true only when every payload was
// delivered.
type Report struct {
	ID    string
	Name  string
	Total int
	Sent  int

	OK     bool
	Errors []IndexedError

	CreatedAt time.Time
	StartedAt time.Time
	DoneAt    time.Time
	Running   bool
}

// Record is one delivery-log row, consumed by the storage layer.
type Record struct {
	At       time.Time
	Job      string
	Name     string
	Index    int
	ChatID   int64
	Chat     string
	Mentions int
	TextLen  int
	OK       bool
	Err      string
}

// Recorder persists per-payload outcomes. Implemented by internal/storage.
type Recorder interface {
	RecordDelivery(ctx context.Context, rec Record) error
}
