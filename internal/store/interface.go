package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/slidevault/slidevault/pkg/record"
)

// ErrNotFound is returned when an operation targets a record id that does
// not exist in the backing store.
var ErrNotFound = errors.New("record not found")

// WriteError wraps a backend failure during a mutating operation
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError wraps a backend failure during a read operation
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("store read failed (%s): %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Store defines the interface for presentation metadata storage backends.
// One implementation is selected at startup and fixed for the process
// lifetime; callers never branch on the backend kind.
type Store interface {
	// Create persists a new record and returns its id
	Create(ctx context.Context, rec *record.Record) (string, error)
	// List returns all records ordered by creation time, newest first
	List(ctx context.Context) ([]*record.Record, error)
	// Get returns a single record by id
	Get(ctx context.Context, id string) (*record.Record, error)
	// IncrementViews bumps the view counter for a record. Remote
	// implementations must apply the increment atomically because the
	// backend is shared across client instances.
	IncrementViews(ctx context.Context, id string) error
	// Delete removes a record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// RecomputeStats rebuilds the aggregate totals by a full scan and
	// writes them back, so partial failures self-heal on the next call.
	RecomputeStats(ctx context.Context) (*record.Stats, error)
	// Clear removes every record
	Clear(ctx context.Context) error
	// Health reports whether the backend is reachable
	Health(ctx context.Context) error
	// Backend names the implementation for logging and monitoring
	Backend() string
}

// StoreMetrics provides telemetry for store operations
type StoreMetrics struct {
	OperationType string
	Duration      int64 // nanoseconds
	Success       bool
	Backend       string
	Error         error
}

// MetricsCollector receives store operation metrics
type MetricsCollector interface {
	RecordMetric(metric StoreMetrics)
}
