package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/record"
)

// LocalStore is the in-process demo backend. It keeps records in an
// ordered slice for the lifetime of the process and is documented as
// non-persistent. Operations never hit I/O and only fail on missing ids.
type LocalStore struct {
	mu               sync.RWMutex
	records          []*record.Record
	stats            record.Stats
	metricsCollector MetricsCollector
}

// NewLocalStore creates a demo store seeded with sample records
func NewLocalStore(metrics MetricsCollector) *LocalStore {
	s := &LocalStore{metricsCollector: metrics}
	s.seedDemoData()
	return s
}

// NewEmptyLocalStore creates a demo store without seed records
func NewEmptyLocalStore(metrics MetricsCollector) *LocalStore {
	return &LocalStore{metricsCollector: metrics}
}

func (s *LocalStore) seedDemoData() {
	now := time.Now().UTC()
	s.records = []*record.Record{
		{
			ID:          "demo-1",
			Title:       "Demo presentation 1",
			Description: "Sample presentation shown in demo mode",
			FileName:    "demo1.pdf",
			FileType:    "pdf",
			FileSize:    245760,
			CreatedAt:   now,
			UpdatedAt:   now,
			Views:       15,
			IsPublic:    true,
			Tags:        datatypes.JSONSlice[string]{"demo", "sample", "presentation"},
		},
		{
			ID:          "demo-2",
			Title:       "Business plan deck",
			Description: "Showcase of the catalog features",
			FileName:    "business.pdf",
			FileType:    "pdf",
			FileSize:    384256,
			CreatedAt:   now.Add(-24 * time.Hour),
			UpdatedAt:   now.Add(-24 * time.Hour),
			Views:       8,
			IsPublic:    true,
			Tags:        datatypes.JSONSlice[string]{"business", "plan", "strategy"},
		},
	}
	s.recomputeLocked()
}

// Backend names the implementation
func (s *LocalStore) Backend() string { return "local" }

// Create appends a new record
func (s *LocalStore) Create(ctx context.Context, rec *record.Record) (string, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for _, existing := range s.records {
		if existing.ID == rec.ID {
			err = &WriteError{Op: "create", Err: fmt.Errorf("duplicate record id: %s", rec.ID)}
			break
		}
	}
	if err == nil {
		if verr := rec.Validate(); verr != nil {
			err = &WriteError{Op: "create", Err: verr}
		}
	}
	if err == nil {
		s.records = append(s.records, cloneRecord(rec))
		s.recomputeLocked()
	}

	s.recordMetric("create", start, err == nil, err)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// List returns all records, newest first
func (s *LocalStore) List(ctx context.Context) ([]*record.Record, error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*record.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	s.recordMetric("list", start, true, nil)
	return out, nil
}

// Get returns a record by id
func (s *LocalStore) Get(ctx context.Context, id string) (*record.Record, error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ID == id {
			s.recordMetric("get", start, true, nil)
			return cloneRecord(rec), nil
		}
	}

	s.recordMetric("get", start, false, ErrNotFound)
	return nil, ErrNotFound
}

// IncrementViews bumps the view counter. Single mutator, no atomicity
// concerns beyond the mutex shared with the HTTP surface.
func (s *LocalStore) IncrementViews(ctx context.Context, id string) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID == id {
			rec.Views++
			rec.Touch()
			s.recomputeLocked()
			s.recordMetric("increment_views", start, true, nil)
			return nil
		}
	}

	s.recordMetric("increment_views", start, false, ErrNotFound)
	return ErrNotFound
}

// Delete removes a record. Missing ids are ignored.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	s.recomputeLocked()

	s.recordMetric("delete", start, true, nil)
	return nil
}

// RecomputeStats rebuilds the aggregate totals by a full scan
func (s *LocalStore) RecomputeStats(ctx context.Context) (*record.Stats, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.recomputeLocked()
	stats := s.stats

	s.recordMetric("recompute_stats", start, true, nil)
	return &stats, nil
}

// Clear removes every record
func (s *LocalStore) Clear(ctx context.Context) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.recomputeLocked()

	s.recordMetric("clear", start, true, nil)
	return nil
}

// Health always succeeds for the in-process store
func (s *LocalStore) Health(ctx context.Context) error {
	return nil
}

// recomputeLocked rebuilds stats from the held records. Callers must hold
// the write lock.
func (s *LocalStore) recomputeLocked() {
	var views int64
	for _, rec := range s.records {
		views += rec.Views
	}
	s.stats = record.Stats{
		TotalPresentations: int64(len(s.records)),
		TotalViews:         views,
		LastUpdated:        time.Now().UTC(),
	}
}

func (s *LocalStore) recordMetric(operation string, start time.Time, success bool, err error) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordMetric(StoreMetrics{
			OperationType: operation,
			Duration:      time.Since(start).Nanoseconds(),
			Success:       success,
			Backend:       s.Backend(),
			Error:         err,
		})
	}
	if err != nil {
		logger := logging.GetStoreLogger(operation, s.Backend())
		logger.Debug().Err(err).Msg("Store operation failed")
	}
}

// cloneRecord copies a record so store internals never alias caller state
func cloneRecord(rec *record.Record) *record.Record {
	cloned := *rec
	if rec.Tags != nil {
		cloned.Tags = append(datatypes.JSONSlice[string]{}, rec.Tags...)
	}
	return &cloned
}
