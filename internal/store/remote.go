package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/record"
)

// statsRow is the single aggregate document in the stats table. It is
// always written back from a full scan, never incremented in place, so a
// crash between a record mutation and the stats write self-heals on the
// next recomputation.
type statsRow struct {
	ID                 string    `gorm:"primaryKey"`
	TotalPresentations int64     `gorm:"not null"`
	TotalViews         int64     `gorm:"not null"`
	LastUpdated        time.Time `gorm:"not null"`
}

func (statsRow) TableName() string { return "stats" }

const globalStatsID = "global"

// RemoteStore implements Store against a shared PostgreSQL database.
// Failures surface to the caller; there are no silent retries.
type RemoteStore struct {
	db               *gorm.DB
	metricsCollector MetricsCollector
}

// NewRemoteStore connects to the database described by dsn and prepares
// the presentations and stats tables.
func NewRemoteStore(dsn string, metrics MetricsCollector) (*RemoteStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&record.Record{}, &statsRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &RemoteStore{
		db:               db,
		metricsCollector: metrics,
	}, nil
}

// NewRemoteStoreWithDB wraps an existing gorm connection. Used by tests.
func NewRemoteStoreWithDB(db *gorm.DB, metrics MetricsCollector) *RemoteStore {
	return &RemoteStore{db: db, metricsCollector: metrics}
}

// Backend names the implementation
func (s *RemoteStore) Backend() string { return "remote" }

// Create persists a new record
func (s *RemoteStore) Create(ctx context.Context, rec *record.Record) (string, error) {
	start := time.Now()

	err := rec.Validate()
	if err == nil {
		err = s.db.WithContext(ctx).Create(rec).Error
	}

	s.recordMetric("create", start, err == nil, err)
	if err != nil {
		return "", &WriteError{Op: "create", Err: err}
	}
	return rec.ID, nil
}

// List returns all records ordered by creation time, newest first
func (s *RemoteStore) List(ctx context.Context) ([]*record.Record, error) {
	start := time.Now()

	var records []*record.Record
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error

	s.recordMetric("list", start, err == nil, err)
	if err != nil {
		return nil, &ReadError{Op: "list", Err: err}
	}
	return records, nil
}

// Get returns a record by id
func (s *RemoteStore) Get(ctx context.Context, id string) (*record.Record, error) {
	start := time.Now()

	var rec record.Record
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error

	s.recordMetric("get", start, err == nil, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ReadError{Op: "get", Err: err}
	}
	return &rec, nil
}

// IncrementViews applies an atomic read-modify-write on the view counter.
// The backend is shared across client instances, so the increment runs in
// a transaction with the row locked to avoid lost updates.
func (s *RemoteStore) IncrementViews(ctx context.Context, id string) error {
	start := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec record.Record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&rec).Updates(map[string]interface{}{
			"views":      rec.Views + 1,
			"updated_at": time.Now().UTC(),
		}).Error
	})

	s.recordMetric("increment_views", start, err == nil, err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return &WriteError{Op: "increment_views", Err: err}
	}
	return nil
}

// Delete removes a record. Deleting a missing id is not an error.
func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	start := time.Now()

	err := s.db.WithContext(ctx).Delete(&record.Record{}, "id = ?", id).Error

	s.recordMetric("delete", start, err == nil, err)
	if err != nil {
		return &WriteError{Op: "delete", Err: err}
	}
	return nil
}

// RecomputeStats rebuilds the aggregate totals with a full collection scan
// and writes them back wholesale.
func (s *RemoteStore) RecomputeStats(ctx context.Context) (*record.Stats, error) {
	start := time.Now()

	var totals struct {
		Count int64
		Views int64
	}
	err := s.db.WithContext(ctx).
		Model(&record.Record{}).
		Select("COUNT(*) AS count, COALESCE(SUM(views), 0) AS views").
		Scan(&totals).Error

	var stats *record.Stats
	if err == nil {
		row := statsRow{
			ID:                 globalStatsID,
			TotalPresentations: totals.Count,
			TotalViews:         totals.Views,
			LastUpdated:        time.Now().UTC(),
		}
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&row).Error
		if err == nil {
			stats = &record.Stats{
				TotalPresentations: row.TotalPresentations,
				TotalViews:         row.TotalViews,
				LastUpdated:        row.LastUpdated,
			}
		}
	}

	s.recordMetric("recompute_stats", start, err == nil, err)
	if err != nil {
		return nil, &WriteError{Op: "recompute_stats", Err: err}
	}
	return stats, nil
}

// Clear removes every record
func (s *RemoteStore) Clear(ctx context.Context) error {
	start := time.Now()

	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&record.Record{}).Error

	s.recordMetric("clear", start, err == nil, err)
	if err != nil {
		return &WriteError{Op: "clear", Err: err}
	}
	return nil
}

// Health pings the underlying database connection
func (s *RemoteStore) Health(ctx context.Context) error {
	start := time.Now()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}

	s.recordMetric("health", start, err == nil, err)
	return err
}

func (s *RemoteStore) recordMetric(operation string, start time.Time, success bool, err error) {
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
