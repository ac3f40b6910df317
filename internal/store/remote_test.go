package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/slidevault/slidevault/pkg/record"
)

// newMockStore backs a RemoteStore with a sqlmock connection so the SQL
// it issues can be asserted without a database.
func newMockStore(t *testing.T) (*RemoteStore, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewRemoteStoreWithDB(db, NewSimpleMetricsCollector()), mock
}

func TestRemoteStore_IncrementViewsLocksRowInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	// The increment must read the row under a FOR UPDATE lock and write
	// the bumped counter inside the same transaction, so concurrent
	// clients cannot lose updates.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "presentations" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "file_type", "views"}).
			AddRow("p-1", "Deck", "pdf", int64(7)))
	mock.ExpectExec(`UPDATE "presentations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.IncrementViews(context.Background(), "p-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_IncrementViewsMissingRowRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "presentations" WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := s.IncrementViews(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_RecomputeStatsScansAndWritesBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS count, COALESCE\(SUM\(views\), 0\) AS views FROM "presentations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "views"}).AddRow(int64(3), int64(42)))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "stats" (.+) ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stats, err := s.RecomputeStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPresentations)
	assert.Equal(t, int64(42), stats.TotalViews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_ListOrdersByCreationDescending(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM "presentations" ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "file_type", "created_at"}).
			AddRow("p-2", "Newer deck", "pdf", now).
			AddRow("p-1", "Older deck", "pdf", now.Add(-time.Hour)))

	records, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p-2", records[0].ID)
	assert.Equal(t, "p-1", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_GetMissingRecord(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "presentations" WHERE id = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoteStore_Create(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rec := &record.Record{
		ID:        "p-1",
		Title:     "Deck",
		FileName:  "deck.pdf",
		FileType:  "pdf",
		FileSize:  1024,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "presentations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoteStore_CreateSurfacesBackendFailure(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now().UTC()
	rec := &record.Record{
		ID:        "p-1",
		Title:     "Deck",
		FileName:  "deck.pdf",
		FileType:  "pdf",
		FileSize:  1024,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "presentations"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), rec)
	require.Error(t, err)
	var werr *WriteError
	assert.ErrorAs(t, err, &werr)
}

func TestRemoteStore_Clear(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "presentations"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
