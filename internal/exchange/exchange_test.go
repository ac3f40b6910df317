package exchange

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/pkg/record"
)

// remoteLike reuses the in-process store but reports a remote backend so
// the import path that regenerates ids can be exercised without a
// database.
type remoteLike struct {
	*store.LocalStore
}

func (r *remoteLike) Backend() string { return "remote" }

func sampleRecords(base time.Time) []*record.Record {
	return []*record.Record{
		{
			ID:        "p-1",
			Title:     "Deck one",
			FileName:  "one.pdf",
			FileType:  "pdf",
			FileSize:  2048,
			CreatedAt: base,
			UpdatedAt: base,
			Views:     7,
		},
		{
			ID:        "p-2",
			Title:     "Deck two",
			FileName:  "two.pptx",
			FileType:  "pptx",
			FileSize:  4096,
			CreatedAt: base.Add(-time.Hour),
			UpdatedAt: base.Add(-time.Hour),
			Views:     3,
		},
	}
}

func TestExport_Shape(t *testing.T) {
	stats := &record.Stats{TotalPresentations: 2, TotalViews: 10, LastUpdated: time.Now()}
	data, err := Export(sampleRecords(time.Now()), stats)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "presentations")
	assert.Contains(t, doc, "stats")
	assert.Contains(t, doc, "exportDate")
	assert.Contains(t, doc, "version")
}

func TestImport_LocalReplacesWholesale(t *testing.T) {
	s := store.NewLocalStore(store.NewSimpleMetricsCollector())
	ctx := context.Background()

	// The seeded demo records must be gone after import
	data, err := Export(sampleRecords(time.Now()), &record.Stats{})
	require.NoError(t, err)

	result, err := Import(ctx, data, s)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Failed)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{"p-1", "p-2"}, ids, "local import keeps the original ids")
}

func TestImport_RemoteRegeneratesIDs(t *testing.T) {
	s := &remoteLike{store.NewEmptyLocalStore(store.NewSimpleMetricsCollector())}
	ctx := context.Background()

	data, err := Export(sampleRecords(time.Now()), &record.Stats{})
	require.NoError(t, err)

	result, err := Import(ctx, data, s)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEqual(t, "p-1", rec.ID)
		assert.NotEqual(t, "p-2", rec.ID)
	}
}

func TestImport_CountsPartialFailures(t *testing.T) {
	s := store.NewEmptyLocalStore(store.NewSimpleMetricsCollector())
	ctx := context.Background()

	records := sampleRecords(time.Now())
	records[1].Title = "" // fails validation at the store

	data, err := Export(records, &record.Stats{})
	require.NoError(t, err)

	result, err := Import(ctx, data, s)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
}

func TestImport_RejectsInvalidDocuments(t *testing.T) {
	s := store.NewEmptyLocalStore(store.NewSimpleMetricsCollector())
	ctx := context.Background()

	_, err := Import(ctx, []byte("not json"), s)
	assert.Error(t, err)

	_, err = Import(ctx, []byte(`{"stats": {}}`), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing presentations")
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := store.NewEmptyLocalStore(store.NewSimpleMetricsCollector())
	ctx := context.Background()
	for _, rec := range sampleRecords(time.Now().UTC()) {
		_, err := src.Create(ctx, rec)
		require.NoError(t, err)
	}

	records, err := src.List(ctx)
	require.NoError(t, err)
	stats, err := src.RecomputeStats(ctx)
	require.NoError(t, err)

	data, err := Export(records, stats)
	require.NoError(t, err)

	dst := store.NewEmptyLocalStore(store.NewSimpleMetricsCollector())
	result, err := Import(ctx, data, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	restored, err := dst.List(ctx)
	require.NoError(t, err)
	require.Len(t, restored, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, restored[i].ID)
		assert.Equal(t, records[i].Title, restored[i].Title)
		assert.Equal(t, records[i].Views, restored[i].Views)
	}
}
