// Package exchange implements the JSON export/import surface for the
// catalog.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/internal/upload"
	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/record"
)

// Version identifies the export document format
const Version = "1.0"

// Document is the export/import envelope
type Document struct {
	Presentations []*record.Record `json:"presentations"`
	Stats         *record.Stats    `json:"stats"`
	ExportDate    time.Time        `json:"exportDate"`
	Version       string           `json:"version"`
}

// Export serializes the record set and stats into an export document
func Export(records []*record.Record, stats *record.Stats) ([]byte, error) {
	doc := Document{
		Presentations: records,
		Stats:         stats,
		ExportDate:    time.Now().UTC(),
		Version:       Version,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Result reports the outcome of an import
type Result struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Import loads an export document into the store. Against the local demo
// store the record set is replaced wholesale; against a remote backend
// each record is re-inserted under a fresh id so imports never collide
// with existing rows. Per-record failures are counted and reported, not
// retried.
func Import(ctx context.Context, data []byte, s store.Store) (*Result, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid import document: %w", err)
	}
	if doc.Presentations == nil {
		return nil, fmt.Errorf("invalid import document: missing presentations")
	}

	logger := logging.GetLogger("exchange")

	if s.Backend() == "local" {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	for _, rec := range doc.Presentations {
		if s.Backend() != "local" {
			// Fresh id to avoid collisions with existing rows
			rec.ID = upload.NewID()
		}
		if _, err := s.Create(ctx, rec); err != nil {
			logger.Warn().Err(err).Str("title", rec.Title).Msg("Record import failed")
			result.Failed++
			continue
		}
		result.Imported++
	}

	if _, err := s.RecomputeStats(ctx); err != nil {
		logger.Warn().Err(err).Msg("Stats recomputation after import failed")
	}

	return result, nil
}
