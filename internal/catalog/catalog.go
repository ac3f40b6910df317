package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/pkg/record"
)

// SortKey selects the ordering of a catalog view
type SortKey string

const (
	SortByDate  SortKey = "date" // createdAt descending, the default
	SortByName  SortKey = "name" // title ascending
	SortBySize  SortKey = "size" // fileSize descending
	SortByViews SortKey = "views" // views descending
)

// Catalog holds the in-memory record set after the last successful
// refresh and derives filtered, sorted views of it. The held slice is
// replaced wholesale on refresh; View never mutates it.
type Catalog struct {
	mu      sync.RWMutex
	store   store.Store
	records []*record.Record
}

// New creates an empty catalog backed by the given store
func New(s store.Store) *Catalog {
	return &Catalog{store: s}
}

// Refresh re-pulls the full record set from the store, replacing the held
// slice. Failures propagate and leave the previous slice untouched.
func (c *Catalog) Refresh(ctx context.Context) error {
	records, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	return nil
}

// Len returns the number of held records
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Get returns the held record with the given id, or false
func (c *Catalog) Get(id string) (*record.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// View returns the records matching filter, ordered by key. The
// projection is pure: the same filter and key over an unchanged record
// set always yield the same output, and the held slice is never touched.
//
// The filter is a case-insensitive substring match against title,
// description or any tag; an empty filter matches everything. Ties are
// broken by the stable input order.
func (c *Catalog) View(filter string, key SortKey) []*record.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter))

	out := make([]*record.Record, 0, len(c.records))
	for _, rec := range c.records {
		if needle == "" || matches(rec, needle) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch key {
		case SortByName:
			// Title order ignores case, so "all hands" sorts with the As
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		case SortBySize:
			return out[i].FileSize > out[j].FileSize
		case SortByViews:
			return out[i].Views > out[j].Views
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})

	return out
}

func matches(rec *record.Record, needle string) bool {
	if strings.Contains(strings.ToLower(rec.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Description), needle) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Summary aggregates catalog-wide figures for the stats page
type Summary struct {
	UniqueTags   int              `json:"uniqueTags"`
	AverageViews int64            `json:"averageViews"`
	TopViewed    []*record.Record `json:"topViewed"`
	FileTypes    map[string]int   `json:"fileTypes"`
}

// topViewedCount limits the popular-presentations list
const topViewedCount = 5

// Summarize computes a Summary over the held records
func (c *Catalog) Summarize() *Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tags := make(map[string]bool)
	types := make(map[string]int)
	var totalViews int64

	for _, rec := range c.records {
		for _, tag := range rec.Tags {
			tags[tag] = true
		}
		types[strings.ToUpper(rec.FileType)]++
		totalViews += rec.Views
	}

	var avg int64
	if len(c.records) > 0 {
		avg = totalViews / int64(len(c.records))
	}

	top := make([]*record.Record, len(c.records))
	copy(top, c.records)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Views > top[j].Views
	})
	if len(top) > topViewedCount {
		top = top[:topViewedCount]
	}

	return &Summary{
		UniqueTags:   len(tags),
		AverageViews: avg,
		TopViewed:    top,
		FileTypes:    types,
	}
}
