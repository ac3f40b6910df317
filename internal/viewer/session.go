package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slidevault/slidevault/internal/catalog"
	"github.com/slidevault/slidevault/internal/render"
	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/internal/upload"
	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/record"
)

// State identifies the viewer lifecycle phase
type State string

const (
	StateClosed  State = "closed"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Zoom bounds. Zoom moves in fixed steps and clamps at both ends.
const (
	ZoomMin     = 0.5
	ZoomMax     = 3.0
	ZoomStep    = 0.25
	ZoomDefault = 1.0
)

// ErrPageOutOfRange is returned when a page jump targets a page outside
// [1, totalPages]. The displayed page is left unchanged.
var ErrPageOutOfRange = errors.New("page out of range")

// ErrNotOpen is returned for paging or zoom requests while no document is
// ready.
var ErrNotOpen = errors.New("no document is open")

// incrementTimeout bounds the fire-and-forget view increment so a hung
// backend cannot leak goroutines forever.
const incrementTimeout = 10 * time.Second

// Session is the ephemeral per-open-document state machine. One session
// serves one viewer; it is reset on Close and never persisted.
type Session struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	store   store.Store
	engine  render.Engine
	surface render.Surface

	state      State
	openID     string
	payload    []byte
	page       int
	totalPages int
	zoom       float64
	lastErr    error
}

// Snapshot is a point-in-time copy of the session state
type Snapshot struct {
	State      State   `json:"state"`
	OpenID     string  `json:"openId,omitempty"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
	Zoom       float64 `json:"zoom"`
	Error      string  `json:"error,omitempty"`
}

// NewSession creates a closed viewer session
func NewSession(c *catalog.Catalog, s store.Store, engine render.Engine, surface render.Surface) *Session {
	return &Session{
		catalog: c,
		store:   s,
		engine:  engine,
		surface: surface,
		state:   StateClosed,
	}
}

// Open looks up the record and starts loading it. The view increment is
// fire-and-forget: its failure is logged and never blocks or reverts the
// transition. Records without an embedded payload skip parsing and enter
// the ready state immediately with a placeholder page.
func (s *Session) Open(ctx context.Context, id string) error {
	rec, ok := s.catalog.Get(id)
	if !ok {
		s.mu.Lock()
		s.reset()
		s.state = StateFailed
		s.lastErr = store.ErrNotFound
		s.mu.Unlock()
		return store.ErrNotFound
	}

	s.mu.Lock()
	s.reset()
	s.openID = id
	s.state = StateLoading
	s.mu.Unlock()

	go s.incrementViews(id)

	if !rec.HasPayload() {
		s.mu.Lock()
		if s.openID != id || s.state != StateLoading {
			s.mu.Unlock()
			return nil
		}
		s.state = StateReady
		s.page = 1
		s.totalPages = 1
		s.zoom = ZoomDefault
		s.mu.Unlock()
		s.drawPlaceholder(rec)
		return nil
	}

	payload, err := upload.DecodePayload(rec.FileData)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()

	go s.parse(ctx, id, payload)
	return nil
}

// parse runs the asynchronous document parse and reports the completion
// back into the state machine.
func (s *Session) parse(ctx context.Context, id string, payload []byte) {
	totalPages, err := s.engine.Parse(ctx, payload)
	if err != nil {
		s.ParseFailed(id, err)
		return
	}
	s.DocumentParsed(id, totalPages)
}

// DocumentParsed moves a loading session to ready on the first page at
// the default zoom. Completions whose originating id no longer matches
// the open document are discarded; a close or re-open may have raced the
// parse.
func (s *Session) DocumentParsed(id string, totalPages int) {
	s.mu.Lock()
	if s.openID != id || s.state != StateLoading {
		s.mu.Unlock()
		logger := logging.GetLogger("viewer")
		logger.Debug().
			Str("id", id).
			Msg("Discarding stale parse completion")
		return
	}
	s.state = StateReady
	s.page = 1
	s.totalPages = totalPages
	s.zoom = ZoomDefault
	s.mu.Unlock()

	s.renderCurrent()
}

// ParseFailed moves a loading session to the failed state. Stale
// completions are discarded by the same id comparison as DocumentParsed.
func (s *Session) ParseFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openID != id || s.state != StateLoading {
		logger := logging.GetLogger("viewer")
		logger.Debug().
			Str("id", id).
			Msg("Discarding stale parse failure")
		return
	}
	s.state = StateFailed
	s.lastErr = err
}

// NextPage advances one page. At the last page the request is a no-op.
func (s *Session) NextPage() error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.page >= s.totalPages {
		s.mu.Unlock()
		return nil
	}
	s.page++
	s.mu.Unlock()

	return s.renderCurrent()
}

// PrevPage goes back one page. At the first page the request is a no-op.
func (s *Session) PrevPage() error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.page <= 1 {
		s.mu.Unlock()
		return nil
	}
	s.page--
	s.mu.Unlock()

	return s.renderCurrent()
}

// GotoPage jumps to page n. Targets outside [1, totalPages] are rejected
// without touching the displayed page.
func (s *Session) GotoPage(n int) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if n < 1 || n > s.totalPages {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, s.totalPages)
	}
	s.page = n
	s.mu.Unlock()

	return s.renderCurrent()
}

// ZoomIn increases the zoom one step, clamped at the ceiling
func (s *Session) ZoomIn() error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.zoom+ZoomStep > ZoomMax {
		s.mu.Unlock()
		return nil
	}
	s.zoom += ZoomStep
	s.mu.Unlock()

	return s.renderCurrent()
}

// ZoomOut decreases the zoom one step, clamped at the floor
func (s *Session) ZoomOut() error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if s.zoom-ZoomStep < ZoomMin {
		s.mu.Unlock()
		return nil
	}
	s.zoom -= ZoomStep
	s.mu.Unlock()

	return s.renderCurrent()
}

// Close resets the session to the closed state. In-flight parse or render
// completions for the previously open document are discarded when they
// arrive.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Snapshot returns a copy of the current session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		OpenID:     s.openID,
		Page:       s.page,
		TotalPages: s.totalPages,
		Zoom:       s.zoom,
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// reset clears all per-document state. Callers must hold the mutex.
func (s *Session) reset() {
	s.state = StateClosed
	s.openID = ""
	s.payload = nil
	s.page = 0
	s.totalPages = 0
	s.zoom = 0
	s.lastErr = nil
}

// renderCurrent issues a render request for the current page and zoom.
// Failures are reported to the caller but the page and zoom counters keep
// the requested values; the state machine is optimistic about
// renderability.
func (s *Session) renderCurrent() error {
	s.mu.Lock()
	id := s.openID
	payload := s.payload
	page := s.page
	zoom := s.zoom
	state := s.state
	s.mu.Unlock()

	if state != StateReady || payload == nil || s.surface == nil {
		return nil
	}

	if err := s.engine.RenderPage(context.Background(), payload, page, zoom, s.surface); err != nil {
		logger := logging.GetLogger("viewer")
		logger.Warn().
			Err(err).
			Str("id", id).
			Int("page", page).
			Float64("zoom", zoom).
			Msg("Render request failed")
		return err
	}
	return nil
}

// drawPlaceholder renders the stand-in page for demo-seeded records
func (s *Session) drawPlaceholder(rec *record.Record) {
	if s.surface == nil {
		return
	}
	content := fmt.Sprintf("%s\n\nThis is a demo presentation. Files are not stored in demo mode.", rec.Title)
	if err := s.surface.DrawPage(1, ZoomDefault, content); err != nil {
		logger := logging.GetLogger("viewer")
		logger.Warn().
			Err(err).
			Str("id", rec.ID).
			Msg("Placeholder render failed")
	}
}

// incrementViews records a view against the store. Failures are logged
// only; the viewer transition neither waits for nor reverts on them.
func (s *Session) incrementViews(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), incrementTimeout)
	defer cancel()

	if err := s.store.IncrementViews(ctx, id); err != nil {
		logger := logging.GetLogger("viewer")
		logger.Warn().
			Err(err).
			Str("id", id).
			Msg("View increment failed")
	}
}
