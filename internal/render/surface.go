package render

import "sync"

// MemorySurface keeps the most recently drawn page in memory. It backs
// the HTTP viewer surface and the package tests.
type MemorySurface struct {
	mu      sync.Mutex
	page    int
	scale   float64
	content string
	draws   int
}

// NewMemorySurface creates an empty surface
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

// DrawPage records the rendered page
func (s *MemorySurface) DrawPage(page int, scale float64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.page = page
	s.scale = scale
	s.content = content
	s.draws++
	return nil
}

// Last returns the most recently drawn page
func (s *MemorySurface) Last() (page int, scale float64, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.scale, s.content
}

// Draws returns how many pages have been drawn
func (s *MemorySurface) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}
