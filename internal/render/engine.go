package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Surface is a caller-supplied drawable target for page content
type Surface interface {
	DrawPage(page int, scale float64, content string) error
}

// Engine abstracts the document rendering service. Parse reports the page
// count of a raw document; RenderPage draws one page at a scale factor
// onto the given surface.
type Engine interface {
	Parse(ctx context.Context, data []byte) (totalPages int, err error)
	RenderPage(ctx context.Context, data []byte, page int, scale float64, surface Surface) error
}

// ParseError represents a non-retryable document parsing error
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// PDFEngine renders PDF documents
type PDFEngine struct{}

// NewPDFEngine creates a PDF rendering engine
func NewPDFEngine() *PDFEngine {
	return &PDFEngine{}
}

// Parse opens the document and returns its page count
func (e *PDFEngine) Parse(ctx context.Context, data []byte) (int, error) {
	doc, err := e.open(data)
	if err != nil {
		return 0, err
	}
	return doc.NumPage(), nil
}

// RenderPage draws the text content of one page onto the surface. The
// scale factor is passed through to the surface untouched.
func (e *PDFEngine) RenderPage(ctx context.Context, data []byte, page int, scale float64, surface Surface) error {
	doc, err := e.open(data)
	if err != nil {
		return err
	}

	if page < 1 || page > doc.NumPage() {
		return &ParseError{
			Message: fmt.Sprintf("page %d out of range [1, %d]", page, doc.NumPage()),
		}
	}

	p := doc.Page(page)
	if p.V.IsNull() {
		return &ParseError{
			Message: fmt.Sprintf("page %d is empty", page),
		}
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return &ParseError{
			Message: fmt.Sprintf("failed to extract page %d: %v", page, err),
		}
	}

	return surface.DrawPage(page, scale, text)
}

func (e *PDFEngine) open(data []byte) (*pdf.Reader, error) {
	// Check if it's actually a PDF
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, &ParseError{
			Message: fmt.Sprintf("not a valid PDF file - content starts with: %q", string(data[:min(20, len(data))])),
		}
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{
			Message: fmt.Sprintf("failed to parse PDF: %v", err),
		}
	}
	return doc, nil
}
