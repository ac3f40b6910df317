package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFEngine_RejectsNonPDF(t *testing.T) {
	engine := NewPDFEngine()
	ctx := context.Background()

	_, err := engine.Parse(ctx, []byte("plain text"))
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)

	_, err = engine.Parse(ctx, nil)
	assert.Error(t, err)
}

func TestPDFEngine_RejectsTruncatedPDF(t *testing.T) {
	engine := NewPDFEngine()

	// Valid magic but no document body
	_, err := engine.Parse(context.Background(), []byte("%PDF-1.4\n"))
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestMemorySurface(t *testing.T) {
	surface := NewMemorySurface()

	require.NoError(t, surface.DrawPage(2, 1.25, "slide text"))
	require.NoError(t, surface.DrawPage(3, 1.5, "next slide"))

	page, scale, content := surface.Last()
	assert.Equal(t, 3, page)
	assert.Equal(t, 1.5, scale)
	assert.Equal(t, "next slide", content)
	assert.Equal(t, 2, surface.Draws())
}
