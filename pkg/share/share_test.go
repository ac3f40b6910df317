package share

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkFor(t *testing.T) {
	h := NewHelper("https://slides.example.com/")

	link := h.LinkFor("p-1")
	assert.Equal(t, "https://slides.example.com#/presentation/p-1", link)

	// Deterministic: same id, same link
	assert.Equal(t, link, h.LinkFor("p-1"))
}

func TestQRImageURL_EscapesLink(t *testing.T) {
	h := NewHelper("https://slides.example.com")

	url := h.QRImageURL(h.LinkFor("p-1"))
	assert.Contains(t, url, DefaultQRService)
	assert.Contains(t, url, "size=150x150")
	assert.NotContains(t, url, "#", "fragment must be query-escaped")
}

func TestFetchQRImage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	h := NewHelper("https://slides.example.com")
	h.qrService = srv.URL

	img := h.FetchQRImage(context.Background(), h.LinkFor("p-1"))
	require.Empty(t, img.Placeholder)
	assert.Equal(t, []byte("png-bytes"), img.Data)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestFetchQRImage_DegradesToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewHelper("https://slides.example.com")
	h.qrService = srv.URL

	img := h.FetchQRImage(context.Background(), h.LinkFor("p-1"))
	assert.Equal(t, PlaceholderText, img.Placeholder)
	assert.Empty(t, img.Data)
}

func TestFetchQRImage_UnreachableService(t *testing.T) {
	h := NewHelper("https://slides.example.com")
	h.qrService = "http://127.0.0.1:1"

	img := h.FetchQRImage(context.Background(), h.LinkFor("p-1"))
	assert.Equal(t, PlaceholderText, img.Placeholder)
}
