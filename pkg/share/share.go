// Package share derives canonical presentation links and QR code images
// for them.
package share

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultQRService is the external image service used to draw QR codes
const DefaultQRService = "https://api.qrserver.com/v1/create-qr-code/"

// PlaceholderText is returned when the QR service is unreachable. The
// helper degrades to text, it never fails.
const PlaceholderText = "QR code unavailable"

// Helper builds share links from a fixed base URL and fetches QR images
type Helper struct {
	baseURL   string
	qrService string
	client    *http.Client
}

// NewHelper creates a sharing helper for the given catalog base URL
func NewHelper(baseURL string) *Helper {
	return &Helper{
		baseURL:   strings.TrimRight(baseURL, "/"),
		qrService: DefaultQRService,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// LinkFor derives the canonical link for a record. Pure string work, no
// network involved.
func (h *Helper) LinkFor(id string) string {
	return fmt.Sprintf("%s#/presentation/%s", h.baseURL, id)
}

// QRImageURL returns the request URL that draws a QR code for the link
func (h *Helper) QRImageURL(link string) string {
	return fmt.Sprintf("%s?size=150x150&data=%s", h.qrService, url.QueryEscape(link))
}

// QRImage is either the fetched image bytes or a textual placeholder
type QRImage struct {
	Data        []byte `json:"-"`
	ContentType string `json:"contentType,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// FetchQRImage requests a QR image for the link from the external
// service. A failed or non-200 response degrades to the placeholder; the
// call never returns an error.
func (h *Helper) FetchQRImage(ctx context.Context, link string) *QRImage {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.QRImageURL(link), nil)
	if err != nil {
		log.Warn().Err(err).Str("link", link).Msg("QR request construction failed")
		return &QRImage{Placeholder: PlaceholderText}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("link", link).Msg("QR service unreachable")
		return &QRImage{Placeholder: PlaceholderText}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("link", link).Msg("QR service returned an error")
		return &QRImage{Placeholder: PlaceholderText}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("link", link).Msg("QR response read failed")
		return &QRImage{Placeholder: PlaceholderText}
	}

	return &QRImage{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
}
