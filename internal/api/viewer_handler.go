package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/internal/viewer"
)

// OpenViewer opens a presentation in the viewer session
func (h *Handlers) OpenViewer(c *fiber.Ctx) error {
	if err := h.catalog.Refresh(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentations",
			"details": err.Error(),
		})
	}

	if err := h.session.Open(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Presentation not found",
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Failed to open presentation",
			"details": err.Error(),
		})
	}

	return c.JSON(h.session.Snapshot())
}

// GetViewer returns the current viewer state
func (h *Handlers) GetViewer(c *fiber.Ctx) error {
	return c.JSON(h.session.Snapshot())
}

// ViewerNextPage advances the viewer one page
func (h *Handlers) ViewerNextPage(c *fiber.Ctx) error {
	return h.viewerTransition(c, h.session.NextPage())
}

// ViewerPrevPage moves the viewer back one page
func (h *Handlers) ViewerPrevPage(c *fiber.Ctx) error {
	return h.viewerTransition(c, h.session.PrevPage())
}

// ViewerGotoPage jumps the viewer to a specific page
func (h *Handlers) ViewerGotoPage(c *fiber.Ctx) error {
	n, err := strconv.Atoi(c.Params("page"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid page number",
		})
	}
	return h.viewerTransition(c, h.session.GotoPage(n))
}

// ViewerZoomIn increases the viewer zoom one step
func (h *Handlers) ViewerZoomIn(c *fiber.Ctx) error {
	return h.viewerTransition(c, h.session.ZoomIn())
}

// ViewerZoomOut decreases the viewer zoom one step
func (h *Handlers) ViewerZoomOut(c *fiber.Ctx) error {
	return h.viewerTransition(c, h.session.ZoomOut())
}

// CloseViewer resets the viewer session
func (h *Handlers) CloseViewer(c *fiber.Ctx) error {
	h.session.Close()
	return c.JSON(h.session.Snapshot())
}

// viewerTransition maps a state machine result onto the response. Render
// failures are reported alongside the (already advanced) state; rejected
// requests return the unchanged state with a client error status.
func (h *Handlers) viewerTransition(c *fiber.Ctx, err error) error {
	snap := h.session.Snapshot()
	if errors.Is(err, viewer.ErrNotOpen) || errors.Is(err, viewer.ErrPageOutOfRange) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  err.Error(),
			"viewer": snap,
		})
	}
	if err != nil {
		// Render failure: the page and zoom keep the requested values
		return c.JSON(fiber.Map{
			"renderError": err.Error(),
			"viewer":      snap,
		})
	}
	return c.JSON(snap)
}
