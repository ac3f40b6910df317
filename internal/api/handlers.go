package api

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/slidevault/slidevault/internal/catalog"
	"github.com/slidevault/slidevault/internal/config"
	"github.com/slidevault/slidevault/internal/exchange"
	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/internal/upload"
	"github.com/slidevault/slidevault/internal/viewer"
	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/share"
)

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	store        store.Store
	catalog      *catalog.Catalog
	pipeline     *upload.Pipeline
	session      *viewer.Session
	share        *share.Helper
	settings     *config.Settings
	settingsPath string
}

// NewHandlers creates a new handlers instance
func NewHandlers(s store.Store, c *catalog.Catalog, p *upload.Pipeline, sess *viewer.Session, sh *share.Helper, settings *config.Settings, settingsPath string) *Handlers {
	return &Handlers{
		store:        s,
		catalog:      c,
		pipeline:     p,
		session:      sess,
		share:        sh,
		settings:     settings,
		settingsPath: settingsPath,
	}
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "slidevault",
		"backend":   h.store.Backend(),
		"timestamp": time.Now().UTC(),
	})
}

// ListPresentations returns the catalog view for the given filter and
// sort key
func (h *Handlers) ListPresentations(c *fiber.Ctx) error {
	if err := h.catalog.Refresh(c.Context()); err != nil {
		logger := logging.GetLogger("api")
		logger.Error().Err(err).Msg("Catalog refresh failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentations",
			"details": err.Error(),
		})
	}

	filter := c.Query("q")
	sortKey := catalog.SortKey(c.Query("sort", string(catalog.SortByDate)))

	records := h.catalog.View(filter, sortKey)
	return c.JSON(fiber.Map{
		"presentations": records,
		"count":         len(records),
	})
}

// GetPresentation returns a single record by id
func (h *Handlers) GetPresentation(c *fiber.Ctx) error {
	rec, err := h.store.Get(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Presentation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentation",
			"details": err.Error(),
		})
	}
	return c.JSON(rec)
}

// UploadPresentation handles a multipart presentation upload
func (h *Handlers) UploadPresentation(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "No file uploaded or invalid file format",
			"details": err.Error(),
		})
	}

	// Cheap checks before the payload is read
	if err := upload.Validate(file.Filename, file.Size); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to process uploaded file",
			"details": err.Error(),
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to read file content",
			"details": err.Error(),
		})
	}

	isPublic, _ := strconv.ParseBool(c.FormValue("isPublic", "true"))

	rec, err := h.pipeline.Submit(
		c.Context(),
		file.Filename,
		data,
		c.FormValue("title"),
		c.FormValue("description"),
		c.FormValue("tags"),
		isPublic,
	)
	if err != nil {
		status := fiber.StatusBadRequest
		var werr *store.WriteError
		if errors.As(err, &werr) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	logger := logging.GetLogger("api")
	logger.Info().
		Str("id", rec.ID).
		Str("file", rec.FileName).
		Int64("size", rec.FileSize).
		Msg("Presentation uploaded")

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// DeletePresentation removes a record and refreshes the derived state
func (h *Handlers) DeletePresentation(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.Delete(c.Context(), id); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to delete presentation",
			"details": err.Error(),
		})
	}

	logger := logging.GetLogger("api")
	if err := h.catalog.Refresh(c.Context()); err != nil {
		logger.Warn().Err(err).Msg("Catalog refresh after delete failed")
	}
	if _, err := h.store.RecomputeStats(c.Context()); err != nil {
		logger.Warn().Err(err).Msg("Stats recomputation after delete failed")
	}

	return c.JSON(fiber.Map{
		"deleted": id,
	})
}

// ClearPresentations removes every record, matching the settings page's
// clear-all-data action. The viewer session is closed because whatever it
// had open no longer exists.
func (h *Handlers) ClearPresentations(c *fiber.Ctx) error {
	if err := h.store.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to clear presentations",
			"details": err.Error(),
		})
	}

	h.session.Close()

	logger := logging.GetLogger("api")
	if err := h.catalog.Refresh(c.Context()); err != nil {
		logger.Warn().Err(err).Msg("Catalog refresh after clear failed")
	}
	if _, err := h.store.RecomputeStats(c.Context()); err != nil {
		logger.Warn().Err(err).Msg("Stats recomputation after clear failed")
	}

	logger.Info().Msg("All presentations cleared")
	return c.JSON(fiber.Map{
		"cleared": true,
	})
}

// ViewPresentation records a view and returns the updated count
func (h *Handlers) ViewPresentation(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.IncrementViews(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Presentation not found",
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to record view",
			"details": err.Error(),
		})
	}

	rec, err := h.store.Get(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentation",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"id":    id,
		"views": rec.Views,
	})
}

// GetStats returns the recomputed aggregate stats plus catalog summary
// figures
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	stats, err := h.store.RecomputeStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to recompute stats",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"stats":   stats,
		"summary": h.catalog.Summarize(),
	})
}

// SharePresentation returns the canonical link and QR image URL for a
// record
func (h *Handlers) SharePresentation(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := h.store.Get(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Presentation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentation",
			"details": err.Error(),
		})
	}

	link := h.share.LinkFor(id)
	resp := fiber.Map{
		"link":  link,
		"qrUrl": h.share.QRImageURL(link),
		"views": rec.Views,
	}

	// fetch=1 proxies the image through the service, degrading to a
	// placeholder when the external service is down
	if fetch, _ := strconv.ParseBool(c.Query("fetch", "false")); fetch {
		img := h.share.FetchQRImage(c.Context(), link)
		if img.Placeholder != "" {
			resp["qrPlaceholder"] = img.Placeholder
		} else {
			c.Set(fiber.HeaderContentType, img.ContentType)
			return c.Send(img.Data)
		}
	}

	return c.JSON(resp)
}

// ExportData streams the full catalog as a JSON export document
func (h *Handlers) ExportData(c *fiber.Ctx) error {
	records, err := h.store.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load presentations",
			"details": err.Error(),
		})
	}
	stats, err := h.store.RecomputeStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to recompute stats",
			"details": err.Error(),
		})
	}

	data, err := exchange.Export(records, stats)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to serialize export",
			"details": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="presentations-export.json"`)
	return c.Send(data)
}

// ImportData loads an export document into the store
func (h *Handlers) ImportData(c *fiber.Ctx) error {
	result, err := exchange.Import(c.Context(), c.Body(), h.store)
	if err != nil {
		status := fiber.StatusBadRequest
		var werr *store.WriteError
		var rerr *store.ReadError
		if errors.As(err, &werr) || errors.As(err, &rerr) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.catalog.Refresh(c.Context()); err != nil {
		logger := logging.GetLogger("api")
		logger.Warn().Err(err).Msg("Catalog refresh after import failed")
	}

	return c.JSON(result)
}

// GetTheme returns the persisted display preference
func (h *Handlers) GetTheme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"theme": h.settings.Theme,
	})
}

// ToggleTheme flips the display preference and persists it
func (h *Handlers) ToggleTheme(c *fiber.Ctx) error {
	theme := h.settings.ToggleTheme()
	if err := h.settings.Save(h.settingsPath); err != nil {
		logger := logging.GetLogger("api")
		logger.Warn().Err(err).Msg("Failed to persist theme preference")
	}
	return c.JSON(fiber.Map{
		"theme": theme,
	})
}
