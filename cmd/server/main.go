// Package main provides the entry point for the SlideVault server
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/slidevault/slidevault/internal/api"
	"github.com/slidevault/slidevault/internal/catalog"
	"github.com/slidevault/slidevault/internal/config"
	"github.com/slidevault/slidevault/internal/render"
	"github.com/slidevault/slidevault/internal/store"
	"github.com/slidevault/slidevault/internal/upload"
	"github.com/slidevault/slidevault/internal/viewer"
	"github.com/slidevault/slidevault/pkg/logging"
	"github.com/slidevault/slidevault/pkg/share"
)

func main() {
	cfg := config.Load()

	if err := logging.SetupLogger(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SettingsPath).Msg("Failed to load settings")
	}

	// The backend is chosen once here and fixed for the process lifetime
	metricsCollector := store.NewSimpleMetricsCollector()
	var st store.Store
	if cfg.UseLocalStore() {
		st = store.NewLocalStore(metricsCollector)
		log.Info().Msg("Using in-process demo store")
	} else {
		st, err = store.NewRemoteStore(cfg.DSN, metricsCollector)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to remote store")
		}
		log.Info().Msg("Using remote store")
	}

	cat := catalog.New(st)
	pipeline := upload.NewPipeline(st, cat)
	surface := render.NewMemorySurface()
	session := viewer.NewSession(cat, st, render.NewPDFEngine(), surface)
	shareHelper := share.NewHelper(cfg.BaseURL)

	app := fiber.New(fiber.Config{
		AppName:   "SlideVault API",
		BodyLimit: 2 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := api.NewHandlers(st, cat, pipeline, session, shareHelper, settings, cfg.SettingsPath)
	storeHandler := api.NewStoreHandler(st, metricsCollector)

	setupRoutes(app, h, storeHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Starting SlideVault server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// setupRoutes configures all API routes
func setupRoutes(app *fiber.App, h *api.Handlers, storeHandler *api.StoreHandler) {
	// Health check
	app.Get("/health", h.Health)

	// API v1 routes
	v1 := app.Group("/api/v1")

	// Presentation routes
	presentations := v1.Group("/presentations")
	presentations.Get("/", h.ListPresentations)
	presentations.Post("/", h.UploadPresentation)
	presentations.Get("/:id", h.GetPresentation)
	presentations.Delete("/", h.ClearPresentations)
	presentations.Delete("/:id", h.DeletePresentation)
	presentations.Get("/:id/share", h.SharePresentation)
	presentations.Post("/:id/view", h.ViewPresentation)

	// Viewer routes
	view := v1.Group("/viewer")
	view.Get("/", h.GetViewer)
	view.Post("/open/:id", h.OpenViewer)
	view.Post("/next", h.ViewerNextPage)
	view.Post("/prev", h.ViewerPrevPage)
	view.Post("/goto/:page", h.ViewerGotoPage)
	view.Post("/zoom-in", h.ViewerZoomIn)
	view.Post("/zoom-out", h.ViewerZoomOut)
	view.Post("/close", h.CloseViewer)

	// Stats routes
	v1.Get("/stats", h.GetStats)

	// Export/import routes
	v1.Get("/export", h.ExportData)
	v1.Post("/import", h.ImportData)

	// Settings routes
	settings := v1.Group("/settings")
	settings.Get("/theme", h.GetTheme)
	settings.Post("/theme/toggle", h.ToggleTheme)

	// Store monitoring routes
	storeGroup := v1.Group("/store")
	storeGroup.Get("/metrics", storeHandler.GetStoreMetrics)
	storeGroup.Get("/health", storeHandler.GetStoreHealth)
	storeGroup.Delete("/metrics", storeHandler.ClearMetrics)

	// Root redirect
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "SlideVault",
			"version": "0.1.0",
		})
	})
}
