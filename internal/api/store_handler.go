package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/slidevault/slidevault/internal/store"
)

// StoreHandler provides HTTP endpoints for store monitoring and control
type StoreHandler struct {
	store   store.Store
	metrics *store.SimpleMetricsCollector
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(s store.Store, metrics *store.SimpleMetricsCollector) *StoreHandler {
	return &StoreHandler{
		store:   s,
		metrics: metrics,
	}
}

// GetStoreMetrics returns detailed performance metrics
func (h *StoreHandler) GetStoreMetrics(c *fiber.Ctx) error {
	summary := h.metrics.GetMetricsSummary()
	return c.JSON(fiber.Map{
		"metrics_summary":  summary,
		"total_operations": len(h.metrics.GetMetrics()),
	})
}

// GetStoreHealth checks the health of the configured backend
func (h *StoreHandler) GetStoreHealth(c *fiber.Ctx) error {
	if err := h.store.Health(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"healthy": false,
			"backend": h.store.Backend(),
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"healthy": true,
		"backend": h.store.Backend(),
	})
}

// ClearMetrics clears all collected metrics (useful for testing)
func (h *StoreHandler) ClearMetrics(c *fiber.Ctx) error {
	h.metrics.ClearMetrics()
	return c.JSON(fiber.Map{
		"message": "Metrics cleared successfully",
	})
}
