package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vantage-bot/gateway/internal/config"
	"github.com/vantage-bot/gateway/internal/tools"
)

// Version is the gateway release version.
const Version = "0.1.0"

// Handler handles ops HTTP requests.
type Handler struct {
	config   *config.Config
	registry *tools.Registry
	started  time.Time
}

// NewHandler creates a new ops handler.
func NewHandler(cfg *config.Config, registry *tools.Registry) *Handler {
	return &Handler{
		config:   cfg,
		registry: registry,
		started:  time.Now(),
	}
}

// RegisterRoutes registers ops routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/status", h.Status)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

// Status reports the running configuration and the registered tool set.
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"model":           h.config.ModelName,
		"default_project": h.config.DefaultProject,
		"tools":           h.registry.Names(),
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	})
}
