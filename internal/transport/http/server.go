// Package http provides the gateway's operational HTTP server.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vantage-bot/gateway/internal/config"
	"github.com/vantage-bot/gateway/internal/tools"
)

// NewServer creates and configures the ops HTTP server. It only exposes
// health and status endpoints; all chat traffic arrives over Telegram
// long-polling, not HTTP.
func NewServer(cfg *config.Config, registry *tools.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	h := NewHandler(cfg, registry)
	h.RegisterRoutes(e)

	return e
}
