// Package api provides HTTP handlers for the gateway.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leiyu1203/chatgate/config"
	"github.com/leiyu1203/chatgate/ratelimit"
	"github.com/leiyu1203/chatgate/service"
)

// Handler handles HTTP requests.
type Handler struct {
	svc     *service.Service
	limiter *ratelimit.Limiter
	config  *config.Config
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, limiter *ratelimit.Limiter, config *config.Config) *Handler {
	return &Handler{
		svc:     svc,
		limiter: limiter,
		config:  config,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
	e.POST("/api/chat/stream", h.ChatStream)
	e.POST("/api/memory/clear", h.ClearMemory)

	e.GET("/api/models", h.ListModels)
	e.GET("/api/health", h.Health)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// ListModels returns the model allow-list and the default model.
// GET /api/models
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"models":  h.config.AllowedModels,
		"default": h.config.DefaultModel,
	})
}
