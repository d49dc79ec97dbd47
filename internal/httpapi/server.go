// Package httpapi is the JSON transport the review UI talks to.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ByteReview/internal/confirm"
	"ByteReview/internal/usecase"
)

// SessionHeader carries the editor session that scopes confirmation flows.
const SessionHeader = "X-Session-ID"

// Deps wires the use cases into the HTTP layer.
type Deps struct {
	Review  *usecase.ReviewService
	Flows   *confirm.Machine
	Logger  *slog.Logger
	Metrics bool
}

// Handler serves the review API.
type Handler struct {
	review *usecase.ReviewService
	flows  *confirm.Machine
	logger *slog.Logger
}

// New builds the echo instance with all routes registered.
func New(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{review: deps.Review, flows: deps.Flows, logger: logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	e.GET("/health", h.health)
	if deps.Metrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api/v1")
	api.GET("/bytes", h.listBytes)
	api.GET("/bytes/:id", h.getByte)
	api.GET("/facets", h.facetOptions)
	api.GET("/bytes/:id/flows/:flow", h.flowState)
	api.POST("/bytes/:id/flows/:flow", h.fireFlow)

	return e
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
