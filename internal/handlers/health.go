package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger: зависимость, доступность которой видна в /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealthHandler создает обработчик проверки состояния.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health возвращает статус сервиса и его зависимостей. Недоступная зависимость дает 503.
func (h *HealthHandler) Health(c echo.Context) error {
	response := HealthResponse{Status: "ok"}
	if len(h.checks) == 0 {
		return c.JSON(http.StatusOK, response)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	response.Checks = make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			slog.Warn("health check failed", slog.String("check", name), slog.String("error", err.Error()))
			response.Checks[name] = "down"
			response.Status = "degraded"
			continue
		}
		response.Checks[name] = "up"
	}

	if response.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	return c.JSON(http.StatusOK, response)
}
