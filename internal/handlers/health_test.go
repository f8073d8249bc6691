package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"example.com/ai-tour-quote/backend/internal/handlers"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// TestHealthWithoutChecks проверяет статус ok без зависимостей.
func TestHealthWithoutChecks(t *testing.T) {
	e := newTestEcho()
	e.GET("/health", handlers.NewHealthHandler(nil).Health)

	rec := doJSON(t, e, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusOK)
}

// TestHealthDegraded проверяет 503, если одна из зависимостей не отвечает.
func TestHealthDegraded(t *testing.T) {
	e := newTestEcho()
	e.GET("/health", handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	}).Health)

	rec := doJSON(t, e, http.MethodGet, "/health", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	var response handlers.HealthResponse
	decodeJSON(t, rec, &response)
	if response.Status != "degraded" || response.Checks["redis"] != "down" || response.Checks["postgres"] != "up" {
		t.Fatalf("unexpected health response: %+v", response)
	}
}
