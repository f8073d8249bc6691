package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

// TestParsePagination проверяет значения по умолчанию и ограничение limit.
func TestParsePagination(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil), httptest.NewRecorder())
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if limit != 200 || offset != 20 {
		t.Fatalf("expected 200/20, got %d/%d", limit, offset)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if limit, offset, _ = parsePagination(c, 50, 200); limit != 50 || offset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", limit, offset)
	}
}

// TestParsePaginationInvalid проверяет ошибки для отрицательных и нечисловых значений.
func TestParsePaginationInvalid(t *testing.T) {
	e := echo.New()

	for _, query := range []string{"/?limit=0", "/?limit=abc", "/?offset=-1"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, query, nil), httptest.NewRecorder())
		if _, _, err := parsePagination(c, 50, 200); err == nil {
			t.Fatalf("expected error for %s", query)
		}
	}
}
