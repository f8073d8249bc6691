package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/auth"
	"example.com/ai-tour-quote/backend/internal/models"
	"example.com/ai-tour-quote/backend/internal/pricing"
	"example.com/ai-tour-quote/backend/internal/quote"
	"example.com/ai-tour-quote/backend/internal/repository"
	"example.com/ai-tour-quote/backend/internal/server"
)

var testUserID = uuid.MustParse("7d4f3c2a-1b6e-4c8d-9a0f-2e5b7c9d1a3f")

type fakePrices struct {
	snapshot  pricing.Snapshot
	err       error
	refreshes int
}

func (f *fakePrices) Fetch(context.Context) (pricing.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakePrices) Refresh(ctx context.Context) (pricing.Snapshot, error) {
	f.refreshes++
	return f.Fetch(ctx)
}

type fakeQuotes struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]models.SavedQuote
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{quotes: make(map[uuid.UUID]models.SavedQuote)}
}

func (f *fakeQuotes) Create(_ context.Context, userID uuid.UUID, input repository.QuoteInput) (models.SavedQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	saved := models.SavedQuote{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         input.Title,
		PriceVersion:  input.PriceVersion,
		Lines:         input.Lines,
		Params:        input.Params,
		Result:        input.Result,
		TotalFixedEUR: input.TotalFixedEUR,
		SharedCostEUR: input.SharedCostEUR,
		MissCount:     input.MissCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.quotes[saved.ID] = saved
	return saved, nil
}

func (f *fakeQuotes) GetByID(_ context.Context, userID, id uuid.UUID) (models.SavedQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	saved, ok := f.quotes[id]
	if !ok || saved.UserID != userID {
		return models.SavedQuote{}, repository.ErrNotFound
	}
	return saved, nil
}

func (f *fakeQuotes) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.SavedQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.SavedQuote, 0)
	for _, saved := range f.quotes {
		if saved.UserID == userID {
			out = append(out, saved)
		}
	}
	if offset >= len(out) {
		return []models.SavedQuote{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeQuotes) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	quotes, err := f.List(ctx, userID, 1<<30, 0)
	return len(quotes), err
}

func (f *fakeQuotes) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	saved, ok := f.quotes[id]
	if !ok || saved.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.quotes, id)
	return nil
}

func testSnapshot(shared, daily []pricing.CostItem) pricing.Snapshot {
	entries := []pricing.PriceEntry{
		{Keyword: "六菜一湯", UnitPrice: decimal.NewFromInt(18), Category: pricing.CategoryMeal},
		{Keyword: "羅浮宮", UnitPrice: decimal.NewFromInt(22), Category: pricing.CategoryTicket},
		{Keyword: "塞納河遊船", UnitPrice: decimal.NewFromInt(15), Category: pricing.CategoryTicket},
		{Keyword: "米其林", UnitPrice: decimal.NewFromInt(52), Category: pricing.CategoryMeal},
	}
	return pricing.NewSnapshot("test", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), entries, shared, daily)
}

func testDefaults() quote.Params {
	return quote.Params{
		ExchangeRate:    decimal.NewFromInt(35),
		BaseAirfare:     decimal.NewFromInt(32000),
		AirfareTax:      decimal.NewFromInt(7500),
		DailyIncidental: decimal.NewFromInt(550),
		TargetProfit:    decimal.NewFromInt(8000),
		TaxMarkup:       decimal.RequireFromString("1.05"),
		PaxTiers:        []int{16},
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = server.NewValidator()
	return e
}

func withUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(auth.ContextUserIDKey, testUserID)
		return next(c)
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}
