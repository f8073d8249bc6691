package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"example.com/ai-tour-quote/backend/internal/ai"
	"example.com/ai-tour-quote/backend/internal/handlers"
	"example.com/ai-tour-quote/backend/internal/itinerary"
	"example.com/ai-tour-quote/backend/internal/models"
	"example.com/ai-tour-quote/backend/internal/repository"
)

type fakeExtractor struct {
	extraction ai.Extraction
	err        error
	calls      int
}

func (f *fakeExtractor) ExtractItinerary(_ context.Context, input ai.ExtractInput) (ai.Extraction, string, []byte, error) {
	f.calls++
	if strings.TrimSpace(input.DocumentText) == "" {
		return ai.Extraction{}, "", nil, ai.ErrEmptyDocument
	}
	if f.err != nil {
		return ai.Extraction{}, "prompt", []byte(`{"error":"upstream"}`), f.err
	}
	return f.extraction, "prompt", []byte(`{"days":[]}`), nil
}

type fakeExtractionLog struct {
	entries []repository.ExtractionLog
}

func (f *fakeExtractionLog) LogRequest(_ context.Context, entry repository.ExtractionLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newItineraryEcho(extractor *fakeExtractor, log *fakeExtractionLog) *echo.Echo {
	e := newTestEcho()
	h := handlers.NewItineraryHandler(extractor, log, "gemini", "gemini-2.0-flash")

	group := e.Group("/itineraries", withUser)
	group.POST("/parse", h.Parse)
	group.POST("/extract", h.Extract)
	return e
}

const tabTable = "天數\t城市\t午餐\t門票\nD1\t巴黎\t六菜一湯\t羅浮宮\nD2\t巴黎\t米其林\t塞納河遊船\n"

// TestParseItineraryMarkdownExpand проверяет разбор Markdown и разнесение составных билетов.
func TestParseItineraryMarkdownExpand(t *testing.T) {
	app := newItineraryEcho(&fakeExtractor{}, &fakeExtractionLog{})

	text := "| 天數 | 城市 | 午餐 | 門票 |\n|---|---|---|---|\n| D1 | 巴黎 | 六菜一湯 | 羅浮宮 + 塞納河遊船 |"
	rec := doJSON(t, app, http.MethodPost, "/itineraries/parse", map[string]interface{}{"text": text, "expand": true})
	expectStatus(t, rec, http.StatusOK)

	var response handlers.ItineraryResponse
	decodeJSON(t, rec, &response)

	if len(response.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", response.Lines)
	}
	if response.Lines[1].Ticket != "塞納河遊船" || !response.Lines[1].IsContinuation() {
		t.Fatalf("unexpected continuation line: %+v", response.Lines[1])
	}
	if len(response.Days) != 1 || len(response.Days[0].Tickets) != 2 {
		t.Fatalf("expected one day with two tickets, got %+v", response.Days)
	}
}

// TestParseItineraryRecords проверяет нормализацию JSON-записей с английскими колонками.
func TestParseItineraryRecords(t *testing.T) {
	app := newItineraryEcho(&fakeExtractor{}, &fakeExtractionLog{})

	records := []map[string]interface{}{
		{"day": "D1", "lunch": "六菜一湯", "include_lunch": "否", "extra": "ignored"},
	}
	rec := doJSON(t, app, http.MethodPost, "/itineraries/parse", map[string]interface{}{"records": records})
	expectStatus(t, rec, http.StatusOK)

	var response handlers.ItineraryResponse
	decodeJSON(t, rec, &response)

	if len(response.Lines) != 1 || response.Lines[0].Lunch != "六菜一湯" || response.Lines[0].IncludeLunch {
		t.Fatalf("unexpected lines: %+v", response.Lines)
	}
}

// TestParseItineraryEmpty проверяет 400 без текста и записей.
func TestParseItineraryEmpty(t *testing.T) {
	app := newItineraryEcho(&fakeExtractor{}, &fakeExtractionLog{})

	rec := doJSON(t, app, http.MethodPost, "/itineraries/parse", map[string]interface{}{"text": "  "})
	expectStatus(t, rec, http.StatusBadRequest)
}

// TestExtractItineraryAI проверяет успешное извлечение и запись журнала.
func TestExtractItineraryAI(t *testing.T) {
	extractor := &fakeExtractor{extraction: ai.Extraction{
		Lines: []itinerary.Line{{DayLabel: "D1", Lunch: "六菜一湯", IncludeLunch: true}},
	}}
	log := &fakeExtractionLog{}
	app := newItineraryEcho(extractor, log)

	rec := doJSON(t, app, http.MethodPost, "/itineraries/extract", map[string]interface{}{"document_text": "第一天 巴黎 午餐六菜一湯"})
	expectStatus(t, rec, http.StatusOK)

	var response handlers.ItineraryResponse
	decodeJSON(t, rec, &response)
	if response.Source != models.ExtractionSourceAI || len(response.Lines) != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}

	if len(log.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(log.entries))
	}
	entry := log.entries[0]
	if !entry.Success || entry.Source != models.ExtractionSourceAI || entry.LineCount != 1 || entry.UserID != testUserID {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

// TestExtractItineraryFallsBackToTable проверяет разбор таблицы документа при сбое модели.
func TestExtractItineraryFallsBackToTable(t *testing.T) {
	log := &fakeExtractionLog{}
	app := newItineraryEcho(&fakeExtractor{err: errors.New("gemini api error: 503")}, log)

	rec := doJSON(t, app, http.MethodPost, "/itineraries/extract", map[string]interface{}{"document_text": tabTable})
	expectStatus(t, rec, http.StatusOK)

	var response handlers.ItineraryResponse
	decodeJSON(t, rec, &response)
	if response.Source != models.ExtractionSourceFallback || response.Warning == "" {
		t.Fatalf("expected fallback response, got %+v", response)
	}
	if len(response.Lines) != 2 || response.Lines[1].Ticket != "塞納河遊船" {
		t.Fatalf("unexpected lines: %+v", response.Lines)
	}

	entry := log.entries[0]
	if !entry.Success || entry.Source != models.ExtractionSourceFallback || entry.ErrorMessage == nil {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

// TestExtractItineraryFails проверяет 502, когда не помогли ни модель, ни разбор таблицы.
func TestExtractItineraryFails(t *testing.T) {
	log := &fakeExtractionLog{}
	app := newItineraryEcho(&fakeExtractor{err: ai.ErrNoItinerary}, log)

	rec := doJSON(t, app, http.MethodPost, "/itineraries/extract", map[string]interface{}{"document_text": "第一天 抵達巴黎，晚餐自理。"})
	expectStatus(t, rec, http.StatusBadGateway)

	var response handlers.ErrorResponse
	decodeJSON(t, rec, &response)
	if !response.Retryable {
		t.Fatal("expected retryable error")
	}
	if len(log.entries) != 1 || log.entries[0].Success {
		t.Fatalf("expected failed log entry, got %+v", log.entries)
	}
}

// TestExtractItineraryBlankDocument проверяет 400 для документа из пробелов без записи в журнал.
func TestExtractItineraryBlankDocument(t *testing.T) {
	log := &fakeExtractionLog{}
	app := newItineraryEcho(&fakeExtractor{}, log)

	rec := doJSON(t, app, http.MethodPost, "/itineraries/extract", map[string]interface{}{"document_text": "   "})
	expectStatus(t, rec, http.StatusBadRequest)
	if len(log.entries) != 0 {
		t.Fatalf("expected no log entries, got %d", len(log.entries))
	}
}
