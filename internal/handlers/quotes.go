package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/auth"
	"example.com/ai-tour-quote/backend/internal/itinerary"
	"example.com/ai-tour-quote/backend/internal/models"
	"example.com/ai-tour-quote/backend/internal/notifications"
	"example.com/ai-tour-quote/backend/internal/pricing"
	"example.com/ai-tour-quote/backend/internal/quote"
	"example.com/ai-tour-quote/backend/internal/repository"
)

// QuoteStore хранит сохраненные расчеты сотрудника.
type QuoteStore interface {
	Create(ctx context.Context, userID uuid.UUID, input repository.QuoteInput) (models.SavedQuote, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (models.SavedQuote, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.SavedQuote, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type QuoteHandler struct {
	Prices   PriceProvider
	Quotes   QuoteStore
	Defaults quote.Params
	Hub      *notifications.Hub
}

// NewQuoteHandler создает обработчик расчетов.
func NewQuoteHandler(prices PriceProvider, quotes QuoteStore, defaults quote.Params, hub *notifications.Hub) *QuoteHandler {
	return &QuoteHandler{
		Prices:   prices,
		Quotes:   quotes,
		Defaults: defaults,
		Hub:      hub,
	}
}

// QuoteParamsRequest: переопределения параметров; пустое поле берется из настроек.
type QuoteParamsRequest struct {
	ExchangeRate    *decimal.Decimal `json:"exchange_rate"`
	BaseAirfare     *decimal.Decimal `json:"base_airfare"`
	AirfareTax      *decimal.Decimal `json:"airfare_tax"`
	DailyIncidental *decimal.Decimal `json:"daily_incidental"`
	TargetProfit    *decimal.Decimal `json:"target_profit"`
	TaxMarkup       *decimal.Decimal `json:"tax_markup"`
	PaxTiers        []int            `json:"pax_tiers" validate:"omitempty,pax_tiers"`
}

type QuoteRequest struct {
	Title         string             `json:"title" validate:"max=200"`
	Lines         []itinerary.Line   `json:"lines"`
	Days          []itinerary.Day    `json:"days"`
	Params        QuoteParamsRequest `json:"params"`
	SharedCostEUR *decimal.Decimal   `json:"shared_cost_eur"`
}

type QuoteResponse struct {
	ID           *uuid.UUID        `json:"id,omitempty"`
	Title        string            `json:"title,omitempty"`
	PriceVersion string            `json:"price_version"`
	Quote        quote.Quote       `json:"quote"`
	Issues       []itinerary.Issue `json:"issues"`
	CreatedAt    string            `json:"created_at,omitempty"`
}

type SavedQuoteSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	PriceVersion  string    `json:"price_version"`
	TotalFixedEUR string    `json:"total_fixed_eur"`
	SharedCostEUR string    `json:"shared_cost_eur"`
	MissCount     int       `json:"miss_count"`
	CreatedAt     string    `json:"created_at"`
}

type QuoteListResponse struct {
	Total  int                 `json:"total"`
	Quotes []SavedQuoteSummary `json:"quotes"`
}

type SavedQuoteResponse struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	PriceVersion string           `json:"price_version"`
	Lines        []itinerary.Line `json:"lines"`
	Quote        quote.Quote      `json:"quote"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// Preview считает цены по ступеням без сохранения.
func (h *QuoteHandler) Preview(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	snapshot, lines, result, err := h.calculate(c.Request().Context(), req)
	if err != nil {
		return h.calculationError(c, err)
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		PriceVersion: snapshot.Version,
		Quote:        result,
		Issues:       itinerary.ValidateLines(lines),
	})
}

// Create считает и сохраняет расчет вместе с версией прайса.
func (h *QuoteHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return badRequest(c, "title is required")
	}

	ctx := c.Request().Context()
	snapshot, lines, result, err := h.calculate(ctx, req)
	if err != nil {
		return h.calculationError(c, err)
	}

	linesPayload, err := json.Marshal(lines)
	if err != nil {
		return serverError(c)
	}
	paramsPayload, err := json.Marshal(result.Params)
	if err != nil {
		return serverError(c)
	}
	resultPayload, err := json.Marshal(result)
	if err != nil {
		return serverError(c)
	}

	saved, err := h.Quotes.Create(ctx, userID, repository.QuoteInput{
		Title:         title,
		PriceVersion:  snapshot.Version,
		Lines:         linesPayload,
		Params:        paramsPayload,
		Result:        resultPayload,
		TotalFixedEUR: result.TotalFixedEUR.String(),
		SharedCostEUR: result.SharedCostEUR.String(),
		MissCount:     len(result.Misses),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid quote")
		}
		return serverError(c)
	}

	publishQuoteSaved(h.Hub, userID, saved)

	id := saved.ID
	return c.JSON(http.StatusCreated, QuoteResponse{
		ID:           &id,
		Title:        saved.Title,
		PriceVersion: saved.PriceVersion,
		Quote:        result,
		Issues:       itinerary.ValidateLines(lines),
		CreatedAt:    saved.CreatedAt.Format(timeLayout),
	})
}

// List возвращает сохраненные расчеты сотрудника.
func (h *QuoteHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	limit, offset, err := parsePagination(c, 20, 100)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	quotes, err := h.Quotes.List(ctx, userID, limit, offset)
	if err != nil {
		return serverError(c)
	}
	total, err := h.Quotes.Count(ctx, userID)
	if err != nil {
		return serverError(c)
	}

	response := make([]SavedQuoteSummary, 0, len(quotes))
	for _, saved := range quotes {
		response = append(response, SavedQuoteSummary{
			ID:            saved.ID,
			Title:         saved.Title,
			PriceVersion:  saved.PriceVersion,
			TotalFixedEUR: saved.TotalFixedEUR,
			SharedCostEUR: saved.SharedCostEUR,
			MissCount:     saved.MissCount,
			CreatedAt:     saved.CreatedAt.Format(timeLayout),
		})
	}

	return c.JSON(http.StatusOK, QuoteListResponse{Total: total, Quotes: response})
}

// Get возвращает сохраненный расчет.
func (h *QuoteHandler) Get(c echo.Context) error {
	saved, err := h.loadQuote(c)
	if err != nil || saved == nil {
		return err
	}

	response, err := toSavedQuoteResponse(*saved)
	if err != nil {
		slog.Error("stored quote is unreadable", slog.String("quote_id", saved.ID.String()), slog.String("error", err.Error()))
		return serverError(c)
	}

	return c.JSON(http.StatusOK, response)
}

// Delete удаляет сохраненный расчет.
func (h *QuoteHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid quote id")
	}

	if err := h.Quotes.Delete(c.Request().Context(), userID, quoteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "quote not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// loadQuote читает расчет из пути запроса. nil без ошибки означает, что ответ уже отправлен.
func (h *QuoteHandler) loadQuote(c echo.Context) (*models.SavedQuote, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return nil, unauthorized(c)
	}

	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, badRequest(c, "invalid quote id")
	}

	saved, err := h.Quotes.GetByID(c.Request().Context(), userID, quoteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(c, "quote not found")
		}
		return nil, serverError(c)
	}

	return &saved, nil
}

func (h *QuoteHandler) calculate(ctx context.Context, req QuoteRequest) (pricing.Snapshot, []itinerary.Line, quote.Quote, error) {
	lines := req.Lines
	if len(lines) == 0 && len(req.Days) > 0 {
		lines = itinerary.Flatten(req.Days)
	}
	if err := itinerary.CanonicalManualPrices(lines); err != nil {
		return pricing.Snapshot{}, nil, quote.Quote{}, err
	}

	snapshot, err := h.Prices.Fetch(ctx)
	if err != nil {
		return pricing.Snapshot{}, nil, quote.Quote{}, err
	}

	shared := snapshot.SharedTotal()
	if req.SharedCostEUR != nil {
		shared = *req.SharedCostEUR
	}

	params := h.resolveParams(req.Params, snapshot, lines)
	result, err := quote.Calculate(lines, snapshot.Table(), shared, params)
	if err != nil {
		return pricing.Snapshot{}, nil, quote.Quote{}, err
	}

	return snapshot, lines, result, nil
}

// resolveParams накладывает переопределения запроса на настройки. Если сумма на
// человека за дни не задана, а прайс содержит лист «天數計價», она равна сумме листа × число дней.
func (h *QuoteHandler) resolveParams(req QuoteParamsRequest, snapshot pricing.Snapshot, lines []itinerary.Line) quote.Params {
	params := h.Defaults
	params.PaxTiers = append([]int(nil), h.Defaults.PaxTiers...)

	if req.ExchangeRate != nil {
		params.ExchangeRate = *req.ExchangeRate
	}
	if req.BaseAirfare != nil {
		params.BaseAirfare = *req.BaseAirfare
	}
	if req.AirfareTax != nil {
		params.AirfareTax = *req.AirfareTax
	}
	if req.TargetProfit != nil {
		params.TargetProfit = *req.TargetProfit
	}
	if req.TaxMarkup != nil {
		params.TaxMarkup = *req.TaxMarkup
	}
	if len(req.PaxTiers) > 0 {
		params.PaxTiers = append([]int(nil), req.PaxTiers...)
	}

	switch {
	case req.DailyIncidental != nil:
		params.DailyIncidental = *req.DailyIncidental
	case snapshot.DailyTotal().IsPositive():
		params.DailyIncidental = snapshot.DailyTotal().Mul(decimal.NewFromInt(int64(countDays(lines))))
	}

	return params.WithDefaults()
}

func (h *QuoteHandler) calculationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, quote.ErrInvalidTierConfiguration), errors.Is(err, quote.ErrInvalidParams),
		errors.Is(err, itinerary.ErrInvalidManualPrice):
		return badRequest(c, err.Error())
	case errors.Is(err, pricing.ErrSourceUnavailable), errors.Is(err, context.DeadlineExceeded):
		return priceSourceError(c, err)
	default:
		slog.Error("quote calculation failed", slog.String("error", err.Error()))
		return serverError(c)
	}
}

func countDays(lines []itinerary.Line) int {
	days := 0
	for _, line := range lines {
		if !line.IsContinuation() {
			days++
		}
	}
	return days
}

func toSavedQuoteResponse(saved models.SavedQuote) (SavedQuoteResponse, error) {
	response := SavedQuoteResponse{
		ID:           saved.ID,
		Title:        saved.Title,
		PriceVersion: saved.PriceVersion,
		Lines:        make([]itinerary.Line, 0),
		CreatedAt:    saved.CreatedAt.Format(timeLayout),
		UpdatedAt:    saved.UpdatedAt.Format(timeLayout),
	}

	if len(saved.Lines) > 0 {
		if err := json.Unmarshal(saved.Lines, &response.Lines); err != nil {
			return SavedQuoteResponse{}, err
		}
	}
	if err := json.Unmarshal(saved.Result, &response.Quote); err != nil {
		return SavedQuoteResponse{}, err
	}

	return response, nil
}
