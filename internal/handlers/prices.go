package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/itinerary"
	"example.com/ai-tour-quote/backend/internal/notifications"
	"example.com/ai-tour-quote/backend/internal/pricing"
)

// PriceProvider отдает снимок прайса; Refresh перечитывает источник в обход кэша.
type PriceProvider interface {
	Fetch(ctx context.Context) (pricing.Snapshot, error)
	Refresh(ctx context.Context) (pricing.Snapshot, error)
}

// PriceWriter заменяет прайс целиком. Для Google Sheets записи нет.
type PriceWriter interface {
	Replace(ctx context.Context, entries []pricing.PriceEntry, shared, daily []pricing.CostItem) error
}

type PriceHandler struct {
	Prices PriceProvider
	Writer PriceWriter
	Hub    *notifications.Hub
}

// NewPriceHandler создает обработчик прайса.
func NewPriceHandler(prices PriceProvider, writer PriceWriter, hub *notifications.Hub) *PriceHandler {
	return &PriceHandler{Prices: prices, Writer: writer, Hub: hub}
}

type PriceSnapshotResponse struct {
	Version     string               `json:"version"`
	Source      string               `json:"source"`
	FetchedAt   string               `json:"fetched_at"`
	EntryCount  int                  `json:"entry_count"`
	Entries     []pricing.PriceEntry `json:"entries"`
	Shared      []pricing.CostItem   `json:"shared"`
	Daily       []pricing.CostItem   `json:"daily"`
	SharedTotal decimal.Decimal      `json:"shared_total_eur"`
	DailyTotal  decimal.Decimal      `json:"daily_total"`
}

type PriceLookupItem struct {
	Text      string           `json:"text"`
	Found     bool             `json:"found"`
	Keyword   string           `json:"keyword,omitempty"`
	Category  pricing.Category `json:"category,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type PriceLookupResponse struct {
	Version string            `json:"version"`
	Items   []PriceLookupItem `json:"items"`
	Total   decimal.Decimal   `json:"total_eur"`
	Missing []string          `json:"missing"`
}

type PriceEntryRequest struct {
	Keyword   string          `json:"keyword" validate:"required,max=200"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category" validate:"omitempty,oneof=meal ticket hotel other"`
}

type CostItemRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
}

type ReplacePricesRequest struct {
	Entries []PriceEntryRequest `json:"entries" validate:"required,min=1,dive"`
	Shared  []CostItemRequest   `json:"shared" validate:"dive"`
	Daily   []CostItemRequest   `json:"daily" validate:"dive"`
}

// Get возвращает текущий снимок прайса.
func (h *PriceHandler) Get(c echo.Context) error {
	snapshot, err := h.Prices.Fetch(c.Request().Context())
	if err != nil {
		return priceSourceError(c, err)
	}

	return c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

// Refresh перечитывает прайс и оповещает подписчиков о новой версии.
func (h *PriceHandler) Refresh(c echo.Context) error {
	snapshot, err := h.Prices.Refresh(c.Request().Context())
	if err != nil {
		return priceSourceError(c, err)
	}

	publishPricesRefreshed(h.Hub, snapshot)
	return c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

// Lookup ищет цены для текста ячейки; "A + B" разбирается на позиции.
func (h *PriceHandler) Lookup(c echo.Context) error {
	text := strings.TrimSpace(c.QueryParam("text"))
	if text == "" {
		return badRequest(c, "text is required")
	}

	snapshot, err := h.Prices.Fetch(c.Request().Context())
	if err != nil {
		return priceSourceError(c, err)
	}

	table := snapshot.Table()
	response := PriceLookupResponse{
		Version: snapshot.Version,
		Items:   make([]PriceLookupItem, 0),
		Total:   decimal.Zero,
		Missing: make([]string, 0),
	}
	for _, item := range itinerary.SplitItems(text) {
		price, ok := table.Lookup(item)
		if !ok {
			response.Items = append(response.Items, PriceLookupItem{Text: item})
			response.Missing = append(response.Missing, item)
			continue
		}

		found := PriceLookupItem{Text: item, Found: true, UnitPrice: &price}
		// Самостоятельная оплата ("自理") находится без записи прайса.
		if entry, matched := table.Match(item); matched {
			found.Keyword = entry.Keyword
			found.Category = entry.Category
		}
		response.Items = append(response.Items, found)
		response.Total = response.Total.Add(price)
	}

	return c.JSON(http.StatusOK, response)
}

// Replace заменяет прайс в базе и сбрасывает кэш.
func (h *PriceHandler) Replace(c echo.Context) error {
	if h.Writer == nil {
		return conflict(c, "price table is managed in Google Sheets")
	}

	var req ReplacePricesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	entries := make([]pricing.PriceEntry, 0, len(req.Entries))
	seen := make(map[string]struct{}, len(req.Entries))
	for _, item := range req.Entries {
		entry := pricing.PriceEntry{
			Keyword:   strings.TrimSpace(item.Keyword),
			UnitPrice: item.UnitPrice,
			Category:  pricing.ParseCategory(item.Category, pricing.CategoryOther),
		}
		if !entry.Valid() {
			return badRequest(c, "invalid price entry: "+item.Keyword)
		}
		if _, ok := seen[entry.Keyword]; ok {
			return badRequest(c, "duplicate keyword: "+entry.Keyword)
		}
		seen[entry.Keyword] = struct{}{}
		entries = append(entries, entry)
	}

	shared, err := toCostItems(req.Shared)
	if err != nil {
		return badRequest(c, err.Error())
	}
	daily, err := toCostItems(req.Daily)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.Writer.Replace(ctx, entries, shared, daily); err != nil {
		slog.Error("replace prices failed", slog.String("error", err.Error()))
		return serverError(c)
	}

	snapshot, err := h.Prices.Refresh(ctx)
	if err != nil {
		return priceSourceError(c, err)
	}

	publishPricesRefreshed(h.Hub, snapshot)
	return c.JSON(http.StatusOK, toSnapshotResponse(snapshot))
}

func toCostItems(items []CostItemRequest) ([]pricing.CostItem, error) {
	out := make([]pricing.CostItem, 0, len(items))
	for _, item := range items {
		if item.Amount.IsNegative() {
			return nil, errors.New("negative amount: " + item.Name)
		}
		currency := strings.ToUpper(strings.TrimSpace(item.Currency))
		if currency == "" {
			currency = "EUR"
		}
		out = append(out, pricing.CostItem{
			Name:     strings.TrimSpace(item.Name),
			Amount:   item.Amount,
			Currency: currency,
		})
	}
	return out, nil
}

func toSnapshotResponse(snapshot pricing.Snapshot) PriceSnapshotResponse {
	return PriceSnapshotResponse{
		Version:     snapshot.Version,
		Source:      snapshot.Source,
		FetchedAt:   snapshot.FetchedAt.Format(timeLayout),
		EntryCount:  len(snapshot.Entries),
		Entries:     nonNilEntries(snapshot.Entries),
		Shared:      nonNilItems(snapshot.Shared),
		Daily:       nonNilItems(snapshot.Daily),
		SharedTotal: snapshot.SharedTotal(),
		DailyTotal:  snapshot.DailyTotal(),
	}
}

func nonNilEntries(entries []pricing.PriceEntry) []pricing.PriceEntry {
	if entries == nil {
		return []pricing.PriceEntry{}
	}
	return entries
}

func nonNilItems(items []pricing.CostItem) []pricing.CostItem {
	if items == nil {
		return []pricing.CostItem{}
	}
	return items
}

// priceSourceError отвечает 503: источник прайса не ответил, запрос можно повторить.
func priceSourceError(c echo.Context, err error) error {
	slog.Warn("price source failed", slog.String("error", err.Error()))
	return unavailable(c, "price source unavailable")
}
