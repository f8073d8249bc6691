package itinerary

import (
	"strings"

	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/pricing"
)

type Status string

const (
	StatusExcluded Status = "excluded"
	StatusEmpty    Status = "empty"
	StatusManual   Status = "manual"
	StatusMatched  Status = "matched"
	StatusMiss     Status = "miss"
)

// Resolution: результат сопоставления одной ячейки с прайсом.
type Resolution struct {
	Field   Field           `json:"field"`
	Text    string          `json:"text"`
	Status  Status          `json:"status"`
	Amount  decimal.Decimal `json:"amount"`
	Missing []string        `json:"missing,omitempty"`
}

// Price возвращает цену, если она определена.
// Исключенная статья не имеет цены; промах отдает сумму только найденных позиций.
func (r Resolution) Price() (decimal.Decimal, bool) {
	switch r.Status {
	case StatusMatched, StatusManual:
		return r.Amount, true
	default:
		return decimal.Zero, false
	}
}

// Resolve сопоставляет статью строки с прайсом с учетом флага включения.
func Resolve(line Line, field Field, table *pricing.Table) Resolution {
	text := line.Text(field)
	resolution := Resolution{Field: field, Text: text, Amount: decimal.Zero}

	if !line.Included(field) {
		resolution.Status = StatusExcluded
		return resolution
	}

	if manual, ok := line.ManualPrice(field); ok {
		resolution.Status = StatusManual
		resolution.Amount = manual
		return resolution
	}

	items := SplitItems(text)
	if len(items) == 0 {
		resolution.Status = StatusEmpty
		return resolution
	}

	for _, item := range items {
		price, ok := table.Lookup(item)
		if !ok {
			resolution.Missing = append(resolution.Missing, item)
			continue
		}
		resolution.Amount = resolution.Amount.Add(price)
	}

	resolution.Status = StatusMatched
	if len(resolution.Missing) > 0 {
		resolution.Status = StatusMiss
	}

	return resolution
}

// SplitItems делит ячейку "A + B" на отдельные позиции, отбрасывая пустые.
func SplitItems(text string) []string {
	normalized := strings.ReplaceAll(text, "＋", "+")
	parts := strings.Split(normalized, "+")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if pricing.IsPlaceholder(trimmed) {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}
