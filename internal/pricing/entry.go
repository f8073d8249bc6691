package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMeal   Category = "meal"
	CategoryTicket Category = "ticket"
	CategoryHotel  Category = "hotel"
	CategoryOther  Category = "other"
)

// PriceEntry связывает ключевое слово с ценой за человека в евро.
type PriceEntry struct {
	Keyword   string          `json:"keyword"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  Category        `json:"category"`
}

// Valid проверяет инварианты записи: непустой ключ без "+" и неотрицательная цена.
// Ячейка "A + B" делится по "+" до поиска, поэтому такой ключ никогда бы не совпал.
func (e PriceEntry) Valid() bool {
	keyword := strings.TrimSpace(e.Keyword)
	return keyword != "" && !strings.ContainsAny(keyword, "+＋") && !e.UnitPrice.IsNegative()
}

// CostItem: строка листов «均攤成本» и «天數計價»: название и сумма.
type CostItem struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Snapshot: неизменяемый срез прайса на один расчет.
type Snapshot struct {
	Version   string       `json:"version"`
	Source    string       `json:"source"`
	FetchedAt time.Time    `json:"fetched_at"`
	Entries   []PriceEntry `json:"entries"`
	Shared    []CostItem   `json:"shared"`
	Daily     []CostItem   `json:"daily"`
}

// NewSnapshot собирает снимок и вычисляет его версию по содержимому.
func NewSnapshot(source string, fetchedAt time.Time, entries []PriceEntry, shared, daily []CostItem) Snapshot {
	snapshot := Snapshot{
		Source:    source,
		FetchedAt: fetchedAt.UTC(),
		Entries:   entries,
		Shared:    shared,
		Daily:     daily,
	}
	snapshot.Version = fingerprint(snapshot)
	return snapshot
}

// Table строит таблицу поиска из записей снимка.
func (s Snapshot) Table() *Table {
	return NewTable(s.Entries)
}

// SharedTotal возвращает сумму общих расходов группы (EUR).
func (s Snapshot) SharedTotal() decimal.Decimal {
	return sumItems(s.Shared)
}

// DailyTotal возвращает сумму расходов на один день.
func (s Snapshot) DailyTotal() decimal.Decimal {
	return sumItems(s.Daily)
}

func sumItems(items []CostItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func fingerprint(s Snapshot) string {
	var builder strings.Builder
	for _, entry := range s.Entries {
		builder.WriteString("e|")
		builder.WriteString(entry.Keyword)
		builder.WriteString("|")
		builder.WriteString(entry.UnitPrice.String())
		builder.WriteString("|")
		builder.WriteString(string(entry.Category))
		builder.WriteString("\n")
	}
	for _, item := range s.Shared {
		builder.WriteString("s|" + item.Name + "|" + item.Amount.String() + "\n")
	}
	for _, item := range s.Daily {
		builder.WriteString("d|" + item.Name + "|" + item.Amount.String() + "\n")
	}

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:8])
}

// ParseCategory приводит подпись категории из таблицы к Category.
func ParseCategory(value string, fallback Category) Category {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch {
	case normalized == "":
		return fallback
	case normalized == string(CategoryMeal), strings.Contains(normalized, "餐"), strings.Contains(normalized, "menu"):
		return CategoryMeal
	case normalized == string(CategoryTicket), strings.Contains(normalized, "門票"), strings.Contains(normalized, "票"):
		return CategoryTicket
	case normalized == string(CategoryHotel), strings.Contains(normalized, "住宿"), strings.Contains(normalized, "飯店"), strings.Contains(normalized, "酒店"):
		return CategoryHotel
	case normalized == string(CategoryOther):
		return CategoryOther
	default:
		return fallback
	}
}
