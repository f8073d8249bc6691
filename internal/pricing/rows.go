package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var (
	keywordHeaders  = []string{"項目名稱", "關鍵字", "關鍵詞", "項目", "名稱", "品項", "keyword", "item", "name"}
	priceHeaders    = []string{"單價", "價格", "售價", "金額", "歐元", "eur", "price", "unit_price", "amount"}
	categoryHeaders = []string{"類別", "分類", "種類", "category", "type"}
	currencyTokens  = []string{"€", "EUR", "eur", "NT$", "TWD", "twd", "$", "元", "歐"}
)

var errEmptyAmount = errors.New("empty amount")

type columnLayout struct {
	keyword  int
	price    int
	category int
}

// ParseRows разбирает строки листа прайса в записи.
// Битые строки пропускаются, их количество возвращается вторым значением.
func ParseRows(rows [][]string, fallback Category) ([]PriceEntry, int) {
	if len(rows) == 0 {
		return nil, 0
	}

	layout, hasHeader := detectLayout(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	entries := make([]PriceEntry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}

		keyword := strings.TrimSpace(cell(row, layout.keyword))
		price, err := ParseAmount(cell(row, layout.price))
		if err != nil {
			skipped++
			continue
		}

		category := fallback
		if layout.category >= 0 {
			category = ParseCategory(cell(row, layout.category), fallback)
		}

		entry := PriceEntry{Keyword: keyword, UnitPrice: price, Category: category}
		if !entry.Valid() {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, skipped
}

// ParseCostRows разбирает лист общих или дневных расходов.
func ParseCostRows(rows [][]string, currency string) ([]CostItem, int) {
	entries, skipped := ParseRows(rows, CategoryOther)
	items := make([]CostItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, CostItem{Name: entry.Keyword, Amount: entry.UnitPrice, Currency: currency})
	}
	return items, skipped
}

// ParseAmount читает сумму вида "€18", "1,200", "１８．５".
func ParseAmount(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(width.Narrow.String(raw))
	for _, token := range currencyTokens {
		value = strings.ReplaceAll(value, token, "")
	}
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return decimal.Zero, errEmptyAmount
	}

	return decimal.NewFromString(value)
}

func detectLayout(header []string) (columnLayout, bool) {
	layout := columnLayout{keyword: -1, price: -1, category: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case layout.price < 0 && matchesHeader(name, priceHeaders):
			layout.price = i
		case layout.category < 0 && matchesHeader(name, categoryHeaders):
			layout.category = i
		case layout.keyword < 0 && matchesHeader(name, keywordHeaders):
			layout.keyword = i
		}
	}

	if layout.keyword >= 0 && layout.price >= 0 {
		return layout, true
	}

	return columnLayout{keyword: 0, price: 1, category: 2}, false
}

func matchesHeader(name string, candidates []string) bool {
	if name == "" {
		return false
	}
	for _, candidate := range candidates {
		if strings.Contains(name, candidate) {
			return true
		}
	}
	return false
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
