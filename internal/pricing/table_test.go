package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return d
}

// TestLookupSubstring проверяет поиск по вхождению ключа в текст.
func TestLookupSubstring(t *testing.T) {
	table := NewTable([]PriceEntry{
		{Keyword: "六菜一湯", UnitPrice: mustDecimal(t, "18"), Category: CategoryMeal},
		{Keyword: "羅浮宮", UnitPrice: mustDecimal(t, "22"), Category: CategoryTicket},
	})

	price, ok := table.Lookup("午餐：中式六菜一湯")
	if !ok || !price.Equal(mustDecimal(t, "18")) {
		t.Fatalf("expected 18, got %s (ok=%v)", price, ok)
	}

	if _, ok := table.Lookup("凡爾賽宮"); ok {
		t.Fatal("expected miss for unknown text")
	}
}

// TestLookupCaseSensitive проверяет, что сравнение учитывает регистр.
func TestLookupCaseSensitive(t *testing.T) {
	table := NewTable([]PriceEntry{{Keyword: "Louvre", UnitPrice: mustDecimal(t, "22")}})

	if _, ok := table.Lookup("louvre museum"); ok {
		t.Fatal("expected case-sensitive miss")
	}
	if _, ok := table.Lookup("Louvre museum"); !ok {
		t.Fatal("expected match")
	}
}

// TestLookupLongestKeywordWins проверяет приоритет более длинного ключа.
func TestLookupLongestKeywordWins(t *testing.T) {
	table := NewTable([]PriceEntry{
		{Keyword: "遊船", UnitPrice: mustDecimal(t, "15")},
		{Keyword: "塞納河晚餐遊船", UnitPrice: mustDecimal(t, "85")},
	})

	price, ok := table.Lookup("塞納河晚餐遊船")
	if !ok || !price.Equal(mustDecimal(t, "85")) {
		t.Fatalf("expected 85, got %s (ok=%v)", price, ok)
	}
}

// TestLookupEqualLengthKeepsSourceOrder проверяет порядок при равной длине ключей.
func TestLookupEqualLengthKeepsSourceOrder(t *testing.T) {
	table := NewTable([]PriceEntry{
		{Keyword: "午餐", UnitPrice: mustDecimal(t, "12")},
		{Keyword: "中餐", UnitPrice: mustDecimal(t, "14")},
	})

	price, ok := table.Lookup("午餐中餐")
	if !ok || !price.Equal(mustDecimal(t, "12")) {
		t.Fatalf("expected first entry, got %s", price)
	}
}

// TestLookupPlaceholders проверяет пустые и служебные значения ячеек.
func TestLookupPlaceholders(t *testing.T) {
	table := NewTable([]PriceEntry{{Keyword: "-", UnitPrice: mustDecimal(t, "5")}})

	for _, text := range []string{"", "   ", "-", "同上", "〃"} {
		if _, ok := table.Lookup(text); ok {
			t.Fatalf("expected miss for %q", text)
		}
	}
}

// TestLookupSelfArrangedIsZero проверяет явный ноль для "敬請自理".
func TestLookupSelfArrangedIsZero(t *testing.T) {
	table := NewTable(nil)

	price, ok := table.Lookup("午餐敬請自理")
	if !ok {
		t.Fatal("expected explicit zero, got miss")
	}
	if !price.IsZero() {
		t.Fatalf("expected zero, got %s", price)
	}
}

// TestLookupSelfArrangedWholeCellOnly проверяет, что "自行" внутри слова не дает ноль.
func TestLookupSelfArrangedWholeCellOnly(t *testing.T) {
	table := NewTable([]PriceEntry{{Keyword: "羅浮宮", UnitPrice: mustDecimal(t, "22")}})

	if price, ok := table.Lookup("自行車導覽"); ok {
		t.Fatalf("expected miss for bicycle tour, got %s", price)
	}

	for _, text := range []string{"自行", "晚餐自行用餐", "自費"} {
		price, ok := table.Lookup(text)
		if !ok || !price.IsZero() {
			t.Fatalf("expected explicit zero for %q, got %s (ok=%v)", text, price, ok)
		}
	}
}

// TestNewTableSkipsInvalidEntries проверяет отбрасывание некорректных записей.
func TestNewTableSkipsInvalidEntries(t *testing.T) {
	table := NewTable([]PriceEntry{
		{Keyword: " ", UnitPrice: mustDecimal(t, "1")},
		{Keyword: "退稅", UnitPrice: mustDecimal(t, "-3")},
		{Keyword: "鐵塔", UnitPrice: mustDecimal(t, "30")},
		{Keyword: "鐵塔", UnitPrice: mustDecimal(t, "99")},
		{Keyword: "遊船＋晚餐", UnitPrice: mustDecimal(t, "60")},
	})

	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}

	price, _ := table.Lookup("艾菲爾鐵塔")
	if !price.Equal(mustDecimal(t, "30")) {
		t.Fatalf("expected first duplicate to win, got %s", price)
	}
}
