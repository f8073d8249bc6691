package itinerary

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/pricing"
)

func testTable() *pricing.Table {
	return pricing.NewTable([]pricing.PriceEntry{
		{Keyword: "六菜一湯", UnitPrice: decimal.NewFromInt(18), Category: pricing.CategoryMeal},
		{Keyword: "羅浮宮", UnitPrice: decimal.NewFromInt(22), Category: pricing.CategoryTicket},
		{Keyword: "塞納河遊船", UnitPrice: decimal.NewFromInt(15), Category: pricing.CategoryTicket},
	})
}

// TestResolveExcludedIgnoresText проверяет, что снятый флаг подавляет даже найденную позицию.
func TestResolveExcludedIgnoresText(t *testing.T) {
	line := Line{DayLabel: "D1", Lunch: "六菜一湯", IncludeLunch: false}

	resolution := Resolve(line, FieldLunch, testTable())
	if resolution.Status != StatusExcluded {
		t.Fatalf("expected excluded, got %s", resolution.Status)
	}
	if _, ok := resolution.Price(); ok {
		t.Fatal("expected no price for excluded item")
	}
}

// TestResolveSplitsCombinedTickets проверяет сумму по ячейке "A + B".
func TestResolveSplitsCombinedTickets(t *testing.T) {
	line := Line{DayLabel: "D2", Ticket: "羅浮宮 ＋ 塞納河遊船", IncludeTicket: true}

	resolution := Resolve(line, FieldTicket, testTable())
	price, ok := resolution.Price()
	if !ok || !price.Equal(decimal.NewFromInt(37)) {
		t.Fatalf("expected 37, got %s (status %s)", price, resolution.Status)
	}
}

// TestResolvePartialMiss проверяет промах одной из позиций ячейки.
func TestResolvePartialMiss(t *testing.T) {
	line := Line{DayLabel: "D2", Ticket: "羅浮宮 + 奧賽美術館", IncludeTicket: true}

	resolution := Resolve(line, FieldTicket, testTable())
	if resolution.Status != StatusMiss {
		t.Fatalf("expected miss, got %s", resolution.Status)
	}
	if len(resolution.Missing) != 1 || resolution.Missing[0] != "奧賽美術館" {
		t.Fatalf("unexpected missing list: %v", resolution.Missing)
	}
	if !resolution.Amount.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("expected matched part 22, got %s", resolution.Amount)
	}
}

// TestResolveManualPrice проверяет приоритет ручной цены.
func TestResolveManualPrice(t *testing.T) {
	line := Line{
		DayLabel:      "D3",
		Dinner:        "米其林晚餐",
		IncludeDinner: true,
		ManualPrices:  map[Field]decimal.Decimal{FieldDinner: decimal.NewFromInt(95)},
	}

	resolution := Resolve(line, FieldDinner, testTable())
	price, ok := resolution.Price()
	if resolution.Status != StatusManual || !ok || !price.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected manual 95, got %s (status %s)", price, resolution.Status)
	}
}

// TestResolveEmptyCell проверяет включенную, но пустую ячейку.
func TestResolveEmptyCell(t *testing.T) {
	line := Line{DayLabel: "D4", Hotel: " - ", IncludeHotel: true}

	resolution := Resolve(line, FieldHotel, testTable())
	if resolution.Status != StatusEmpty {
		t.Fatalf("expected empty, got %s", resolution.Status)
	}
}

// TestResolveBicycleTourIsMiss проверяет промах для неизвестного "自行車導覽".
func TestResolveBicycleTourIsMiss(t *testing.T) {
	line := Line{DayLabel: "D1", Ticket: "自行車導覽", IncludeTicket: true}

	resolution := Resolve(line, FieldTicket, testTable())
	if resolution.Status != StatusMiss {
		t.Fatalf("expected miss, got %s", resolution.Status)
	}
	if len(resolution.Missing) != 1 || resolution.Missing[0] != "自行車導覽" {
		t.Fatalf("expected missing item to be reported, got %v", resolution.Missing)
	}
}

// TestSplitItems проверяет разбиение составной ячейки.
func TestSplitItems(t *testing.T) {
	items := SplitItems(" 羅浮宮+ 塞納河遊船 + - ")
	if len(items) != 2 || items[0] != "羅浮宮" || items[1] != "塞納河遊船" {
		t.Fatalf("unexpected items: %v", items)
	}
}

// TestCanonicalManualPrices проверяет приведение ключей ручных цен.
func TestCanonicalManualPrices(t *testing.T) {
	lines := []Line{{DayLabel: "D1", ManualPrices: map[Field]decimal.Decimal{" Dinner ": decimal.NewFromInt(40)}}}

	if err := CanonicalManualPrices(lines); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if price, ok := lines[0].ManualPrice(FieldDinner); !ok || !price.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected dinner 40, got %s (ok=%v)", price, ok)
	}

	lines = []Line{{DayLabel: "D1", ManualPrices: map[Field]decimal.Decimal{"breakfast": decimal.NewFromInt(10)}}}
	if err := CanonicalManualPrices(lines); !errors.Is(err, ErrInvalidManualPrice) {
		t.Fatalf("expected ErrInvalidManualPrice, got %v", err)
	}
}
