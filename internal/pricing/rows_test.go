package pricing

import (
	"testing"
	"time"
)

// TestParseRowsWithHeader проверяет разбор листа с заголовком.
func TestParseRowsWithHeader(t *testing.T) {
	rows := [][]string{
		{"類別", "項目名稱", "單價(€)"},
		{"餐", "六菜一湯", "€18"},
		{"門票", "羅浮宮", "22.5"},
		{"", "", ""},
		{"門票", "", "10"},
		{"門票", "凡爾賽宮", "未定"},
	}

	entries, skipped := ParseRows(rows, CategoryOther)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", skipped)
	}

	if entries[0].Keyword != "六菜一湯" || entries[0].Category != CategoryMeal {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Category != CategoryTicket || entries[1].UnitPrice.String() != "22.5" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

// TestParseRowsSkipsCombinedKeyword проверяет пропуск ключа со знаком "+".
func TestParseRowsSkipsCombinedKeyword(t *testing.T) {
	rows := [][]string{
		{"項目名稱", "單價(€)"},
		{"塞納河遊船+晚餐", "60"},
		{"塞納河遊船", "15"},
	}

	entries, skipped := ParseRows(rows, CategoryOther)
	if len(entries) != 1 || entries[0].Keyword != "塞納河遊船" {
		t.Fatalf("expected only the plain keyword, got %+v", entries)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
}

// TestParseRowsPositional проверяет разбор листа без заголовка.
func TestParseRowsPositional(t *testing.T) {
	rows := [][]string{
		{"塞納河遊船", "15"},
		{"米其林一星", "1,200"},
	}

	entries, skipped := ParseRows(rows, CategoryTicket)
	if skipped != 0 || len(entries) != 2 {
		t.Fatalf("expected 2 entries without skips, got %d (skipped %d)", len(entries), skipped)
	}
	if entries[1].UnitPrice.String() != "1200" {
		t.Fatalf("expected thousands separator removed, got %s", entries[1].UnitPrice)
	}
	if entries[0].Category != CategoryTicket {
		t.Fatalf("expected fallback category, got %s", entries[0].Category)
	}
}

// TestParseAmountFullWidth проверяет полноширинные цифры.
func TestParseAmountFullWidth(t *testing.T) {
	value, err := ParseAmount("１８．５ 歐元")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if value.String() != "18.5" {
		t.Fatalf("expected 18.5, got %s", value)
	}

	if _, err := ParseAmount("  "); err == nil {
		t.Fatal("expected error for empty amount")
	}
}

// TestParseCostRows проверяет разбор листа общих расходов.
func TestParseCostRows(t *testing.T) {
	items, skipped := ParseCostRows([][]string{{"項目", "金額"}, {"遊覽車", "2800"}, {"導遊", "700"}}, "EUR")
	if skipped != 0 || len(items) != 2 {
		t.Fatalf("expected 2 items, got %d (skipped %d)", len(items), skipped)
	}

	snapshot := NewSnapshot("test", time.Now(), nil, items, nil)
	if snapshot.SharedTotal().String() != "3500" {
		t.Fatalf("expected shared total 3500, got %s", snapshot.SharedTotal())
	}
}
