package itinerary

import (
	"reflect"
	"testing"
)

// TestNormalizeFillsMissingColumns проверяет заполнение схемы пустыми строками.
func TestNormalizeFillsMissingColumns(t *testing.T) {
	records := Normalize([]Record{{"day": " D1 ", "city": "巴黎", "extra": "ignored"}})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	record := records[0]
	if len(record) != len(Columns) {
		t.Fatalf("expected %d columns, got %d", len(Columns), len(record))
	}
	if record[ColumnDay] != "D1" || record[ColumnPoint] != "巴黎" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["extra"]; ok {
		t.Fatal("expected unknown column to be dropped")
	}
	if record[ColumnHotel] != "" {
		t.Fatalf("expected empty hotel, got %q", record[ColumnHotel])
	}
}

// TestNormalizeIdempotent проверяет, что повторная нормализация ничего не меняет.
func TestNormalizeIdempotent(t *testing.T) {
	input := []Record{
		{"天數": "D1", "中餐": "六菜一湯", "含午餐": "是"},
		{"Ticket": "羅浮宮", "include_ticket": "true"},
		{},
	}

	once := Normalize(input)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent normalize\nonce  %v\ntwice %v", once, twice)
	}
}

// TestNormalizeCanonicalWinsOverAlias проверяет приоритет канонической колонки.
func TestNormalizeCanonicalWinsOverAlias(t *testing.T) {
	records := Normalize([]Record{{"中餐": "麵", "午餐": "六菜一湯"}})
	if records[0][ColumnLunch] != "六菜一湯" {
		t.Fatalf("expected canonical value, got %q", records[0][ColumnLunch])
	}
}

// TestNormalizeRawCoercesValues проверяет приведение значений JSON к тексту.
func TestNormalizeRawCoercesValues(t *testing.T) {
	records := NormalizeRaw([]map[string]interface{}{{
		"day":            float64(3),
		"ticket":         []interface{}{"羅浮宮", "塞納河遊船"},
		"include_ticket": true,
		"hotel":          nil,
	}})

	record := records[0]
	if record[ColumnDay] != "3" {
		t.Fatalf("expected day 3, got %q", record[ColumnDay])
	}
	if record[ColumnTicket] != "羅浮宮 + 塞納河遊船" {
		t.Fatalf("unexpected ticket: %q", record[ColumnTicket])
	}
	if record[ColumnIncludeTicket] != "true" || record[ColumnHotel] != "" {
		t.Fatalf("unexpected record: %v", record)
	}
}

// TestToLinesFlags проверяет разбор флагов и значение по умолчанию.
func TestToLinesFlags(t *testing.T) {
	lines := ToLines([]Record{{
		"天數":  "D1",
		"午餐":  "六菜一湯",
		"晚餐":  "中式八菜",
		"含晚餐": "否",
		"門票":  "-",
	}})

	line := lines[0]
	if !line.IncludeLunch {
		t.Fatal("expected lunch included by default when text present")
	}
	if line.IncludeDinner {
		t.Fatal("expected dinner excluded by explicit flag")
	}
	if line.IncludeTicket {
		t.Fatal("expected placeholder ticket to be excluded")
	}
}

// TestLinesRecordsRoundTrip проверяет FromLines/ToLines.
func TestLinesRecordsRoundTrip(t *testing.T) {
	lines := []Line{
		{DayLabel: "D1", DayPoint: "巴黎", Lunch: "六菜一湯", IncludeLunch: true, Ticket: "羅浮宮", IncludeTicket: false},
		{Ticket: "塞納河遊船", IncludeTicket: true},
	}

	got := ToLines(FromLines(lines))
	if !reflect.DeepEqual(got, lines) {
		t.Fatalf("expected round trip\nwant %+v\ngot  %+v", lines, got)
	}
}
