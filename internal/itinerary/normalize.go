package itinerary

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"example.com/ai-tour-quote/backend/internal/pricing"
)

// Канонические колонки таблицы маршрута.
const (
	ColumnDay           = "天數"
	ColumnPoint         = "城市"
	ColumnLunch         = "午餐"
	ColumnDinner        = "晚餐"
	ColumnTicket        = "門票"
	ColumnHotel         = "住宿"
	ColumnIncludeLunch  = "含午餐"
	ColumnIncludeDinner = "含晚餐"
	ColumnIncludeTicket = "含門票"
	ColumnIncludeHotel  = "含住宿"
	ColumnNote          = "備註"
)

// Columns задает порядок колонок, в том числе для таблиц без заголовка.
var Columns = []string{
	ColumnDay,
	ColumnPoint,
	ColumnLunch,
	ColumnDinner,
	ColumnTicket,
	ColumnHotel,
	ColumnIncludeLunch,
	ColumnIncludeDinner,
	ColumnIncludeTicket,
	ColumnIncludeHotel,
	ColumnNote,
}

var columnAliases = map[string][]string{
	ColumnDay:           {"天數", "天", "日", "日期", "日程", "day", "days", "daylabel", "day_label"},
	ColumnPoint:         {"城市", "行程點", "地點", "行程", "停留城市", "city", "point", "daypoint", "day_point", "route"},
	ColumnLunch:         {"午餐", "中餐", "lunch", "lunch_text"},
	ColumnDinner:        {"晚餐", "dinner", "dinner_text"},
	ColumnTicket:        {"門票", "景點門票", "景點", "入場券", "ticket", "tickets", "ticket_text"},
	ColumnHotel:         {"住宿", "飯店", "酒店", "hotel", "hotel_text"},
	ColumnIncludeLunch:  {"含午餐", "午餐計價", "計午餐", "include_lunch", "includelunch"},
	ColumnIncludeDinner: {"含晚餐", "晚餐計價", "計晚餐", "include_dinner", "includedinner"},
	ColumnIncludeTicket: {"含門票", "門票計價", "計門票", "include_ticket", "includeticket"},
	ColumnIncludeHotel:  {"含住宿", "住宿計價", "計住宿", "include_hotel", "includehotel"},
	ColumnNote:          {"備註", "說明", "note", "notes", "remark", "remarks"},
}

var aliasIndex = buildAliasIndex()

var (
	truthyFlags = []string{"true", "yes", "y", "1", "是", "含", "要", "✓", "✔", "v", "o", "○"}
	falsyFlags  = []string{"false", "no", "n", "0", "否", "不含", "不要", "✗", "✘", "x", "×"}
)

// Record: строка маршрута в виде колонка → текст.
type Record map[string]string

func buildAliasIndex() map[string]string {
	index := make(map[string]string)
	for column, aliases := range columnAliases {
		for _, alias := range aliases {
			index[headerKey(alias)] = column
		}
	}
	return index
}

func headerKey(value string) string {
	key := strings.ToLower(width.Narrow.String(strings.TrimSpace(value)))
	key = strings.ReplaceAll(key, " ", "")
	return key
}

// CanonicalColumn возвращает каноническое имя колонки по заголовку или псевдониму.
func CanonicalColumn(header string) (string, bool) {
	column, ok := aliasIndex[headerKey(header)]
	return column, ok
}

// Normalize приводит записи к схеме: лишние колонки отбрасываются,
// недостающие заполняются пустой строкой. Повторный вызов ничего не меняет.
func Normalize(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		normalized := make(Record, len(Columns))
		for _, column := range Columns {
			normalized[column] = ""
		}

		keys := make([]string, 0, len(record))
		for key := range record {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			column, ok := CanonicalColumn(key)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(record[key])
			if trimmed == "" {
				continue
			}
			// A non-empty canonical key wins over its aliases.
			if key == column || normalized[column] == "" {
				normalized[column] = trimmed
			}
		}

		out = append(out, normalized)
	}
	return out
}

// NormalizeRaw приводит произвольные значения (например, из JSON) к тексту и нормализует записи.
func NormalizeRaw(raw []map[string]interface{}) []Record {
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		record := make(Record, len(item))
		for key, value := range item {
			record[key] = stringify(value)
		}
		records = append(records, record)
	}
	return Normalize(records)
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, part := range v {
			if text := strings.TrimSpace(stringify(part)); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " + ")
	default:
		return fmt.Sprint(v)
	}
}

// ToLines превращает нормализованные записи в строки таблицы.
// Если колонка флага пуста, статья включается при наличии текста.
func ToLines(records []Record) []Line {
	lines := make([]Line, 0, len(records))
	for _, record := range Normalize(records) {
		dayLabel := record[ColumnDay]
		if pricing.IsPlaceholder(dayLabel) {
			dayLabel = ""
		}

		line := Line{
			DayLabel: dayLabel,
			DayPoint: record[ColumnPoint],
			Lunch:    record[ColumnLunch],
			Dinner:   record[ColumnDinner],
			Ticket:   record[ColumnTicket],
			Hotel:    record[ColumnHotel],
			Note:     record[ColumnNote],
		}
		line.IncludeLunch = parseFlag(record[ColumnIncludeLunch], line.Lunch)
		line.IncludeDinner = parseFlag(record[ColumnIncludeDinner], line.Dinner)
		line.IncludeTicket = parseFlag(record[ColumnIncludeTicket], line.Ticket)
		line.IncludeHotel = parseFlag(record[ColumnIncludeHotel], line.Hotel)

		lines = append(lines, line)
	}
	return lines
}

// FromLines превращает строки обратно в записи схемы.
func FromLines(lines []Line) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		records = append(records, Record{
			ColumnDay:           line.DayLabel,
			ColumnPoint:         line.DayPoint,
			ColumnLunch:         line.Lunch,
			ColumnDinner:        line.Dinner,
			ColumnTicket:        line.Ticket,
			ColumnHotel:         line.Hotel,
			ColumnIncludeLunch:  strconv.FormatBool(line.IncludeLunch),
			ColumnIncludeDinner: strconv.FormatBool(line.IncludeDinner),
			ColumnIncludeTicket: strconv.FormatBool(line.IncludeTicket),
			ColumnIncludeHotel:  strconv.FormatBool(line.IncludeHotel),
			ColumnNote:          line.Note,
		})
	}
	return records
}

func parseFlag(value, text string) bool {
	normalized := strings.ToLower(width.Narrow.String(strings.TrimSpace(value)))
	if normalized == "" {
		return !pricing.IsPlaceholder(text)
	}

	for _, flag := range truthyFlags {
		if normalized == flag {
			return true
		}
	}
	for _, flag := range falsyFlags {
		if normalized == flag {
			return false
		}
	}

	return !pricing.IsPlaceholder(text)
}
