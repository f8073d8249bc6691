package itinerary

import (
	"regexp"
	"strings"
)

var (
	separatorRow = regexp.MustCompile(`^[\s|:\-－—]+$`)
	wideSpaces   = regexp.MustCompile(`[ \t]{2,}|　+`)
	codeFence    = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
)

// ParseText разбирает вставленный текст таблицы: Markdown с "|", табуляции
// или колонки, разделенные двумя и более пробелами.
func ParseText(text string) [][]string {
	cleaned := codeFence.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")

	rows := make([][]string, 0)
	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.Contains(line, "|"):
			if separatorRow.MatchString(line) {
				continue
			}
			rows = append(rows, splitPipeRow(line))
		case strings.Contains(raw, "\t"):
			rows = append(rows, trimCells(strings.Split(strings.TrimRight(raw, "\r"), "\t")))
		default:
			rows = append(rows, trimCells(wideSpaces.Split(line, -1)))
		}
	}
	return rows
}

func splitPipeRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	return trimCells(strings.Split(line, "|"))
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, value := range cells {
		out[i] = strings.TrimSpace(value)
	}
	return out
}

// RecordsFromTable превращает строки таблицы в записи. Первая строка считается
// заголовком, если в ней узнаются хотя бы две колонки; иначе колонки берутся по порядку Columns.
func RecordsFromTable(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}

	header, ok := headerColumns(rows[0])
	if ok {
		rows = rows[1:]
	} else {
		header = Columns
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		record := make(Record, len(header))
		for i, column := range header {
			if column == "" || i >= len(row) {
				continue
			}
			record[column] = row[i]
		}
		records = append(records, record)
	}

	return Normalize(records)
}

// ParseLines: полный путь от вставленного текста до строк таблицы.
func ParseLines(text string) []Line {
	return ToLines(RecordsFromTable(ParseText(text)))
}

// ParseTableLines разбирает только таблицы с узнаваемым заголовком; для свободного
// текста возвращает nil. Используется, когда текст не обязательно является таблицей.
func ParseTableLines(text string) []Line {
	rows := ParseText(text)
	if len(rows) < 2 {
		return nil
	}
	if _, ok := headerColumns(rows[0]); !ok {
		return nil
	}
	return ToLines(RecordsFromTable(rows))
}

func headerColumns(row []string) ([]string, bool) {
	columns := make([]string, len(row))
	recognized := 0
	for i, cell := range row {
		column, ok := CanonicalColumn(cell)
		if !ok {
			continue
		}
		columns[i] = column
		recognized++
	}
	return columns, recognized >= 2
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
