package pricing

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var placeholders = []string{"-", "--", "—", "－", "同上", "〃", "無", "无", "n/a"}

// Пометки "за свой счет": при отсутствии совпадения дают явный ноль, а не промах.
// Голое "自行" узнается только как вся ячейка: оно входит в обычные слова вроде "自行車".
var (
	selfArrangedMarkers = []string{"自理", "自費", "自行用餐", "自行安排", "自行前往"}
	selfArrangedCells   = []string{"自行"}
)

// Table: таблица поиска цены по ключевому слову.
type Table struct {
	entries []PriceEntry
	ordered []PriceEntry
}

// NewTable создает таблицу, пропуская некорректные и повторяющиеся ключи.
func NewTable(entries []PriceEntry) *Table {
	seen := make(map[string]struct{}, len(entries))
	kept := make([]PriceEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Keyword = strings.TrimSpace(entry.Keyword)
		if !entry.Valid() {
			continue
		}
		if _, ok := seen[entry.Keyword]; ok {
			continue
		}
		seen[entry.Keyword] = struct{}{}
		kept = append(kept, entry)
	}

	ordered := make([]PriceEntry, len(kept))
	copy(ordered, kept)
	// Longest keyword first; stable sort keeps source order for equal lengths.
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].Keyword) > utf8.RuneCountInString(ordered[j].Keyword)
	})

	return &Table{entries: kept, ordered: ordered}
}

// Entries возвращает записи в исходном порядке.
func (t *Table) Entries() []PriceEntry {
	out := make([]PriceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len возвращает число записей.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup ищет цену для текста ячейки.
func (t *Table) Lookup(text string) (decimal.Decimal, bool) {
	entry, ok := t.Match(text)
	if ok {
		return entry.UnitPrice, true
	}

	trimmed := strings.TrimSpace(text)
	if IsPlaceholder(trimmed) {
		return decimal.Zero, false
	}

	if isSelfArranged(trimmed) {
		return decimal.Zero, true
	}

	return decimal.Zero, false
}

// isSelfArranged сообщает, что ячейка помечена как расход за свой счет.
func isSelfArranged(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, cell := range selfArrangedCells {
		if trimmed == cell {
			return true
		}
	}
	for _, marker := range selfArrangedMarkers {
		if strings.Contains(trimmed, marker) {
			return true
		}
	}
	return false
}

// Match возвращает запись с самым длинным ключом, входящим в текст.
func (t *Table) Match(text string) (PriceEntry, bool) {
	trimmed := strings.TrimSpace(text)
	if IsPlaceholder(trimmed) {
		return PriceEntry{}, false
	}

	for _, entry := range t.ordered {
		if strings.Contains(trimmed, entry.Keyword) {
			return entry, true
		}
	}

	return PriceEntry{}, false
}

// IsPlaceholder сообщает, что ячейка пуста по смыслу.
func IsPlaceholder(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	lowered := strings.ToLower(trimmed)
	for _, placeholder := range placeholders {
		if lowered == placeholder {
			return true
		}
	}
	return false
}
