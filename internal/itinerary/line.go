package itinerary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Field: статья расходов в строке маршрута.
type Field string

const (
	FieldLunch  Field = "lunch"
	FieldDinner Field = "dinner"
	FieldTicket Field = "ticket"
	FieldHotel  Field = "hotel"
)

// ErrInvalidManualPrice означает ручную цену для неизвестной статьи или отрицательную цену.
var ErrInvalidManualPrice = errors.New("invalid manual price")

// Fields перечисляет статьи в порядке колонок таблицы.
var Fields = []Field{FieldLunch, FieldDinner, FieldTicket, FieldHotel}

// Line: одна строка редактируемой таблицы маршрута: день или дополнительный билет того же дня.
type Line struct {
	DayLabel      string                    `json:"day_label"`
	DayPoint      string                    `json:"day_point"`
	Lunch         string                    `json:"lunch"`
	Dinner        string                    `json:"dinner"`
	Ticket        string                    `json:"ticket"`
	Hotel         string                    `json:"hotel"`
	Note          string                    `json:"note,omitempty"`
	IncludeLunch  bool                      `json:"include_lunch"`
	IncludeDinner bool                      `json:"include_dinner"`
	IncludeTicket bool                      `json:"include_ticket"`
	IncludeHotel  bool                      `json:"include_hotel"`
	ManualPrices  map[Field]decimal.Decimal `json:"manual_prices,omitempty"`
}

// IsContinuation сообщает, что строка продолжает предыдущий день.
func (l Line) IsContinuation() bool {
	return strings.TrimSpace(l.DayLabel) == ""
}

// Text возвращает текст ячейки статьи.
func (l Line) Text(field Field) string {
	switch field {
	case FieldLunch:
		return l.Lunch
	case FieldDinner:
		return l.Dinner
	case FieldTicket:
		return l.Ticket
	case FieldHotel:
		return l.Hotel
	default:
		return ""
	}
}

// Included сообщает, отмечена ли статья для расчета.
func (l Line) Included(field Field) bool {
	switch field {
	case FieldLunch:
		return l.IncludeLunch
	case FieldDinner:
		return l.IncludeDinner
	case FieldTicket:
		return l.IncludeTicket
	case FieldHotel:
		return l.IncludeHotel
	default:
		return false
	}
}

// ManualPrice возвращает цену, введенную вручную вместо поиска по прайсу.
func (l Line) ManualPrice(field Field) (decimal.Decimal, bool) {
	if l.ManualPrices == nil {
		return decimal.Zero, false
	}
	price, ok := l.ManualPrices[field]
	return price, ok
}

// ParseField приводит строковое имя статьи к Field.
func ParseField(value string) (Field, bool) {
	switch Field(strings.ToLower(strings.TrimSpace(value))) {
	case FieldLunch:
		return FieldLunch, true
	case FieldDinner:
		return FieldDinner, true
	case FieldTicket:
		return FieldTicket, true
	case FieldHotel:
		return FieldHotel, true
	default:
		return "", false
	}
}

// CanonicalManualPrices приводит ключи ручных цен к Field ("Lunch" → lunch) прямо в строках.
func CanonicalManualPrices(lines []Line) error {
	for i := range lines {
		if len(lines[i].ManualPrices) == 0 {
			continue
		}

		prices := make(map[Field]decimal.Decimal, len(lines[i].ManualPrices))
		for key, price := range lines[i].ManualPrices {
			field, ok := ParseField(string(key))
			if !ok {
				return fmt.Errorf("%w: unknown field %q on line %d", ErrInvalidManualPrice, key, i)
			}
			if price.IsNegative() {
				return fmt.Errorf("%w: negative %s price on line %d", ErrInvalidManualPrice, field, i)
			}
			prices[field] = price
		}
		lines[i].ManualPrices = prices
	}
	return nil
}
