package itinerary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/pricing"
)

// TicketItem: один билет дня.
type TicketItem struct {
	Text        string           `json:"text"`
	Include     bool             `json:"include"`
	ManualPrice *decimal.Decimal `json:"manual_price,omitempty"`
}

// Day: день маршрута, которому явно принадлежат его билеты.
type Day struct {
	Label         string                    `json:"label"`
	Point         string                    `json:"point"`
	Lunch         string                    `json:"lunch"`
	Dinner        string                    `json:"dinner"`
	Hotel         string                    `json:"hotel"`
	Note          string                    `json:"note,omitempty"`
	IncludeLunch  bool                      `json:"include_lunch"`
	IncludeDinner bool                      `json:"include_dinner"`
	IncludeHotel  bool                      `json:"include_hotel"`
	Tickets       []TicketItem              `json:"tickets"`
	ManualPrices  map[Field]decimal.Decimal `json:"manual_prices,omitempty"`
}

// Issue: замечание к строке таблицы, не блокирующее расчет.
type Issue struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// Group собирает плоские строки в дни: строки без метки дня становятся билетами предыдущего дня.
// Ячейка "A + B" дает два билета.
func Group(lines []Line) []Day {
	days := make([]Day, 0, len(lines))
	for _, line := range lines {
		if line.IsContinuation() && len(days) > 0 {
			last := &days[len(days)-1]
			last.Tickets = append(last.Tickets, ticketsOf(line)...)
			continue
		}

		day := Day{
			Label:         strings.TrimSpace(line.DayLabel),
			Point:         line.DayPoint,
			Lunch:         line.Lunch,
			Dinner:        line.Dinner,
			Hotel:         line.Hotel,
			Note:          line.Note,
			IncludeLunch:  line.IncludeLunch,
			IncludeDinner: line.IncludeDinner,
			IncludeHotel:  line.IncludeHotel,
			Tickets:       ticketsOf(line),
		}
		for field, price := range line.ManualPrices {
			if field == FieldTicket {
				continue
			}
			if day.ManualPrices == nil {
				day.ManualPrices = make(map[Field]decimal.Decimal)
			}
			day.ManualPrices[field] = price
		}
		days = append(days, day)
	}
	return days
}

func ticketsOf(line Line) []TicketItem {
	// A manual price covers the whole cell, so such a cell stays one ticket.
	if manual, ok := line.ManualPrice(FieldTicket); ok {
		price := manual
		return []TicketItem{{Text: strings.TrimSpace(line.Ticket), Include: line.IncludeTicket, ManualPrice: &price}}
	}

	items := SplitItems(line.Ticket)
	tickets := make([]TicketItem, 0, len(items))
	for _, item := range items {
		tickets = append(tickets, TicketItem{Text: item, Include: line.IncludeTicket})
	}
	return tickets
}

// Flatten раскладывает дни обратно в строки: первый билет остается в строке дня,
// каждый следующий получает свою строку продолжения.
func Flatten(days []Day) []Line {
	lines := make([]Line, 0, len(days))
	for _, day := range days {
		head := Line{
			DayLabel:      day.Label,
			DayPoint:      day.Point,
			Lunch:         day.Lunch,
			Dinner:        day.Dinner,
			Hotel:         day.Hotel,
			Note:          day.Note,
			IncludeLunch:  day.IncludeLunch,
			IncludeDinner: day.IncludeDinner,
			IncludeHotel:  day.IncludeHotel,
		}
		for field, price := range day.ManualPrices {
			setManualPrice(&head, field, price)
		}

		if len(day.Tickets) > 0 {
			applyTicket(&head, day.Tickets[0])
		}
		lines = append(lines, head)

		for i := 1; i < len(day.Tickets); i++ {
			continuation := Line{}
			applyTicket(&continuation, day.Tickets[i])
			lines = append(lines, continuation)
		}
	}
	return lines
}

// Expand разносит составные ячейки билетов по отдельным строкам продолжения.
func Expand(lines []Line) []Line {
	return Flatten(Group(lines))
}

func applyTicket(line *Line, ticket TicketItem) {
	line.Ticket = ticket.Text
	line.IncludeTicket = ticket.Include
	if ticket.ManualPrice != nil {
		setManualPrice(line, FieldTicket, *ticket.ManualPrice)
	}
}

func setManualPrice(line *Line, field Field, price decimal.Decimal) {
	if line.ManualPrices == nil {
		line.ManualPrices = make(map[Field]decimal.Decimal)
	}
	line.ManualPrices[field] = price
}

// ValidateLines проверяет правило строк продолжения: в них заполняется только билет.
func ValidateLines(lines []Line) []Issue {
	issues := make([]Issue, 0)
	for i, line := range lines {
		if !line.IsContinuation() {
			continue
		}

		if i == 0 {
			issues = append(issues, Issue{Index: i, Message: "continuation line has no preceding day"})
		}

		for _, field := range []Field{FieldLunch, FieldDinner, FieldHotel} {
			if line.Included(field) {
				issues = append(issues, Issue{Index: i, Message: fmt.Sprintf("continuation line must not include %s", field)})
			}
			if !pricing.IsPlaceholder(line.Text(field)) {
				issues = append(issues, Issue{Index: i, Message: fmt.Sprintf("continuation line must leave %s empty", field)})
			}
		}

		if strings.TrimSpace(line.DayPoint) != "" {
			issues = append(issues, Issue{Index: i, Message: "continuation line must leave day point empty"})
		}
	}
	return issues
}
