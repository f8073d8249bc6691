package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"example.com/ai-tour-quote/backend/internal/itinerary"
	"example.com/ai-tour-quote/backend/internal/pricing"
)

// LineCost: стоимость одной строки маршрута по статьям.
type LineCost struct {
	Index       int                    `json:"index"`
	DayLabel    string                 `json:"day_label"`
	Resolutions []itinerary.Resolution `json:"resolutions"`
	PerDayEUR   decimal.Decimal        `json:"per_day_eur"`
}

// Miss: ячейка, для которой не нашлась цена; ее нужно заполнить вручную.
type Miss struct {
	Index    int             `json:"index"`
	DayLabel string          `json:"day_label"`
	Field    itinerary.Field `json:"field"`
	Text     string          `json:"text"`
	Missing  []string        `json:"missing"`
}

// Costing: разбор фиксированных расходов на человека.
type Costing struct {
	Lines         []LineCost      `json:"lines"`
	TotalFixedEUR decimal.Decimal `json:"total_fixed_eur"`
	Misses        []Miss          `json:"misses"`
}

// Result: строка итоговой таблицы для одной ступени группы.
type Result struct {
	TierLabel           string          `json:"tier_label"`
	Pax                 int             `json:"pax"`
	ShareCostEUR        decimal.Decimal `json:"share_cost_eur"`
	LandCostLocal       int64           `json:"land_cost_local"`
	NetCostLocal        int64           `json:"net_cost_local"`
	SuggestedPriceLocal int64           `json:"suggested_price_local"`
}

// Quote: полный расчет: разбор расходов и таблица цен по ступеням.
type Quote struct {
	Costing
	SharedCostEUR decimal.Decimal `json:"shared_cost_eur"`
	Params        Params          `json:"params"`
	Tiers         []Result        `json:"tiers"`
}

// Breakdown суммирует найденные цены по строкам; исключенные статьи дают ноль.
func Breakdown(lines []itinerary.Line, table *pricing.Table) Costing {
	costing := Costing{
		Lines:         make([]LineCost, 0, len(lines)),
		TotalFixedEUR: decimal.Zero,
		Misses:        make([]Miss, 0),
	}

	lastDay := ""
	for i, line := range lines {
		if !line.IsContinuation() {
			lastDay = line.DayLabel
		}

		cost := LineCost{Index: i, DayLabel: lastDay, PerDayEUR: decimal.Zero}
		for _, field := range itinerary.Fields {
			resolution := itinerary.Resolve(line, field, table)
			cost.Resolutions = append(cost.Resolutions, resolution)
			cost.PerDayEUR = cost.PerDayEUR.Add(resolution.Amount)

			if resolution.Status == itinerary.StatusMiss {
				costing.Misses = append(costing.Misses, Miss{
					Index:    i,
					DayLabel: lastDay,
					Field:    field,
					Text:     resolution.Text,
					Missing:  resolution.Missing,
				})
			}
		}

		costing.TotalFixedEUR = costing.TotalFixedEUR.Add(cost.PerDayEUR)
		costing.Lines = append(costing.Lines, cost)
	}

	return costing
}

// Compute возвращает таблицу цен по ступеням группы.
func Compute(lines []itinerary.Line, table *pricing.Table, sharedEUR decimal.Decimal, params Params) ([]Result, error) {
	quote, err := Calculate(lines, table, sharedEUR, params)
	if err != nil {
		return nil, err
	}
	return quote.Tiers, nil
}

// Calculate выполняет полный расчет. Функция чистая: одинаковые входные данные дают одинаковый результат.
func Calculate(lines []itinerary.Line, table *pricing.Table, sharedEUR decimal.Decimal, params Params) (Quote, error) {
	if err := params.Validate(); err != nil {
		return Quote{}, err
	}
	if sharedEUR.IsNegative() {
		return Quote{}, fmt.Errorf("%w: shared cost cannot be negative", ErrInvalidParams)
	}

	costing := Breakdown(lines, table)
	return Quote{
		Costing:       costing,
		SharedCostEUR: sharedEUR,
		Params:        params,
		Tiers:         PriceTiers(costing.TotalFixedEUR, sharedEUR, params),
	}, nil
}

// PriceTiers считает цены для каждой ступени. Параметры должны быть проверены заранее.
func PriceTiers(totalFixedEUR, sharedEUR decimal.Decimal, params Params) []Result {
	results := make([]Result, 0, len(params.PaxTiers))
	for _, pax := range params.PaxTiers {
		share := ShareCost(sharedEUR, pax)
		land := totalFixedEUR.Add(share).Mul(params.ExchangeRate)
		net := land.Add(params.BaseAirfare).Add(params.AirfareTax).Add(params.DailyIncidental)
		suggested := net.Add(params.TargetProfit).Mul(params.TaxMarkup)

		results = append(results, Result{
			TierLabel:           TierLabel(pax),
			Pax:                 pax,
			ShareCostEUR:        share,
			LandCostLocal:       land.IntPart(),
			NetCostLocal:        net.IntPart(),
			SuggestedPriceLocal: suggested.IntPart(),
		})
	}
	return results
}

// ShareCost делит общие расходы на платящих участников: одно место из pax бесплатное.
func ShareCost(sharedEUR decimal.Decimal, pax int) decimal.Decimal {
	if sharedEUR.IsZero() || pax < 2 {
		return decimal.Zero
	}
	return sharedEUR.Div(decimal.NewFromInt(int64(pax - 1)))
}

// TierLabel форматирует ступень как "N+1".
func TierLabel(pax int) string {
	return fmt.Sprintf("%d+1", pax-1)
}
