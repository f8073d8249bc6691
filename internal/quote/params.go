package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTierConfiguration = errors.New("invalid pax tier configuration")
	ErrInvalidParams            = errors.New("invalid quote parameters")
)

var (
	// DefaultTaxMarkup: 5% налог поверх цены с прибылью.
	DefaultTaxMarkup = decimal.RequireFromString("1.05")
	// DefaultTiers: группы 15+1, 20+1, 25+1, 30+1.
	DefaultTiers = []int{16, 21, 26, 31}
)

// Params: параметры расчета. Все суммы, кроме курса, в местной валюте.
type Params struct {
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	BaseAirfare     decimal.Decimal `json:"base_airfare"`
	AirfareTax      decimal.Decimal `json:"airfare_tax"`
	DailyIncidental decimal.Decimal `json:"daily_incidental"`
	TargetProfit    decimal.Decimal `json:"target_profit"`
	TaxMarkup       decimal.Decimal `json:"tax_markup"`
	PaxTiers        []int           `json:"pax_tiers"`
}

// WithDefaults подставляет наценку и ступени по умолчанию.
func (p Params) WithDefaults() Params {
	if p.TaxMarkup.IsZero() {
		p.TaxMarkup = DefaultTaxMarkup
	}
	if len(p.PaxTiers) == 0 {
		p.PaxTiers = append([]int(nil), DefaultTiers...)
	}
	return p
}

// Validate проверяет параметры до начала расчета.
func (p Params) Validate() error {
	if !p.ExchangeRate.IsPositive() {
		return fmt.Errorf("%w: exchange rate must be greater than 0", ErrInvalidParams)
	}
	if !p.TaxMarkup.IsPositive() {
		return fmt.Errorf("%w: tax markup must be greater than 0", ErrInvalidParams)
	}
	if p.BaseAirfare.IsNegative() || p.AirfareTax.IsNegative() || p.DailyIncidental.IsNegative() {
		return fmt.Errorf("%w: airfare, tax and incidentals cannot be negative", ErrInvalidParams)
	}

	return ValidateTiers(p.PaxTiers)
}

// ValidateTiers проверяет, что ступени не пусты, строго возрастают и каждая не меньше 2.
func ValidateTiers(tiers []int) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: at least one tier is required", ErrInvalidTierConfiguration)
	}

	for i, pax := range tiers {
		if pax < 2 {
			return fmt.Errorf("%w: tier %d must be at least 2", ErrInvalidTierConfiguration, pax)
		}
		if i > 0 && pax <= tiers[i-1] {
			return fmt.Errorf("%w: tiers must be strictly increasing (%d after %d)", ErrInvalidTierConfiguration, pax, tiers[i-1])
		}
	}

	return nil
}
