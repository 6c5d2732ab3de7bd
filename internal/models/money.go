package models

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single currency the ledger books in
const Currency = money.USD

// CurrencyPlaces is the fixed-point precision of every stored amount
const CurrencyPlaces = 2

// RoundAmount rounds to cents
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// FormatAmount renders a value as a display amount, e.g. "$5,000.00".
func FormatAmount(d decimal.Decimal) string {
	cents := d.Shift(CurrencyPlaces).Round(0).IntPart()
	return money.New(cents, Currency).Display()
}

// FixedAmount renders a value with exactly two decimals and no symbol, e.g. "6.85".
func FixedAmount(d decimal.Decimal) string {
	return d.StringFixed(CurrencyPlaces)
}
