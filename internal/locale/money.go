package locale

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const currencyCode = money.ARS

// Pesos renders d as an Argentine peso amount, e.g. "$4.730,31".
func Pesos(d decimal.Decimal) string {
	currency := money.GetCurrency(currencyCode)
	cents := d.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()

	return money.New(cents, currencyCode).Display()
}
