package model

import "github.com/shopspring/decimal"

// AmountExponent is the number of implied decimal digits in bank amounts.
const AmountExponent = 4

// Scale converts a bank integer (four implied decimals) into currency units.
func Scale(v int64) decimal.Decimal {
	return decimal.New(v, -AmountExponent)
}

// Unscale converts currency units back to the bank's integer representation,
// rounding anything finer than the fourth decimal.
func Unscale(d decimal.Decimal) int64 {
	return d.Shift(AmountExponent).Round(0).IntPart()
}
