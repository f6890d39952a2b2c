package shared

import "github.com/shopspring/decimal"

// RoundMoney rounds to the two decimal places amounts are kept in.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SumMoney adds amounts and rounds the result.
func SumMoney(values ...decimal.Decimal) decimal.Decimal {
	return RoundMoney(decimal.Sum(decimal.Zero, values...))
}
