package economy

import "github.com/shopspring/decimal"

// SettlementAmount is the exact amount of money a trade at price moves:
// the price rounded half away from zero to the given number of decimals.
func SettlementAmount(price float64, decimals int32) decimal.Decimal {
	return decimal.NewFromFloat(price).Round(decimals)
}

// RoundPrice rounds a price to the given number of decimals, half away from zero.
func RoundPrice(price float64, decimals int32) float64 {
	return SettlementAmount(price, decimals).InexactFloat64()
}

// FormatPrice renders a price with exactly the given number of decimals.
func FormatPrice(price float64, decimals int32) string {
	return decimal.NewFromFloat(price).StringFixed(decimals)
}
