package domain

import "github.com/shopspring/decimal"

// Round3 rounds a price, ratio or capital value to 3 decimal places.
// All monetary values are rounded at the point of storage.
func Round3(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return f
}

// Ratio computes the multiplicative return of a closed position,
// rounded to 3 decimals. A zero buy price yields 0.
func Ratio(sellPrice, buyPrice float64) float64 {
	if buyPrice == 0 {
		return 0
	}
	return Round3(sellPrice / buyPrice)
}
