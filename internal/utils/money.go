// internal/utils/money.go
package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatMinorUnits renders an amount held in minor units, e.g. 12345 with
// exponent 2 becomes "123.45".
func FormatMinorUnits(amount uint64, exponent int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -exponent).StringFixed(exponent)
}

// FeeRatePercent renders a basis-point fee rate as a percentage, e.g. 250 becomes "2.50".
func FeeRatePercent(basisPoints uint16) string {
	return decimal.New(int64(basisPoints), -2).StringFixed(2)
}
