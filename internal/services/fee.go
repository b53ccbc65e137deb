// internal/services/fee.go
package services

import (
	"math/bits"

	"github.com/javajoker/datasov-backend/internal/models"
)

// ComputeFee splits price into the marketplace fee and the seller's net.
// fee = floor(price * basisPoints / 10000) using a 128-bit intermediate; the
// remainder of the division stays with net.
func ComputeFee(price uint64, basisPoints uint16) (fee, net uint64, err error) {
	if basisPoints > models.BasisPointsDenominator {
		return 0, 0, ErrInvalidFeeRate
	}

	hi, lo := bits.Mul64(price, uint64(basisPoints))
	if hi >= models.BasisPointsDenominator {
		// quotient would not fit in 64 bits
		return 0, 0, ErrArithmeticOverflow
	}
	fee, _ = bits.Div64(hi, lo, models.BasisPointsDenominator)

	net, borrow := bits.Sub64(price, fee, 0)
	if borrow != 0 {
		return 0, 0, ErrArithmeticOverflow
	}
	return fee, net, nil
}

// checkedCredit adds amount to a stored total, failing with
// ErrArithmeticOverflow past models.MaxAmount.
func checkedCredit(total, amount uint64) (uint64, error) {
	sum, err := checkedAdd(total, amount)
	if err != nil || sum > models.MaxAmount {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// checkedAdd returns a+b or ErrArithmeticOverflow.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
