package models

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Round rounds v to places decimal digits using the exact binary value of v,
// so 9.995 (stored just below the tie) rounds to 9.99. Exact ties round half
// to even. Non-finite input is returned unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, _ := exactDecimal(v).RoundBank(int32(places)).Float64()
	return r
}

// exactDecimal returns the full decimal expansion of v. A float64 is
// mant * 2^exp, and 2^-k == 5^k * 10^-k.
func exactDecimal(v float64) decimal.Decimal {
	if v == 0 {
		return decimal.Zero
	}
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(exp))
}
