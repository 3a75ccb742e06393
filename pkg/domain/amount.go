package domain

import (
	"errors"
	"math/bits"
	"strconv"
	"strings"

	dErrors "bondline/pkg/domain-errors"
)

// Amount is a non-negative quantity of collateral in token base units.
type Amount uint64

// BPSDenominator is the basis-point scale: 10000 bps = 100%.
const BPSDenominator = 10_000

var (
	ErrAmountOverflow  = errors.New("amount overflow")
	ErrAmountUnderflow = errors.New("amount underflow")
)

// ParseAmount parses a decimal amount in base units.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount must be a non-negative integer")
	}
	return Amount(v), nil
}

func (a Amount) IsZero() bool { return a == 0 }

func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

// Add returns a+b, failing instead of wrapping.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return Amount(sum), nil
}

// Sub returns a-b, failing instead of going negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrAmountUnderflow
	}
	return a - b, nil
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if b < a {
		return b
	}
	return a
}

// MulBPS returns floor(a * bps / 10000) without intermediate overflow.
// bps above 10000 is treated as 100%.
func (a Amount) MulBPS(bps uint32) Amount {
	if bps > BPSDenominator {
		bps = BPSDenominator
	}
	hi, lo := bits.Mul64(uint64(a), uint64(bps))
	q, _ := bits.Div64(hi, lo, BPSDenominator)
	return Amount(q)
}

// Revert removes the change before→after from a, leaving changes made by
// others since then in place. The arithmetic wraps, so the result is exact
// whenever the true value is representable.
func (a Amount) Revert(before, after Amount) Amount {
	return a + before - after
}
