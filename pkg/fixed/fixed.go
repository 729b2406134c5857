// Package fixed implements a platform independent non-negative decimal with
// nineteen fractional digits. All arithmetic is integer based so that every
// node computes bit-identical results.
package fixed

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/shopspring/decimal"
)

const (
	// Precision is the number of decimal digits stored in the fraction.
	Precision = 19

	// MaxFraction is the largest valid fractional part.
	MaxFraction uint64 = 9_999_999_999_999_999_999

	// Denominator is 10^Precision.
	Denominator uint64 = MaxFraction + 1
)

var (
	Zero = Fixed{}
	One  = Fixed{integral: 1}
	Max  = Fixed{integral: math.MaxUint64, fraction: MaxFraction}

	bigDenominator = new(big.Int).SetUint64(Denominator)
	maxComposite   = Max.composite()
)

// Fixed is an unsigned decimal made of a 64-bit integral part and a 64-bit
// fraction counted in units of 10^-19. The zero value is 0.
type Fixed struct {
	integral uint64
	fraction uint64
}

// FromRawUnchecked composes a Fixed without validating the fraction. It is
// reserved for arithmetic that has already established fraction <= MaxFraction.
func FromRawUnchecked(integral, fraction uint64) Fixed {
	return Fixed{integral: integral, fraction: fraction}
}

// New returns the Fixed integral.fraction, fraction being counted in 10^-19 units.
func New(integral, fraction uint64) (Fixed, error) {
	if fraction > MaxFraction {
		return Fixed{}, newError(Conversion, "fraction %d exceeds %d", fraction, MaxFraction)
	}
	return FromRawUnchecked(integral, fraction), nil
}

// FromUint64 returns n as a Fixed with a zero fraction.
func FromUint64(n uint64) Fixed {
	return Fixed{integral: n}
}

func (f Fixed) Integral() uint64 { return f.integral }

func (f Fixed) Fraction() uint64 { return f.fraction }

func (f Fixed) IsZero() bool {
	return f.integral == 0 && f.fraction == 0
}

// Cmp returns -1, 0 or 1.
func (f Fixed) Cmp(o Fixed) int {
	switch {
	case f.integral < o.integral:
		return -1
	case f.integral > o.integral:
		return 1
	case f.fraction < o.fraction:
		return -1
	case f.fraction > o.fraction:
		return 1
	}
	return 0
}

// CheckedAdd returns f+o, or false on overflow.
func (f Fixed) CheckedAdd(o Fixed) (Fixed, bool) {
	// the sum of two fractions may not fit in uint64, so carry first
	var fraction, carry uint64
	if room := Denominator - f.fraction; o.fraction >= room {
		fraction, carry = o.fraction-room, 1
	} else {
		fraction = f.fraction + o.fraction
	}

	integral, c1 := bits.Add64(f.integral, o.integral, 0)
	if c1 != 0 {
		return Fixed{}, false
	}
	integral, c2 := bits.Add64(integral, carry, 0)
	if c2 != 0 {
		return Fixed{}, false
	}
	return FromRawUnchecked(integral, fraction), true
}

// CheckedSub returns f-o, or false when the result would be negative.
func (f Fixed) CheckedSub(o Fixed) (Fixed, bool) {
	var fraction, borrow uint64
	if f.fraction < o.fraction {
		fraction, borrow = Denominator-o.fraction+f.fraction, 1
	} else {
		fraction = f.fraction - o.fraction
	}

	integral, b1 := bits.Sub64(f.integral, o.integral, 0)
	if b1 != 0 {
		return Fixed{}, false
	}
	integral, b2 := bits.Sub64(integral, borrow, 0)
	if b2 != 0 {
		return Fixed{}, false
	}
	return FromRawUnchecked(integral, fraction), true
}

// CheckedMul returns f*o truncated toward zero to nineteen fractional digits,
// or false on overflow.
func (f Fixed) CheckedMul(o Fixed) (Fixed, bool) {
	prod := new(big.Int).Mul(f.composite(), o.composite())
	prod.Quo(prod, bigDenominator)
	return fromComposite(prod)
}

// CheckedDiv returns f/o truncated toward zero to nineteen fractional digits.
// It returns false when o is zero or the quotient overflows.
func (f Fixed) CheckedDiv(o Fixed) (Fixed, bool) {
	if o.IsZero() {
		return Fixed{}, false
	}
	num := new(big.Int).Mul(f.composite(), bigDenominator)
	num.Quo(num, o.composite())
	return fromComposite(num)
}

func (f Fixed) Add(o Fixed) (Fixed, error) {
	r, ok := f.CheckedAdd(o)
	if !ok {
		return Fixed{}, newError(Overflow, "%s + %s", f, o)
	}
	return r, nil
}

func (f Fixed) Sub(o Fixed) (Fixed, error) {
	r, ok := f.CheckedSub(o)
	if !ok {
		return Fixed{}, newError(NegativeValue, "%s - %s", f, o)
	}
	return r, nil
}

func (f Fixed) Mul(o Fixed) (Fixed, error) {
	r, ok := f.CheckedMul(o)
	if !ok {
		return Fixed{}, newError(Overflow, "%s * %s", f, o)
	}
	return r, nil
}

func (f Fixed) Div(o Fixed) (Fixed, error) {
	if o.IsZero() {
		return Fixed{}, newError(DivideByZero, "%s / 0", f)
	}
	r, ok := f.CheckedDiv(o)
	if !ok {
		return Fixed{}, newError(Overflow, "%s / %s", f, o)
	}
	return r, nil
}

// composite returns integral*10^19 + fraction.
func (f Fixed) composite() *big.Int {
	hi, lo := bits.Mul64(f.integral, Denominator)
	lo, carry := bits.Add64(lo, f.fraction, 0)
	hi += carry

	c := new(big.Int).SetUint64(hi)
	c.Lsh(c, 64)
	return c.Or(c, new(big.Int).SetUint64(lo))
}

func fromComposite(c *big.Int) (Fixed, bool) {
	if c.Sign() < 0 || c.Cmp(maxComposite) > 0 {
		return Fixed{}, false
	}
	q, r := new(big.Int).QuoRem(c, bigDenominator, new(big.Int))
	return FromRawUnchecked(q.Uint64(), r.Uint64()), true
}

// FromFloat converts a finite non-negative float. The fraction is truncated
// after scaling into 10^-19 units, so the conversion is lossy.
func FromFloat(v float64) (Fixed, error) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return Fixed{}, newError(Conversion, "%v is not finite", v)
	case v < 0:
		return Fixed{}, newError(NegativeValue, "%v", v)
	case v >= 1<<64:
		return Fixed{}, newError(Overflow, "%v exceeds the integral range", v)
	}

	integral := math.Trunc(v)
	fraction := uint64((v - integral) * float64(Denominator))
	if fraction > MaxFraction {
		fraction = MaxFraction
	}
	return FromRawUnchecked(uint64(integral), fraction), nil
}

// ToFloatLossy is meant for display and debugging. Its result must never feed
// back into ledger state.
func (f Fixed) ToFloatLossy() float64 {
	return float64(f.integral) + float64(f.fraction)/float64(Denominator)
}

// Decimal returns the exact value as a decimal.Decimal.
func (f Fixed) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(f.composite(), -Precision)
}

// Parse reads a non-negative decimal string with at most nineteen fractional digits.
func Parse(s string) (Fixed, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Fixed{}, newError(Conversion, "%q: %v", s, err)
	}
	if d.IsNegative() {
		return Fixed{}, newError(NegativeValue, "%q", s)
	}

	scaled := d.Shift(Precision)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Fixed{}, newError(Conversion, "%q has more than %d fractional digits", s, Precision)
	}

	f, ok := fromComposite(scaled.BigInt())
	if !ok {
		return Fixed{}, newError(Overflow, "%q", s)
	}
	return f, nil
}

func MustParse(s string) Fixed {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// String renders the value with all nineteen fractional digits.
func (f Fixed) String() string {
	return f.Decimal().StringFixed(Precision)
}

func (f Fixed) GoString() string {
	return fmt.Sprintf("fixed.FromRawUnchecked(%d, %d)", f.integral, f.fraction)
}
