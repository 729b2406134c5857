package math

import (
	"fmt"
	"math/big"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer with checked arithmetic.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

var MaxUint128 = Uint128{Hi: MAXUINT64, Lo: MAXUINT64}

func NewUint128(lo uint64) Uint128 {
	return Uint128{Lo: lo}
}

func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Cmp returns -1, 0 or 1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

func (u Uint128) Add(v Uint128) (Uint128, error) {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, carry := bits.Add64(u.Hi, v.Hi, carry)
	if carry != 0 {
		return Uint128{}, fmt.Errorf("uint128 add overflow")
	}
	return Uint128{Hi: hi, Lo: lo}, nil
}

func (u Uint128) Sub(v Uint128) (Uint128, error) {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, borrow := bits.Sub64(u.Hi, v.Hi, borrow)
	if borrow != 0 {
		return Uint128{}, fmt.Errorf("uint128 sub overflow")
	}
	return Uint128{Hi: hi, Lo: lo}, nil
}

func (u Uint128) Mul(v Uint128) (Uint128, error) {
	if u.Hi != 0 && v.Hi != 0 {
		return Uint128{}, fmt.Errorf("uint128 mul overflow")
	}

	hi, lo := bits.Mul64(u.Lo, v.Lo)
	c1h, c1 := bits.Mul64(u.Hi, v.Lo)
	c2h, c2 := bits.Mul64(u.Lo, v.Hi)
	if c1h != 0 || c2h != 0 {
		return Uint128{}, fmt.Errorf("uint128 mul overflow")
	}

	var carry uint64
	hi, carry = bits.Add64(hi, c1, 0)
	if carry != 0 {
		return Uint128{}, fmt.Errorf("uint128 mul overflow")
	}
	hi, carry = bits.Add64(hi, c2, 0)
	if carry != 0 {
		return Uint128{}, fmt.Errorf("uint128 mul overflow")
	}
	return Uint128{Hi: hi, Lo: lo}, nil
}

func (u Uint128) Div(v Uint128) (Uint128, error) {
	q, _, err := u.quoRem(v)
	return q, err
}

func (u Uint128) Mod(v Uint128) (Uint128, error) {
	_, r, err := u.quoRem(v)
	return r, err
}

func (u Uint128) quoRem(v Uint128) (Uint128, Uint128, error) {
	if v.IsZero() {
		return Uint128{}, Uint128{}, fmt.Errorf("uint128 divide by zero")
	}

	if v.Hi == 0 {
		// two-step long division by a 64-bit divisor
		qhi, r := bits.Div64(0, u.Hi, v.Lo)
		qlo, r := bits.Div64(r, u.Lo, v.Lo)
		return Uint128{Hi: qhi, Lo: qlo}, Uint128{Lo: r}, nil
	}

	q, r := new(big.Int).QuoRem(u.Big(), v.Big(), new(big.Int))
	qu, _ := Uint128FromBig(q)
	ru, _ := Uint128FromBig(r)
	return qu, ru, nil
}

// Pow raises u to the power of e by squaring.
func (u Uint128) Pow(e uint32) (Uint128, error) {
	result := NewUint128(1)
	base := u
	for e > 0 {
		var err error
		if e&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Uint128{}, fmt.Errorf("uint128 pow overflow")
			}
		}
		e >>= 1
		if e > 0 {
			if base, err = base.Mul(base); err != nil {
				return Uint128{}, fmt.Errorf("uint128 pow overflow")
			}
		}
	}
	return result, nil
}

func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func Uint128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("value %s out of uint128 range", b.String())
	}
	lo := new(big.Int).And(b, new(big.Int).SetUint64(MAXUINT64)).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return Uint128{Hi: hi, Lo: lo}, nil
}

func ParseUint128(s string) (Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("invalid uint128 %q", s)
	}
	return Uint128FromBig(b)
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	return u.Big().String()
}
