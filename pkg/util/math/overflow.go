package math

import (
	"fmt"
	"math/bits"
)

const (
	MINUINT32 = uint32(0)
	MAXUINT32 = ^MINUINT32
	MINUINT64 = uint64(0)
	MAXUINT64 = ^MINUINT64
)

func AddUint64Overflow(a uint64, b ...uint64) (uint64, error) {
	for _, v := range b {
		if MAXUINT64-a < v {
			return 0, fmt.Errorf("uint64 add overflow")
		}
		a += v
	}

	return a, nil
}

func SubUint64Overflow(a uint64, b ...uint64) (uint64, error) {
	for _, v := range b {
		if a < v {
			return 0, fmt.Errorf("uint64 sub overflow")
		}
		a -= v
	}

	return a, nil
}

func AddUint32Overflow(a uint32, b ...uint32) (uint32, error) {
	for _, v := range b {
		if MAXUINT32-a < v {
			return 0, fmt.Errorf("uint32 add overflow")
		}
		a += v
	}

	return a, nil
}

func SubUint32Overflow(a uint32, b ...uint32) (uint32, error) {
	for _, v := range b {
		if a < v {
			return 0, fmt.Errorf("uint32 sub overflow")
		}
		a -= v
	}

	return a, nil
}

func MulUint32Overflow(a, b uint32) (uint32, error) {
	hi, lo := bits.Mul32(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("uint32 mul overflow")
	}
	return lo, nil
}

func DivUint32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, fmt.Errorf("uint32 divide by zero")
	}
	return a / b, nil
}

func ModUint32(a, b uint32) (uint32, error) {
	if b == 0 {
		return 0, fmt.Errorf("uint32 divide by zero")
	}
	return a % b, nil
}

// PowUint32Overflow raises a to the power of e by squaring.
func PowUint32Overflow(a, e uint32) (uint32, error) {
	result := uint32(1)
	base := a
	for e > 0 {
		var err error
		if e&1 == 1 {
			if result, err = MulUint32Overflow(result, base); err != nil {
				return 0, fmt.Errorf("uint32 pow overflow")
			}
		}
		e >>= 1
		if e > 0 {
			if base, err = MulUint32Overflow(base, base); err != nil {
				return 0, fmt.Errorf("uint32 pow overflow")
			}
		}
	}
	return result, nil
}
