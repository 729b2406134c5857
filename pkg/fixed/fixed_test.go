package fixed

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFixed(r *rand.Rand) Fixed {
	integral := r.Uint64()
	switch r.Intn(3) {
	case 0:
		integral >>= 32
	case 1:
		integral >>= 1
	}
	return FromRawUnchecked(integral, r.Uint64()%Denominator)
}

func TestAddSubInverse(t *testing.T) {
	assert := assert.New(t)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 10000; i++ {
		a, b := randomFixed(r), randomFixed(r)
		c, ok := a.CheckedAdd(b)
		if !ok {
			continue
		}
		back, ok := c.CheckedSub(b)
		assert.True(ok)
		assert.Equal(a, back, "a=%s b=%s", a, b)
	}
}

func TestBoundaries(t *testing.T) {
	assert := assert.New(t)
	epsilon := FromRawUnchecked(0, 1)

	_, ok := Max.CheckedAdd(epsilon)
	assert.False(ok)

	_, ok = Zero.CheckedSub(epsilon)
	assert.False(ok)

	v, ok := FromRawUnchecked(0, MaxFraction).CheckedAdd(epsilon)
	assert.True(ok)
	assert.Equal(One, v)

	v, ok = FromRawUnchecked(0, MaxFraction).CheckedAdd(FromRawUnchecked(0, MaxFraction))
	assert.True(ok)
	assert.Equal(FromRawUnchecked(1, MaxFraction-1), v)

	v, ok = One.CheckedSub(epsilon)
	assert.True(ok)
	assert.Equal(FromRawUnchecked(0, MaxFraction), v)

	_, err := Zero.Sub(epsilon)
	assert.True(errors.Is(err, ErrNegativeValue))

	_, err = Max.Add(epsilon)
	assert.True(errors.Is(err, ErrOverflow))
}

func TestMulIdentity(t *testing.T) {
	assert := assert.New(t)
	r := rand.New(rand.NewSource(7))

	for _, x := range []Fixed{Zero, One, Max, FromRawUnchecked(0, 1), FromRawUnchecked(math.MaxUint64, 0)} {
		v, ok := x.CheckedMul(One)
		assert.True(ok)
		assert.Equal(x, v)
	}

	for i := 0; i < 10000; i++ {
		x := randomFixed(r)
		v, ok := x.CheckedMul(One)
		assert.True(ok)
		assert.Equal(x, v)
	}
}

func TestMul(t *testing.T) {
	assert := assert.New(t)

	v, ok := MustParse("1.5").CheckedMul(FromUint64(2))
	assert.True(ok)
	assert.Equal(FromUint64(3), v)

	v, ok = MustParse("0.5").CheckedMul(MustParse("0.5"))
	assert.True(ok)
	assert.Equal(MustParse("0.25"), v)

	// truncated toward zero
	v, ok = FromRawUnchecked(0, 1).CheckedMul(MustParse("0.5"))
	assert.True(ok)
	assert.Equal(Zero, v)

	_, ok = Max.CheckedMul(FromUint64(2))
	assert.False(ok)

	v, ok = FromUint64(math.MaxUint32).CheckedMul(FromUint64(math.MaxUint32))
	assert.True(ok)
	assert.Equal(FromUint64(uint64(math.MaxUint32)*uint64(math.MaxUint32)), v)
}

func TestDiv(t *testing.T) {
	assert := assert.New(t)

	v, ok := FromUint64(10).CheckedDiv(FromUint64(4))
	assert.True(ok)
	assert.Equal(MustParse("2.5"), v)

	v, ok = One.CheckedDiv(FromUint64(3))
	assert.True(ok)
	assert.Equal("0.3333333333333333333", v.String())

	v, ok = One.CheckedDiv(FromRawUnchecked(0, 1))
	assert.True(ok)
	assert.Equal(FromUint64(Denominator), v)

	v, ok = Max.CheckedDiv(One)
	assert.True(ok)
	assert.Equal(Max, v)

	_, ok = Max.CheckedDiv(MustParse("0.5"))
	assert.False(ok)

	_, ok = One.CheckedDiv(Zero)
	assert.False(ok)

	_, err := One.Div(Zero)
	assert.True(errors.Is(err, ErrDivideByZero))
}

func TestFromFloat(t *testing.T) {
	assert := assert.New(t)

	v, err := FromFloat(1.5)
	assert.NoError(err)
	assert.Equal(MustParse("1.5"), v)

	_, err = FromFloat(-0.1)
	assert.True(errors.Is(err, ErrNegativeValue))

	_, err = FromFloat(math.Pow(2, 64))
	assert.True(errors.Is(err, ErrOverflow))

	_, err = FromFloat(math.NaN())
	assert.True(errors.Is(err, ErrConversion))

	assert.InDelta(1.5, v.ToFloatLossy(), 1e-12)
}

func TestParseString(t *testing.T) {
	assert := assert.New(t)

	v, err := Parse("12.0000000000000000001")
	assert.NoError(err)
	assert.Equal(FromRawUnchecked(12, 1), v)
	assert.Equal("12.0000000000000000001", v.String())

	assert.Equal("18446744073709551615.9999999999999999999", Max.String())
	assert.Equal("0.0000000000000000000", Zero.String())

	_, err = Parse("0.00000000000000000001")
	assert.True(errors.Is(err, ErrConversion))

	_, err = Parse("-1")
	assert.True(errors.Is(err, ErrNegativeValue))

	_, err = Parse("18446744073709551616")
	assert.True(errors.Is(err, ErrOverflow))

	_, err = Parse("abc")
	assert.True(errors.Is(err, ErrConversion))

	_, err = New(1, Denominator)
	assert.Error(err)
}

func TestFixedCodec(t *testing.T) {
	assert := assert.New(t)

	for _, x := range []Fixed{Zero, One, Max, MustParse("3.14")} {
		data, err := cbor.Marshal(x)
		require.NoError(t, err)
		assert.Len(data, encodedLen+1)

		var back Fixed
		assert.NoError(cbor.Unmarshal(data, &back))
		assert.Equal(x, back)
	}

	var bad Fixed
	raw := []byte{0x50, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	assert.Error(bad.UnmarshalCBOR(raw))
}
