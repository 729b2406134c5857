package expr

import (
	"errors"

	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/util/math"
)

// operator implements one arithmetic operation per numeric kind. A nil
// member means the operation is not defined for that kind.
type operator struct {
	u32   func(a, b uint32) (uint32, error)
	u128  func(a, b math.Uint128) (math.Uint128, error)
	fixed func(a, b fixed.Fixed) (fixed.Fixed, error)
}

// classify32 and classify128 tag the errors of an integer operation with kind.
func classify32(kind ErrorKind, fn func(a, b uint32) (uint32, error)) func(a, b uint32) (uint32, error) {
	return func(a, b uint32) (uint32, error) {
		r, err := fn(a, b)
		if err != nil {
			return 0, &EvalError{Kind: kind, Err: err}
		}
		return r, nil
	}
}

func classify128(kind ErrorKind, fn func(a, b math.Uint128) (math.Uint128, error)) func(a, b math.Uint128) (math.Uint128, error) {
	return func(a, b math.Uint128) (math.Uint128, error) {
		r, err := fn(a, b)
		if err != nil {
			return math.Uint128{}, &EvalError{Kind: kind, Err: err}
		}
		return r, nil
	}
}

func fixedFailure(err error) error {
	var fe *fixed.Error
	if !errors.As(err, &fe) {
		return &EvalError{Kind: Overflow, Err: err}
	}
	switch fe.Kind {
	case fixed.NegativeValue:
		return &EvalError{Kind: NegativeValue, Err: err}
	case fixed.DivideByZero:
		return &EvalError{Kind: DivideByZero, Err: err}
	}
	return &EvalError{Kind: Overflow, Err: err}
}

func guardZero32(b uint32) error {
	if b == 0 {
		return evalErr(DivideByZero, "u32")
	}
	return nil
}

func guardZero128(b math.Uint128) error {
	if b.IsZero() {
		return evalErr(DivideByZero, "u128")
	}
	return nil
}

var (
	add = operator{
		u32:   classify32(Overflow, func(a, b uint32) (uint32, error) { return math.AddUint32Overflow(a, b) }),
		u128:  classify128(Overflow, math.Uint128.Add),
		fixed: fixed.Fixed.Add,
	}
	sub = operator{
		u32:   classify32(NegativeValue, func(a, b uint32) (uint32, error) { return math.SubUint32Overflow(a, b) }),
		u128:  classify128(NegativeValue, math.Uint128.Sub),
		fixed: fixed.Fixed.Sub,
	}
	mul = operator{
		u32:   classify32(Overflow, math.MulUint32Overflow),
		u128:  classify128(Overflow, math.Uint128.Mul),
		fixed: fixed.Fixed.Mul,
	}
	div = operator{
		u32: func(a, b uint32) (uint32, error) {
			if err := guardZero32(b); err != nil {
				return 0, err
			}
			return a / b, nil
		},
		u128: func(a, b math.Uint128) (math.Uint128, error) {
			if err := guardZero128(b); err != nil {
				return math.Uint128{}, err
			}
			return a.Div(b)
		},
		fixed: fixed.Fixed.Div,
	}
	mod = operator{
		u32: func(a, b uint32) (uint32, error) {
			if err := guardZero32(b); err != nil {
				return 0, err
			}
			return a % b, nil
		},
		u128: func(a, b math.Uint128) (math.Uint128, error) {
			if err := guardZero128(b); err != nil {
				return math.Uint128{}, err
			}
			return a.Mod(b)
		},
	}
)

func (ev *evaluator) arithmetic(op model.ExpressionKind, l, r model.EvaluatesTo, o operator) (model.Value, error) {
	a, b, err := ev.pair(l, r)
	if err != nil {
		return nil, err
	}
	switch x := a.(type) {
	case model.U32:
		if y, ok := b.(model.U32); ok && o.u32 != nil {
			v, err := o.u32(uint32(x), uint32(y))
			if err != nil {
				return nil, err
			}
			return model.U32(v), nil
		}
	case model.U128:
		if y, ok := b.(model.U128); ok && o.u128 != nil {
			v, err := o.u128(x.Uint128, y.Uint128)
			if err != nil {
				return nil, err
			}
			return model.U128{Uint128: v}, nil
		}
	case model.Fixed:
		if y, ok := b.(model.Fixed); ok && o.fixed != nil {
			v, err := o.fixed(x.Fixed, y.Fixed)
			if err != nil {
				return nil, fixedFailure(err)
			}
			return model.NewFixed(v), nil
		}
	}
	return nil, mismatch(op, "two numbers of the same kind", a, b)
}

func evalRaiseTo(e model.RaiseTo, ev *evaluator) (model.Value, error) {
	a, b, err := ev.pair(e.Left, e.Right)
	if err != nil {
		return nil, err
	}
	exp, ok := b.(model.U32)
	if !ok {
		return nil, mismatch(e.Kind(), "a U32 exponent", b)
	}
	switch x := a.(type) {
	case model.U32:
		v, err := math.PowUint32Overflow(uint32(x), uint32(exp))
		if err != nil {
			return nil, &EvalError{Kind: Overflow, Err: err}
		}
		return model.U32(v), nil
	case model.U128:
		v, err := x.Pow(uint32(exp))
		if err != nil {
			return nil, &EvalError{Kind: Overflow, Err: err}
		}
		return model.U128{Uint128: v}, nil
	}
	return nil, mismatch(e.Kind(), "an integer base", a)
}

// compare reports whether l compared to r yields want.
func (ev *evaluator) compare(op model.ExpressionKind, l, r model.EvaluatesTo, want int) (model.Value, error) {
	a, b, err := ev.pair(l, r)
	if err != nil {
		return nil, err
	}
	var c int
	switch x := a.(type) {
	case model.U32:
		y, ok := b.(model.U32)
		if !ok {
			return nil, mismatch(op, "two numbers of the same kind", a, b)
		}
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}
	case model.U128:
		y, ok := b.(model.U128)
		if !ok {
			return nil, mismatch(op, "two numbers of the same kind", a, b)
		}
		c = x.Cmp(y.Uint128)
	case model.Fixed:
		y, ok := b.(model.Fixed)
		if !ok {
			return nil, mismatch(op, "two numbers of the same kind", a, b)
		}
		c = x.Cmp(y.Fixed)
	default:
		return nil, mismatch(op, "two numbers of the same kind", a, b)
	}
	return model.Bool(c == want), nil
}
