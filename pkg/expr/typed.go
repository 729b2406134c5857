package expr

import (
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

// As evaluates e and requires a result of type T.
func As[T model.Value](e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (T, error) {
	var zero T
	val, err := Evaluate(e, v, ctx)
	if err != nil {
		return zero, err
	}
	t, ok := val.(T)
	if !ok {
		return zero, evalErr(TypeMismatch, "expected %T, got %s", zero, val.Kind())
	}
	return t, nil
}

func EvaluateBool(e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (bool, error) {
	b, err := As[model.Bool](e, v, ctx)
	return bool(b), err
}

func EvaluateU32(e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (uint32, error) {
	n, err := As[model.U32](e, v, ctx)
	return uint32(n), err
}

func EvaluateName(e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (model.Name, error) {
	return As[model.Name](e, v, ctx)
}

// EvaluateId evaluates e to any identifier.
func EvaluateId(e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (model.IdBox, error) {
	val, err := Evaluate(e, v, ctx)
	if err != nil {
		return nil, err
	}
	id, ok := val.(model.IdBox)
	if !ok {
		return nil, evalErr(TypeMismatch, "expected an id, got %s", val.Kind())
	}
	return id, nil
}

// Evaluator adapts Evaluate for query parameters.
func Evaluator(ctx Context) func(model.EvaluatesTo, *wsv.WorldStateView) (model.Value, error) {
	return func(e model.EvaluatesTo, v *wsv.WorldStateView) (model.Value, error) {
		return Evaluate(e, v, ctx)
	}
}
