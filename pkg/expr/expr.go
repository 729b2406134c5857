// Package expr evaluates the expressions embedded in instructions and
// queries. Evaluation never changes the world state.
package expr

import (
	"errors"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/query"
	"github.com/korthochain/ledger/pkg/wsv"
)

// MaxDepth bounds the nesting of evaluated expressions.
const MaxDepth = 128

type evalFunc func(e model.Expression, ev *evaluator) (model.Value, error)

var evalRegistry map[model.ExpressionKind]evalFunc

func handle[T model.Expression](fn func(T, *evaluator) (model.Value, error)) evalFunc {
	return func(e model.Expression, ev *evaluator) (model.Value, error) {
		return fn(e.(T), ev)
	}
}

func init() {
	evalRegistry = map[model.ExpressionKind]evalFunc{
		model.ExprRaw:          handle(evalRaw),
		model.ExprContextValue: handle(evalContextValue),
		model.ExprAdd:          handle(func(e model.Add, ev *evaluator) (model.Value, error) { return ev.arithmetic(e.Kind(), e.Left, e.Right, add) }),
		model.ExprSubtract:     handle(func(e model.Subtract, ev *evaluator) (model.Value, error) { return ev.arithmetic(e.Kind(), e.Left, e.Right, sub) }),
		model.ExprMultiply:     handle(func(e model.Multiply, ev *evaluator) (model.Value, error) { return ev.arithmetic(e.Kind(), e.Left, e.Right, mul) }),
		model.ExprDivide:       handle(func(e model.Divide, ev *evaluator) (model.Value, error) { return ev.arithmetic(e.Kind(), e.Left, e.Right, div) }),
		model.ExprMod:          handle(func(e model.Mod, ev *evaluator) (model.Value, error) { return ev.arithmetic(e.Kind(), e.Left, e.Right, mod) }),
		model.ExprRaiseTo:      handle(evalRaiseTo),
		model.ExprGreater:      handle(func(e model.Greater, ev *evaluator) (model.Value, error) { return ev.compare(e.Kind(), e.Left, e.Right, 1) }),
		model.ExprLess:         handle(func(e model.Less, ev *evaluator) (model.Value, error) { return ev.compare(e.Kind(), e.Left, e.Right, -1) }),
		model.ExprEqual:        handle(evalEqual),
		model.ExprNot:          handle(evalNot),
		model.ExprAnd:          handle(func(e model.And, ev *evaluator) (model.Value, error) { return ev.logic(e.Kind(), e.Left, e.Right) }),
		model.ExprOr:           handle(func(e model.Or, ev *evaluator) (model.Value, error) { return ev.logic(e.Kind(), e.Left, e.Right) }),
		model.ExprIf:           handle(evalIf),
		model.ExprContains:     handle(evalContains),
		model.ExprContainsAll:  handle(evalContainsAll),
		model.ExprContainsAny:  handle(evalContainsAny),
		model.ExprWhere:        handle(evalWhere),
		model.ExprQuery:        handle(evalQuery),
	}
}

type evaluator struct {
	v     *wsv.WorldStateView
	ctx   Context
	depth int
}

// Evaluate computes e against v and ctx. Operands are evaluated left to
// right before their parent.
func Evaluate(e model.EvaluatesTo, v *wsv.WorldStateView, ctx Context) (model.Value, error) {
	ev := &evaluator{v: v, ctx: ctx}
	return ev.eval(e)
}

func (ev *evaluator) eval(e model.EvaluatesTo) (model.Value, error) {
	if e.Expression == nil {
		return nil, evalErr(TypeMismatch, "empty expression")
	}
	if ev.depth >= MaxDepth {
		return nil, evalErr(DepthExceeded, "more than %d levels", MaxDepth)
	}
	fn, ok := evalRegistry[e.Expression.Kind()]
	if !ok {
		return nil, evalErr(TypeMismatch, "unsupported expression %s", e.Expression.Kind())
	}
	ev.depth++
	defer func() { ev.depth-- }()
	return fn(e.Expression, ev)
}

// within evaluates e with a different context at the current depth.
func (ev *evaluator) within(ctx Context, e model.EvaluatesTo) (model.Value, error) {
	inner := &evaluator{v: ev.v, ctx: ctx, depth: ev.depth}
	return inner.eval(e)
}

func (ev *evaluator) pair(l, r model.EvaluatesTo) (model.Value, model.Value, error) {
	a, err := ev.eval(l)
	if err != nil {
		return nil, nil, err
	}
	b, err := ev.eval(r)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func evalRaw(e model.Raw, _ *evaluator) (model.Value, error) {
	if e.Value == nil {
		return nil, evalErr(TypeMismatch, "raw expression without value")
	}
	return e.Value, nil
}

func evalContextValue(e model.ContextValue, ev *evaluator) (model.Value, error) {
	v, ok := ev.ctx.Get(e.Name)
	if !ok {
		return nil, evalErr(UnboundVariable, "%s", e.Name)
	}
	return v, nil
}

func evalEqual(e model.Equal, ev *evaluator) (model.Value, error) {
	a, b, err := ev.pair(e.Left, e.Right)
	if err != nil {
		return nil, err
	}
	return model.Bool(model.ValueEqual(a, b)), nil
}

func evalNot(e model.Not, ev *evaluator) (model.Value, error) {
	v, err := ev.eval(e.Expression)
	if err != nil {
		return nil, err
	}
	b, ok := v.(model.Bool)
	if !ok {
		return nil, mismatch(e.Kind(), "Bool", v)
	}
	return !b, nil
}

// logic evaluates both operands, so a failing right operand fails the
// expression even when the left one decides it.
func (ev *evaluator) logic(op model.ExpressionKind, l, r model.EvaluatesTo) (model.Value, error) {
	a, b, err := ev.pair(l, r)
	if err != nil {
		return nil, err
	}
	x, ok1 := a.(model.Bool)
	y, ok2 := b.(model.Bool)
	if !ok1 || !ok2 {
		return nil, mismatch(op, "Bool", a, b)
	}
	if op == model.ExprAnd {
		return x && y, nil
	}
	return x || y, nil
}

// evalIf evaluates the condition and then only the chosen branch.
func evalIf(e model.If, ev *evaluator) (model.Value, error) {
	c, err := ev.eval(e.Condition)
	if err != nil {
		return nil, err
	}
	b, ok := c.(model.Bool)
	if !ok {
		return nil, mismatch(e.Kind(), "Bool condition", c)
	}
	if b {
		return ev.eval(e.Then)
	}
	return ev.eval(e.Otherwise)
}

func (ev *evaluator) collection(op model.ExpressionKind, e model.EvaluatesTo) (model.Vec, error) {
	v, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	vec, ok := v.(model.Vec)
	if !ok {
		return nil, mismatch(op, "Vec", v)
	}
	return vec, nil
}

func contains(vec model.Vec, v model.Value) bool {
	for _, e := range vec {
		if model.ValueEqual(e, v) {
			return true
		}
	}
	return false
}

func evalContains(e model.Contains, ev *evaluator) (model.Value, error) {
	vec, err := ev.collection(e.Kind(), e.Collection)
	if err != nil {
		return nil, err
	}
	v, err := ev.eval(e.Element)
	if err != nil {
		return nil, err
	}
	return model.Bool(contains(vec, v)), nil
}

func evalContainsAll(e model.ContainsAll, ev *evaluator) (model.Value, error) {
	vec, err := ev.collection(e.Kind(), e.Collection)
	if err != nil {
		return nil, err
	}
	elems, err := ev.collection(e.Kind(), e.Elements)
	if err != nil {
		return nil, err
	}
	for _, v := range elems {
		if !contains(vec, v) {
			return model.Bool(false), nil
		}
	}
	return model.Bool(true), nil
}

func evalContainsAny(e model.ContainsAny, ev *evaluator) (model.Value, error) {
	vec, err := ev.collection(e.Kind(), e.Collection)
	if err != nil {
		return nil, err
	}
	elems, err := ev.collection(e.Kind(), e.Elements)
	if err != nil {
		return nil, err
	}
	for _, v := range elems {
		if contains(vec, v) {
			return model.Bool(true), nil
		}
	}
	return model.Bool(false), nil
}

// evalWhere evaluates the bindings in name order against the outer context,
// then the body with the bindings added.
func evalWhere(e model.Where, ev *evaluator) (model.Value, error) {
	ctx := ev.ctx
	for _, name := range e.SortedBindings() {
		v, err := ev.eval(e.Values[name])
		if err != nil {
			return nil, err
		}
		ctx = ctx.With(name, v)
	}
	return ev.within(ctx, e.Expression)
}

func evalQuery(e model.QueryExpression, ev *evaluator) (model.Value, error) {
	params := func(p model.EvaluatesTo, v *wsv.WorldStateView) (model.Value, error) {
		inner := &evaluator{v: v, ctx: ev.ctx, depth: ev.depth}
		return inner.eval(p)
	}
	result, err := query.Execute(e.Query, ev.v, params)
	if err == nil {
		return result, nil
	}
	var nested *EvalError
	if errors.As(err, &nested) {
		return nil, err
	}
	var find *query.FindError
	if errors.As(err, &find) {
		return nil, &EvalError{Kind: Find, Err: err}
	}
	return nil, &EvalError{Kind: Query, Err: err}
}
