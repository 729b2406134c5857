package expr

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
)

type ErrorKind uint8

const (
	UnboundVariable ErrorKind = iota + 1
	TypeMismatch
	DivideByZero
	Overflow
	// NegativeValue is an unsigned subtraction going below zero.
	NegativeValue
	// Find is a query expression naming a missing entity.
	Find
	// Query is any other failure of a query expression.
	Query
	DepthExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundVariable:
		return "unbound variable"
	case TypeMismatch:
		return "type mismatch"
	case DivideByZero:
		return "division by zero"
	case Overflow:
		return "overflow"
	case NegativeValue:
		return "negative value"
	case Find:
		return "find"
	case Query:
		return "query"
	case DepthExceeded:
		return "expression too deep"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// EvalError is returned for every failed evaluation.
type EvalError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *EvalError) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("evaluate: %s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("evaluate: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("evaluate: %s: %s", e.Kind, e.Msg)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func evalErr(kind ErrorKind, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func mismatch(op model.ExpressionKind, want string, got ...model.Value) *EvalError {
	kinds := make([]string, 0, len(got))
	for _, v := range got {
		kinds = append(kinds, v.Kind().String())
	}
	return evalErr(TypeMismatch, "%s expects %s, got %v", op, want, kinds)
}
