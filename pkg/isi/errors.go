package isi

import (
	"errors"
	"fmt"

	"github.com/korthochain/ledger/pkg/expr"
	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

type ErrorKind uint8

const (
	Repetition ErrorKind = iota + 1
	Find
	TypeMismatch
	// Math covers overflow, negative results and division by zero.
	Math
	Mintability
	Metadata
	Permission
	// Fail is raised by the Fail instruction.
	Fail
	Eval
	// Limit is a value nested deeper than the transaction limits allow.
	Limit
	// Preloaded is a registered entity that already holds what only other
	// instructions may give it.
	Preloaded
)

func (k ErrorKind) String() string {
	switch k {
	case Repetition:
		return "repetition"
	case Find:
		return "find"
	case TypeMismatch:
		return "type mismatch"
	case Math:
		return "math"
	case Mintability:
		return "mintability"
	case Metadata:
		return "metadata"
	case Permission:
		return "permission"
	case Fail:
		return "fail"
	case Eval:
		return "evaluation"
	case Limit:
		return "limit"
	case Preloaded:
		return "preloaded"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// ExecError is returned by Execute for every failed instruction.
type ExecError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ExecError) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func execErr(kind ErrorKind, format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// classify turns an error from the world state, the evaluator or the
// arithmetic into an ExecError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		ee *ExecError
		ve *expr.EvalError
		fe *wsv.FindError
		re *wsv.RepetitionError
		xe *fixed.Error
	)
	switch {
	case errors.As(err, &ee):
		return err
	case errors.As(err, &ve):
		return &ExecError{Kind: Eval, Err: err}
	case errors.As(err, &fe):
		return &ExecError{Kind: Find, Err: err}
	case errors.As(err, &re):
		return &ExecError{Kind: Repetition, Err: err}
	case errors.As(err, &xe):
		return &ExecError{Kind: Math, Err: err}
	case errors.Is(err, model.ErrMetadataLimit):
		return &ExecError{Kind: Metadata, Err: err}
	case errors.Is(err, wsv.ErrReadOnly), errors.Is(err, wsv.ErrCommitted):
		return &ExecError{Kind: Permission, Err: err}
	}
	return &ExecError{Kind: TypeMismatch, Err: err}
}
