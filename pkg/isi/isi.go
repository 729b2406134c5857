// Package isi executes ledger instructions against a staged world state
// view and turns each applied change into a data event.
package isi

import (
	"github.com/korthochain/ledger/pkg/expr"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

type execFunc func(i model.Instruction, ex *executor) error

var execRegistry map[model.InstructionKind]execFunc

func handle[T model.Instruction](fn func(T, *executor) error) execFunc {
	return func(i model.Instruction, ex *executor) error {
		return fn(i.(T), ex)
	}
}

func init() {
	execRegistry = map[model.InstructionKind]execFunc{
		model.InstrRegister:       handle(executeRegister),
		model.InstrUnregister:     handle(executeUnregister),
		model.InstrMint:           handle(executeMint),
		model.InstrBurn:           handle(executeBurn),
		model.InstrTransfer:       handle(executeTransfer),
		model.InstrSetKeyValue:    handle(executeSetKeyValue),
		model.InstrRemoveKeyValue: handle(executeRemoveKeyValue),
		model.InstrGrant:          handle(executeGrant),
		model.InstrRevoke:         handle(executeRevoke),
		model.InstrIf:             handle(executeIf),
		model.InstrPair:           handle(executePair),
		model.InstrSequence:       handle(executeSequence),
		model.InstrFail:           handle(executeFail),
	}
}

// executor carries the state of one top level instruction.
type executor struct {
	authority model.AccountId
	v         *wsv.WorldStateView
	ctx       expr.Context
	// maxDepth bounds the nesting of evaluated operands, 0 means no bound.
	maxDepth int
	// preload lets registered domains and accounts arrive with their
	// contents. Only genesis transactions do that.
	preload bool
	events  []model.DataEvent
}

// Execute applies instr on behalf of authority to v, which must be a staged
// view. On failure v may hold partial changes and must be dropped.
func Execute(instr model.Instruction, authority model.AccountId, v *wsv.WorldStateView) ([]model.DataEvent, error) {
	ex := &executor{authority: authority, v: v, ctx: expr.NewContext()}
	if err := ex.execute(instr); err != nil {
		return nil, err
	}
	return ex.events, nil
}

func (ex *executor) execute(instr model.Instruction) error {
	if instr == nil {
		return execErr(TypeMismatch, "empty instruction")
	}
	fn, ok := execRegistry[instr.Kind()]
	if !ok {
		return execErr(TypeMismatch, "unsupported instruction %s", instr.Kind())
	}
	return classify(fn(instr, ex))
}

func (ex *executor) emit(entity model.EntityKind, status model.Status, id model.IdBox) {
	ex.events = append(ex.events, model.NewEvent(entity, status, id))
}

func (ex *executor) value(e model.EvaluatesTo) (model.Value, error) {
	v, err := expr.Evaluate(e, ex.v, ex.ctx)
	if err != nil {
		return nil, err
	}
	if ex.maxDepth > 0 && model.Depth(v, ex.maxDepth) > ex.maxDepth {
		return nil, execErr(Limit, "%s value nested deeper than %d", v.Kind(), ex.maxDepth)
	}
	return v, nil
}

func (ex *executor) id(e model.EvaluatesTo) (model.IdBox, error) {
	v, err := ex.value(e)
	if err != nil {
		return nil, err
	}
	id, ok := v.(model.IdBox)
	if !ok {
		return nil, execErr(TypeMismatch, "expected an id, got %s", v.Kind())
	}
	return id, nil
}

func operand[T model.Value](ex *executor, what string, e model.EvaluatesTo) (T, error) {
	var zero T
	v, err := ex.value(e)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, execErr(TypeMismatch, "%s: expected %T, got %s", what, zero, v.Kind())
	}
	return t, nil
}

func executeIf(i model.IfBox, ex *executor) error {
	cond, err := operand[model.Bool](ex, "condition", i.Condition)
	if err != nil {
		return err
	}
	if cond {
		return ex.execute(i.Then.Instruction)
	}
	if otherwise, ok := i.Otherwise.Get(); ok {
		return ex.execute(otherwise.Instruction)
	}
	return nil
}

func executePair(i model.PairBox, ex *executor) error {
	if err := ex.execute(i.Left.Instruction); err != nil {
		return err
	}
	return ex.execute(i.Right.Instruction)
}

func executeSequence(i model.SequenceBox, ex *executor) error {
	for _, instr := range i.Instructions {
		if err := ex.execute(instr); err != nil {
			return err
		}
	}
	return nil
}

func executeFail(i model.FailBox, _ *executor) error {
	return &ExecError{Kind: Fail, Msg: i.Message}
}
