package isi

import (
	"errors"
	"fmt"

	"github.com/korthochain/ledger/pkg/expr"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/permission"
	"github.com/korthochain/ledger/pkg/wsv"
	"go.uber.org/zap"
)

// Mode selects how transactions are admitted.
type Mode uint8

const (
	// NormalMode checks signatures and permissions before applying.
	NormalMode Mode = iota + 1
	// GenesisMode applies the genesis transactions without either check.
	GenesisMode
)

func (m Mode) String() string {
	switch m {
	case NormalMode:
		return "normal"
	case GenesisMode:
		return "genesis"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Stage is the progress of an instruction through the executor.
type Stage uint8

const (
	Pending Stage = iota + 1
	Validated
	Applied
	Rejected
	Failed
)

func (s Stage) String() string {
	switch s {
	case Pending:
		return "pending"
	case Validated:
		return "validated"
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Limits bound the size of an admitted transaction.
type Limits struct {
	MaxInstructionNumber uint64 `yaml:"maxinstructionnumber"`
	MaxValueDepth        int    `yaml:"maxvaluedepth"`
}

func DefaultLimits() Limits {
	return Limits{MaxInstructionNumber: 4096, MaxValueDepth: 64}
}

type Executor struct {
	mode      Mode
	validator *permission.Node
	limits    Limits
	logger    *zap.Logger
}

// NewExecutor returns an executor. The validator is ignored in GenesisMode
// and a nil validator denies everything in NormalMode.
func NewExecutor(mode Mode, validator *permission.Node, limits Limits, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = permission.DenyAllLeaf()
	}
	return &Executor{mode: mode, validator: validator, limits: limits, logger: logger}
}

func (e *Executor) Mode() Mode {
	return e.mode
}

// ExecuteTransaction applies tx to a child of v and commits the child into
// v only if every instruction succeeds. A rejected transaction leaves v
// untouched and reports the reason, with the failing instruction index
// where there is one.
func (e *Executor) ExecuteTransaction(tx *model.Transaction, v *wsv.WorldStateView) ([]model.DataEvent, *model.RejectionReason) {
	authority := tx.Payload.AccountId
	log := e.logger.With(zap.String("tx", tx.Hash().String()), zap.Stringer("mode", e.mode))

	if err := tx.Check(); err != nil {
		return nil, model.Reject(model.InstructionExecution, "%v", err)
	}
	if e.limits.MaxInstructionNumber > 0 && uint64(tx.Payload.Instructions.Len()) > e.limits.MaxInstructionNumber {
		return nil, model.Reject(model.LimitExceeded, "%d instructions, %d allowed",
			tx.Payload.Instructions.Len(), e.limits.MaxInstructionNumber)
	}

	if e.mode == NormalMode {
		if reason := e.checkSignatures(tx, v); reason != nil {
			return nil, reason
		}
		verdict, idx := permission.ValidateTransaction(e.validator, authority, tx.Payload.Instructions, v)
		if !verdict.Allowed {
			log.Debug("instruction rejected", zap.Int("index", idx), zap.Stringer("stage", Rejected), zap.String("reason", verdict.Reason))
			return nil, model.Reject(model.NotPermitted, "%s", verdict.Reason).At(idx)
		}
	}

	child := v.Stage()
	ex := &executor{
		authority: authority,
		v:         child,
		ctx:       expr.NewContext(),
		maxDepth:  e.limits.MaxValueDepth,
		preload:   e.mode == GenesisMode,
	}
	for idx, instr := range tx.Payload.Instructions {
		log.Debug("instruction", zap.Int("index", idx), zap.Stringer("stage", Validated))
		if err := ex.execute(instr); err != nil {
			log.Debug("instruction failed", zap.Int("index", idx), zap.Stringer("stage", Failed), zap.Error(err))
			return nil, rejection(err).At(idx)
		}
		log.Debug("instruction", zap.Int("index", idx), zap.Stringer("stage", Applied))
	}
	if err := child.Commit(); err != nil {
		return nil, model.Reject(model.InstructionExecution, "commit: %v", err)
	}
	return ex.events, nil
}

func rejection(err error) *model.RejectionReason {
	var ee *ExecError
	if errors.As(err, &ee) && ee.Kind == Limit {
		return model.Reject(model.LimitExceeded, "%v", err)
	}
	return model.Reject(model.InstructionExecution, "%v", err)
}

// checkSignatures evaluates the authority's signature check condition with
// the transaction and account signatories bound.
func (e *Executor) checkSignatures(tx *model.Transaction, v *wsv.WorldStateView) *model.RejectionReason {
	account, err := v.Account(tx.Payload.AccountId)
	if err != nil {
		return model.Reject(model.SignatureCheck, "%v", err)
	}
	ctx := expr.NewContext().
		With(model.TransactionSignatories, keys(tx.Signatories())).
		With(model.AccountSignatories, keys(account.Signatories))
	ok, err := expr.EvaluateBool(account.SignatureCheckCondition.Condition, v, ctx)
	if err != nil {
		return model.Reject(model.SignatureCheck, "evaluate signature check condition: %v", err)
	}
	if !ok {
		return model.Reject(model.SignatureCheck, "signature check condition of %s is not satisfied", account.Id)
	}
	return nil
}

func keys(ks []model.PublicKey) model.Vec {
	vec := make(model.Vec, 0, len(ks))
	for _, k := range ks {
		vec = append(vec, k)
	}
	return vec
}
