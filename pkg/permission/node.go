package permission

import (
	"fmt"
	"strings"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

type Op uint8

const (
	LeafOp Op = iota + 1
	AllOp
	AnyOp
	NotOp
)

// Node is a policy tree. Leaves hold a primitive check, inner nodes combine
// the verdicts of their children.
type Node struct {
	Op       Op
	Check    Check
	Children []*Node
}

func Leaf(c Check) *Node {
	return &Node{Op: LeafOp, Check: c}
}

// All allows when every child allows and reports the first denial.
func All(children ...*Node) *Node {
	return &Node{Op: AllOp, Children: children}
}

// Any allows when some child allows, otherwise it reports the last denial.
func Any(children ...*Node) *Node {
	return &Node{Op: AnyOp, Children: children}
}

func Not(child *Node) *Node {
	return &Node{Op: NotOp, Children: []*Node{child}}
}

func AllowAllLeaf() *Node { return Leaf(Check{Kind: AllowAllCheck}) }
func DenyAllLeaf() *Node  { return Leaf(Check{Kind: DenyAllCheck}) }

func InstructionIs(kind model.InstructionKind) *Node {
	return Leaf(Check{Kind: InstructionIsCheck, Instruction: kind})
}

func HasToken(name model.Name) *Node {
	return Leaf(Check{Kind: HasTokenCheck, Token: name})
}

// When applies node to instructions of kind and allows every other kind.
func When(kind model.InstructionKind, node *Node) *Node {
	return Any(Not(InstructionIs(kind)), node)
}

func (n *Node) String() string {
	switch n.Op {
	case LeafOp:
		return n.Check.String()
	case NotOp:
		return fmt.Sprintf("not(%s)", n.Children[0])
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, c.String())
	}
	op := "all"
	if n.Op == AnyOp {
		op = "any"
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(parts, ", "))
}

// Validate renders the verdict of n for authority running instr against v.
// Composite instructions are allowed only when every part is.
func Validate(n *Node, authority model.AccountId, instr model.Instruction, v *wsv.WorldStateView) Verdict {
	if instr == nil {
		return Deny("empty instruction")
	}
	switch i := instr.(type) {
	case model.PairBox:
		return validateAll(n, authority, v, i.Left.Instruction, i.Right.Instruction)
	case model.SequenceBox:
		return validateAll(n, authority, v, i.Instructions...)
	case model.IfBox:
		parts := []model.Instruction{i.Then.Instruction}
		if otherwise, ok := i.Otherwise.Get(); ok {
			parts = append(parts, otherwise.Instruction)
		}
		return validateAll(n, authority, v, parts...)
	}
	return n.eval(authority, instr, &operands{v: v})
}

func validateAll(n *Node, authority model.AccountId, v *wsv.WorldStateView, parts ...model.Instruction) Verdict {
	for _, part := range parts {
		if verdict := Validate(n, authority, part, v); !verdict.Allowed {
			return verdict
		}
	}
	return Allow()
}

func (n *Node) eval(authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	switch n.Op {
	case LeafOp:
		return n.Check.run(authority, instr, ops)
	case AllOp:
		for _, c := range n.Children {
			if verdict := c.eval(authority, instr, ops); !verdict.Allowed {
				return verdict
			}
		}
		return Allow()
	case AnyOp:
		last := Deny("no alternative allows %s", instr.Kind())
		for _, c := range n.Children {
			verdict := c.eval(authority, instr, ops)
			if verdict.Allowed {
				return verdict
			}
			last = verdict
		}
		return last
	case NotOp:
		if len(n.Children) != 1 {
			return Deny("malformed not node")
		}
		if n.Children[0].eval(authority, instr, ops).Allowed {
			return Deny("not(%s) denies %s", n.Children[0], instr.Kind())
		}
		return Allow()
	}
	return Deny("unknown node %d", n.Op)
}

// ValidateTransaction checks every instruction against the same view, which
// must be the state before the transaction. It returns the index of the
// first denied instruction, or -1.
func ValidateTransaction(n *Node, authority model.AccountId, instructions model.Instructions, v *wsv.WorldStateView) (Verdict, int) {
	for idx, instr := range instructions {
		if verdict := Validate(n, authority, instr, v); !verdict.Allowed {
			return verdict, idx
		}
	}
	return Allow(), -1
}
