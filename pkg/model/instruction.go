package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type InstructionKind uint8

const (
	InstrRegister InstructionKind = iota + 1
	InstrUnregister
	InstrMint
	InstrBurn
	InstrTransfer
	InstrSetKeyValue
	InstrRemoveKeyValue
	InstrGrant
	InstrRevoke
	InstrIf
	InstrPair
	InstrSequence
	InstrFail
)

var instructionKindNames = map[InstructionKind]string{
	InstrRegister:       "Register",
	InstrUnregister:     "Unregister",
	InstrMint:           "Mint",
	InstrBurn:           "Burn",
	InstrTransfer:       "Transfer",
	InstrSetKeyValue:    "SetKeyValue",
	InstrRemoveKeyValue: "RemoveKeyValue",
	InstrGrant:          "Grant",
	InstrRevoke:         "Revoke",
	InstrIf:             "If",
	InstrPair:           "Pair",
	InstrSequence:       "Sequence",
	InstrFail:           "Fail",
}

func (k InstructionKind) String() string {
	if s, ok := instructionKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("InstructionKind(%d)", uint8(k))
}

// Instruction is one step of the ledger instruction language.
type Instruction interface {
	Kind() InstructionKind
	Len() int
	instruction()
}

type (
	// RegisterBox adds a new Domain, Account, AssetDefinition or Asset.
	RegisterBox struct {
		_      struct{} `cbor:",toarray"`
		Object EvaluatesTo
	}
	// UnregisterBox removes the entity with the given id.
	UnregisterBox struct {
		_        struct{} `cbor:",toarray"`
		ObjectId EvaluatesTo
	}
	// MintBox increases an asset, adds a signatory or sets a signature check
	// condition, depending on the object.
	MintBox struct {
		_             struct{} `cbor:",toarray"`
		Object        EvaluatesTo
		DestinationId EvaluatesTo
	}
	BurnBox struct {
		_             struct{} `cbor:",toarray"`
		Object        EvaluatesTo
		DestinationId EvaluatesTo
	}
	TransferBox struct {
		_             struct{} `cbor:",toarray"`
		SourceId      EvaluatesTo
		Object        EvaluatesTo
		DestinationId EvaluatesTo
	}
	SetKeyValueBox struct {
		_        struct{} `cbor:",toarray"`
		ObjectId EvaluatesTo
		Key      EvaluatesTo
		Value    EvaluatesTo
	}
	RemoveKeyValueBox struct {
		_        struct{} `cbor:",toarray"`
		ObjectId EvaluatesTo
		Key      EvaluatesTo
	}
	GrantBox struct {
		_             struct{} `cbor:",toarray"`
		Object        EvaluatesTo
		DestinationId EvaluatesTo
	}
	RevokeBox struct {
		_             struct{} `cbor:",toarray"`
		Object        EvaluatesTo
		DestinationId EvaluatesTo
	}
	IfBox struct {
		_         struct{} `cbor:",toarray"`
		Condition EvaluatesTo
		Then      InstructionBox
		Otherwise Option[InstructionBox]
	}
	PairBox struct {
		_     struct{} `cbor:",toarray"`
		Left  InstructionBox
		Right InstructionBox
	}
	SequenceBox struct {
		_            struct{} `cbor:",toarray"`
		Instructions Instructions
	}
	// FailBox aborts the transaction with Message.
	FailBox struct {
		_       struct{} `cbor:",toarray"`
		Message string
	}
)

func (RegisterBox) Kind() InstructionKind       { return InstrRegister }
func (UnregisterBox) Kind() InstructionKind     { return InstrUnregister }
func (MintBox) Kind() InstructionKind           { return InstrMint }
func (BurnBox) Kind() InstructionKind           { return InstrBurn }
func (TransferBox) Kind() InstructionKind       { return InstrTransfer }
func (SetKeyValueBox) Kind() InstructionKind    { return InstrSetKeyValue }
func (RemoveKeyValueBox) Kind() InstructionKind { return InstrRemoveKeyValue }
func (GrantBox) Kind() InstructionKind          { return InstrGrant }
func (RevokeBox) Kind() InstructionKind         { return InstrRevoke }
func (IfBox) Kind() InstructionKind             { return InstrIf }
func (PairBox) Kind() InstructionKind           { return InstrPair }
func (SequenceBox) Kind() InstructionKind       { return InstrSequence }
func (FailBox) Kind() InstructionKind           { return InstrFail }

func (i RegisterBox) Len() int   { return i.Object.Len() }
func (i UnregisterBox) Len() int { return i.ObjectId.Len() }
func (i MintBox) Len() int       { return i.Object.Len() + i.DestinationId.Len() }
func (i BurnBox) Len() int       { return i.Object.Len() + i.DestinationId.Len() }
func (i TransferBox) Len() int {
	return i.SourceId.Len() + i.Object.Len() + i.DestinationId.Len()
}
func (i SetKeyValueBox) Len() int    { return i.ObjectId.Len() + i.Key.Len() + i.Value.Len() }
func (i RemoveKeyValueBox) Len() int { return i.ObjectId.Len() + i.Key.Len() }
func (i GrantBox) Len() int          { return i.Object.Len() + i.DestinationId.Len() }
func (i RevokeBox) Len() int         { return i.Object.Len() + i.DestinationId.Len() }
func (i PairBox) Len() int           { return i.Left.Len() + i.Right.Len() + 1 }
func (i SequenceBox) Len() int       { return i.Instructions.Len() + 1 }
func (FailBox) Len() int             { return 1 }

func (i IfBox) Len() int {
	n := i.Condition.Len() + i.Then.Len() + 1
	if otherwise, ok := i.Otherwise.Get(); ok {
		n += otherwise.Len()
	}
	return n
}

func (RegisterBox) instruction()       {}
func (UnregisterBox) instruction()     {}
func (MintBox) instruction()           {}
func (BurnBox) instruction()           {}
func (TransferBox) instruction()       {}
func (SetKeyValueBox) instruction()    {}
func (RemoveKeyValueBox) instruction() {}
func (GrantBox) instruction()          {}
func (RevokeBox) instruction()         {}
func (IfBox) instruction()             {}
func (PairBox) instruction()           {}
func (SequenceBox) instruction()       {}
func (FailBox) instruction()           {}

// Constructors for the common instruction shapes.

func Register(object Value) RegisterBox {
	return RegisterBox{Object: Val(object)}
}

func Unregister(id IdBox) UnregisterBox {
	return UnregisterBox{ObjectId: Val(id)}
}

func Mint(object Value, destination IdBox) MintBox {
	return MintBox{Object: Val(object), DestinationId: Val(destination)}
}

func Burn(object Value, destination IdBox) BurnBox {
	return BurnBox{Object: Val(object), DestinationId: Val(destination)}
}

func Transfer(source IdBox, object Value, destination IdBox) TransferBox {
	return TransferBox{SourceId: Val(source), Object: Val(object), DestinationId: Val(destination)}
}

func SetKeyValue(id IdBox, key Name, value Value) SetKeyValueBox {
	return SetKeyValueBox{ObjectId: Val(id), Key: Val(key), Value: Val(value)}
}

func RemoveKeyValue(id IdBox, key Name) RemoveKeyValueBox {
	return RemoveKeyValueBox{ObjectId: Val(id), Key: Val(key)}
}

func Grant(token PermissionToken, destination AccountId) GrantBox {
	return GrantBox{Object: Val(token), DestinationId: Val(destination)}
}

func Revoke(token PermissionToken, destination AccountId) RevokeBox {
	return RevokeBox{Object: Val(token), DestinationId: Val(destination)}
}

func Pair(left, right Instruction) PairBox {
	return PairBox{Left: InstructionBox{left}, Right: InstructionBox{right}}
}

func Sequence(instructions ...Instruction) SequenceBox {
	return SequenceBox{Instructions: instructions}
}

func IfThen(condition EvaluatesTo, then Instruction) IfBox {
	return IfBox{Condition: condition, Then: InstructionBox{then}}
}

func IfThenElse(condition EvaluatesTo, then, otherwise Instruction) IfBox {
	return IfBox{Condition: condition, Then: InstructionBox{then}, Otherwise: Some(InstructionBox{otherwise})}
}

func Fail(message string) FailBox {
	return FailBox{Message: message}
}

// InstructionBox holds a nested instruction.
type InstructionBox struct {
	Instruction Instruction
}

func (b InstructionBox) Len() int {
	if b.Instruction == nil {
		return 0
	}
	return b.Instruction.Len()
}

// Instructions is an ordered list of instructions.
type Instructions []Instruction

func (is Instructions) Len() int {
	n := 0
	for _, i := range is {
		n += i.Len()
	}
	return n
}

func asInstruction[T Instruction](raw []byte) (Instruction, error) {
	return decodeAs[T](raw)
}

var instructionDecoders = map[InstructionKind]func([]byte) (Instruction, error){
	InstrRegister:       asInstruction[RegisterBox],
	InstrUnregister:     asInstruction[UnregisterBox],
	InstrMint:           asInstruction[MintBox],
	InstrBurn:           asInstruction[BurnBox],
	InstrTransfer:       asInstruction[TransferBox],
	InstrSetKeyValue:    asInstruction[SetKeyValueBox],
	InstrRemoveKeyValue: asInstruction[RemoveKeyValueBox],
	InstrGrant:          asInstruction[GrantBox],
	InstrRevoke:         asInstruction[RevokeBox],
	InstrIf:             asInstruction[IfBox],
	InstrPair:           asInstruction[PairBox],
	InstrSequence:       asInstruction[SequenceBox],
	InstrFail:           asInstruction[FailBox],
}

func encodeInstruction(i Instruction) ([]byte, error) {
	if i == nil {
		return nil, fmt.Errorf("encode nil instruction")
	}
	return marshalEnvelope(uint8(i.Kind()), i)
}

func decodeInstruction(data []byte) (Instruction, error) {
	kind, payload, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, err
	}
	dec, ok := instructionDecoders[InstructionKind(kind)]
	if !ok {
		return nil, decodeErr("instruction", "unknown kind %d", kind)
	}
	i, err := dec(payload)
	if err != nil {
		return nil, &DecodeError{What: InstructionKind(kind).String(), Err: err}
	}
	return i, nil
}

func (b InstructionBox) MarshalCBOR() ([]byte, error) {
	return encodeInstruction(b.Instruction)
}

func (b *InstructionBox) UnmarshalCBOR(data []byte) error {
	i, err := decodeInstruction(data)
	if err != nil {
		return err
	}
	b.Instruction = i
	return nil
}

func (is Instructions) MarshalCBOR() ([]byte, error) {
	items := make([]cbor.RawMessage, 0, len(is))
	for n, i := range is {
		raw, err := encodeInstruction(i)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", n, err)
		}
		items = append(items, raw)
	}
	return encMode.Marshal(items)
}

func (is *Instructions) UnmarshalCBOR(data []byte) error {
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Instructions, 0, len(items))
	for _, raw := range items {
		i, err := decodeInstruction(raw)
		if err != nil {
			return err
		}
		out = append(out, i)
	}
	*is = out
	return nil
}
