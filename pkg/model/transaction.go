package model

import (
	"fmt"
)

// Payload is the signed part of a transaction.
type Payload struct {
	_              struct{} `cbor:",toarray"`
	AccountId      AccountId
	Instructions   Instructions
	CreationTimeMs uint64
	TimeToLiveMs   uint64
	Nonce          Option[uint32]
	Metadata       Metadata
}

// Signature is an already verified signature over a payload hash.
type Signature struct {
	_         struct{} `cbor:",toarray"`
	PublicKey PublicKey
	Payload   []byte
}

type Transaction struct {
	_          struct{} `cbor:",toarray"`
	Payload    Payload
	Signatures []Signature
}

func NewTransaction(authority AccountId, instructions Instructions, creationTimeMs, ttlMs uint64) *Transaction {
	return &Transaction{
		Payload: Payload{
			AccountId:      authority,
			Instructions:   instructions,
			CreationTimeMs: creationTimeMs,
			TimeToLiveMs:   ttlMs,
		},
	}
}

// Sign attaches a signature made by key. Verification happens before the
// transaction reaches the engine.
func (t *Transaction) Sign(key PublicKey, signature []byte) *Transaction {
	t.Signatures = append(t.Signatures, Signature{PublicKey: key, Payload: signature})
	return t
}

// Signatories returns the distinct keys that signed the transaction in
// signing order.
func (t *Transaction) Signatories() []PublicKey {
	keys := make([]PublicKey, 0, len(t.Signatures))
	seen := make(map[PublicKey]struct{}, len(t.Signatures))
	for _, s := range t.Signatures {
		if _, ok := seen[s.PublicKey]; ok {
			continue
		}
		seen[s.PublicKey] = struct{}{}
		keys = append(keys, s.PublicKey)
	}
	return keys
}

// Hash is the sha3-256 of the encoded payload. A payload that cannot be
// encoded hashes to the zero hash and is refused by Check.
func (t *Transaction) Hash() Hash {
	data, err := encMode.Marshal(t.Payload)
	if err != nil {
		return Hash{}
	}
	return HashOf(data)
}

// Check reports structural problems that make a transaction unusable.
func (t *Transaction) Check() error {
	for i, isi := range t.Payload.Instructions {
		if isi == nil {
			return fmt.Errorf("instruction %d is empty", i)
		}
	}
	if _, err := encMode.Marshal(t.Payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// IsExpired reports whether the time to live has elapsed at nowMs.
func (t *Transaction) IsExpired(nowMs uint64) bool {
	if t.Payload.TimeToLiveMs == 0 {
		return false
	}
	deadline := t.Payload.CreationTimeMs + t.Payload.TimeToLiveMs
	if deadline < t.Payload.CreationTimeMs {
		return false
	}
	return nowMs > deadline
}

func (t *Transaction) Serialize() ([]byte, error) {
	return serialize(t)
}

func DeserializeTransaction(data []byte) (*Transaction, error) {
	t := &Transaction{}
	if err := deserialize("transaction", data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RejectionKind classifies why a transaction was rejected.
type RejectionKind uint8

const (
	NotPermitted RejectionKind = iota + 1
	InstructionExecution
	SignatureCheck
	LimitExceeded
	Expired
)

func (k RejectionKind) String() string {
	switch k {
	case NotPermitted:
		return "NotPermitted"
	case InstructionExecution:
		return "InstructionExecution"
	case SignatureCheck:
		return "SignatureCheck"
	case LimitExceeded:
		return "LimitExceeded"
	case Expired:
		return "Expired"
	}
	return fmt.Sprintf("RejectionKind(%d)", uint8(k))
}

// RejectionReason is recorded with every rejected transaction.
type RejectionReason struct {
	_                struct{} `cbor:",toarray"`
	Kind             RejectionKind
	InstructionIndex Option[uint32]
	Message          string
}

func Reject(kind RejectionKind, format string, args ...interface{}) *RejectionReason {
	return &RejectionReason{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At records which instruction caused the rejection.
func (r *RejectionReason) At(index int) *RejectionReason {
	r.InstructionIndex = Some(uint32(index))
	return r
}

func (r *RejectionReason) Error() string {
	if i, ok := r.InstructionIndex.Get(); ok {
		return fmt.Sprintf("%s at instruction %d: %s", r.Kind, i, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

type RejectedTransaction struct {
	_           struct{} `cbor:",toarray"`
	Transaction Transaction
	Reason      RejectionReason
}

// TransactionValue is a committed transaction as returned by queries.
type TransactionValue struct {
	_           struct{} `cbor:",toarray"`
	Transaction Transaction
	Rejection   Option[RejectionReason]
}

func (v TransactionValue) Rejected() bool {
	return v.Rejection.IsSome()
}
