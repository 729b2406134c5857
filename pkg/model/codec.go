package model

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const (
	// CodecVersion prefixes every top level encoding.
	CodecVersion uint64 = 1

	// MaxNestedLevels bounds how deep a decoded item may nest. Every union
	// level costs two CBOR levels (envelope and payload).
	MaxNestedLevels = 256

	maxArrayElements = 1 << 20
	maxMapPairs      = 1 << 16
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		MaxNestedLevels:  MaxNestedLevels,
		MaxArrayElements: maxArrayElements,
		MaxMapPairs:      maxMapPairs,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// DecodeError is returned for malformed binary input.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(what string, format string, args ...interface{}) error {
	return &DecodeError{What: what, Err: fmt.Errorf(format, args...)}
}

// Marshal encodes v with the deterministic encoding shared by every entity.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data produced by Marshal.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

type versioned struct {
	_       struct{} `cbor:",toarray"`
	Version uint64
	Body    cbor.RawMessage
}

// serialize wraps the encoding of v in a [version, body] pair.
func serialize(v interface{}) ([]byte, error) {
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(versioned{Version: CodecVersion, Body: body})
}

func deserialize(what string, data []byte, v interface{}) error {
	var env versioned
	if err := decMode.Unmarshal(data, &env); err != nil {
		return &DecodeError{What: what, Err: err}
	}
	if env.Version != CodecVersion {
		return decodeErr(what, "unsupported version %d", env.Version)
	}
	if err := decMode.Unmarshal(env.Body, v); err != nil {
		return &DecodeError{What: what, Err: err}
	}
	return nil
}

// envelope carries one member of a closed union as [kind, payload].
type envelope struct {
	_       struct{} `cbor:",toarray"`
	Kind    uint8
	Payload cbor.RawMessage
}

func marshalEnvelope(kind uint8, payload interface{}) ([]byte, error) {
	raw, err := encMode.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(envelope{Kind: kind, Payload: raw})
}

func unmarshalEnvelope(data []byte) (uint8, []byte, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return 0, nil, err
	}
	return env.Kind, env.Payload, nil
}

// decodeAs decodes a union payload into its concrete member type.
func decodeAs[T any](raw []byte) (T, error) {
	var v T
	err := decMode.Unmarshal(raw, &v)
	return v, err
}

// Option is an optional field. It is encoded as [false] when absent and
// [true, value] when present.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool {
	return o.ok
}

func (o Option[T]) MarshalCBOR() ([]byte, error) {
	if !o.ok {
		return encMode.Marshal([]interface{}{false})
	}
	return encMode.Marshal([]interface{}{true, o.value})
}

func (o *Option[T]) UnmarshalCBOR(data []byte) error {
	var parts []cbor.RawMessage
	if err := decMode.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) == 0 || len(parts) > 2 {
		return decodeErr("option", "expected 1 or 2 elements, got %d", len(parts))
	}

	var present bool
	if err := decMode.Unmarshal(parts[0], &present); err != nil {
		return err
	}
	if present != (len(parts) == 2) {
		return decodeErr("option", "presence flag %v with %d elements", present, len(parts))
	}

	if !present {
		*o = Option[T]{}
		return nil
	}

	var v T
	if err := decMode.Unmarshal(parts[1], &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// encodedEqual compares two values by their deterministic encoding.
func encodedEqual(a, b interface{}) bool {
	x, err := encMode.Marshal(a)
	if err != nil {
		return false
	}
	y, err := encMode.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}
