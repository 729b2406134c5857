package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// PermissionToken is a named capability. Tokens are matched by exact name and
// structurally equal parameters.
type PermissionToken struct {
	Name   Name
	Params map[Name]Value
}

func NewPermissionToken(name Name) PermissionToken {
	return PermissionToken{Name: name}
}

// WithParam returns a copy of t with key bound to value.
func (t PermissionToken) WithParam(key Name, value Value) PermissionToken {
	params := make(map[Name]Value, len(t.Params)+1)
	for k, v := range t.Params {
		params[k] = v
	}
	params[key] = value
	return PermissionToken{Name: t.Name, Params: params}
}

func (t PermissionToken) Param(key Name) (Value, bool) {
	v, ok := t.Params[key]
	return v, ok
}

// ParamNames returns the parameter names in ascending order.
func (t PermissionToken) ParamNames() []Name {
	names := make([]Name, 0, len(t.Params))
	for k := range t.Params {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (t PermissionToken) Equal(o PermissionToken) bool {
	if t.Name != o.Name || len(t.Params) != len(o.Params) {
		return false
	}
	for k, v := range t.Params {
		ov, ok := o.Params[k]
		if !ok || !ValueEqual(v, ov) {
			return false
		}
	}
	return true
}

func (t PermissionToken) String() string {
	if len(t.Params) == 0 {
		return string(t.Name)
	}
	parts := make([]string, 0, len(t.Params))
	for _, k := range t.ParamNames() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, FormatValue(t.Params[k])))
	}
	return fmt.Sprintf("%s{%s}", t.Name, strings.Join(parts, ", "))
}

func (t PermissionToken) MarshalCBOR() ([]byte, error) {
	params, err := marshalNamedValues(t.ParamNames(), func(k Name) Value { return t.Params[k] })
	if err != nil {
		return nil, fmt.Errorf("permission token %s: %w", t.Name, err)
	}
	return encMode.Marshal([]interface{}{t.Name, cbor.RawMessage(params)})
}

func (t *PermissionToken) UnmarshalCBOR(data []byte) error {
	var parts []cbor.RawMessage
	if err := decMode.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return decodeErr("permission token", "expected 2 elements, got %d", len(parts))
	}
	var name Name
	if err := decMode.Unmarshal(parts[0], &name); err != nil {
		return err
	}
	params, err := unmarshalNamedValues(parts[1])
	if err != nil {
		return err
	}
	*t = PermissionToken{Name: name, Params: params}
	return nil
}

// ParameterKind names a protocol parameter.
type ParameterKind uint8

const (
	MaximumFaultyPeersAmount ParameterKind = iota + 1
	BlockTime
	CommitTime
	TransactionReceiptTime
)

func (k ParameterKind) String() string {
	switch k {
	case MaximumFaultyPeersAmount:
		return "MaximumFaultyPeersAmount"
	case BlockTime:
		return "BlockTime"
	case CommitTime:
		return "CommitTime"
	case TransactionReceiptTime:
		return "TransactionReceiptTime"
	}
	return fmt.Sprintf("ParameterKind(%d)", uint8(k))
}

// Parameter is a chain wide protocol parameter.
type Parameter struct {
	_     struct{} `cbor:",toarray"`
	Name  ParameterKind
	Value U128
}
