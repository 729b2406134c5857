package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/korthochain/ledger/pkg/fixed"
)

type ValueKind uint8

const (
	ValueU32 ValueKind = iota + 1
	ValueU128
	ValueBool
	ValueString
	ValueName
	ValueFixed
	ValueVec
	ValueMetadata
	ValueDomainId
	ValueAccountId
	ValueAssetDefinitionId
	ValueAssetId
	ValueDomain
	ValueAccount
	ValueAssetDefinition
	ValueAsset
	ValuePublicKey
	ValueParameter
	ValueSignatureCheckCondition
	ValueTransaction
	ValuePermissionToken
	ValueHash
	ValueBlock
	ValueBlockHeader
)

var valueKindNames = map[ValueKind]string{
	ValueU32:                     "U32",
	ValueU128:                    "U128",
	ValueBool:                    "Bool",
	ValueString:                  "String",
	ValueName:                    "Name",
	ValueFixed:                   "Fixed",
	ValueVec:                     "Vec",
	ValueMetadata:                "LimitedMetadata",
	ValueDomainId:                "DomainId",
	ValueAccountId:               "AccountId",
	ValueAssetDefinitionId:       "AssetDefinitionId",
	ValueAssetId:                 "AssetId",
	ValueDomain:                  "Domain",
	ValueAccount:                 "Account",
	ValueAssetDefinition:         "AssetDefinition",
	ValueAsset:                   "Asset",
	ValuePublicKey:               "PublicKey",
	ValueParameter:               "Parameter",
	ValueSignatureCheckCondition: "SignatureCheckCondition",
	ValueTransaction:             "TransactionValue",
	ValuePermissionToken:         "PermissionToken",
	ValueHash:                    "Hash",
	ValueBlock:                   "Block",
	ValueBlockHeader:             "BlockHeader",
}

func (k ValueKind) String() string {
	if s, ok := valueKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is the closed set of runtime values the engine produces or consumes.
type Value interface {
	Kind() ValueKind
	// Len is the structural size used to bound expression complexity.
	Len() int
	value()
}

type (
	U32    uint32
	Bool   bool
	String string
	// Fixed is a fixed.Fixed carried as a Value.
	Fixed struct{ fixed.Fixed }
	// Vec is an ordered sequence of values.
	Vec []Value
)

func NewFixed(f fixed.Fixed) Fixed { return Fixed{f} }

func (U32) Kind() ValueKind                     { return ValueU32 }
func (U128) Kind() ValueKind                    { return ValueU128 }
func (Bool) Kind() ValueKind                    { return ValueBool }
func (String) Kind() ValueKind                  { return ValueString }
func (Name) Kind() ValueKind                    { return ValueName }
func (Fixed) Kind() ValueKind                   { return ValueFixed }
func (Vec) Kind() ValueKind                     { return ValueVec }
func (Metadata) Kind() ValueKind                { return ValueMetadata }
func (DomainId) Kind() ValueKind                { return ValueDomainId }
func (AccountId) Kind() ValueKind               { return ValueAccountId }
func (AssetDefinitionId) Kind() ValueKind       { return ValueAssetDefinitionId }
func (AssetId) Kind() ValueKind                 { return ValueAssetId }
func (*Domain) Kind() ValueKind                 { return ValueDomain }
func (*Account) Kind() ValueKind                { return ValueAccount }
func (*AssetDefinition) Kind() ValueKind        { return ValueAssetDefinition }
func (*Asset) Kind() ValueKind                  { return ValueAsset }
func (PublicKey) Kind() ValueKind               { return ValuePublicKey }
func (Parameter) Kind() ValueKind               { return ValueParameter }
func (SignatureCheckCondition) Kind() ValueKind { return ValueSignatureCheckCondition }
func (TransactionValue) Kind() ValueKind        { return ValueTransaction }
func (PermissionToken) Kind() ValueKind         { return ValuePermissionToken }
func (Hash) Kind() ValueKind                    { return ValueHash }
func (*BlockValue) Kind() ValueKind             { return ValueBlock }
func (BlockHeaderValue) Kind() ValueKind        { return ValueBlockHeader }

func (U32) Len() int               { return 1 }
func (U128) Len() int              { return 1 }
func (Bool) Len() int              { return 1 }
func (String) Len() int            { return 1 }
func (Name) Len() int              { return 1 }
func (Fixed) Len() int             { return 1 }
func (DomainId) Len() int          { return 1 }
func (AccountId) Len() int         { return 1 }
func (AssetDefinitionId) Len() int { return 1 }
func (AssetId) Len() int           { return 1 }
func (*Domain) Len() int           { return 1 }
func (*Account) Len() int          { return 1 }
func (*AssetDefinition) Len() int  { return 1 }
func (*Asset) Len() int            { return 1 }
func (PublicKey) Len() int         { return 1 }
func (Parameter) Len() int         { return 1 }
func (TransactionValue) Len() int  { return 1 }
func (PermissionToken) Len() int   { return 1 }
func (Hash) Len() int              { return 1 }
func (*BlockValue) Len() int       { return 1 }
func (BlockHeaderValue) Len() int  { return 1 }

func (v Vec) Len() int {
	n := 1
	for _, e := range v {
		n += e.Len()
	}
	return n
}

func (m Metadata) Len() int { return 1 + m.NestedLen() }

func (c SignatureCheckCondition) Len() int { return c.Condition.Len() }

func (U32) value()                     {}
func (U128) value()                    {}
func (Bool) value()                    {}
func (String) value()                  {}
func (Name) value()                    {}
func (Fixed) value()                   {}
func (Vec) value()                     {}
func (Metadata) value()                {}
func (DomainId) value()                {}
func (AccountId) value()               {}
func (AssetDefinitionId) value()       {}
func (AssetId) value()                 {}
func (*Domain) value()                 {}
func (*Account) value()                {}
func (*AssetDefinition) value()        {}
func (*Asset) value()                  {}
func (PublicKey) value()               {}
func (Parameter) value()               {}
func (SignatureCheckCondition) value() {}
func (TransactionValue) value()        {}
func (PermissionToken) value()         {}
func (Hash) value()                    {}
func (*BlockValue) value()             {}
func (BlockHeaderValue) value()        {}

func asValue[T Value](raw []byte) (Value, error) {
	return decodeAs[T](raw)
}

var valueDecoders = map[ValueKind]func([]byte) (Value, error){
	ValueU32:                     asValue[U32],
	ValueU128:                    asValue[U128],
	ValueBool:                    asValue[Bool],
	ValueString:                  asValue[String],
	ValueName:                    asValue[Name],
	ValueFixed:                   asValue[Fixed],
	ValueVec:                     asValue[Vec],
	ValueMetadata:                asValue[Metadata],
	ValueDomainId:                asValue[DomainId],
	ValueAccountId:               asValue[AccountId],
	ValueAssetDefinitionId:       asValue[AssetDefinitionId],
	ValueAssetId:                 asValue[AssetId],
	ValueDomain:                  asValue[*Domain],
	ValueAccount:                 asValue[*Account],
	ValueAssetDefinition:         asValue[*AssetDefinition],
	ValueAsset:                   asValue[*Asset],
	ValuePublicKey:               asValue[PublicKey],
	ValueParameter:               asValue[Parameter],
	ValueSignatureCheckCondition: asValue[SignatureCheckCondition],
	ValueTransaction:             asValue[TransactionValue],
	ValuePermissionToken:         asValue[PermissionToken],
	ValueHash:                    asValue[Hash],
	ValueBlock:                   asValue[*BlockValue],
	ValueBlockHeader:             asValue[BlockHeaderValue],
}

func encodeValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("encode nil value")
	}
	return marshalEnvelope(uint8(v.Kind()), v)
}

func decodeValue(data []byte) (Value, error) {
	kind, payload, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, err
	}
	dec, ok := valueDecoders[ValueKind(kind)]
	if !ok {
		return nil, decodeErr("value", "unknown kind %d", kind)
	}
	v, err := dec(payload)
	if err != nil {
		return nil, &DecodeError{What: ValueKind(kind).String(), Err: err}
	}
	return v, nil
}

// SerializeValue encodes v in the versioned binary form.
func SerializeValue(v Value) ([]byte, error) {
	body, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(versioned{Version: CodecVersion, Body: body})
}

func DeserializeValue(data []byte) (Value, error) {
	var raw cbor.RawMessage
	if err := deserialize("value", data, &raw); err != nil {
		return nil, err
	}
	return decodeValue(raw)
}

// ValueEqual reports whether a and b are structurally equal.
func ValueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	x, err := encodeValue(a)
	if err != nil {
		return false
	}
	y, err := encodeValue(b)
	if err != nil {
		return false
	}
	return string(x) == string(y)
}

// ValueByteSize is the encoded size of v, used for metadata limits.
func ValueByteSize(v Value) (int, error) {
	data, err := encodeValue(v)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Depth returns the nesting depth of v, stopping once limit is exceeded.
func Depth(v Value, limit int) int {
	return depth(v, 1, limit)
}

func depth(v Value, level, limit int) int {
	if level > limit {
		return level
	}
	deepest := level
	visit := func(child Value) {
		if d := depth(child, level+1, limit); d > deepest {
			deepest = d
		}
	}

	switch t := v.(type) {
	case Vec:
		for _, e := range t {
			visit(e)
			if deepest > limit {
				break
			}
		}
	case Metadata:
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			visit(e)
			if deepest > limit {
				break
			}
		}
	case PermissionToken:
		for _, k := range t.ParamNames() {
			visit(t.Params[k])
		}
	}
	return deepest
}

func (v Vec) MarshalCBOR() ([]byte, error) {
	items := make([]cbor.RawMessage, 0, len(v))
	for i, e := range v {
		raw, err := encodeValue(e)
		if err != nil {
			return nil, fmt.Errorf("vec[%d]: %w", i, err)
		}
		items = append(items, raw)
	}
	return encMode.Marshal(items)
}

func (v *Vec) UnmarshalCBOR(data []byte) error {
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Vec, 0, len(items))
	for _, raw := range items {
		e, err := decodeValue(raw)
		if err != nil {
			return err
		}
		out = append(out, e)
	}
	*v = out
	return nil
}

// FormatValue renders a value for logs and error messages.
func FormatValue(v Value) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case U32:
		return fmt.Sprintf("%d", uint32(t))
	case U128:
		return t.Uint128.String()
	case Bool:
		return fmt.Sprintf("%t", bool(t))
	case String:
		return fmt.Sprintf("%q", string(t))
	case Name:
		return string(t)
	case Fixed:
		return t.Fixed.String()
	case fmt.Stringer:
		return t.String()
	case Vec:
		s := "["
		for i, e := range t {
			if i > 0 {
				s += ", "
			}
			s += FormatValue(e)
		}
		return s + "]"
	}
	return v.Kind().String()
}
