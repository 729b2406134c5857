package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/korthochain/ledger/pkg/fixed"
)

// AssetValueType is the shape an asset's value must have.
type AssetValueType uint8

const (
	// AssetQuantity is a u32 amount.
	AssetQuantity AssetValueType = iota + 1
	// AssetBigQuantity is a u128 amount.
	AssetBigQuantity
	// AssetFixed is a fixed point amount.
	AssetFixed
	// AssetStore is an opaque key-value store.
	AssetStore
)

func (t AssetValueType) String() string {
	switch t {
	case AssetQuantity:
		return "Quantity"
	case AssetBigQuantity:
		return "BigQuantity"
	case AssetFixed:
		return "Fixed"
	case AssetStore:
		return "Store"
	}
	return fmt.Sprintf("AssetValueType(%d)", uint8(t))
}

// Zero returns the initial value of an asset of this type.
func (t AssetValueType) Zero() Value {
	switch t {
	case AssetQuantity:
		return U32(0)
	case AssetBigQuantity:
		return U128{}
	case AssetFixed:
		return NewFixed(fixed.Zero)
	case AssetStore:
		return Metadata{}
	}
	return nil
}

// AssetValueTypeOf maps a value to the asset value type it can be stored as.
func AssetValueTypeOf(v Value) (AssetValueType, bool) {
	switch v.(type) {
	case U32:
		return AssetQuantity, true
	case U128:
		return AssetBigQuantity, true
	case Fixed:
		return AssetFixed, true
	case Metadata:
		return AssetStore, true
	}
	return 0, false
}

type AssetDefinition struct {
	_         struct{} `cbor:",toarray"`
	Id        AssetDefinitionId
	ValueType AssetValueType
	// Mintable is false for assets whose supply is fixed once registered.
	Mintable bool
	Metadata Metadata
}

func NewAssetDefinition(id AssetDefinitionId, valueType AssetValueType) *AssetDefinition {
	return &AssetDefinition{Id: id, ValueType: valueType, Mintable: true}
}

// AssetDefinitionEntry records who registered a definition.
type AssetDefinitionEntry struct {
	_            struct{} `cbor:",toarray"`
	Definition   AssetDefinition
	RegisteredBy AccountId
}

func (e *AssetDefinitionEntry) Clone() *AssetDefinitionEntry {
	c := *e
	c.Definition.Metadata = e.Definition.Metadata.Clone()
	return &c
}

type Asset struct {
	Id    AssetId
	Value Value
}

func NewAsset(id AssetId, value Value) *Asset {
	return &Asset{Id: id, Value: value}
}

func (a *Asset) ValueType() AssetValueType {
	t, _ := AssetValueTypeOf(a.Value)
	return t
}

func (a *Asset) Clone() *Asset {
	c := *a
	if m, ok := a.Value.(Metadata); ok {
		c.Value = m.Clone()
	}
	return &c
}

type assetWire struct {
	_     struct{} `cbor:",toarray"`
	Id    AssetId
	Value cbor.RawMessage
}

func (a *Asset) MarshalCBOR() ([]byte, error) {
	if _, ok := AssetValueTypeOf(a.Value); !ok {
		return nil, fmt.Errorf("asset %s: value %v is not an asset value", a.Id, a.Value)
	}
	raw, err := encodeValue(a.Value)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(assetWire{Id: a.Id, Value: raw})
}

func (a *Asset) UnmarshalCBOR(data []byte) error {
	var w assetWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	v, err := decodeValue(w.Value)
	if err != nil {
		return err
	}
	if _, ok := AssetValueTypeOf(v); !ok {
		return decodeErr("asset", "%s is not an asset value", v.Kind())
	}
	*a = Asset{Id: w.Id, Value: v}
	return nil
}
