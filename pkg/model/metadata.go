package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

var ErrMetadataLimit = errors.New("metadata limit exceeded")

// MetadataLimits bounds a metadata store.
type MetadataLimits struct {
	// MaxLen is the maximum number of entries.
	MaxLen uint32 `yaml:"maxlen"`
	// MaxEntryByteSize is the maximum encoded size of one value.
	MaxEntryByteSize uint32 `yaml:"maxentrybytesize"`
}

// Metadata is a bounded key-value store attached to entities.
// The zero value is an empty store.
type Metadata struct {
	entries map[Name]Value
}

func (m Metadata) Get(key Name) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m Metadata) Count() int {
	return len(m.entries)
}

// Keys returns the keys in ascending order.
func (m Metadata) Keys() []Name {
	keys := make([]Name, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NestedLen is the sum of the structural sizes of all stored values.
func (m Metadata) NestedLen() int {
	n := 0
	for _, v := range m.entries {
		n += v.Len()
	}
	return n
}

// Insert stores value under key and returns the value it replaced, if any.
func (m *Metadata) Insert(key Name, value Value, limits MetadataLimits) (Value, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("metadata %q: nil value", string(key))
	}

	prev, exists := m.entries[key]
	if !exists && uint32(len(m.entries)) >= limits.MaxLen {
		return nil, fmt.Errorf("%w: %d entries allowed", ErrMetadataLimit, limits.MaxLen)
	}
	size, err := ValueByteSize(value)
	if err != nil {
		return nil, err
	}
	if uint32(size) > limits.MaxEntryByteSize {
		return nil, fmt.Errorf("%w: entry %q is %d bytes, %d allowed", ErrMetadataLimit, string(key), size, limits.MaxEntryByteSize)
	}

	if m.entries == nil {
		m.entries = make(map[Name]Value)
	}
	m.entries[key] = value
	return prev, nil
}

func (m *Metadata) Remove(key Name) (Value, bool) {
	v, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	delete(m.entries, key)
	if len(m.entries) == 0 {
		m.entries = nil
	}
	return v, true
}

// Clone copies the map. Values are immutable and shared.
func (m Metadata) Clone() Metadata {
	if len(m.entries) == 0 {
		return Metadata{}
	}
	out := make(map[Name]Value, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return Metadata{entries: out}
}

type keyValue struct {
	_     struct{} `cbor:",toarray"`
	Key   Name
	Value cbor.RawMessage
}

func marshalNamedValues(keys []Name, get func(Name) Value) ([]byte, error) {
	pairs := make([]keyValue, 0, len(keys))
	for _, k := range keys {
		raw, err := encodeValue(get(k))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", string(k), err)
		}
		pairs = append(pairs, keyValue{Key: k, Value: raw})
	}
	return encMode.Marshal(pairs)
}

func unmarshalNamedValues(data []byte) (map[Name]Value, error) {
	var pairs []keyValue
	if err := decMode.Unmarshal(data, &pairs); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[Name]Value, len(pairs))
	for i, p := range pairs {
		if i > 0 && pairs[i-1].Key >= p.Key {
			return nil, decodeErr("named values", "keys out of order at %q", string(p.Key))
		}
		v, err := decodeValue(p.Value)
		if err != nil {
			return nil, err
		}
		out[p.Key] = v
	}
	return out, nil
}

func (m Metadata) MarshalCBOR() ([]byte, error) {
	return marshalNamedValues(m.Keys(), func(k Name) Value { return m.entries[k] })
}

func (m *Metadata) UnmarshalCBOR(data []byte) error {
	entries, err := unmarshalNamedValues(data)
	if err != nil {
		return err
	}
	m.entries = entries
	return nil
}
