package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EntityKind is the kind of entity an event is about.
type EntityKind uint8

const (
	EntityDomain EntityKind = iota + 1
	EntityAccount
	EntityAssetDefinition
	EntityAsset
	EntityMetadata
	EntityPermission
	EntitySignatory
	EntityParameter
)

func (k EntityKind) String() string {
	switch k {
	case EntityDomain:
		return "Domain"
	case EntityAccount:
		return "Account"
	case EntityAssetDefinition:
		return "AssetDefinition"
	case EntityAsset:
		return "Asset"
	case EntityMetadata:
		return "Metadata"
	case EntityPermission:
		return "Permission"
	case EntitySignatory:
		return "Signatory"
	case EntityParameter:
		return "Parameter"
	}
	return fmt.Sprintf("EntityKind(%d)", uint8(k))
}

type Status uint8

const (
	Created Status = iota + 1
	Updated
	Deleted
)

func (s Status) String() string {
	switch s {
	case Created:
		return "Created"
	case Updated:
		return "Updated"
	case Deleted:
		return "Deleted"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// DataEvent describes one change to the world state. The id is nil for
// changes that have no entity id, such as a parameter update.
type DataEvent struct {
	Entity EntityKind
	Status Status
	Id     IdBox
}

func NewEvent(entity EntityKind, status Status, id IdBox) DataEvent {
	return DataEvent{Entity: entity, Status: status, Id: id}
}

func (e DataEvent) String() string {
	if e.Id == nil {
		return fmt.Sprintf("%s %s", e.Entity, e.Status)
	}
	return fmt.Sprintf("%s %s %s", e.Entity, e.Status, e.Id)
}

type dataEventWire struct {
	_      struct{} `cbor:",toarray"`
	Entity EntityKind
	Status Status
	Id     Option[cbor.RawMessage]
}

func (e DataEvent) MarshalCBOR() ([]byte, error) {
	w := dataEventWire{Entity: e.Entity, Status: e.Status}
	if e.Id != nil {
		raw, err := encodeValue(e.Id)
		if err != nil {
			return nil, err
		}
		w.Id = Some(cbor.RawMessage(raw))
	}
	return encMode.Marshal(w)
}

func (e *DataEvent) UnmarshalCBOR(data []byte) error {
	var w dataEventWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = DataEvent{Entity: w.Entity, Status: w.Status}
	raw, ok := w.Id.Get()
	if !ok {
		return nil
	}
	v, err := decodeValue(raw)
	if err != nil {
		return err
	}
	id, ok := v.(IdBox)
	if !ok {
		return decodeErr("event", "%s is not an id", v.Kind())
	}
	e.Id = id
	return nil
}
