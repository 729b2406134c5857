package wsv

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned when a root view is asked to mutate.
	ErrReadOnly = errors.New("world state view is read only, stage it first")
	// ErrStaleView is returned when a child is committed after its parent
	// moved on.
	ErrStaleView = errors.New("world state view is stale")
	ErrCommitted = errors.New("world state view is already committed")
)

// EntityKind names what a FindError or RepetitionError is about.
type EntityKind uint8

const (
	DomainEntity EntityKind = iota + 1
	AccountEntity
	AssetDefinitionEntity
	AssetEntity
	MetadataKeyEntity
	BlockEntity
	TransactionEntity
	PermissionEntity
	SignatoryEntity
)

func (k EntityKind) String() string {
	switch k {
	case DomainEntity:
		return "domain"
	case AccountEntity:
		return "account"
	case AssetDefinitionEntity:
		return "asset definition"
	case AssetEntity:
		return "asset"
	case MetadataKeyEntity:
		return "metadata key"
	case BlockEntity:
		return "block"
	case TransactionEntity:
		return "transaction"
	case PermissionEntity:
		return "permission token"
	case SignatoryEntity:
		return "signatory"
	}
	return fmt.Sprintf("EntityKind(%d)", uint8(k))
}

// FindError reports a missing entity and names its id.
type FindError struct {
	Kind EntityKind
	ID   string
}

func (e *FindError) Error() string {
	return fmt.Sprintf("failed to find %s: %s", e.Kind, e.ID)
}

func notFound(kind EntityKind, id fmt.Stringer) error {
	return &FindError{Kind: kind, ID: id.String()}
}

// RepetitionError reports an entity that already exists.
type RepetitionError struct {
	Kind EntityKind
	ID   string
}

func (e *RepetitionError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}

func repeated(kind EntityKind, id fmt.Stringer) error {
	return &RepetitionError{Kind: kind, ID: id.String()}
}
