package model

import (
	"fmt"
	"strings"
)

// IdBox is implemented by every entity identifier.
type IdBox interface {
	Value
	fmt.Stringer
	isId()
}

type DomainId struct {
	_    struct{} `cbor:",toarray"`
	Name Name
}

func NewDomainId(name Name) DomainId {
	return DomainId{Name: name}
}

func ParseDomainId(s string) (DomainId, error) {
	id := DomainId{Name: Name(s)}
	if err := id.Name.Validate(); err != nil {
		return DomainId{}, fmt.Errorf("domain id %q: %w", s, err)
	}
	return id, nil
}

func (id DomainId) String() string { return string(id.Name) }

// AccountId identifies an account by its signatory key inside a domain.
type AccountId struct {
	_         struct{} `cbor:",toarray"`
	Signatory PublicKey
	Domain    DomainId
}

func NewAccountId(key PublicKey, domain Name) AccountId {
	return AccountId{Signatory: key, Domain: DomainId{Name: domain}}
}

// ParseAccountId reads "<algorithm>:<base58 key>@<domain>".
func ParseAccountId(s string) (AccountId, error) {
	i := strings.LastIndexByte(s, '@')
	if i < 0 {
		return AccountId{}, fmt.Errorf("account id %q: missing '@'", s)
	}
	key, err := ParsePublicKey(s[:i])
	if err != nil {
		return AccountId{}, err
	}
	domain, err := ParseDomainId(s[i+1:])
	if err != nil {
		return AccountId{}, err
	}
	return AccountId{Signatory: key, Domain: domain}, nil
}

func (id AccountId) String() string {
	return id.Signatory.String() + "@" + id.Domain.String()
}

func (id AccountId) Compare(o AccountId) int {
	if c := strings.Compare(string(id.Domain.Name), string(o.Domain.Name)); c != 0 {
		return c
	}
	return id.Signatory.compare(o.Signatory)
}

type AssetDefinitionId struct {
	_      struct{} `cbor:",toarray"`
	Name   Name
	Domain DomainId
}

func NewAssetDefinitionId(name, domain Name) AssetDefinitionId {
	return AssetDefinitionId{Name: name, Domain: DomainId{Name: domain}}
}

// ParseAssetDefinitionId reads "<name>#<domain>".
func ParseAssetDefinitionId(s string) (AssetDefinitionId, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 {
		return AssetDefinitionId{}, fmt.Errorf("asset definition id %q: expected <name>#<domain>", s)
	}
	name := Name(parts[0])
	if err := name.Validate(); err != nil {
		return AssetDefinitionId{}, fmt.Errorf("asset definition id %q: %w", s, err)
	}
	domain, err := ParseDomainId(parts[1])
	if err != nil {
		return AssetDefinitionId{}, err
	}
	return AssetDefinitionId{Name: name, Domain: domain}, nil
}

func (id AssetDefinitionId) String() string {
	return string(id.Name) + "#" + id.Domain.String()
}

func (id AssetDefinitionId) Compare(o AssetDefinitionId) int {
	if c := strings.Compare(string(id.Domain.Name), string(o.Domain.Name)); c != 0 {
		return c
	}
	return strings.Compare(string(id.Name), string(o.Name))
}

// AssetId is the balance of one asset definition held by one account.
type AssetId struct {
	_          struct{} `cbor:",toarray"`
	Definition AssetDefinitionId
	Account    AccountId
}

func NewAssetId(definition AssetDefinitionId, account AccountId) AssetId {
	return AssetId{Definition: definition, Account: account}
}

// ParseAssetId reads "<name>#<domain>#<account id>".
func ParseAssetId(s string) (AssetId, error) {
	parts := strings.SplitN(s, "#", 3)
	if len(parts) != 3 {
		return AssetId{}, fmt.Errorf("asset id %q: expected <name>#<domain>#<account>", s)
	}
	def, err := ParseAssetDefinitionId(parts[0] + "#" + parts[1])
	if err != nil {
		return AssetId{}, err
	}
	account, err := ParseAccountId(parts[2])
	if err != nil {
		return AssetId{}, err
	}
	return AssetId{Definition: def, Account: account}, nil
}

func (id AssetId) String() string {
	return id.Definition.String() + "#" + id.Account.String()
}

func (id AssetId) Compare(o AssetId) int {
	if c := id.Account.Compare(o.Account); c != 0 {
		return c
	}
	return id.Definition.Compare(o.Definition)
}

func (DomainId) isId()          {}
func (AccountId) isId()         {}
func (AssetDefinitionId) isId() {}
func (AssetId) isId()           {}
