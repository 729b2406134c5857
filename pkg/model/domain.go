package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const GenesisDomainName Name = "genesis"

// IpfsPath references content stored in IPFS, e.g. a domain logo.
type IpfsPath string

func ParseIpfsPath(s string) (IpfsPath, error) {
	segments := strings.Split(s, "/")
	rest := segments[1:]

	if segments[0] == "" {
		if len(rest) == 0 {
			return "", errors.New("ipfs path: expected root type, but nothing found")
		}
		root := rest[0]
		if len(rest) < 2 {
			return "", errors.New("ipfs path: expected at least one content id")
		}
		switch root {
		case "ipfs", "ipld":
			if err := checkCid(rest[1]); err != nil {
				return "", err
			}
		case "ipns":
		default:
			return "", fmt.Errorf("ipfs path: unexpected root type %q, expected ipfs, ipld or ipns", root)
		}
		rest = rest[2:]
	} else if err := checkCid(segments[0]); err != nil {
		return "", err
	}

	for _, cid := range rest {
		if err := checkCid(cid); err != nil {
			return "", err
		}
	}
	return IpfsPath(s), nil
}

func checkCid(cid string) error {
	if len(cid) < 2 {
		return errors.New("ipfs path: cid is too short")
	}
	return nil
}

func (p IpfsPath) String() string { return string(p) }

// Domain owns accounts and asset definitions.
type Domain struct {
	Id               DomainId
	Accounts         map[AccountId]*Account
	AssetDefinitions map[AssetDefinitionId]*AssetDefinitionEntry
	Logo             Option[IpfsPath]
	Metadata         Metadata
}

func NewDomain(id DomainId) *Domain {
	return &Domain{
		Id:               id,
		Accounts:         make(map[AccountId]*Account),
		AssetDefinitions: make(map[AssetDefinitionId]*AssetDefinitionEntry),
	}
}

func (d *Domain) WithLogo(logo IpfsPath) *Domain {
	d.Logo = Some(logo)
	return d
}

func (d *Domain) WithMetadata(m Metadata) *Domain {
	d.Metadata = m
	return d
}

// AddAccount inserts a, returning false if the id is taken.
func (d *Domain) AddAccount(a *Account) bool {
	if _, ok := d.Accounts[a.Id]; ok {
		return false
	}
	d.Accounts[a.Id] = a
	return true
}

// SortedAccounts returns the accounts ordered by id.
func (d *Domain) SortedAccounts() []*Account {
	out := make([]*Account, 0, len(d.Accounts))
	for _, a := range d.Accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Compare(out[j].Id) < 0 })
	return out
}

// SortedAssetDefinitions returns the asset definition entries ordered by id.
func (d *Domain) SortedAssetDefinitions() []*AssetDefinitionEntry {
	out := make([]*AssetDefinitionEntry, 0, len(d.AssetDefinitions))
	for _, e := range d.AssetDefinitions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Definition.Id.Compare(out[j].Definition.Id) < 0 })
	return out
}

// Clone deep copies the domain so it can be mutated without affecting readers
// of the original.
func (d *Domain) Clone() *Domain {
	c := &Domain{
		Id:               d.Id,
		Accounts:         make(map[AccountId]*Account, len(d.Accounts)),
		AssetDefinitions: make(map[AssetDefinitionId]*AssetDefinitionEntry, len(d.AssetDefinitions)),
		Logo:             d.Logo,
		Metadata:         d.Metadata.Clone(),
	}
	for id, a := range d.Accounts {
		c.Accounts[id] = a.Clone()
	}
	for id, e := range d.AssetDefinitions {
		c.AssetDefinitions[id] = e.Clone()
	}
	return c
}

type domainWire struct {
	_                struct{} `cbor:",toarray"`
	Id               DomainId
	Accounts         []*Account
	AssetDefinitions []*AssetDefinitionEntry
	Logo             Option[IpfsPath]
	Metadata         Metadata
}

func (d *Domain) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(domainWire{
		Id:               d.Id,
		Accounts:         d.SortedAccounts(),
		AssetDefinitions: d.SortedAssetDefinitions(),
		Logo:             d.Logo,
		Metadata:         d.Metadata,
	})
}

func (d *Domain) UnmarshalCBOR(data []byte) error {
	var w domainWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	if logo, ok := w.Logo.Get(); ok {
		if _, err := ParseIpfsPath(string(logo)); err != nil {
			return &DecodeError{What: "domain logo", Err: err}
		}
	}

	out := NewDomain(w.Id)
	out.Logo = w.Logo
	out.Metadata = w.Metadata
	for _, a := range w.Accounts {
		if a == nil || a.Id.Domain != w.Id {
			return decodeErr("domain", "account does not belong to domain %s", w.Id)
		}
		if !out.AddAccount(a) {
			return decodeErr("domain", "duplicate account %s", a.Id)
		}
	}
	for _, e := range w.AssetDefinitions {
		if e == nil || e.Definition.Id.Domain != w.Id {
			return decodeErr("domain", "asset definition does not belong to domain %s", w.Id)
		}
		if _, ok := out.AssetDefinitions[e.Definition.Id]; ok {
			return decodeErr("domain", "duplicate asset definition %s", e.Definition.Id)
		}
		out.AssetDefinitions[e.Definition.Id] = e
	}
	*d = *out
	return nil
}

func SerializeDomain(d *Domain) ([]byte, error) {
	return serialize(d)
}

func DeserializeDomain(data []byte) (*Domain, error) {
	d := &Domain{}
	if err := deserialize("domain", data, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GenesisAccountId is the account that authors genesis transactions.
func GenesisAccountId(key PublicKey) AccountId {
	return NewAccountId(key, GenesisDomainName)
}

// GenesisDomain builds the "genesis" domain holding the single genesis account
// controlled by key.
func GenesisDomain(key PublicKey) *Domain {
	d := NewDomain(NewDomainId(GenesisDomainName))
	d.AddAccount(NewAccount(GenesisAccountId(key)))
	return d
}
