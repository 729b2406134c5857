package model

import (
	"sort"
)

const (
	// TransactionSignatories is bound to the signatories of the transaction
	// while a signature check condition is evaluated.
	TransactionSignatories Name = "transaction_signatories"
	// AccountSignatories is bound to the signatories of the account.
	AccountSignatories Name = "account_signatories"
)

// SignatureCheckCondition decides whether a transaction carries enough
// signatures for its authority.
type SignatureCheckCondition struct {
	_         struct{} `cbor:",toarray"`
	Condition EvaluatesTo
}

// DefaultSignatureCheckCondition passes if any account signatory signed.
func DefaultSignatureCheckCondition() SignatureCheckCondition {
	return SignatureCheckCondition{
		Condition: Expr(ContainsAny{
			Collection: Expr(ContextValue{Name: TransactionSignatories}),
			Elements:   Expr(ContextValue{Name: AccountSignatories}),
		}),
	}
}

type Account struct {
	Id                      AccountId
	Assets                  map[AssetId]*Asset
	Signatories             []PublicKey
	PermissionTokens        []PermissionToken
	SignatureCheckCondition SignatureCheckCondition
	Metadata                Metadata
}

// NewAccount returns an account whose only signatory is the key in its id.
func NewAccount(id AccountId) *Account {
	return &Account{
		Id:                      id,
		Assets:                  make(map[AssetId]*Asset),
		Signatories:             []PublicKey{id.Signatory},
		SignatureCheckCondition: DefaultSignatureCheckCondition(),
	}
}

func (a *Account) HasSignatory(key PublicKey) bool {
	for _, s := range a.Signatories {
		if s == key {
			return true
		}
	}
	return false
}

// AddSignatory returns false if key is already a signatory.
func (a *Account) AddSignatory(key PublicKey) bool {
	if a.HasSignatory(key) {
		return false
	}
	a.Signatories = append(a.Signatories, key)
	return true
}

func (a *Account) RemoveSignatory(key PublicKey) bool {
	for i, s := range a.Signatories {
		if s == key {
			a.Signatories = append(a.Signatories[:i:i], a.Signatories[i+1:]...)
			return true
		}
	}
	return false
}

func (a *Account) HasPermission(token PermissionToken) bool {
	for _, t := range a.PermissionTokens {
		if t.Equal(token) {
			return true
		}
	}
	return false
}

// AddPermission returns false if an equal token is already held.
func (a *Account) AddPermission(token PermissionToken) bool {
	if a.HasPermission(token) {
		return false
	}
	a.PermissionTokens = append(a.PermissionTokens, token)
	return true
}

func (a *Account) RemovePermission(token PermissionToken) bool {
	for i, t := range a.PermissionTokens {
		if t.Equal(token) {
			a.PermissionTokens = append(a.PermissionTokens[:i:i], a.PermissionTokens[i+1:]...)
			return true
		}
	}
	return false
}

// SortedAssets returns the assets ordered by id.
func (a *Account) SortedAssets() []*Asset {
	out := make([]*Asset, 0, len(a.Assets))
	for _, asset := range a.Assets {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Compare(out[j].Id) < 0 })
	return out
}

func (a *Account) Clone() *Account {
	c := &Account{
		Id:                      a.Id,
		Assets:                  make(map[AssetId]*Asset, len(a.Assets)),
		Signatories:             append([]PublicKey(nil), a.Signatories...),
		PermissionTokens:        append([]PermissionToken(nil), a.PermissionTokens...),
		SignatureCheckCondition: a.SignatureCheckCondition,
		Metadata:                a.Metadata.Clone(),
	}
	if a.Signatories != nil && c.Signatories == nil {
		c.Signatories = []PublicKey{}
	}
	if a.PermissionTokens != nil && c.PermissionTokens == nil {
		c.PermissionTokens = []PermissionToken{}
	}
	for id, asset := range a.Assets {
		c.Assets[id] = asset.Clone()
	}
	return c
}

type accountWire struct {
	_                       struct{} `cbor:",toarray"`
	Id                      AccountId
	Assets                  []*Asset
	Signatories             []PublicKey
	PermissionTokens        []PermissionToken
	SignatureCheckCondition SignatureCheckCondition
	Metadata                Metadata
}

func (a *Account) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(accountWire{
		Id:                      a.Id,
		Assets:                  a.SortedAssets(),
		Signatories:             a.Signatories,
		PermissionTokens:        a.PermissionTokens,
		SignatureCheckCondition: a.SignatureCheckCondition,
		Metadata:                a.Metadata,
	})
}

func (a *Account) UnmarshalCBOR(data []byte) error {
	var w accountWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}

	assets := make(map[AssetId]*Asset, len(w.Assets))
	for _, asset := range w.Assets {
		if asset == nil || asset.Id.Account != w.Id {
			return decodeErr("account", "asset does not belong to account %s", w.Id)
		}
		if _, ok := assets[asset.Id]; ok {
			return decodeErr("account", "duplicate asset %s", asset.Id)
		}
		assets[asset.Id] = asset
	}

	*a = Account{
		Id:                      w.Id,
		Assets:                  assets,
		Signatories:             w.Signatories,
		PermissionTokens:        w.PermissionTokens,
		SignatureCheckCondition: w.SignatureCheckCondition,
		Metadata:                w.Metadata,
	}
	return nil
}
