package wsv

import (
	"sort"

	"github.com/korthochain/ledger/pkg/model"
)

// Values returned by the read methods are shared with the view and must not
// be modified.

func (v *WorldStateView) Domain(id model.DomainId) (*model.Domain, error) {
	defer v.read()()
	return v.domain(id)
}

func (v *WorldStateView) domain(id model.DomainId) (*model.Domain, error) {
	d, ok := v.world.domains[id]
	if !ok {
		return nil, notFound(DomainEntity, id)
	}
	return d, nil
}

// Domains returns every domain ordered by id.
func (v *WorldStateView) Domains() []*model.Domain {
	defer v.read()()
	return v.sortedDomains()
}

func (v *WorldStateView) sortedDomains() []*model.Domain {
	out := make([]*model.Domain, 0, len(v.world.domains))
	for _, d := range v.world.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Name < out[j].Id.Name })
	return out
}

func (v *WorldStateView) Account(id model.AccountId) (*model.Account, error) {
	defer v.read()()
	return v.account(id)
}

func (v *WorldStateView) account(id model.AccountId) (*model.Account, error) {
	d, err := v.domain(id.Domain)
	if err != nil {
		return nil, err
	}
	a, ok := d.Accounts[id]
	if !ok {
		return nil, notFound(AccountEntity, id)
	}
	return a, nil
}

// Accounts returns the accounts of every domain, ordered by domain then key.
func (v *WorldStateView) Accounts() []*model.Account {
	defer v.read()()
	var out []*model.Account
	for _, d := range v.sortedDomains() {
		out = append(out, d.SortedAccounts()...)
	}
	return out
}

// AccountsInDomain returns the accounts of one domain ordered by id.
func (v *WorldStateView) AccountsInDomain(id model.DomainId) ([]*model.Account, error) {
	defer v.read()()
	d, err := v.domain(id)
	if err != nil {
		return nil, err
	}
	return d.SortedAccounts(), nil
}

func (v *WorldStateView) AssetDefinitionEntry(id model.AssetDefinitionId) (*model.AssetDefinitionEntry, error) {
	defer v.read()()
	return v.assetDefinitionEntry(id)
}

func (v *WorldStateView) assetDefinitionEntry(id model.AssetDefinitionId) (*model.AssetDefinitionEntry, error) {
	d, err := v.domain(id.Domain)
	if err != nil {
		return nil, err
	}
	e, ok := d.AssetDefinitions[id]
	if !ok {
		return nil, notFound(AssetDefinitionEntity, id)
	}
	return e, nil
}

// AssetDefinitions returns every asset definition entry ordered by id.
func (v *WorldStateView) AssetDefinitions() []*model.AssetDefinitionEntry {
	defer v.read()()
	var out []*model.AssetDefinitionEntry
	for _, d := range v.sortedDomains() {
		out = append(out, d.SortedAssetDefinitions()...)
	}
	return out
}

func (v *WorldStateView) Asset(id model.AssetId) (*model.Asset, error) {
	defer v.read()()
	a, err := v.account(id.Account)
	if err != nil {
		return nil, err
	}
	asset, ok := a.Assets[id]
	if !ok {
		return nil, notFound(AssetEntity, id)
	}
	return asset, nil
}

// Assets returns every asset ordered by account, then definition.
func (v *WorldStateView) Assets() []*model.Asset {
	defer v.read()()
	var out []*model.Asset
	for _, d := range v.sortedDomains() {
		for _, a := range d.SortedAccounts() {
			out = append(out, a.SortedAssets()...)
		}
	}
	return out
}

// AccountAssets returns the assets held by one account.
func (v *WorldStateView) AccountAssets(id model.AccountId) ([]*model.Asset, error) {
	defer v.read()()
	a, err := v.account(id)
	if err != nil {
		return nil, err
	}
	return a.SortedAssets(), nil
}

// AssetsByDefinition returns every asset of one definition.
func (v *WorldStateView) AssetsByDefinition(id model.AssetDefinitionId) ([]*model.Asset, error) {
	defer v.read()()
	if _, err := v.assetDefinitionEntry(id); err != nil {
		return nil, err
	}
	var out []*model.Asset
	for _, d := range v.sortedDomains() {
		for _, a := range d.SortedAccounts() {
			for _, asset := range a.SortedAssets() {
				if asset.Id.Definition == id {
					out = append(out, asset)
				}
			}
		}
	}
	return out, nil
}

// HasPermission reports whether the account holds an equal token. A missing
// account holds nothing.
func (v *WorldStateView) HasPermission(id model.AccountId, token model.PermissionToken) bool {
	defer v.read()()
	a, err := v.account(id)
	if err != nil {
		return false
	}
	return a.HasPermission(token)
}

func (v *WorldStateView) Parameters() []model.Parameter {
	defer v.read()()
	return append([]model.Parameter(nil), v.world.parameters...)
}

func (v *WorldStateView) Blocks() []*model.BlockValue {
	defer v.read()()
	return append([]*model.BlockValue(nil), v.world.blocks...)
}

// Height is the number of committed blocks.
func (v *WorldStateView) Height() uint64 {
	defer v.read()()
	return uint64(len(v.world.blocks))
}

func (v *WorldStateView) LatestBlockHash() (model.Hash, bool) {
	defer v.read()()
	if len(v.world.blocks) == 0 {
		return model.Hash{}, false
	}
	return v.world.blocks[len(v.world.blocks)-1].Hash(), true
}

// TransactionsByAccount returns the committed and rejected transactions
// authored by the account, in chain order.
func (v *WorldStateView) TransactionsByAccount(id model.AccountId) []model.TransactionValue {
	defer v.read()()
	var out []model.TransactionValue
	for _, b := range v.world.blocks {
		for _, tx := range b.Transactions {
			if tx.Payload.AccountId == id {
				out = append(out, model.TransactionValue{Transaction: tx})
			}
		}
		for _, rtx := range b.RejectedTransactions {
			if rtx.Transaction.Payload.AccountId == id {
				out = append(out, model.TransactionValue{Transaction: rtx.Transaction, Rejection: model.Some(rtx.Reason)})
			}
		}
	}
	return out
}

func (v *WorldStateView) TransactionByHash(h model.Hash) (model.TransactionValue, error) {
	defer v.read()()
	loc, ok := v.world.index.find(h, v.world.blocks)
	if !ok {
		return model.TransactionValue{}, notFound(TransactionEntity, h)
	}
	if loc.rejected {
		rtx := loc.block.RejectedTransactions[loc.pos]
		return model.TransactionValue{Transaction: rtx.Transaction, Rejection: model.Some(rtx.Reason)}, nil
	}
	return model.TransactionValue{Transaction: loc.block.Transactions[loc.pos]}, nil
}

// HasTransaction reports whether a transaction with this hash is already in
// the chain.
func (v *WorldStateView) HasTransaction(h model.Hash) bool {
	defer v.read()()
	_, ok := v.world.index.find(h, v.world.blocks)
	return ok
}
