package wsv

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
)

// Mutations are only accepted by staged children.

func (v *WorldStateView) checkName(n model.Name) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return v.cfg.IdentLengthLimits.Check(n)
}

// AddDomain registers d. The view takes ownership of d.
func (v *WorldStateView) AddDomain(d *model.Domain) error {
	if err := v.mutable(); err != nil {
		return err
	}
	if err := v.checkName(d.Id.Name); err != nil {
		return err
	}
	if _, ok := v.world.domains[d.Id]; ok {
		return repeated(DomainEntity, d.Id)
	}
	if d.Accounts == nil {
		d.Accounts = make(map[model.AccountId]*model.Account)
	}
	if d.AssetDefinitions == nil {
		d.AssetDefinitions = make(map[model.AssetDefinitionId]*model.AssetDefinitionEntry)
	}
	v.world.domains[d.Id] = d
	v.owned[d.Id] = struct{}{}
	return nil
}

// RemoveDomain drops the domain with everything it owns.
func (v *WorldStateView) RemoveDomain(id model.DomainId) error {
	if err := v.mutable(); err != nil {
		return err
	}
	if _, ok := v.world.domains[id]; !ok {
		return notFound(DomainEntity, id)
	}
	delete(v.world.domains, id)
	delete(v.owned, id)
	return nil
}

func (v *WorldStateView) ModifyDomain(id model.DomainId, fn func(*model.Domain) error) error {
	d, err := v.mutableDomain(id)
	if err != nil {
		return err
	}
	return fn(d)
}

// AddAccount registers a in the domain named by its id.
func (v *WorldStateView) AddAccount(a *model.Account) error {
	d, err := v.mutableDomain(a.Id.Domain)
	if err != nil {
		return err
	}
	if _, ok := d.Accounts[a.Id]; ok {
		return repeated(AccountEntity, a.Id)
	}
	if a.Assets == nil {
		a.Assets = make(map[model.AssetId]*model.Asset)
	}
	d.Accounts[a.Id] = a
	return nil
}

// RemoveAccount drops the account and every asset it holds.
func (v *WorldStateView) RemoveAccount(id model.AccountId) error {
	d, err := v.mutableDomain(id.Domain)
	if err != nil {
		return err
	}
	if _, ok := d.Accounts[id]; !ok {
		return notFound(AccountEntity, id)
	}
	delete(d.Accounts, id)
	return nil
}

func (v *WorldStateView) ModifyAccount(id model.AccountId, fn func(*model.Account) error) error {
	d, err := v.mutableDomain(id.Domain)
	if err != nil {
		return err
	}
	a, ok := d.Accounts[id]
	if !ok {
		return notFound(AccountEntity, id)
	}
	return fn(a)
}

// AddAssetDefinition registers def on behalf of registeredBy.
func (v *WorldStateView) AddAssetDefinition(def model.AssetDefinition, registeredBy model.AccountId) error {
	if err := v.checkName(def.Id.Name); err != nil {
		return err
	}
	if def.ValueType.Zero() == nil {
		return fmt.Errorf("asset definition %s: unknown value type %s", def.Id, def.ValueType)
	}
	d, err := v.mutableDomain(def.Id.Domain)
	if err != nil {
		return err
	}
	if _, ok := d.AssetDefinitions[def.Id]; ok {
		return repeated(AssetDefinitionEntity, def.Id)
	}
	d.AssetDefinitions[def.Id] = &model.AssetDefinitionEntry{Definition: def, RegisteredBy: registeredBy}
	return nil
}

// RemoveAssetDefinition drops the definition and every asset of it, in all
// domains.
func (v *WorldStateView) RemoveAssetDefinition(id model.AssetDefinitionId) error {
	d, err := v.mutableDomain(id.Domain)
	if err != nil {
		return err
	}
	if _, ok := d.AssetDefinitions[id]; !ok {
		return notFound(AssetDefinitionEntity, id)
	}
	delete(d.AssetDefinitions, id)

	for _, domain := range v.sortedDomains() {
		holders := make([]model.AccountId, 0)
		for _, a := range domain.Accounts {
			for assetId := range a.Assets {
				if assetId.Definition == id {
					holders = append(holders, a.Id)
					break
				}
			}
		}
		if len(holders) == 0 {
			continue
		}
		owned, err := v.mutableDomain(domain.Id)
		if err != nil {
			return err
		}
		for _, holder := range holders {
			a := owned.Accounts[holder]
			for assetId := range a.Assets {
				if assetId.Definition == id {
					delete(a.Assets, assetId)
				}
			}
		}
	}
	return nil
}

func (v *WorldStateView) ModifyAssetDefinitionEntry(id model.AssetDefinitionId, fn func(*model.AssetDefinitionEntry) error) error {
	d, err := v.mutableDomain(id.Domain)
	if err != nil {
		return err
	}
	e, ok := d.AssetDefinitions[id]
	if !ok {
		return notFound(AssetDefinitionEntity, id)
	}
	return fn(e)
}

// ModifyAsset applies fn to the asset, creating it with the zero value of
// its definition's type when the account does not hold it yet.
func (v *WorldStateView) ModifyAsset(id model.AssetId, fn func(*model.Asset) error) error {
	if err := v.mutable(); err != nil {
		return err
	}
	entry, err := v.assetDefinitionEntry(id.Definition)
	if err != nil {
		return err
	}
	if _, err := v.account(id.Account); err != nil {
		return err
	}
	d, err := v.mutableDomain(id.Account.Domain)
	if err != nil {
		return err
	}
	a := d.Accounts[id.Account]
	asset, ok := a.Assets[id]
	if !ok {
		asset = model.NewAsset(id, entry.Definition.ValueType.Zero())
	}
	if err := fn(asset); err != nil {
		return err
	}
	if t, ok := model.AssetValueTypeOf(asset.Value); !ok || t != entry.Definition.ValueType {
		return fmt.Errorf("asset %s: value type %s does not match definition type %s", id, asset.ValueType(), entry.Definition.ValueType)
	}
	a.Assets[id] = asset
	return nil
}

// AddAsset registers a new asset with an explicit value.
func (v *WorldStateView) AddAsset(asset *model.Asset) error {
	if err := v.mutable(); err != nil {
		return err
	}
	a, err := v.account(asset.Id.Account)
	if err != nil {
		return err
	}
	if _, ok := a.Assets[asset.Id]; ok {
		return repeated(AssetEntity, asset.Id)
	}
	return v.ModifyAsset(asset.Id, func(target *model.Asset) error {
		target.Value = asset.Value
		return nil
	})
}

func (v *WorldStateView) RemoveAsset(id model.AssetId) error {
	d, err := v.mutableDomain(id.Account.Domain)
	if err != nil {
		return err
	}
	a, ok := d.Accounts[id.Account]
	if !ok {
		return notFound(AccountEntity, id.Account)
	}
	if _, ok := a.Assets[id]; !ok {
		return notFound(AssetEntity, id)
	}
	delete(a.Assets, id)
	return nil
}

// SetParameter replaces the parameter of the same kind or adds it.
func (v *WorldStateView) SetParameter(p model.Parameter) error {
	if err := v.mutable(); err != nil {
		return err
	}
	for i := range v.world.parameters {
		if v.world.parameters[i].Name == p.Name {
			v.world.parameters[i] = p
			return nil
		}
	}
	v.world.parameters = append(v.world.parameters, p)
	return nil
}

// AppendBlock adds a committed block to the chain.
func (v *WorldStateView) AppendBlock(b *model.BlockValue) error {
	if err := v.mutable(); err != nil {
		return err
	}
	if b.Header.Height != uint64(len(v.world.blocks))+1 {
		return fmt.Errorf("block height %d does not follow %d", b.Header.Height, len(v.world.blocks))
	}
	v.world.blocks = append(v.world.blocks, b)
	v.world.index.add(b)
	return nil
}
