package isi

import (
	"github.com/korthochain/ledger/pkg/model"
)

// executeRegister adds a new entity. Registered values are copied so the
// world never shares memory with the instruction. Outside genesis, domains
// and accounts start empty: balances and tokens come from Mint and Grant.
func executeRegister(i model.RegisterBox, ex *executor) error {
	obj, err := ex.value(i.Object)
	if err != nil {
		return err
	}
	switch o := obj.(type) {
	case *model.Domain:
		if !ex.preload && (len(o.Accounts) > 0 || len(o.AssetDefinitions) > 0) {
			return execErr(Preloaded, "domain %s must be registered without accounts or asset definitions", o.Id)
		}
		if err := ex.v.AddDomain(o.Clone()); err != nil {
			return err
		}
		ex.emit(model.EntityDomain, model.Created, o.Id)
	case *model.Account:
		if !ex.preload && (len(o.Assets) > 0 || len(o.PermissionTokens) > 0) {
			return execErr(Preloaded, "account %s must be registered without assets or permission tokens", o.Id)
		}
		if err := ex.v.AddAccount(o.Clone()); err != nil {
			return err
		}
		ex.emit(model.EntityAccount, model.Created, o.Id)
	case *model.AssetDefinition:
		def := *o
		def.Metadata = o.Metadata.Clone()
		if err := ex.v.AddAssetDefinition(def, ex.authority); err != nil {
			return err
		}
		ex.emit(model.EntityAssetDefinition, model.Created, o.Id)
	case *model.Asset:
		if err := ex.v.AddAsset(o.Clone()); err != nil {
			return err
		}
		ex.emit(model.EntityAsset, model.Created, o.Id)
	case model.Parameter:
		if err := ex.v.SetParameter(o); err != nil {
			return err
		}
		ex.emit(model.EntityParameter, model.Updated, nil)
	default:
		return execErr(TypeMismatch, "cannot register %s", obj.Kind())
	}
	return nil
}

func executeUnregister(i model.UnregisterBox, ex *executor) error {
	id, err := ex.id(i.ObjectId)
	if err != nil {
		return err
	}
	switch o := id.(type) {
	case model.DomainId:
		if err := ex.v.RemoveDomain(o); err != nil {
			return err
		}
		ex.emit(model.EntityDomain, model.Deleted, o)
	case model.AccountId:
		if err := ex.v.RemoveAccount(o); err != nil {
			return err
		}
		ex.emit(model.EntityAccount, model.Deleted, o)
	case model.AssetDefinitionId:
		if err := ex.v.RemoveAssetDefinition(o); err != nil {
			return err
		}
		ex.emit(model.EntityAssetDefinition, model.Deleted, o)
	case model.AssetId:
		if err := ex.v.RemoveAsset(o); err != nil {
			return err
		}
		ex.emit(model.EntityAsset, model.Deleted, o)
	default:
		return execErr(TypeMismatch, "cannot unregister %s", id.Kind())
	}
	return nil
}
