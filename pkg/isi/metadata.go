package isi

import (
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

// editMetadata applies fn to the metadata of the entity named by id, using
// the limits configured for that kind of entity.
func (ex *executor) editMetadata(id model.IdBox, fn func(m *model.Metadata, limits model.MetadataLimits) error) error {
	cfg := ex.v.Config()
	switch o := id.(type) {
	case model.DomainId:
		return ex.v.ModifyDomain(o, func(d *model.Domain) error {
			return fn(&d.Metadata, cfg.DomainMetadataLimits)
		})
	case model.AccountId:
		return ex.v.ModifyAccount(o, func(a *model.Account) error {
			return fn(&a.Metadata, cfg.AccountMetadataLimits)
		})
	case model.AssetDefinitionId:
		return ex.v.ModifyAssetDefinitionEntry(o, func(e *model.AssetDefinitionEntry) error {
			return fn(&e.Definition.Metadata, cfg.AssetDefinitionMetadataLimits)
		})
	case model.AssetId:
		return ex.v.ModifyAsset(o, func(asset *model.Asset) error {
			store, ok := asset.Value.(model.Metadata)
			if !ok {
				return execErr(TypeMismatch, "asset %s is not a store", o)
			}
			store = store.Clone()
			if err := fn(&store, cfg.AssetMetadataLimits); err != nil {
				return err
			}
			asset.Value = store
			return nil
		})
	}
	return execErr(TypeMismatch, "%s has no metadata", id.Kind())
}

func executeSetKeyValue(i model.SetKeyValueBox, ex *executor) error {
	id, err := ex.id(i.ObjectId)
	if err != nil {
		return err
	}
	key, err := operand[model.Name](ex, "metadata key", i.Key)
	if err != nil {
		return err
	}
	value, err := ex.value(i.Value)
	if err != nil {
		return err
	}
	err = ex.editMetadata(id, func(m *model.Metadata, limits model.MetadataLimits) error {
		_, err := m.Insert(key, value, limits)
		return err
	})
	if err != nil {
		return err
	}
	ex.emit(model.EntityMetadata, model.Updated, id)
	return nil
}

func executeRemoveKeyValue(i model.RemoveKeyValueBox, ex *executor) error {
	id, err := ex.id(i.ObjectId)
	if err != nil {
		return err
	}
	key, err := operand[model.Name](ex, "metadata key", i.Key)
	if err != nil {
		return err
	}
	err = ex.editMetadata(id, func(m *model.Metadata, _ model.MetadataLimits) error {
		if _, ok := m.Remove(key); !ok {
			return &wsv.FindError{Kind: wsv.MetadataKeyEntity, ID: string(key)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ex.emit(model.EntityMetadata, model.Deleted, id)
	return nil
}

func executeGrant(i model.GrantBox, ex *executor) error {
	token, err := operand[model.PermissionToken](ex, "granted token", i.Object)
	if err != nil {
		return err
	}
	dest, err := operand[model.AccountId](ex, "grant destination", i.DestinationId)
	if err != nil {
		return err
	}
	err = ex.v.ModifyAccount(dest, func(a *model.Account) error {
		if !a.AddPermission(token) {
			return &wsv.RepetitionError{Kind: wsv.PermissionEntity, ID: token.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ex.emit(model.EntityPermission, model.Created, dest)
	return nil
}

func executeRevoke(i model.RevokeBox, ex *executor) error {
	token, err := operand[model.PermissionToken](ex, "revoked token", i.Object)
	if err != nil {
		return err
	}
	dest, err := operand[model.AccountId](ex, "revoke destination", i.DestinationId)
	if err != nil {
		return err
	}
	err = ex.v.ModifyAccount(dest, func(a *model.Account) error {
		if !a.RemovePermission(token) {
			return &wsv.FindError{Kind: wsv.PermissionEntity, ID: token.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	ex.emit(model.EntityPermission, model.Deleted, dest)
	return nil
}
