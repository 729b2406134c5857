package permission

import (
	"github.com/korthochain/ledger/pkg/model"
)

// Standard token names.
const (
	CanRegisterDomains               = model.Name("can_register_domains")
	CanMintUserAssetDefinitions      = model.Name("can_mint_user_asset_definitions")
	CanBurnAssetWithDefinition       = model.Name("can_burn_asset_with_definition")
	CanTransferUserAssets            = model.Name("can_transfer_user_assets")
	CanSetKeyValueInUserAssets       = model.Name("can_set_key_value_in_user_assets")
	CanRemoveKeyValueInUserAssets    = model.Name("can_remove_key_value_in_user_assets")
	CanSetKeyValueInUserMetadata     = model.Name("can_set_key_value_in_user_metadata")
	CanRemoveKeyValueInUserMetadata  = model.Name("can_remove_key_value_in_user_metadata")
	CanUnregisterAssetWithDefinition = model.Name("can_unregister_asset_with_definition")
	CanUnregisterDomains             = model.Name("can_unregister_domains")
	CanSetParameters                 = model.Name("can_set_parameters")
)

// Token parameter names.
const (
	AssetDefinitionIdParam = model.Name("asset_definition_id")
	AssetIdParam           = model.Name("asset_id")
	AccountIdParam         = model.Name("account_id")
)

func RegisterDomainsToken() model.PermissionToken {
	return model.NewPermissionToken(CanRegisterDomains)
}

func UnregisterDomainsToken() model.PermissionToken {
	return model.NewPermissionToken(CanUnregisterDomains)
}

func SetParametersToken() model.PermissionToken {
	return model.NewPermissionToken(CanSetParameters)
}

func MintToken(def model.AssetDefinitionId) model.PermissionToken {
	return model.NewPermissionToken(CanMintUserAssetDefinitions).WithParam(AssetDefinitionIdParam, def)
}

func BurnToken(def model.AssetDefinitionId) model.PermissionToken {
	return model.NewPermissionToken(CanBurnAssetWithDefinition).WithParam(AssetDefinitionIdParam, def)
}

func TransferToken(asset model.AssetId) model.PermissionToken {
	return model.NewPermissionToken(CanTransferUserAssets).WithParam(AssetIdParam, asset)
}

func SetAssetKeyValueToken(asset model.AssetId) model.PermissionToken {
	return model.NewPermissionToken(CanSetKeyValueInUserAssets).WithParam(AssetIdParam, asset)
}

func RemoveAssetKeyValueToken(asset model.AssetId) model.PermissionToken {
	return model.NewPermissionToken(CanRemoveKeyValueInUserAssets).WithParam(AssetIdParam, asset)
}

func SetAccountKeyValueToken(account model.AccountId) model.PermissionToken {
	return model.NewPermissionToken(CanSetKeyValueInUserMetadata).WithParam(AccountIdParam, account)
}

func RemoveAccountKeyValueToken(account model.AccountId) model.PermissionToken {
	return model.NewPermissionToken(CanRemoveKeyValueInUserMetadata).WithParam(AccountIdParam, account)
}

func UnregisterToken(def model.AssetDefinitionId) model.PermissionToken {
	return model.NewPermissionToken(CanUnregisterAssetWithDefinition).WithParam(AssetDefinitionIdParam, def)
}

// requiredToken derives the token named name that instr needs. It reports
// false when tokens of that name do not govern instr.
func requiredToken(name model.Name, instr model.Instruction, ops *operands) (model.PermissionToken, bool, error) {
	switch name {
	case CanRegisterDomains:
		if i, ok := instr.(model.RegisterBox); ok {
			obj, err := ops.value(i.Object)
			if err != nil {
				return model.PermissionToken{}, true, err
			}
			if _, ok := obj.(*model.Domain); ok {
				return RegisterDomainsToken(), true, nil
			}
		}
	case CanMintUserAssetDefinitions:
		switch i := instr.(type) {
		case model.MintBox:
			if asset, ok, err := ops.assetId(i.DestinationId); ok || err != nil {
				return MintToken(asset.Definition), true, err
			}
		case model.RegisterBox:
			obj, err := ops.value(i.Object)
			if err != nil {
				return model.PermissionToken{}, true, err
			}
			if asset, ok := obj.(*model.Asset); ok {
				return MintToken(asset.Id.Definition), true, nil
			}
		}
	case CanSetParameters:
		if i, ok := instr.(model.RegisterBox); ok {
			obj, err := ops.value(i.Object)
			if err != nil {
				return model.PermissionToken{}, true, err
			}
			if _, ok := obj.(model.Parameter); ok {
				return SetParametersToken(), true, nil
			}
		}
	case CanUnregisterDomains:
		if i, ok := instr.(model.UnregisterBox); ok {
			obj, err := ops.value(i.ObjectId)
			if err != nil {
				return model.PermissionToken{}, true, err
			}
			if _, ok := obj.(model.DomainId); ok {
				return UnregisterDomainsToken(), true, nil
			}
		}
	case CanBurnAssetWithDefinition:
		if i, ok := instr.(model.BurnBox); ok {
			if asset, ok, err := ops.assetId(i.DestinationId); ok || err != nil {
				return BurnToken(asset.Definition), true, err
			}
		}
	case CanTransferUserAssets:
		if i, ok := instr.(model.TransferBox); ok {
			if asset, ok, err := ops.assetId(i.SourceId); ok || err != nil {
				return TransferToken(asset), true, err
			}
		}
	case CanSetKeyValueInUserAssets:
		if i, ok := instr.(model.SetKeyValueBox); ok {
			if asset, ok, err := ops.assetId(i.ObjectId); ok || err != nil {
				return SetAssetKeyValueToken(asset), true, err
			}
		}
	case CanRemoveKeyValueInUserAssets:
		if i, ok := instr.(model.RemoveKeyValueBox); ok {
			if asset, ok, err := ops.assetId(i.ObjectId); ok || err != nil {
				return RemoveAssetKeyValueToken(asset), true, err
			}
		}
	case CanSetKeyValueInUserMetadata:
		if i, ok := instr.(model.SetKeyValueBox); ok {
			if account, ok, err := ops.accountId(i.ObjectId); ok || err != nil {
				return SetAccountKeyValueToken(account), true, err
			}
		}
	case CanRemoveKeyValueInUserMetadata:
		if i, ok := instr.(model.RemoveKeyValueBox); ok {
			if account, ok, err := ops.accountId(i.ObjectId); ok || err != nil {
				return RemoveAccountKeyValueToken(account), true, err
			}
		}
	case CanUnregisterAssetWithDefinition:
		if i, ok := instr.(model.UnregisterBox); ok {
			obj, err := ops.value(i.ObjectId)
			if err != nil {
				return model.PermissionToken{}, true, err
			}
			if def, ok := obj.(model.AssetDefinitionId); ok {
				return UnregisterToken(def), true, nil
			}
		}
	}
	return model.PermissionToken{}, false, nil
}
