package permission

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/expr"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

type CheckKind uint8

const (
	AllowAllCheck CheckKind = iota + 1
	DenyAllCheck
	// InstructionIsCheck allows instructions of one kind only.
	InstructionIsCheck
	// ProhibitRegisterDomainsCheck denies registering domains.
	ProhibitRegisterDomainsCheck
	// HasTokenCheck requires the token of a given name that the instruction
	// derives, for instructions governed by that name.
	HasTokenCheck
	// OnlyOwnedAssetsCheck lets an account transfer, burn and edit the store
	// of its own assets only.
	OnlyOwnedAssetsCheck
	// OnlyAssetsCreatedByThisAccountCheck lets an account mint, register
	// assets of, edit and unregister only the asset definitions it
	// registered.
	OnlyAssetsCreatedByThisAccountCheck
	// OnlyOwnedAccountMetadataCheck lets an account edit its own metadata
	// only.
	OnlyOwnedAccountMetadataCheck
	// GrantMyAssetAccessCheck lets an account grant tokens over its own
	// assets, definitions and account only.
	GrantMyAssetAccessCheck
	RevokeMyAssetAccessCheck
	// GrantRegisteredDomainPermissionCheck lets an account holding one of the
	// unscoped tokens (domains, parameters) pass it on.
	GrantRegisteredDomainPermissionCheck
	// OnlyOwnedAccountCheck lets an account change the signatories and
	// signature condition of, and unregister, only itself and its assets.
	OnlyOwnedAccountCheck
)

var checkNames = map[CheckKind]string{
	AllowAllCheck:                        "allow_all",
	DenyAllCheck:                         "deny_all",
	InstructionIsCheck:                   "instruction_is",
	ProhibitRegisterDomainsCheck:         "prohibit_register_domains",
	HasTokenCheck:                        "has_token",
	OnlyOwnedAssetsCheck:                 "only_owned_assets",
	OnlyAssetsCreatedByThisAccountCheck:  "only_assets_created_by_this_account",
	OnlyOwnedAccountMetadataCheck:        "only_owned_account_metadata",
	GrantMyAssetAccessCheck:              "grant_my_asset_access",
	RevokeMyAssetAccessCheck:             "revoke_my_asset_access",
	GrantRegisteredDomainPermissionCheck: "grant_registered_domain_permission",
	OnlyOwnedAccountCheck:                "only_owned_account",
}

func (k CheckKind) String() string {
	if s, ok := checkNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CheckKind(%d)", uint8(k))
}

// Check is a primitive permission check. Instruction is used by
// InstructionIsCheck and Token by HasTokenCheck.
type Check struct {
	Kind        CheckKind
	Instruction model.InstructionKind
	Token       model.Name
}

func (c Check) String() string {
	switch c.Kind {
	case InstructionIsCheck:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Instruction)
	case HasTokenCheck:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Token)
	}
	return c.Kind.String()
}

// operands evaluates instruction operands against the state the check runs
// on, with an empty context.
type operands struct {
	v *wsv.WorldStateView
}

func (o *operands) value(e model.EvaluatesTo) (model.Value, error) {
	return expr.Evaluate(e, o.v, expr.NewContext())
}

func (o *operands) assetId(e model.EvaluatesTo) (model.AssetId, bool, error) {
	v, err := o.value(e)
	if err != nil {
		return model.AssetId{}, false, err
	}
	id, ok := v.(model.AssetId)
	return id, ok, nil
}

func (o *operands) accountId(e model.EvaluatesTo) (model.AccountId, bool, error) {
	v, err := o.value(e)
	if err != nil {
		return model.AccountId{}, false, err
	}
	id, ok := v.(model.AccountId)
	return id, ok, nil
}

type checkFunc func(c Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict

var checkRegistry map[CheckKind]checkFunc

func init() {
	checkRegistry = map[CheckKind]checkFunc{
		AllowAllCheck:                        func(Check, model.AccountId, model.Instruction, *operands) Verdict { return Allow() },
		DenyAllCheck:                         func(Check, model.AccountId, model.Instruction, *operands) Verdict { return Deny("all instructions are denied") },
		InstructionIsCheck:                   checkInstructionIs,
		ProhibitRegisterDomainsCheck:         checkProhibitRegisterDomains,
		HasTokenCheck:                        checkHasToken,
		OnlyOwnedAssetsCheck:                 checkOnlyOwnedAssets,
		OnlyAssetsCreatedByThisAccountCheck:  checkOnlyAssetsCreatedByThisAccount,
		OnlyOwnedAccountMetadataCheck:        checkOnlyOwnedAccountMetadata,
		GrantMyAssetAccessCheck:              checkGrantMyAssetAccess,
		RevokeMyAssetAccessCheck:             checkRevokeMyAssetAccess,
		GrantRegisteredDomainPermissionCheck: checkGrantRegisteredDomainPermission,
		OnlyOwnedAccountCheck:                checkOnlyOwnedAccount,
	}
}

func (c Check) run(authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	fn, ok := checkRegistry[c.Kind]
	if !ok {
		return Deny("unknown check %s", c.Kind)
	}
	return fn(c, authority, instr, ops)
}

func checkInstructionIs(c Check, _ model.AccountId, instr model.Instruction, _ *operands) Verdict {
	if instr.Kind() == c.Instruction {
		return Allow()
	}
	return Deny("instruction is %s, not %s", instr.Kind(), c.Instruction)
}

func checkProhibitRegisterDomains(_ Check, _ model.AccountId, instr model.Instruction, ops *operands) Verdict {
	i, ok := instr.(model.RegisterBox)
	if !ok {
		return Allow()
	}
	obj, err := ops.value(i.Object)
	if err != nil {
		return Deny("evaluate registered object: %v", err)
	}
	if _, ok := obj.(*model.Domain); ok {
		return Deny("domain registration is not permitted")
	}
	return Allow()
}

func checkHasToken(c Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	token, governed, err := requiredToken(c.Token, instr, ops)
	if err != nil {
		return Deny("derive %s token: %v", c.Token, err)
	}
	if !governed {
		return Allow()
	}
	if ops.v.HasPermission(authority, token) {
		return Allow()
	}
	return Deny("account %s lacks permission token %s", authority, token)
}

// assetOwner returns the account holding the asset named by e, if e names one.
func assetOwner(e model.EvaluatesTo, ops *operands) (model.AccountId, bool, error) {
	id, ok, err := ops.assetId(e)
	return id.Account, ok, err
}

func checkOnlyOwnedAssets(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	var target model.EvaluatesTo
	switch i := instr.(type) {
	case model.TransferBox:
		target = i.SourceId
	case model.BurnBox:
		target = i.DestinationId
	case model.SetKeyValueBox:
		target = i.ObjectId
	case model.RemoveKeyValueBox:
		target = i.ObjectId
	default:
		return Allow()
	}
	owner, ok, err := assetOwner(target, ops)
	if err != nil {
		return Deny("evaluate asset id: %v", err)
	}
	if !ok || owner == authority {
		return Allow()
	}
	return Deny("%s is not the owner of the asset", authority)
}

func checkOnlyAssetsCreatedByThisAccount(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	var def model.AssetDefinitionId
	switch i := instr.(type) {
	case model.MintBox:
		id, ok, err := ops.assetId(i.DestinationId)
		if err != nil {
			return Deny("evaluate asset id: %v", err)
		}
		if !ok {
			return Allow()
		}
		def = id.Definition
	case model.RegisterBox:
		obj, err := ops.value(i.Object)
		if err != nil {
			return Deny("evaluate registered object: %v", err)
		}
		asset, ok := obj.(*model.Asset)
		if !ok {
			return Allow()
		}
		def = asset.Id.Definition
	case model.UnregisterBox:
		id, ok, err := definitionId(i.ObjectId, ops)
		if err != nil {
			return Deny("evaluate object id: %v", err)
		}
		if !ok {
			return Allow()
		}
		def = id
	case model.SetKeyValueBox:
		id, ok, err := definitionId(i.ObjectId, ops)
		if err != nil {
			return Deny("evaluate object id: %v", err)
		}
		if !ok {
			return Allow()
		}
		def = id
	case model.RemoveKeyValueBox:
		id, ok, err := definitionId(i.ObjectId, ops)
		if err != nil {
			return Deny("evaluate object id: %v", err)
		}
		if !ok {
			return Allow()
		}
		def = id
	default:
		return Allow()
	}
	entry, err := ops.v.AssetDefinitionEntry(def)
	if err != nil {
		return Deny("%v", err)
	}
	if entry.RegisteredBy == authority {
		return Allow()
	}
	return Deny("asset definition %s was not registered by %s", def, authority)
}

func definitionId(e model.EvaluatesTo, ops *operands) (model.AssetDefinitionId, bool, error) {
	v, err := ops.value(e)
	if err != nil {
		return model.AssetDefinitionId{}, false, err
	}
	id, ok := v.(model.AssetDefinitionId)
	return id, ok, nil
}

func checkOnlyOwnedAccount(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	var target model.EvaluatesTo
	switch i := instr.(type) {
	case model.MintBox:
		target = i.DestinationId
	case model.BurnBox:
		target = i.DestinationId
	case model.UnregisterBox:
		target = i.ObjectId
	default:
		return Allow()
	}
	v, err := ops.value(target)
	if err != nil {
		return Deny("evaluate object id: %v", err)
	}
	var owner model.AccountId
	switch id := v.(type) {
	case model.AccountId:
		owner = id
	case model.AssetId:
		if _, ok := instr.(model.UnregisterBox); !ok {
			return Allow()
		}
		owner = id.Account
	default:
		return Allow()
	}
	if owner == authority {
		return Allow()
	}
	return Deny("%s does not own account %s", authority, owner)
}

func checkOnlyOwnedAccountMetadata(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	var target model.EvaluatesTo
	switch i := instr.(type) {
	case model.SetKeyValueBox:
		target = i.ObjectId
	case model.RemoveKeyValueBox:
		target = i.ObjectId
	default:
		return Allow()
	}
	id, ok, err := ops.accountId(target)
	if err != nil {
		return Deny("evaluate account id: %v", err)
	}
	if !ok || id == authority {
		return Allow()
	}
	return Deny("%s may not change the metadata of %s", authority, id)
}

// ownsTokenScope reports whether authority owns what token grants access to.
// Tokens without an asset, definition or account parameter are never owned.
func ownsTokenScope(authority model.AccountId, token model.PermissionToken, v *wsv.WorldStateView) Verdict {
	if p, ok := token.Param(AssetIdParam); ok {
		if id, ok := p.(model.AssetId); ok && id.Account == authority {
			return Allow()
		}
		return Deny("%s does not own the asset of token %s", authority, token)
	}
	if p, ok := token.Param(AssetDefinitionIdParam); ok {
		id, ok := p.(model.AssetDefinitionId)
		if !ok {
			return Deny("malformed token %s", token)
		}
		entry, err := v.AssetDefinitionEntry(id)
		if err != nil {
			return Deny("%v", err)
		}
		if entry.RegisteredBy == authority {
			return Allow()
		}
		return Deny("asset definition %s was not registered by %s", id, authority)
	}
	if p, ok := token.Param(AccountIdParam); ok {
		if id, ok := p.(model.AccountId); ok && id == authority {
			return Allow()
		}
		return Deny("%s does not own the account of token %s", authority, token)
	}
	return Deny("token %s is not scoped to an asset or account", token)
}

func grantedToken(e model.EvaluatesTo, ops *operands) (model.PermissionToken, error) {
	v, err := ops.value(e)
	if err != nil {
		return model.PermissionToken{}, err
	}
	token, ok := v.(model.PermissionToken)
	if !ok {
		return model.PermissionToken{}, fmt.Errorf("expected a permission token, got %s", v.Kind())
	}
	return token, nil
}

func checkGrantMyAssetAccess(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	i, ok := instr.(model.GrantBox)
	if !ok {
		return Allow()
	}
	token, err := grantedToken(i.Object, ops)
	if err != nil {
		return Deny("%v", err)
	}
	return ownsTokenScope(authority, token, ops.v)
}

func checkRevokeMyAssetAccess(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	i, ok := instr.(model.RevokeBox)
	if !ok {
		return Allow()
	}
	token, err := grantedToken(i.Object, ops)
	if err != nil {
		return Deny("%v", err)
	}
	return ownsTokenScope(authority, token, ops.v)
}

func checkGrantRegisteredDomainPermission(_ Check, authority model.AccountId, instr model.Instruction, ops *operands) Verdict {
	i, ok := instr.(model.GrantBox)
	if !ok {
		return Allow()
	}
	token, err := grantedToken(i.Object, ops)
	if err != nil {
		return Deny("%v", err)
	}
	switch token.Name {
	case CanRegisterDomains, CanUnregisterDomains, CanSetParameters:
	default:
		return Deny("token %s is scoped to an asset or account", token)
	}
	if ops.v.HasPermission(authority, model.NewPermissionToken(token.Name)) {
		return Allow()
	}
	return Deny("%s does not hold %s and cannot grant it", authority, token.Name)
}
