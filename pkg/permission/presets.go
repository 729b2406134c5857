package permission

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
)

const (
	PublicPreset   = "public"
	PrivatePreset  = "private"
	AllowAllPreset = "allow_all"
)

func ownership() []*Node {
	createdBy := Leaf(Check{Kind: OnlyAssetsCreatedByThisAccountCheck})
	ownAccount := Leaf(Check{Kind: OnlyOwnedAccountCheck})
	return []*Node{
		When(model.InstrRegister, All(
			Any(createdBy, HasToken(CanMintUserAssetDefinitions)),
			HasToken(CanSetParameters),
		)),
		When(model.InstrTransfer, Any(Leaf(Check{Kind: OnlyOwnedAssetsCheck}), HasToken(CanTransferUserAssets))),
		When(model.InstrBurn, All(
			Any(Leaf(Check{Kind: OnlyOwnedAssetsCheck}), HasToken(CanBurnAssetWithDefinition)),
			ownAccount,
		)),
		When(model.InstrMint, All(
			Any(createdBy, HasToken(CanMintUserAssetDefinitions)),
			ownAccount,
		)),
		When(model.InstrUnregister, All(
			Any(createdBy, HasToken(CanUnregisterAssetWithDefinition)),
			ownAccount,
			HasToken(CanUnregisterDomains),
		)),
		When(model.InstrSetKeyValue, All(
			Any(Leaf(Check{Kind: OnlyOwnedAssetsCheck}), HasToken(CanSetKeyValueInUserAssets)),
			Any(Leaf(Check{Kind: OnlyOwnedAccountMetadataCheck}), HasToken(CanSetKeyValueInUserMetadata)),
			createdBy,
		)),
		When(model.InstrRemoveKeyValue, All(
			Any(Leaf(Check{Kind: OnlyOwnedAssetsCheck}), HasToken(CanRemoveKeyValueInUserAssets)),
			Any(Leaf(Check{Kind: OnlyOwnedAccountMetadataCheck}), HasToken(CanRemoveKeyValueInUserMetadata)),
			createdBy,
		)),
		When(model.InstrGrant, Any(
			Leaf(Check{Kind: GrantMyAssetAccessCheck}),
			Leaf(Check{Kind: GrantRegisteredDomainPermissionCheck}),
		)),
		When(model.InstrRevoke, Leaf(Check{Kind: RevokeMyAssetAccessCheck})),
	}
}

// PublicBlockchain lets any account register domains and act on what it
// owns, or on what it holds a token for.
func PublicBlockchain() *Node {
	return All(ownership()...)
}

// PrivateBlockchain is PublicBlockchain where registering a domain also
// needs the can_register_domains token.
func PrivateBlockchain() *Node {
	return All(append([]*Node{
		Any(Leaf(Check{Kind: ProhibitRegisterDomainsCheck}), HasToken(CanRegisterDomains)),
	}, ownership()...)...)
}

func AllowAll() *Node {
	return AllowAllLeaf()
}

// Preset returns the policy called name.
func Preset(name string) (*Node, error) {
	switch name {
	case PublicPreset:
		return PublicBlockchain(), nil
	case PrivatePreset, "":
		return PrivateBlockchain(), nil
	case AllowAllPreset:
		return AllowAll(), nil
	}
	return nil, fmt.Errorf("unknown permission preset %q", name)
}
