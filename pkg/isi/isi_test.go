package isi

import (
	"errors"
	"testing"

	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/permission"
	"github.com/korthochain/ledger/pkg/query"
	"github.com/korthochain/ledger/pkg/wsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) model.PublicKey {
	return model.NewPublicKey("ed25519", []byte{b, b, b, b})
}

var (
	wonderland = model.NewDomainId("wonderland")
	alice      = model.NewAccountId(key(1), "wonderland")
	bob        = model.NewAccountId(key(2), "wonderland")
	rose       = model.NewAssetDefinitionId("rose", "wonderland")
	xor        = model.NewAssetDefinitionId("xor", "wonderland")
	aliceRose  = model.NewAssetId(rose, alice)
	bobRose    = model.NewAssetId(rose, bob)
)

func testView(t *testing.T) *wsv.WorldStateView {
	require := require.New(t)
	v := wsv.New(wsv.NewWorld(nil), wsv.DefaultConfig(), nil)
	child := v.Stage()
	require.NoError(child.AddDomain(model.NewDomain(wonderland)))
	require.NoError(child.AddAccount(model.NewAccount(alice)))
	require.NoError(child.AddAccount(model.NewAccount(bob)))
	require.NoError(child.AddAssetDefinition(*model.NewAssetDefinition(rose, model.AssetQuantity), alice))
	require.NoError(child.AddAssetDefinition(*model.NewAssetDefinition(xor, model.AssetFixed), alice))
	require.NoError(child.Commit())
	return v
}

func signed(authority model.AccountId, signer model.PublicKey, instructions ...model.Instruction) *model.Transaction {
	return model.NewTransaction(authority, instructions, 1000, 0).Sign(signer, []byte("signature"))
}

func mint(id model.AssetId, amount model.Value) model.Instruction {
	return model.MintBox{Object: model.Val(amount), DestinationId: model.Val(id)}
}

// state encodes every domain so two views can be compared byte for byte.
func state(t *testing.T, v *wsv.WorldStateView) [][]byte {
	var out [][]byte
	for _, d := range v.Domains() {
		data, err := model.SerializeDomain(d)
		require.NoError(t, err)
		out = append(out, data)
	}
	return out
}

func quantity(t *testing.T, v *wsv.WorldStateView, id model.AssetId) model.Value {
	asset, err := v.Asset(id)
	require.NoError(t, err)
	return asset.Value
}

func TestMintAccumulates(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.AllowAll(), DefaultLimits(), nil)

	events, reason := e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(5))), v)
	assert.Nil(reason)
	assert.Equal([]model.DataEvent{model.NewEvent(model.EntityAsset, model.Updated, aliceRose)}, events)

	_, reason = e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(7))), v)
	assert.Nil(reason)
	assert.Equal(model.U32(12), quantity(t, v, aliceRose))
}

func TestMintOverflowLeavesBalance(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.AllowAll(), DefaultLimits(), nil)

	_, reason := e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(12))), v)
	require.Nil(t, reason)

	_, reason = e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(^uint32(0)))), v)
	require.NotNil(t, reason)
	assert.Equal(model.InstructionExecution, reason.Kind)
	idx, ok := reason.InstructionIndex.Get()
	assert.True(ok)
	assert.Equal(uint32(0), idx)
	assert.Equal(model.U32(12), quantity(t, v, aliceRose))
}

func TestTransactionAtomicity(t *testing.T) {
	e := NewExecutor(NormalMode, permission.AllowAll(), DefaultLimits(), nil)
	const n = 5

	for k := 0; k < n; k++ {
		v := testView(t)
		before := state(t, v)
		generation := v.Generation()

		instructions := make([]model.Instruction, 0, n)
		for i := 0; i < n; i++ {
			if i == k {
				instructions = append(instructions, model.FailBox{Message: "boom"})
				continue
			}
			instructions = append(instructions, mint(aliceRose, model.U32(uint32(i+1))))
		}
		_, reason := e.ExecuteTransaction(signed(alice, key(1), instructions...), v)
		require.NotNil(t, reason)

		idx, _ := reason.InstructionIndex.Get()
		assert.Equal(t, uint32(k), idx)
		assert.Contains(t, reason.Message, "boom")
		assert.Equal(t, before, state(t, v))
		assert.Equal(t, generation, v.Generation())
	}
}

func TestRegisterSoraKeepsOtherAccounts(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.PublicBlockchain(), DefaultLimits(), nil)

	sora := model.NewDomain(model.NewDomainId("sora"))
	_, reason := e.ExecuteTransaction(signed(alice, key(1), model.RegisterBox{Object: model.Val(sora)}), v)
	require.Nil(t, reason)

	result, err := query.Execute(model.FindAllAccounts{}, v, nil)
	require.NoError(t, err)
	accounts := result.(model.Vec)
	assert.Len(accounts, 2)
	for _, a := range accounts {
		assert.NotEqual(model.Name("sora"), a.(*model.Account).Id.Domain.Name)
	}

	result, err = query.Execute(model.FindAccountsByDomainId{DomainId: model.Val(sora.Id)}, v, nil)
	require.NoError(t, err)
	assert.Equal(model.Vec{}, result)
}

func TestRegisterDomainNeedsToken(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.PrivateBlockchain(), DefaultLimits(), nil)
	register := model.RegisterBox{Object: model.Val(model.NewDomain(model.NewDomainId("new")))}

	_, reason := e.ExecuteTransaction(signed(bob, key(2), register), v)
	require.NotNil(t, reason)
	assert.Equal(model.NotPermitted, reason.Kind)

	genesis := NewExecutor(GenesisMode, nil, DefaultLimits(), nil)
	grant := model.GrantBox{Object: model.Val(permission.RegisterDomainsToken()), DestinationId: model.Val(bob)}
	_, reason = genesis.ExecuteTransaction(model.NewTransaction(alice, model.Instructions{grant}, 0, 0), v)
	require.Nil(t, reason)

	_, reason = e.ExecuteTransaction(signed(bob, key(2), register), v)
	assert.Nil(reason)

	result, err := query.Execute(model.FindAllDomains{}, v, nil)
	require.NoError(t, err)
	var names []model.Name
	for _, d := range result.(model.Vec) {
		names = append(names, d.(*model.Domain).Id.Name)
	}
	assert.Contains(names, model.Name("new"))
}

func TestSignatureCheck(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.AllowAll(), DefaultLimits(), nil)

	_, reason := e.ExecuteTransaction(signed(alice, key(2), mint(aliceRose, model.U32(1))), v)
	require.NotNil(t, reason)
	assert.Equal(model.SignatureCheck, reason.Kind)

	unknown := model.NewAccountId(key(9), "wonderland")
	_, reason = e.ExecuteTransaction(signed(unknown, key(9), mint(aliceRose, model.U32(1))), v)
	require.NotNil(t, reason)
	assert.Equal(model.SignatureCheck, reason.Kind)

	// a signatory minted to the account may sign for it
	_, reason = e.ExecuteTransaction(signed(alice, key(1), model.MintBox{Object: model.Val(key(7)), DestinationId: model.Val(alice)}), v)
	require.Nil(t, reason)
	_, reason = e.ExecuteTransaction(signed(alice, key(7), mint(aliceRose, model.U32(1))), v)
	assert.Nil(reason)
}

func TestLimits(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.AllowAll(), Limits{MaxInstructionNumber: 3}, nil)

	_, reason := e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(1))), v)
	require.Nil(t, reason)
	_, reason = e.ExecuteTransaction(signed(alice, key(1), mint(aliceRose, model.U32(1)), mint(aliceRose, model.U32(1))), v)
	require.NotNil(t, reason)
	assert.Equal(model.LimitExceeded, reason.Kind)

	e = NewExecutor(NormalMode, permission.AllowAll(), Limits{MaxValueDepth: 2}, nil)

	deep := model.Vec{model.Vec{model.Vec{model.U32(1)}}}
	set := model.SetKeyValueBox{ObjectId: model.Val(alice), Key: model.Val(model.Name("deep")), Value: model.Val(deep)}
	_, reason = e.ExecuteTransaction(signed(alice, key(1), set), v)
	require.NotNil(t, reason)
	assert.Equal(model.LimitExceeded, reason.Kind)
}

func TestTransferAndBurn(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()

	_, err := Execute(mint(aliceRose, model.U32(10)), alice, child)
	require.NoError(t, err)
	transfer := model.TransferBox{SourceId: model.Val(aliceRose), Object: model.Val(model.U32(4)), DestinationId: model.Val(bobRose)}
	events, err := Execute(transfer, alice, child)
	require.NoError(t, err)
	assert.Len(events, 2)

	_, err = Execute(model.BurnBox{Object: model.Val(model.U32(1)), DestinationId: model.Val(bobRose)}, bob, child)
	require.NoError(t, err)
	require.NoError(t, child.Commit())

	assert.Equal(model.U32(6), quantity(t, v, aliceRose))
	assert.Equal(model.U32(3), quantity(t, v, bobRose))

	child = v.Stage()
	_, err = Execute(model.BurnBox{Object: model.Val(model.U32(7)), DestinationId: model.Val(aliceRose)}, alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(Math, ee.Kind)

	// amounts must match the definition's value type
	_, err = Execute(mint(aliceRose, model.NewFixed(fixed.FromUint64(1))), alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(TypeMismatch, ee.Kind)

	xorId := model.NewAssetId(xor, alice)
	_, err = Execute(mint(xorId, model.NewFixed(fixed.MustParse("1.5"))), alice, child)
	require.NoError(t, err)
	_, err = Execute(mint(xorId, model.NewFixed(fixed.MustParse("0.25"))), alice, child)
	require.NoError(t, err)
	asset, err := child.Asset(xorId)
	require.NoError(t, err)
	assert.Equal(model.NewFixed(fixed.MustParse("1.75")), asset.Value)

	_, err = Execute(model.BurnBox{Object: model.Val(model.U32(1)), DestinationId: model.Val(model.NewAssetId(rose, model.NewAccountId(key(9), "wonderland")))}, alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(Find, ee.Kind)
}

func TestMintability(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()

	gold := model.NewAssetDefinition(model.NewAssetDefinitionId("gold", "wonderland"), model.AssetQuantity)
	gold.Mintable = false
	_, err := Execute(model.RegisterBox{Object: model.Val(gold)}, alice, child)
	require.NoError(t, err)

	goldId := model.NewAssetId(gold.Id, alice)
	_, err = Execute(model.RegisterBox{Object: model.Val(model.NewAsset(goldId, model.U32(100)))}, alice, child)
	require.NoError(t, err)

	_, err = Execute(mint(goldId, model.U32(1)), alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(Mintability, ee.Kind)

	entry, err := child.AssetDefinitionEntry(gold.Id)
	require.NoError(t, err)
	assert.Equal(alice, entry.RegisteredBy)
}

func TestRegisterAndUnregister(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()
	carol := model.NewAccountId(key(3), "wonderland")

	events, err := Execute(model.RegisterBox{Object: model.Val(model.NewAccount(carol))}, alice, child)
	require.NoError(t, err)
	assert.Equal([]model.DataEvent{model.NewEvent(model.EntityAccount, model.Created, carol)}, events)

	_, err = Execute(model.RegisterBox{Object: model.Val(model.NewAccount(carol))}, alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(Repetition, ee.Kind)

	orphan := model.NewAccountId(key(4), "nowhere")
	_, err = Execute(model.RegisterBox{Object: model.Val(model.NewAccount(orphan))}, alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(Find, ee.Kind)
	var fe *wsv.FindError
	require.True(t, errors.As(err, &fe))
	assert.Equal("nowhere", fe.ID)

	_, err = Execute(mint(aliceRose, model.U32(3)), alice, child)
	require.NoError(t, err)
	events, err = Execute(model.UnregisterBox{ObjectId: model.Val(rose)}, alice, child)
	require.NoError(t, err)
	assert.Equal(model.Deleted, events[0].Status)
	_, err = child.Asset(aliceRose)
	assert.Error(err)

	_, err = Execute(model.UnregisterBox{ObjectId: model.Val(carol)}, alice, child)
	require.NoError(t, err)
	_, err = child.Account(carol)
	assert.Error(err)

	_, err = Execute(model.RegisterBox{Object: model.Val(model.U32(1))}, alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(TypeMismatch, ee.Kind)
}

func TestMetadata(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()
	set := func(id model.IdBox, k string, val model.Value) model.Instruction {
		return model.SetKeyValueBox{ObjectId: model.Val(id), Key: model.Val(model.Name(k)), Value: model.Val(val)}
	}
	remove := func(id model.IdBox, k string) model.Instruction {
		return model.RemoveKeyValueBox{ObjectId: model.Val(id), Key: model.Val(model.Name(k))}
	}

	for _, id := range []model.IdBox{wonderland, alice, rose} {
		_, err := Execute(set(id, "color", model.String("red")), alice, child)
		require.NoError(t, err)
	}
	account, err := child.Account(alice)
	require.NoError(t, err)
	color, ok := account.Metadata.Get("color")
	assert.True(ok)
	assert.Equal(model.String("red"), color)

	_, err = Execute(remove(alice, "color"), alice, child)
	require.NoError(t, err)
	_, err = Execute(remove(alice, "color"), alice, child)
	var fe *wsv.FindError
	require.True(t, errors.As(err, &fe))
	assert.Equal("color", fe.ID)

	// only store assets carry metadata
	_, err = Execute(mint(aliceRose, model.U32(1)), alice, child)
	require.NoError(t, err)
	_, err = Execute(set(aliceRose, "k", model.U32(1)), alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(TypeMismatch, ee.Kind)

	small := wsv.DefaultConfig()
	small.AccountMetadataLimits = model.MetadataLimits{MaxLen: 1, MaxEntryByteSize: 64}
	limited := wsv.New(wsv.NewWorld(nil), small, nil).Stage()
	require.NoError(t, limited.AddDomain(model.NewDomain(wonderland)))
	require.NoError(t, limited.AddAccount(model.NewAccount(alice)))
	_, err = Execute(set(alice, "a", model.U32(1)), alice, limited)
	require.NoError(t, err)
	_, err = Execute(set(alice, "b", model.U32(1)), alice, limited)
	require.True(t, errors.As(err, &ee))
	assert.Equal(Metadata, ee.Kind)
}

func TestGrantAndRevoke(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()
	token := permission.TransferToken(aliceRose)
	grant := model.GrantBox{Object: model.Val(token), DestinationId: model.Val(bob)}
	revoke := model.RevokeBox{Object: model.Val(token), DestinationId: model.Val(bob)}

	_, err := Execute(grant, alice, child)
	require.NoError(t, err)
	assert.True(child.HasPermission(bob, token))

	_, err = Execute(grant, alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(Repetition, ee.Kind)

	_, err = Execute(revoke, alice, child)
	require.NoError(t, err)
	assert.False(child.HasPermission(bob, token))

	_, err = Execute(revoke, alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(Find, ee.Kind)
}

func TestComposition(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	child := v.Stage()
	box := func(i model.Instruction) model.InstructionBox { return model.InstructionBox{Instruction: i} }

	cond := model.IfBox{
		Condition: model.Expr(model.Greater{Left: model.Val(model.U32(2)), Right: model.Val(model.U32(1))}),
		Then:      box(mint(aliceRose, model.U32(1))),
		Otherwise: model.Some(box(model.FailBox{Message: "never"})),
	}
	_, err := Execute(cond, alice, child)
	require.NoError(t, err)

	pair := model.PairBox{Left: box(mint(aliceRose, model.U32(2))), Right: box(mint(bobRose, model.U32(3)))}
	events, err := Execute(pair, alice, child)
	require.NoError(t, err)
	assert.Len(events, 2)

	seq := model.SequenceBox{Instructions: model.Instructions{mint(aliceRose, model.U32(4)), model.FailBox{Message: "stop"}}}
	_, err = Execute(seq, alice, child)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(Fail, ee.Kind)
	assert.Equal("stop", ee.Msg)

	skipped := model.IfBox{Condition: model.Val(model.Bool(false)), Then: box(model.FailBox{Message: "never"})}
	events, err = Execute(skipped, alice, child)
	require.NoError(t, err)
	assert.Empty(events)

	_, err = Execute(model.IfBox{Condition: model.Val(model.U32(1)), Then: box(mint(aliceRose, model.U32(1)))}, alice, child)
	require.True(t, errors.As(err, &ee))
	assert.Equal(TypeMismatch, ee.Kind)
}

func TestExecuteOnRootIsRefused(t *testing.T) {
	v := testView(t)
	_, err := Execute(mint(aliceRose, model.U32(1)), alice, v)
	var ee *ExecError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, Permission, ee.Kind)
	assert.True(t, errors.Is(err, wsv.ErrReadOnly))
}

func TestRegisterPreloadedEntities(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.AllowAll(), DefaultLimits(), nil)
	register := func(obj model.Value) model.Instruction {
		return model.RegisterBox{Object: model.Val(obj)}
	}

	carol := model.NewAccountId(key(3), "wonderland")
	rich := model.NewAccount(carol)
	rich.Assets[model.NewAssetId(rose, carol)] = model.NewAsset(model.NewAssetId(rose, carol), model.U32(1000000))
	_, reason := e.ExecuteTransaction(signed(alice, key(1), register(rich)), v)
	require.NotNil(t, reason)
	assert.Contains(reason.Message, "preloaded")

	privileged := model.NewAccount(carol)
	privileged.AddPermission(permission.RegisterDomainsToken())
	_, reason = e.ExecuteTransaction(signed(alice, key(1), register(privileged)), v)
	require.NotNil(t, reason)
	assert.Contains(reason.Message, "preloaded")

	land := model.NewDomain(model.NewDomainId("land"))
	land.Accounts[model.NewAccountId(key(4), "land")] = model.NewAccount(model.NewAccountId(key(4), "land"))
	_, reason = e.ExecuteTransaction(signed(alice, key(1), register(land)), v)
	require.NotNil(t, reason)
	assert.Contains(reason.Message, "preloaded")

	_, err := v.Account(carol)
	assert.Error(err)

	// an empty account with its own signatory is fine
	_, reason = e.ExecuteTransaction(signed(alice, key(1), register(model.NewAccount(carol))), v)
	assert.Nil(reason)

	// genesis may seed whole entities
	genesis := NewExecutor(GenesisMode, nil, DefaultLimits(), nil)
	_, reason = genesis.ExecuteTransaction(model.NewTransaction(alice, model.Instructions{register(land)}, 0, 0), v)
	assert.Nil(reason)
}

func TestPrivatePresetGuardsAccounts(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	e := NewExecutor(NormalMode, permission.PrivateBlockchain(), DefaultLimits(), nil)

	_, reason := e.ExecuteTransaction(signed(bob, key(2), mint(bobRose, model.U32(1))), v)
	require.NotNil(t, reason)
	assert.Equal(model.NotPermitted, reason.Kind)

	// registering an asset of alice's definition is minting it
	_, reason = e.ExecuteTransaction(signed(bob, key(2),
		model.RegisterBox{Object: model.Val(model.NewAsset(bobRose, model.U32(1000000)))}), v)
	require.NotNil(t, reason)
	assert.Equal(model.NotPermitted, reason.Kind)

	// bob cannot add his key to alice
	_, reason = e.ExecuteTransaction(signed(bob, key(2),
		model.MintBox{Object: model.Val(key(2)), DestinationId: model.Val(alice)}), v)
	require.NotNil(t, reason)
	assert.Equal(model.NotPermitted, reason.Kind)

	_, reason = e.ExecuteTransaction(signed(alice, key(2), mint(aliceRose, model.U32(1))), v)
	require.NotNil(t, reason)
	assert.Equal(model.SignatureCheck, reason.Kind)

	_, reason = e.ExecuteTransaction(signed(bob, key(2), model.UnregisterBox{ObjectId: model.Val(alice)}), v)
	require.NotNil(t, reason)
	assert.Equal(model.NotPermitted, reason.Kind)
	_, err := v.Account(alice)
	assert.NoError(err)

	// alice may add a second key to herself
	_, reason = e.ExecuteTransaction(signed(alice, key(1),
		model.MintBox{Object: model.Val(key(5)), DestinationId: model.Val(alice)}), v)
	assert.Nil(reason)
	account, err := v.Account(alice)
	require.NoError(t, err)
	assert.Contains(account.Signatories, key(5))
}
