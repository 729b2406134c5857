package query

import (
	"errors"
	"testing"

	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) model.PublicKey {
	return model.NewPublicKey("ed25519", []byte{b, b, b, b})
}

var (
	wonderland = model.NewDomainId("wonderland")
	sora       = model.NewDomainId("sora")
	alice      = model.NewAccountId(key(1), "wonderland")
	bob        = model.NewAccountId(key(2), "wonderland")
	mouse      = model.NewAccountId(key(3), "sora")
	rose       = model.NewAssetDefinitionId("rose", "wonderland")
	xor        = model.NewAssetDefinitionId("xor", "sora")
	store      = model.NewAssetDefinitionId("store", "wonderland")
)

func testView(t *testing.T) *wsv.WorldStateView {
	require := require.New(t)
	v := wsv.New(wsv.NewWorld(nil), wsv.DefaultConfig(), nil)
	child := v.Stage()

	for _, id := range []model.DomainId{wonderland, sora} {
		require.NoError(child.AddDomain(model.NewDomain(id)))
	}
	for _, id := range []model.AccountId{alice, bob, mouse} {
		require.NoError(child.AddAccount(model.NewAccount(id)))
	}
	require.NoError(child.AddAssetDefinition(*model.NewAssetDefinition(rose, model.AssetQuantity), alice))
	require.NoError(child.AddAssetDefinition(*model.NewAssetDefinition(xor, model.AssetFixed), mouse))
	require.NoError(child.AddAssetDefinition(*model.NewAssetDefinition(store, model.AssetStore), alice))

	require.NoError(child.AddAsset(model.NewAsset(model.NewAssetId(rose, alice), model.U32(13))))
	require.NoError(child.AddAsset(model.NewAsset(model.NewAssetId(rose, bob), model.U32(2))))
	require.NoError(child.AddAsset(model.NewAsset(model.NewAssetId(xor, alice), model.NewFixed(fixed.FromUint64(5)))))

	var m model.Metadata
	_, err := m.Insert("color", model.String("red"), model.MetadataLimits{MaxLen: 10, MaxEntryByteSize: 100})
	require.NoError(err)
	require.NoError(child.AddAsset(model.NewAsset(model.NewAssetId(store, alice), m)))
	require.NoError(child.ModifyDomain(wonderland, func(d *model.Domain) error {
		d.Metadata = m.Clone()
		return nil
	}))
	require.NoError(child.ModifyAccount(alice, func(a *model.Account) error {
		a.AddPermission(model.NewPermissionToken("can_register_domains"))
		return nil
	}))
	require.NoError(child.Commit())
	return v
}

func run(t *testing.T, v *wsv.WorldStateView, q model.Query) model.Value {
	result, err := Execute(q, v, nil)
	require.NoError(t, err)
	return result
}

func TestFindAll(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	domains := run(t, v, model.FindAllDomains{}).(model.Vec)
	assert.Len(domains, 2)
	assert.Equal(sora, domains[0].(*model.Domain).Id)

	accounts := run(t, v, model.FindAllAccounts{}).(model.Vec)
	assert.Len(accounts, 3)
	assert.Equal(mouse, accounts[0].(*model.Account).Id)

	assert.Len(run(t, v, model.FindAllAssets{}).(model.Vec), 4)
	assert.Len(run(t, v, model.FindAllAssetsDefinitions{}).(model.Vec), 3)

	// empty results are empty vectors, never errors
	assert.Equal(model.Vec{}, run(t, v, model.FindAllBlocks{}))
	assert.Equal(model.Vec{}, run(t, v, model.FindAllBlockHeaders{}))
	assert.Equal(model.Vec{}, run(t, v, model.FindAllParameters{}))
	assert.Equal(model.Vec{}, run(t, v, model.FindTransactionsByAccountId{AccountId: model.Val(alice)}))
}

func TestFindAccountsInSora(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	accounts := run(t, v, model.FindAccountsByDomainId{DomainId: model.Val(sora)}).(model.Vec)
	assert.Len(accounts, 1)
	assert.Equal(mouse, accounts[0].(*model.Account).Id)

	account := run(t, v, model.FindAccountById{Id: model.Val(mouse)}).(*model.Account)
	assert.True(account.HasSignatory(key(3)))
}

func TestFindById(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	d := run(t, v, model.FindDomainById{Id: model.Val(wonderland)}).(*model.Domain)
	assert.Len(d.Accounts, 2)

	def := run(t, v, model.FindAssetDefinitionById{Id: model.Val(xor)}).(*model.AssetDefinition)
	assert.Equal(model.AssetFixed, def.ValueType)

	asset := run(t, v, model.FindAssetById{Id: model.Val(model.NewAssetId(rose, alice))}).(*model.Asset)
	assert.Equal(model.U32(13), asset.Value)

	assert.Equal(model.U32(2), run(t, v, model.FindAssetQuantityById{Id: model.Val(model.NewAssetId(rose, bob))}))
	assets := run(t, v, model.FindAssetsByAccountId{AccountId: model.Val(alice)}).(model.Vec)
	assert.Len(assets, 3)
	assets = run(t, v, model.FindAssetsByAssetDefinitionId{AssetDefinitionId: model.Val(rose)}).(model.Vec)
	assert.Len(assets, 2)

	tokens := run(t, v, model.FindPermissionTokensByAccountId{Id: model.Val(alice)}).(model.Vec)
	assert.Equal(model.Vec{model.NewPermissionToken("can_register_domains")}, tokens)
}

func TestFindKeyValue(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	assert.Equal(model.String("red"), run(t, v, model.FindDomainKeyValueByIdAndKey{
		Id: model.Val(wonderland), Key: model.Val(model.Name("color")),
	}))
	assert.Equal(model.String("red"), run(t, v, model.FindAssetKeyValueByIdAndKey{
		Id: model.Val(model.NewAssetId(store, alice)), Key: model.Val(model.Name("color")),
	}))

	_, err := Execute(model.FindAccountKeyValueByIdAndKey{
		Id: model.Val(alice), Key: model.Val(model.Name("color")),
	}, v, nil)
	var find *FindError
	assert.True(errors.As(err, &find))
	assert.Equal(wsv.MetadataKeyEntity, find.Kind)
	assert.Equal("color", find.ID)

	_, err = Execute(model.FindAssetKeyValueByIdAndKey{
		Id: model.Val(model.NewAssetId(rose, alice)), Key: model.Val(model.Name("color")),
	}, v, nil)
	var typeErr *TypeError
	assert.True(errors.As(err, &typeErr))
}

func TestFindErrorNamesId(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	missing := model.NewAccountId(key(9), "wonderland")
	_, err := Execute(model.FindAccountById{Id: model.Val(missing)}, v, nil)
	var find *FindError
	assert.True(errors.As(err, &find))
	assert.Equal(wsv.AccountEntity, find.Kind)
	assert.Contains(err.Error(), missing.String())

	_, err = Execute(model.FindAccountById{Id: model.Val(model.NewAccountId(key(1), "nowhere"))}, v, nil)
	assert.True(errors.As(err, &find))
	assert.Equal(wsv.DomainEntity, find.Kind)
	assert.Equal("nowhere", find.ID)

	_, err = Execute(model.FindAssetDefinitionById{Id: model.Val(model.NewAssetDefinitionId("tulip", "wonderland"))}, v, nil)
	assert.True(errors.As(err, &find))
	assert.Equal("tulip#wonderland", find.ID)

	_, err = Execute(model.FindTransactionByHash{Hash: model.Val(model.Hash{7})}, v, nil)
	assert.True(errors.As(err, &find))
	assert.Equal(wsv.TransactionEntity, find.Kind)
}

func TestParameters(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	_, err := Execute(model.FindDomainById{Id: model.Val(alice)}, v, nil)
	var typeErr *TypeError
	assert.True(errors.As(err, &typeErr))
	assert.Equal(model.ValueDomainId, typeErr.Want)
	assert.Equal(model.ValueAccountId, typeErr.Got)

	_, err = Execute(model.FindDomainById{Id: model.Expr(model.ContextValue{Name: "x"})}, v, nil)
	assert.Error(err)

	eval := func(e model.EvaluatesTo, _ *wsv.WorldStateView) (model.Value, error) {
		return sora, nil
	}
	result, err := Execute(model.FindDomainById{Id: model.Expr(model.ContextValue{Name: "x"})}, v, eval)
	assert.NoError(err)
	assert.Equal(sora, result.(*model.Domain).Id)
}

func TestService(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	cfg := DefaultConfig()
	cfg.Rate = 1
	cfg.Burst = 3
	s := NewService(cfg, v, nil, nil)

	first, err := s.Execute(alice, model.FindAllDomains{})
	assert.NoError(err)
	second, err := s.Execute(alice, model.FindAllDomains{})
	assert.NoError(err)
	assert.Equal(first, second)

	child := v.Stage()
	assert.NoError(child.AddDomain(model.NewDomain(model.NewDomainId("garden"))))
	assert.NoError(child.Commit())

	third, err := s.Execute(alice, model.FindAllDomains{})
	assert.NoError(err)
	assert.Len(third.(model.Vec), 3)

	_, err = s.Execute(alice, model.FindAllDomains{})
	assert.Equal(ErrRateLimited, err)

	// limits are kept per authority
	_, err = s.Execute(bob, model.FindAllDomains{})
	assert.NoError(err)

	unlimited := NewService(Config{}, v, nil, nil)
	for i := 0; i < 10; i++ {
		_, err := unlimited.Execute(alice, model.FindAllAccounts{})
		assert.NoError(err)
	}
}
