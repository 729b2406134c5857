package wsv

import (
	"errors"
	"testing"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/storage/store/ldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(b byte) model.PublicKey {
	return model.NewPublicKey("ed25519", []byte{b, b, b, b})
}

var (
	wonderland = model.NewDomainId("wonderland")
	alice      = model.NewAccountId(key(1), "wonderland")
	rose       = model.NewAssetDefinitionId("rose", "wonderland")
	aliceRose  = model.NewAssetId(rose, alice)
)

func testView(t *testing.T) *WorldStateView {
	d := model.NewDomain(wonderland)
	d.AddAccount(model.NewAccount(alice))
	d.AssetDefinitions[rose] = &model.AssetDefinitionEntry{
		Definition:   *model.NewAssetDefinition(rose, model.AssetQuantity),
		RegisteredBy: alice,
	}
	v := New(NewWorld([]*model.Domain{d}), DefaultConfig(), nil)

	child := v.Stage()
	require.NoError(t, child.ModifyAsset(aliceRose, func(a *model.Asset) error {
		a.Value = model.U32(13)
		return nil
	}))
	require.NoError(t, child.Commit())
	return v
}

func quantity(t *testing.T, v *WorldStateView, id model.AssetId) uint32 {
	asset, err := v.Asset(id)
	require.NoError(t, err)
	q, ok := asset.Value.(model.U32)
	require.True(t, ok)
	return uint32(q)
}

func TestStageCommit(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	assert.Equal(uint64(1), v.Generation())
	assert.Equal(uint32(13), quantity(t, v, aliceRose))

	assert.Equal(ErrReadOnly, v.AddDomain(model.NewDomain(model.NewDomainId("x"))))

	child := v.Stage()
	assert.NoError(child.ModifyAsset(aliceRose, func(a *model.Asset) error {
		a.Value = model.U32(20)
		return nil
	}))
	assert.Equal(uint32(20), quantity(t, child, aliceRose))
	assert.Equal(uint32(13), quantity(t, v, aliceRose))

	// a sibling staged before the commit becomes stale
	sibling := v.Stage()
	assert.NoError(child.Commit())
	assert.Equal(uint32(20), quantity(t, v, aliceRose))
	assert.Equal(ErrCommitted, child.Commit())
	assert.Equal(ErrCommitted, child.RemoveAsset(aliceRose))
	assert.Equal(ErrStaleView, sibling.Commit())

	dropped := v.Stage()
	assert.NoError(dropped.RemoveDomain(wonderland))
	_, err := v.Domain(wonderland)
	assert.NoError(err)
}

func TestNestedStage(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	block := v.Stage()
	tx := block.Stage()
	assert.NoError(tx.AddDomain(model.NewDomain(model.NewDomainId("garden"))))
	assert.NoError(tx.Commit())

	// the domain added by tx is owned by block now and may change in place
	assert.NoError(block.ModifyDomain(model.NewDomainId("garden"), func(d *model.Domain) error {
		d.Logo = model.Some(model.IpfsPath("QmQqzMTavQgT4f4T5v6PWBp7XNKtoPmC9jvn12WPT3gkSE"))
		return nil
	}))
	_, err := v.Domain(model.NewDomainId("garden"))
	assert.Error(err)

	assert.NoError(block.Commit())
	d, err := v.Domain(model.NewDomainId("garden"))
	assert.NoError(err)
	assert.True(d.Logo.IsSome())
}

func TestFindError(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	missing := model.NewAccountId(key(9), "wonderland")
	_, err := v.Account(missing)
	var find *FindError
	assert.True(errors.As(err, &find))
	assert.Equal(AccountEntity, find.Kind)
	assert.Equal(missing.String(), find.ID)
	assert.Contains(err.Error(), missing.String())

	_, err = v.Account(model.NewAccountId(key(1), "nowhere"))
	assert.True(errors.As(err, &find))
	assert.Equal(DomainEntity, find.Kind)
	assert.Equal("nowhere", find.ID)

	_, err = v.Asset(model.NewAssetId(model.NewAssetDefinitionId("tulip", "wonderland"), alice))
	assert.True(errors.As(err, &find))
	assert.Equal(AssetEntity, find.Kind)

	child := v.Stage()
	err = child.AddAccount(model.NewAccount(alice))
	var rep *RepetitionError
	assert.True(errors.As(err, &rep))
	assert.Equal(alice.String(), rep.ID)
}

func TestRemoveCascades(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	bob := model.NewAccountId(key(2), "wonderland")

	child := v.Stage()
	assert.NoError(child.AddAccount(model.NewAccount(bob)))
	assert.NoError(child.AddAsset(model.NewAsset(model.NewAssetId(rose, bob), model.U32(1))))
	assert.NoError(child.Commit())
	assets, err := v.AssetsByDefinition(rose)
	assert.NoError(err)
	assert.Len(assets, 2)

	child = v.Stage()
	assert.NoError(child.RemoveAccount(bob))
	assets, err = child.AssetsByDefinition(rose)
	assert.NoError(err)
	assert.Len(assets, 1)

	assert.NoError(child.RemoveAssetDefinition(rose))
	assert.Empty(child.Assets())
	_, err = child.AssetDefinitionEntry(rose)
	assert.Error(err)
	assert.NoError(child.Commit())

	assert.Empty(v.Assets())
	a, err := v.Account(alice)
	assert.NoError(err)
	assert.Empty(a.Assets)
}

func TestModifyAsset(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)
	bob := model.NewAccountId(key(2), "wonderland")

	child := v.Stage()
	assert.NoError(child.AddAccount(model.NewAccount(bob)))
	bobRose := model.NewAssetId(rose, bob)
	assert.NoError(child.ModifyAsset(bobRose, func(a *model.Asset) error {
		assert.Equal(model.U32(0), a.Value)
		return nil
	}))
	assert.Equal(uint32(0), quantity(t, child, bobRose))

	err := child.ModifyAsset(bobRose, func(a *model.Asset) error {
		a.Value = model.Bool(true)
		return nil
	})
	assert.Error(err)

	err = child.AddAsset(model.NewAsset(bobRose, model.U32(3)))
	var rep *RepetitionError
	assert.True(errors.As(err, &rep))

	tulip := model.NewAssetId(model.NewAssetDefinitionId("tulip", "wonderland"), bob)
	err = child.ModifyAsset(tulip, func(*model.Asset) error { return nil })
	var find *FindError
	assert.True(errors.As(err, &find))
	assert.Equal(AssetDefinitionEntity, find.Kind)
}

func TestAddChecksNames(t *testing.T) {
	assert := assert.New(t)
	v := New(World{}, DefaultConfig(), nil)
	child := v.Stage()
	assert.Error(child.AddDomain(model.NewDomain(model.NewDomainId("bad name"))))
	assert.Error(child.AddDomain(model.NewDomain(model.NewDomainId(""))))

	cfg := DefaultConfig()
	cfg.IdentLengthLimits = model.LengthLimits{Min: 1, Max: 3}
	child = New(World{}, cfg, nil).Stage()
	assert.Error(child.AddDomain(model.NewDomain(model.NewDomainId("long"))))
	assert.NoError(child.AddDomain(model.NewDomain(model.NewDomainId("ok"))))
}

func TestParametersAndBlocks(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	child := v.Stage()
	assert.NoError(child.SetParameter(model.Parameter{Name: model.BlockTime, Value: model.NewU128(1000)}))
	assert.NoError(child.SetParameter(model.Parameter{Name: model.BlockTime, Value: model.NewU128(2000)}))
	assert.Len(child.Parameters(), 1)
	assert.Equal(model.NewU128(2000), child.Parameters()[0].Value)

	assert.Error(child.AppendBlock(&model.BlockValue{Header: model.BlockHeaderValue{Height: 2}}))
	assert.NoError(child.AppendBlock(&model.BlockValue{Header: model.BlockHeaderValue{Height: 1}}))
	assert.Equal(uint64(0), v.Height())
	_, ok := v.LatestBlockHash()
	assert.False(ok)

	assert.NoError(child.Commit())
	assert.Equal(uint64(1), v.Height())
	h, ok := v.LatestBlockHash()
	assert.True(ok)
	assert.Equal(v.Blocks()[0].Hash(), h)
}

func TestTransactionLookup(t *testing.T) {
	assert := assert.New(t)
	v := testView(t)

	accepted := model.NewTransaction(alice, model.Instructions{model.Fail("a")}, 1, 0)
	rejected := model.NewTransaction(alice, model.Instructions{model.Fail("b")}, 2, 0)
	reason := model.Reject(model.InstructionExecution, "b").At(0)
	b := &model.BlockValue{
		Header:               model.BlockHeaderValue{Height: 1},
		Transactions:         []model.Transaction{*accepted},
		RejectedTransactions: []model.RejectedTransaction{{Transaction: *rejected, Reason: *reason}},
	}
	child := v.Stage()
	assert.NoError(child.AppendBlock(b))
	assert.NoError(child.Commit())

	txs := v.TransactionsByAccount(alice)
	assert.Len(txs, 2)
	assert.False(txs[0].Rejected())
	assert.True(txs[1].Rejected())
	assert.Empty(v.TransactionsByAccount(model.NewAccountId(key(7), "wonderland")))

	found, err := v.TransactionByHash(rejected.Hash())
	assert.NoError(err)
	assert.True(found.Rejected())
	assert.True(v.HasTransaction(accepted.Hash()))

	_, err = v.TransactionByHash(model.Hash{1})
	var find *FindError
	assert.True(errors.As(err, &find))
	assert.Equal(TransactionEntity, find.Kind)
}

func TestTransactionIndex(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	v := testView(t)
	blockOf := func(height uint64, tx *model.Transaction) *model.BlockValue {
		return &model.BlockValue{Header: model.BlockHeaderValue{Height: height}, Transactions: []model.Transaction{*tx}}
	}
	first := model.NewTransaction(alice, model.Instructions{model.Fail("first")}, 1, 0)
	other := model.NewTransaction(alice, model.Instructions{model.Fail("other")}, 2, 0)

	winner := v.Stage()
	loser := v.Stage()
	require.NoError(winner.AppendBlock(blockOf(1, first)))
	require.NoError(loser.AppendBlock(blockOf(1, other)))

	// each view only sees its own chain
	assert.True(winner.HasTransaction(first.Hash()))
	assert.False(winner.HasTransaction(other.Hash()))
	assert.True(loser.HasTransaction(other.Hash()))
	assert.False(loser.HasTransaction(first.Hash()))
	assert.False(v.HasTransaction(first.Hash()))

	require.NoError(winner.Commit())
	assert.True(v.HasTransaction(first.Hash()))
	assert.False(v.HasTransaction(other.Hash()))
	assert.Equal(1, v.world.index.size())
	assert.True(errors.Is(loser.Commit(), ErrStaleView))

	// a transaction child sees the blocks of the view it was staged from
	block := v.Stage()
	require.NoError(block.AppendBlock(blockOf(2, other)))
	tx := block.Stage()
	assert.True(tx.HasTransaction(first.Hash()))
	assert.True(tx.HasTransaction(other.Hash()))
	require.NoError(tx.Commit())
	require.NoError(block.Commit())
	assert.Equal(2, v.world.index.size())

	db, err := ldb.OpenMemory()
	require.NoError(err)
	defer db.Close()
	require.NoError(v.Snapshot(db))
	loaded, err := Load(db, DefaultConfig(), nil)
	require.NoError(err)
	assert.True(loaded.HasTransaction(first.Hash()))
	found, err := loaded.TransactionByHash(other.Hash())
	require.NoError(err)
	assert.Equal(other.Hash(), found.Transaction.Hash())
}

func TestSnapshot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	db, err := ldb.OpenMemory()
	require.NoError(err)
	defer db.Close()

	v := testView(t)
	child := v.Stage()
	require.NoError(child.AddDomain(model.NewDomain(model.NewDomainId("garden"))))
	require.NoError(child.SetParameter(model.Parameter{Name: model.CommitTime, Value: model.NewU128(7)}))
	require.NoError(child.AppendBlock(&model.BlockValue{Header: model.BlockHeaderValue{Height: 1, Timestamp: model.NewU128(10)}}))
	require.NoError(child.Commit())
	require.NoError(v.Snapshot(db))

	child = v.Stage()
	require.NoError(child.RemoveDomain(model.NewDomainId("garden")))
	require.NoError(child.AppendBlock(&model.BlockValue{Header: model.BlockHeaderValue{Height: 2, Timestamp: model.NewU128(20)}}))
	require.NoError(child.Commit())
	require.NoError(v.Snapshot(db))

	loaded, err := Load(db, DefaultConfig(), nil)
	require.NoError(err)
	assert.True(loaded.IsRoot())
	assert.Len(loaded.Domains(), 1)
	_, err = loaded.Domain(model.NewDomainId("garden"))
	assert.Error(err)

	want, err := model.SerializeDomain(v.Domains()[0])
	require.NoError(err)
	got, err := model.SerializeDomain(loaded.Domains()[0])
	require.NoError(err)
	assert.Equal(want, got)

	assert.Equal(v.Parameters(), loaded.Parameters())
	assert.Equal(uint64(2), loaded.Height())
	wantHash, _ := v.LatestBlockHash()
	gotHash, _ := loaded.LatestBlockHash()
	assert.Equal(wantHash, gotHash)

	empty, err := ldb.OpenMemory()
	require.NoError(err)
	defer empty.Close()
	fresh, err := Load(empty, DefaultConfig(), nil)
	require.NoError(err)
	assert.Empty(fresh.Domains())
	assert.Equal(uint64(0), fresh.Height())
}
