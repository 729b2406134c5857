package block

import (
	"testing"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransactions() ([]model.Transaction, []model.RejectedTransaction) {
	alice := model.NewAccountId(model.NewPublicKey("ed25519", []byte{1, 1, 1, 1}), "wonderland")
	rose := model.NewAssetId(model.NewAssetDefinitionId("rose", "wonderland"), alice)
	mint := model.MintBox{Object: model.Val(model.U32(5)), DestinationId: model.Val(rose)}

	accepted := *model.NewTransaction(alice, model.Instructions{mint}, 1000, 0)
	failed := *model.NewTransaction(alice, model.Instructions{model.FailBox{Message: "no"}}, 1001, 0)
	rejected := model.RejectedTransaction{Transaction: failed, Reason: *model.Reject(model.InstructionExecution, "fail: no").At(0)}
	return []model.Transaction{accepted}, []model.RejectedTransaction{rejected}
}

func TestBlockCodec(t *testing.T) {
	assert := assert.New(t)
	accepted, rejected := testTransactions()

	b, err := New(nil, 1111111, accepted, rejected, nil, nil)
	require.NoError(t, err)
	assert.Equal(uint64(1), b.Header.Height)
	assert.False(b.Header.PreviousBlockHash.IsSome())
	assert.False(b.Hash().IsZero())

	data, err := b.Serialize()
	assert.NoError(err)
	maybe, err := model.DeserializeBlock(data)
	assert.NoError(err)
	again, err := maybe.Serialize()
	assert.NoError(err)
	assert.Equal(data, again)
	assert.NoError(Verify(maybe, nil))
}

func TestChainAndVerify(t *testing.T) {
	assert := assert.New(t)
	accepted, rejected := testTransactions()

	first, err := New(nil, 1000, accepted, nil, nil, nil)
	require.NoError(t, err)
	second, err := New(first, 2000, nil, rejected, []model.Hash{model.HashOf([]byte("gone"))}, nil)
	require.NoError(t, err)

	assert.Equal(uint64(2), second.Header.Height)
	prev, ok := second.Header.PreviousBlockHash.Get()
	assert.True(ok)
	assert.Equal(first.Hash(), prev)
	assert.NoError(Verify(second, first))
	assert.Error(Verify(second, nil))
	assert.Error(Verify(first, second))

	tampered := *second
	tampered.RejectedTransactions = nil
	assert.Error(Verify(&tampered, first))

	tampered = *second
	tampered.Header.Timestamp = model.NewU128(2001)
	assert.Error(Verify(&tampered, first))
}

func TestTransactionsHashIsOrdered(t *testing.T) {
	assert := assert.New(t)
	accepted, rejected := testTransactions()
	other := rejected[0].Transaction

	assert.NotEqual(TransactionsHash([]model.Transaction{accepted[0], other}), TransactionsHash([]model.Transaction{other, accepted[0]}))
	assert.Equal(TransactionsHash(nil), TransactionsHash([]model.Transaction{}))
}

func TestSortByTimestamp(t *testing.T) {
	assert := assert.New(t)

	late, err := New(nil, 3000, nil, nil, nil, nil)
	require.NoError(t, err)
	early, err := New(late, 1000, nil, nil, nil, nil)
	require.NoError(t, err)
	tie, err := New(early, 1000, nil, nil, nil, nil)
	require.NoError(t, err)

	blocks := []*model.BlockValue{late, early, tie}
	Sort(blocks)
	// height plays no part in the order
	assert.Equal([]*model.BlockValue{early, tie, late}, blocks)
}
