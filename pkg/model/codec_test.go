package model

import (
	"errors"
	"testing"

	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/util/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) PublicKey {
	return NewPublicKey("ed25519", []byte{b, 0xaa, 0xbb, 0xcc, 0xdd})
}

func testMetadata(t *testing.T) Metadata {
	var m Metadata
	limits := MetadataLimits{MaxLen: 8, MaxEntryByteSize: 1024}
	_, err := m.Insert("age", U32(37), limits)
	require.NoError(t, err)
	_, err = m.Insert("nick", String("alice"), limits)
	require.NoError(t, err)
	return m
}

func testDomain(t *testing.T) *Domain {
	alice := NewAccountId(testKey(1), "wonderland")
	bob := NewAccountId(testKey(2), "wonderland")
	rose := NewAssetDefinitionId("rose", "wonderland")
	tulip := NewAssetDefinitionId("tulip", "wonderland")

	d := NewDomain(NewDomainId("wonderland")).WithLogo("/ipfs/QmQqzMTavQgT4f4T5v6PWBp7XNKtoPmC9jvn12WPT3gkSE")
	d.Metadata = testMetadata(t)

	a := NewAccount(alice)
	a.Metadata = testMetadata(t)
	a.AddPermission(NewPermissionToken("can_transfer_user_assets").WithParam("asset_id", NewAssetId(rose, alice)))
	a.Assets[NewAssetId(rose, alice)] = NewAsset(NewAssetId(rose, alice), U32(13))
	a.Assets[NewAssetId(tulip, alice)] = NewAsset(NewAssetId(tulip, alice), NewFixed(fixed.MustParse("1.5")))
	d.AddAccount(a)

	b := NewAccount(bob)
	b.AddSignatory(testKey(3))
	b.Assets[NewAssetId(rose, bob)] = NewAsset(NewAssetId(rose, bob), U128{math.Uint128{Hi: 1, Lo: 2}})
	d.AddAccount(b)

	d.AssetDefinitions[rose] = &AssetDefinitionEntry{Definition: *NewAssetDefinition(rose, AssetQuantity), RegisteredBy: alice}
	d.AssetDefinitions[tulip] = &AssetDefinitionEntry{Definition: *NewAssetDefinition(tulip, AssetFixed), RegisteredBy: bob}
	return d
}

func TestValueCodec(t *testing.T) {
	assert := assert.New(t)
	alice := NewAccountId(testKey(1), "wonderland")
	rose := NewAssetDefinitionId("rose", "wonderland")

	values := []Value{
		U32(0),
		U32(^uint32(0)),
		U128{math.MaxUint128},
		Bool(true),
		String("hello"),
		Name("key"),
		NewFixed(fixed.MustParse("12.0000000000000000001")),
		Vec{U32(1), Vec{Bool(false)}, String("x")},
		Vec{},
		testMetadata(t),
		NewDomainId("wonderland"),
		alice,
		rose,
		NewAssetId(rose, alice),
		testDomain(t),
		NewAccount(alice),
		NewAssetDefinition(rose, AssetBigQuantity),
		NewAsset(NewAssetId(rose, alice), U32(5)),
		testKey(9),
		Parameter{Name: BlockTime, Value: NewU128(2000)},
		DefaultSignatureCheckCondition(),
		NewPermissionToken("can_register_domains"),
		NewPermissionToken("can_burn_asset_with_definition").WithParam("asset_definition_id", rose),
		HashOf([]byte("abc")),
		BlockHeaderValue{Height: 7, Timestamp: NewU128(1000)},
	}

	for _, v := range values {
		data, err := SerializeValue(v)
		if !assert.NoError(err, v.Kind().String()) {
			continue
		}
		back, err := DeserializeValue(data)
		if !assert.NoError(err, v.Kind().String()) {
			continue
		}
		assert.Equal(v, back, v.Kind().String())
		assert.True(ValueEqual(v, back), v.Kind().String())

		again, err := SerializeValue(back)
		assert.NoError(err)
		assert.Equal(data, again, v.Kind().String())
	}
}

func TestDomainCodec(t *testing.T) {
	assert := assert.New(t)
	d := testDomain(t)

	data, err := SerializeDomain(d)
	require.NoError(t, err)
	back, err := DeserializeDomain(data)
	require.NoError(t, err)
	assert.Equal(d, back)

	// encoding is independent of map iteration order
	again, err := SerializeDomain(back.Clone())
	assert.NoError(err)
	assert.Equal(data, again)
}

func testTransaction(authority AccountId) *Transaction {
	rose := NewAssetDefinitionId("rose", "wonderland")
	tx := NewTransaction(authority, Instructions{
		Register(NewDomain(NewDomainId("sora"))),
		Mint(U32(5), NewAssetId(rose, authority)),
		IfThenElse(Val(Bool(true)), Fail("never"), Sequence(
			SetKeyValue(authority, "nick", String("al")),
			RemoveKeyValue(authority, "nick"),
		)),
		Pair(Grant(NewPermissionToken("can_register_domains"), authority), Revoke(NewPermissionToken("can_register_domains"), authority)),
		TransferBox{
			SourceId:      Val(NewAssetId(rose, authority)),
			Object:        Expr(Add{Left: Val(U32(1)), Right: Expr(ContextValue{Name: "x"})}),
			DestinationId: Val(NewAssetId(rose, authority)),
		},
	}, 1000, 100000)
	tx.Payload.Nonce = Some(uint32(3))
	return tx.Sign(authority.Signatory, []byte{1, 2, 3})
}

func TestBlockCodec(t *testing.T) {
	assert := assert.New(t)
	alice := NewAccountId(testKey(1), "wonderland")
	tx := testTransaction(alice)

	reason := Reject(InstructionExecution, "asset %s not found", "rose").At(1)
	b := &BlockValue{
		Header: BlockHeaderValue{
			Timestamp:                NewU128(1234),
			Height:                   2,
			PreviousBlockHash:        Some(HashOf([]byte("prev"))),
			TransactionsHash:         HashOf([]byte("txs")),
			RejectedTransactionsHash: HashOf([]byte("rejected")),
			InvalidatedBlocksHashes:  []Hash{HashOf([]byte("bad"))},
			CurrentBlockHash:         HashOf([]byte("me")),
		},
		Transactions:         []Transaction{*tx},
		RejectedTransactions: []RejectedTransaction{{Transaction: *tx, Reason: *reason}},
		EventRecommendations: []DataEvent{
			NewEvent(EntityDomain, Created, NewDomainId("sora")),
			NewEvent(EntityParameter, Updated, nil),
		},
	}

	data, err := b.Serialize()
	require.NoError(t, err)
	back, err := DeserializeBlock(data)
	require.NoError(t, err)
	assert.Equal(b, back)

	v, err := DeserializeValue(mustSerializeValue(t, b))
	assert.NoError(err)
	assert.Equal(b, v)
}

func mustSerializeValue(t *testing.T, v Value) []byte {
	data, err := SerializeValue(v)
	require.NoError(t, err)
	return data
}

func TestTransactionCodec(t *testing.T) {
	assert := assert.New(t)
	tx := testTransaction(NewAccountId(testKey(1), "wonderland"))
	assert.NoError(tx.Check())

	data, err := tx.Serialize()
	require.NoError(t, err)
	back, err := DeserializeTransaction(data)
	require.NoError(t, err)
	assert.Equal(tx, back)
	assert.Equal(tx.Hash(), back.Hash())
	assert.False(tx.Hash().IsZero())

	// signatures are not part of the hash
	back.Sign(testKey(7), []byte{9})
	assert.Equal(tx.Hash(), back.Hash())

	back.Payload.CreationTimeMs++
	assert.NotEqual(tx.Hash(), back.Hash())
}

func TestQueryCodec(t *testing.T) {
	assert := assert.New(t)
	alice := NewAccountId(testKey(1), "wonderland")

	queries := []Query{
		FindAllDomains{},
		FindAccountById{Id: Val(alice)},
		FindAssetKeyValueByIdAndKey{Id: Val(NewAssetId(NewAssetDefinitionId("rose", "wonderland"), alice)), Key: Val(Name("color"))},
		FindTransactionByHash{Hash: Val(HashOf([]byte("tx")))},
		FindAllParameters{},
	}
	for _, q := range queries {
		data, err := SerializeQuery(q)
		require.NoError(t, err)
		back, err := DeserializeQuery(data)
		require.NoError(t, err)
		assert.Equal(q, back, q.Kind().String())
	}

	nested := Expr(Where{
		Expression: Expr(QueryExpression{Query: FindAccountsByDomainId{DomainId: Expr(ContextValue{Name: "domain"})}}),
		Values:     map[Name]EvaluatesTo{"domain": Val(NewDomainId("wonderland"))},
	})
	data, err := Marshal(nested)
	require.NoError(t, err)
	var back EvaluatesTo
	require.NoError(t, Unmarshal(data, &back))
	assert.Equal(nested, back)
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	data, err := Marshal(envelope{Kind: 200, Payload: []byte{0xf6}})
	require.NoError(t, err)
	_, err = decodeValue(data)
	var decodeError *DecodeError
	assert.True(errors.As(err, &decodeError))

	body, err := encodeValue(U32(1))
	require.NoError(t, err)
	data, err = Marshal(versioned{Version: CodecVersion + 1, Body: body})
	require.NoError(t, err)
	_, err = DeserializeValue(data)
	assert.Error(err)

	// an asset that holds a non asset value
	raw, err := encodeValue(String("x"))
	require.NoError(t, err)
	data, err = Marshal(assetWire{Id: NewAssetId(NewAssetDefinitionId("rose", "d"), NewAccountId(testKey(1), "d")), Value: raw})
	require.NoError(t, err)
	var a Asset
	assert.Error(Unmarshal(data, &a))

	var h Hash
	assert.Error(Unmarshal([]byte{0x43, 1, 2, 3}, &h))

	var o Option[uint32]
	assert.Error(Unmarshal([]byte{0x82, 0xf4, 0x01}, &o))
}

func TestNestingLimit(t *testing.T) {
	var v Value = U32(1)
	for i := 0; i < MaxNestedLevels; i++ {
		v = Vec{v}
	}
	data, err := SerializeValue(v)
	require.NoError(t, err)
	_, err = DeserializeValue(data)
	assert.Error(t, err)
}
