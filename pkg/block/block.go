// Package block assembles committed blocks and computes their hashes.
package block

import (
	"fmt"
	"sort"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/storage/merkle"
	"golang.org/x/crypto/sha3"
)

func root(leaves [][]byte) model.Hash {
	var h model.Hash
	copy(h[:], merkle.New(sha3.New256(), leaves).GetMtHash())
	return h
}

// TransactionsHash is the merkle root over the hashes of txs.
func TransactionsHash(txs []model.Transaction) model.Hash {
	leaves := make([][]byte, 0, len(txs))
	for i := range txs {
		h := txs[i].Hash()
		leaves = append(leaves, h[:])
	}
	return root(leaves)
}

// RejectedTransactionsHash is the merkle root over the rejected transactions
// with their reasons.
func RejectedTransactionsHash(rejected []model.RejectedTransaction) (model.Hash, error) {
	leaves := make([][]byte, 0, len(rejected))
	for i := range rejected {
		data, err := model.Marshal(rejected[i])
		if err != nil {
			return model.Hash{}, fmt.Errorf("encode rejected transaction %d: %w", i, err)
		}
		leaves = append(leaves, data)
	}
	return root(leaves), nil
}

// Hash is the sha3-256 of the encoded header with its current hash zeroed.
func Hash(header model.BlockHeaderValue) (model.Hash, error) {
	header.CurrentBlockHash = model.Hash{}
	data, err := model.Marshal(header)
	if err != nil {
		return model.Hash{}, err
	}
	return model.HashOf(data), nil
}

// New assembles the block at height on top of prev and seals it.
func New(prev *model.BlockValue, timestampMs uint64, accepted []model.Transaction, rejected []model.RejectedTransaction,
	invalidated []model.Hash, events []model.DataEvent) (*model.BlockValue, error) {
	header := model.BlockHeaderValue{
		Timestamp:               model.NewU128(timestampMs),
		Height:                  1,
		TransactionsHash:        TransactionsHash(accepted),
		InvalidatedBlocksHashes: invalidated,
	}
	if prev != nil {
		header.Height = prev.Header.Height + 1
		header.PreviousBlockHash = model.Some(prev.Hash())
	}
	rh, err := RejectedTransactionsHash(rejected)
	if err != nil {
		return nil, err
	}
	header.RejectedTransactionsHash = rh
	if header.CurrentBlockHash, err = Hash(header); err != nil {
		return nil, err
	}
	return &model.BlockValue{
		Header:               header,
		Transactions:         accepted,
		RejectedTransactions: rejected,
		EventRecommendations: events,
	}, nil
}

// Verify recomputes every hash of b and checks that it follows prev.
func Verify(b *model.BlockValue, prev *model.BlockValue) error {
	if prev == nil {
		if b.Header.Height != 1 || b.Header.PreviousBlockHash.IsSome() {
			return fmt.Errorf("block %d does not start the chain", b.Header.Height)
		}
	} else {
		h, ok := b.Header.PreviousBlockHash.Get()
		if !ok || h != prev.Hash() || b.Header.Height != prev.Header.Height+1 {
			return fmt.Errorf("block %d does not follow block %d", b.Header.Height, prev.Header.Height)
		}
	}
	if TransactionsHash(b.Transactions) != b.Header.TransactionsHash {
		return fmt.Errorf("block %d: transactions hash mismatch", b.Header.Height)
	}
	rh, err := RejectedTransactionsHash(b.RejectedTransactions)
	if err != nil {
		return err
	}
	if rh != b.Header.RejectedTransactionsHash {
		return fmt.Errorf("block %d: rejected transactions hash mismatch", b.Header.Height)
	}
	h, err := Hash(b.Header)
	if err != nil {
		return err
	}
	if h != b.Header.CurrentBlockHash {
		return fmt.Errorf("block %d: hash mismatch", b.Header.Height)
	}
	return nil
}

// Sort orders blocks by timestamp. Blocks with equal timestamps keep their
// relative order.
func Sort(blocks []*model.BlockValue) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return model.CompareBlocks(blocks[i], blocks[j]) < 0
	})
}
