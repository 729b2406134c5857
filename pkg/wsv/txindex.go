package wsv

import (
	"sync"

	"github.com/korthochain/ledger/pkg/model"
)

type txLocation struct {
	block    *model.BlockValue
	height   uint64
	pos      int
	rejected bool
}

// txIndex maps transaction hashes to their place in a chain. A root view
// and every view staged from it share one index; an entry only counts in a
// view whose chain holds the entry's block.
type txIndex struct {
	mu      sync.RWMutex
	entries map[model.Hash][]txLocation
	// fresh lists the hashes added since the last prune.
	fresh []model.Hash
}

func newTxIndex(blocks []*model.BlockValue) *txIndex {
	idx := &txIndex{entries: make(map[model.Hash][]txLocation)}
	for _, b := range blocks {
		idx.add(b)
	}
	idx.fresh = nil
	return idx
}

func (idx *txIndex) add(b *model.BlockValue) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	put := func(h model.Hash, loc txLocation) {
		idx.entries[h] = append(idx.entries[h], loc)
		idx.fresh = append(idx.fresh, h)
	}
	for i := range b.Transactions {
		put(b.Transactions[i].Hash(), txLocation{block: b, height: b.Header.Height, pos: i})
	}
	for i := range b.RejectedTransactions {
		put(b.RejectedTransactions[i].Transaction.Hash(), txLocation{block: b, height: b.Header.Height, pos: i, rejected: true})
	}
}

func onChain(loc txLocation, chain []*model.BlockValue) bool {
	return loc.height >= 1 && loc.height <= uint64(len(chain)) && chain[loc.height-1] == loc.block
}

func (idx *txIndex) find(h model.Hash, chain []*model.BlockValue) (txLocation, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, loc := range idx.entries[h] {
		if onChain(loc, chain) {
			return loc, true
		}
	}
	return txLocation{}, false
}

// prune drops the fresh entries whose block chain does not hold. Views that
// still hold such a block were staged before chain moved on and can no
// longer commit.
func (idx *txIndex) prune(chain []*model.BlockValue) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, h := range idx.fresh {
		locs, ok := idx.entries[h]
		if !ok {
			continue
		}
		kept := locs[:0]
		for _, loc := range locs {
			if onChain(loc, chain) {
				kept = append(kept, loc)
			}
		}
		if len(kept) == 0 {
			delete(idx.entries, h)
			continue
		}
		idx.entries[h] = kept
	}
	idx.fresh = idx.fresh[:0]
}

// size is the number of indexed locations.
func (idx *txIndex) size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, locs := range idx.entries {
		n += len(locs)
	}
	return n
}
