package txpool

import (
	"bytes"

	"github.com/korthochain/ledger/pkg/model"
)

// orderlyQueue keeps the transaction that should leave first at the end of
// txs, so pop never shifts the slice.
type orderlyQueue struct {
	txs   []*model.Transaction
	index map[model.Hash]int
}

func newQueue() *orderlyQueue {
	return &orderlyQueue{
		txs:   []*model.Transaction{},
		index: make(map[model.Hash]int),
	}
}

func (q *orderlyQueue) len() int {
	return len(q.txs)
}

func (q *orderlyQueue) has(h model.Hash) bool {
	_, ok := q.index[h]
	return ok
}

// push reports false if the transaction is already queued.
func (q *orderlyQueue) push(tx *model.Transaction) bool {
	h := tx.Hash()
	if q.has(h) {
		return false
	}
	q.txs = append(q.txs, tx)
	q.index[h] = q.len() - 1
	q.up(q.len() - 1)
	return true
}

func (q *orderlyQueue) pop() *model.Transaction {
	tx := q.txs[q.len()-1]
	delete(q.index, tx.Hash())
	q.txs = q.txs[:q.len()-1]
	return tx
}

func (q *orderlyQueue) remove(idx int) {
	if idx < 0 || idx >= q.len() {
		return
	}
	delete(q.index, q.txs[idx].Hash())

	for i := idx + 1; i < q.len(); i++ {
		q.txs[i-1] = q.txs[i]
		q.index[q.txs[i-1].Hash()] = i - 1
	}
	q.txs = q.txs[:q.len()-1]
}

func (q *orderlyQueue) removeHash(h model.Hash) bool {
	idx, ok := q.index[h]
	if ok {
		q.remove(idx)
	}
	return ok
}

// up moves the transaction at j towards the front past every transaction
// that should leave before it.
func (q *orderlyQueue) up(j int) {
	value := q.txs[j]
	i := j - 1
	for ; i >= 0; i-- {
		if !earlier(q.txs[i], value) {
			break
		}
		q.txs[i+1] = q.txs[i]
		q.index[q.txs[i+1].Hash()] = i + 1
	}
	q.txs[i+1] = value
	q.index[value.Hash()] = i + 1
}

// earlier reports whether x leaves the queue before y: older transactions
// first, ties broken by hash.
func earlier(x, y *model.Transaction) bool {
	if x.Payload.CreationTimeMs != y.Payload.CreationTimeMs {
		return x.Payload.CreationTimeMs < y.Payload.CreationTimeMs
	}
	hx, hy := x.Hash(), y.Hash()
	return bytes.Compare(hx[:], hy[:]) < 0
}
