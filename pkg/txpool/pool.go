package txpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/korthochain/ledger/pkg/crypto/sigs"
	_ "github.com/korthochain/ledger/pkg/crypto/sigs/ed25519"
	_ "github.com/korthochain/ledger/pkg/crypto/sigs/secp"
	"github.com/korthochain/ledger/pkg/model"
	"go.uber.org/zap"
)

const (
	pendingLimit = 100
	poolCap      = 10000
)

var (
	ErrPoolFull  = errors.New("pool is full, please try again later")
	ErrKnown     = errors.New("transaction already queued")
	ErrCommitted = errors.New("transaction already committed")
	ErrExpired   = errors.New("transaction expired")
)

// IBlockchain is the part of the chain the pool consults. A
// *wsv.WorldStateView satisfies it.
type IBlockchain interface {
	HasTransaction(model.Hash) bool
}

// Pool is a temporary storage pool for transactions waiting for a block.
// Transactions leave the pool in order of creation time and each one is
// held at most once.
type Pool struct {
	qlock    sync.Mutex
	q        *orderlyQueue
	bc       IBlockchain
	capacity int
	verify   bool

	logger *zap.Logger
}

// NewPool Create transaction pool
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("chain cannot be empty")
	}

	p := &Pool{
		bc:       cfg.Chain,
		q:        newQueue(),
		capacity: cfg.Capacity,
		verify:   cfg.VerifySignatures,
	}
	if p.capacity <= 0 {
		p.capacity = poolCap
	}

	if cfg.Logger != nil {
		p.logger = cfg.Logger
	} else {
		p.logger = zap.NewNop()
	}

	return p, nil
}

func (p *Pool) Len() int {
	p.qlock.Lock()
	defer p.qlock.Unlock()

	return p.q.len()
}

// Add queues tx. Malformed, expired, committed and already queued
// transactions are refused, as are badly signed ones when the pool verifies
// signatures.
func (p *Pool) Add(tx *model.Transaction, nowMs uint64) error {
	if err := tx.Check(); err != nil {
		return err
	}
	if p.verify {
		if err := sigs.VerifyTransaction(tx); err != nil {
			return err
		}
	}
	if tx.IsExpired(nowMs) {
		return ErrExpired
	}
	h := tx.Hash()
	if p.bc.HasTransaction(h) {
		return ErrCommitted
	}

	p.qlock.Lock()
	defer p.qlock.Unlock()

	if p.q.len() >= p.capacity {
		return ErrPoolFull
	}
	if !p.q.push(tx) {
		return ErrKnown
	}
	p.logger.Debug("transaction queued", zap.String("hash", h.String()), zap.Int("size", p.q.len()))
	return nil
}

// Pending takes up to limit transactions out of the pool, oldest first.
// Expired transactions met on the way are dropped. A non-positive limit
// means pendingLimit.
func (p *Pool) Pending(limit int, nowMs uint64) []*model.Transaction {
	p.qlock.Lock()
	defer p.qlock.Unlock()

	if limit <= 0 {
		limit = pendingLimit
	}
	pending := make([]*model.Transaction, 0, limit)
	for len(pending) < limit && p.q.len() > 0 {
		tx := p.q.pop()
		if tx.IsExpired(nowMs) {
			p.logger.Info("drop expired transaction", zap.String("hash", tx.Hash().String()))
			continue
		}
		pending = append(pending, tx)
	}
	return pending
}

// Filter removes transactions that made it into a block.
func (p *Pool) Filter(committed []model.Transaction) {
	p.qlock.Lock()
	defer p.qlock.Unlock()

	for i := range committed {
		p.q.removeHash(committed[i].Hash())
	}
}

// CacheOut drops every expired transaction.
func (p *Pool) CacheOut(nowMs uint64) int {
	p.qlock.Lock()
	defer p.qlock.Unlock()

	n := 0
	for i := p.q.len() - 1; i >= 0; i-- {
		if p.q.txs[i].IsExpired(nowMs) {
			p.q.remove(i)
			n++
		}
	}
	if n > 0 {
		p.logger.Info("cache out", zap.Int("expired", n), zap.Int("size", p.q.len()))
	}
	return n
}
