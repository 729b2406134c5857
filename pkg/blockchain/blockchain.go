// Package blockchain drives the world state from one block to the next.
package blockchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/korthochain/ledger/pkg/block"
	"github.com/korthochain/ledger/pkg/isi"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/permission"
	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/korthochain/ledger/pkg/wsv"
	"go.uber.org/zap"
)

var (
	ErrGenesisApplied = errors.New("genesis already applied")
	ErrTooManyTxs     = errors.New("too many transactions in block")
)

// Blockchain data structure
type Blockchain struct {
	// mu serializes writers; readers go straight to the world state view.
	mu  sync.Mutex
	wsv *wsv.WorldStateView
	db  store.DB

	executor *isi.Executor
	genesis  *isi.Executor

	cfg    ChainConfig
	logger *zap.Logger
}

// Proposal is a sealed block together with the staged state it produces.
// Nothing is visible to readers until the proposal is committed.
type Proposal struct {
	Block  *model.BlockValue
	Events []model.DataEvent

	view *wsv.WorldStateView
}

// New returns a blockchain over v. db may be nil, in which case committed
// blocks only live in memory.
func New(cfg ChainConfig, v *wsv.WorldStateView, db store.DB, logger *zap.Logger) (*Blockchain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	validator, err := permission.Preset(cfg.PermissionPreset)
	if err != nil {
		return nil, err
	}
	logger.Info("permission policy", zap.String("preset", cfg.PermissionPreset), zap.Stringer("validator", validator))

	return &Blockchain{
		wsv:      v,
		db:       db,
		executor: isi.NewExecutor(isi.NormalMode, validator, cfg.TransactionLimits, logger),
		genesis:  isi.NewExecutor(isi.GenesisMode, nil, cfg.TransactionLimits, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// WSV returns the committed world state view.
func (bc *Blockchain) WSV() *wsv.WorldStateView {
	return bc.wsv
}

func (bc *Blockchain) Height() uint64 {
	return bc.wsv.Height()
}

func (bc *Blockchain) latest() *model.BlockValue {
	blocks := bc.wsv.Blocks()
	if len(blocks) == 0 {
		return nil
	}
	return blocks[len(blocks)-1]
}

// ApplyGenesis commits the first block. Every genesis transaction must
// succeed or nothing is applied.
func (bc *Blockchain) ApplyGenesis(txs []*model.Transaction, timestampMs uint64) (*model.BlockValue, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.wsv.Height() != 0 {
		return nil, ErrGenesisApplied
	}

	view := bc.wsv.Stage()
	var (
		events   []model.DataEvent
		accepted = make([]model.Transaction, 0, len(txs))
	)
	for i, tx := range txs {
		evs, reason := bc.genesis.ExecuteTransaction(tx, view)
		if reason != nil {
			return nil, fmt.Errorf("genesis transaction %d: %w", i, reason)
		}
		events = append(events, evs...)
		accepted = append(accepted, *tx)
	}

	b, err := block.New(nil, timestampMs, accepted, nil, nil, events)
	if err != nil {
		return nil, err
	}
	if err := view.AppendBlock(b); err != nil {
		return nil, err
	}
	if err := bc.commit(&Proposal{Block: b, Events: events, view: view}); err != nil {
		return nil, err
	}
	bc.logger.Info("genesis applied", zap.Int("transactions", len(accepted)), zap.Int("events", len(events)))
	return b, nil
}

// ProposeBlock executes txs in order on a staged copy of the world and
// seals the result. A transaction that is already committed, or repeated
// within txs, is left out of the block.
func (bc *Blockchain) ProposeBlock(txs []*model.Transaction, invalidated []model.Hash, timestampMs uint64) (*Proposal, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.propose(txs, invalidated, timestampMs)
}

func (bc *Blockchain) propose(txs []*model.Transaction, invalidated []model.Hash, timestampMs uint64) (*Proposal, error) {
	if bc.cfg.MaxTransactionsInBlock > 0 && len(txs) > bc.cfg.MaxTransactionsInBlock {
		return nil, fmt.Errorf("%w: %d, limit %d", ErrTooManyTxs, len(txs), bc.cfg.MaxTransactionsInBlock)
	}

	view := bc.wsv.Stage()
	var (
		events   []model.DataEvent
		accepted []model.Transaction
		rejected []model.RejectedTransaction
		seen     = make(map[model.Hash]struct{}, len(txs))
	)
	for _, tx := range txs {
		h := tx.Hash()
		if _, ok := seen[h]; ok || view.HasTransaction(h) {
			bc.logger.Warn("duplicate transaction", zap.String("hash", h.String()))
			continue
		}
		seen[h] = struct{}{}

		if tx.IsExpired(timestampMs) {
			reason := model.Reject(model.Expired, "expired at %d", tx.Payload.CreationTimeMs+tx.Payload.TimeToLiveMs)
			rejected = append(rejected, model.RejectedTransaction{Transaction: *tx, Reason: *reason})
			continue
		}

		evs, reason := bc.executor.ExecuteTransaction(tx, view)
		if reason != nil {
			bc.logger.Info("transaction rejected", zap.String("hash", h.String()), zap.Error(reason))
			rejected = append(rejected, model.RejectedTransaction{Transaction: *tx, Reason: *reason})
			continue
		}
		events = append(events, evs...)
		accepted = append(accepted, *tx)
	}

	b, err := block.New(bc.latest(), timestampMs, accepted, rejected, invalidated, events)
	if err != nil {
		return nil, err
	}
	if err := view.AppendBlock(b); err != nil {
		return nil, err
	}

	bc.logger.Debug("block proposed", zap.Uint64("height", b.Header.Height), zap.String("hash", b.Hash().String()),
		zap.Int("accepted", len(accepted)), zap.Int("rejected", len(rejected)))
	return &Proposal{Block: b, Events: events, view: view}, nil
}

// Commit publishes a proposal. It fails if another block was committed
// after the proposal was made.
func (bc *Blockchain) Commit(p *Proposal) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.commit(p)
}

func (bc *Blockchain) commit(p *Proposal) error {
	if err := p.view.Commit(); err != nil {
		return fmt.Errorf("commit block %d: %w", p.Block.Header.Height, err)
	}
	if bc.db != nil {
		if err := bc.wsv.Snapshot(bc.db); err != nil {
			return fmt.Errorf("persist block %d: %w", p.Block.Header.Height, err)
		}
	}

	bc.logger.Info("block committed", zap.Uint64("height", p.Block.Header.Height), zap.String("hash", p.Block.Hash().String()),
		zap.Int("accepted", len(p.Block.Transactions)), zap.Int("rejected", len(p.Block.RejectedTransactions)))
	return nil
}

// ApplyBlock proposes and commits a block in one step.
func (bc *Blockchain) ApplyBlock(txs []*model.Transaction, invalidated []model.Hash, timestampMs uint64) (*model.BlockValue, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	p, err := bc.propose(txs, invalidated, timestampMs)
	if err != nil {
		return nil, err
	}
	if err := bc.commit(p); err != nil {
		return nil, err
	}
	return p.Block, nil
}
