// Package wsv holds the world state view: the authoritative, queryable state
// of the ledger and the only path through which it changes.
package wsv

import (
	"sync"

	"github.com/korthochain/ledger/pkg/model"
	"go.uber.org/zap"
)

// World is the ledger state: domains with everything they own, protocol
// parameters and the committed chain with its transaction index.
type World struct {
	domains    map[model.DomainId]*model.Domain
	parameters []model.Parameter
	blocks     []*model.BlockValue
	index      *txIndex
}

// NewWorld builds a world from domains and parameters. The world takes
// ownership of the domains.
func NewWorld(domains []*model.Domain, parameters ...model.Parameter) World {
	w := World{domains: make(map[model.DomainId]*model.Domain, len(domains))}
	for _, d := range domains {
		w.domains[d.Id] = d
	}
	w.parameters = append(w.parameters, parameters...)
	return w
}

// WorldStateView is either a root view, safe for concurrent readers, or a
// staged child owned by a single goroutine. Children share unmodified
// domains with their parent and copy a domain the first time they change it.
type WorldStateView struct {
	// mu is set on the root only.
	mu     *sync.RWMutex
	parent *WorldStateView

	world World
	// owned holds the domains this child has copied and may change in place.
	owned map[model.DomainId]struct{}

	generation uint64
	base       uint64
	committed  bool

	cfg    Config
	logger *zap.Logger
}

// New returns a root view over world.
func New(world World, cfg Config, logger *zap.Logger) *WorldStateView {
	if logger == nil {
		logger = zap.NewNop()
	}
	if world.domains == nil {
		world.domains = make(map[model.DomainId]*model.Domain)
	}
	if world.index == nil {
		world.index = newTxIndex(world.blocks)
	}
	return &WorldStateView{
		mu:     new(sync.RWMutex),
		world:  world,
		cfg:    cfg,
		logger: logger,
	}
}

func (v *WorldStateView) Config() Config {
	return v.cfg
}

func (v *WorldStateView) Logger() *zap.Logger {
	return v.logger
}

// Generation counts the children committed into this view.
func (v *WorldStateView) Generation() uint64 {
	defer v.read()()
	return v.generation
}

// IsRoot reports whether v accepts concurrent readers and refuses writes.
func (v *WorldStateView) IsRoot() bool {
	return v.parent == nil
}

func (v *WorldStateView) read() func() {
	if v.mu == nil {
		return func() {}
	}
	v.mu.RLock()
	return v.mu.RUnlock
}

func (v *WorldStateView) write() func() {
	if v.mu == nil {
		return func() {}
	}
	v.mu.Lock()
	return v.mu.Unlock
}

// Stage returns a child of v. Changes made to the child are invisible to v
// until Commit; dropping the child discards them.
func (v *WorldStateView) Stage() *WorldStateView {
	defer v.read()()

	domains := make(map[model.DomainId]*model.Domain, len(v.world.domains))
	for id, d := range v.world.domains {
		domains[id] = d
	}
	blocks := v.world.blocks
	return &WorldStateView{
		parent: v,
		world: World{
			domains:    domains,
			parameters: append([]model.Parameter(nil), v.world.parameters...),
			blocks:     blocks[:len(blocks):len(blocks)],
			index:      v.world.index,
		},
		owned:  make(map[model.DomainId]struct{}),
		base:   v.generation,
		cfg:    v.cfg,
		logger: v.logger,
	}
}

// Commit publishes the child's state into its parent. It fails if the parent
// has accepted another commit since the child was staged.
func (v *WorldStateView) Commit() error {
	if v.parent == nil {
		return ErrReadOnly
	}
	if v.committed {
		return ErrCommitted
	}

	p := v.parent
	defer p.write()()
	if p.generation != v.base {
		return ErrStaleView
	}
	p.world = v.world
	p.generation++
	if p.parent == nil {
		p.world.index.prune(p.world.blocks)
	}
	if p.owned != nil {
		for id := range v.owned {
			p.owned[id] = struct{}{}
		}
	}
	v.committed = true
	return nil
}

func (v *WorldStateView) mutable() error {
	if v.parent == nil {
		return ErrReadOnly
	}
	if v.committed {
		return ErrCommitted
	}
	return nil
}

// mutableDomain returns a domain this child may change in place.
func (v *WorldStateView) mutableDomain(id model.DomainId) (*model.Domain, error) {
	if err := v.mutable(); err != nil {
		return nil, err
	}
	d, ok := v.world.domains[id]
	if !ok {
		return nil, notFound(DomainEntity, id)
	}
	if _, ok := v.owned[id]; ok {
		return d, nil
	}
	d = d.Clone()
	v.world.domains[id] = d
	v.owned[id] = struct{}{}
	return d, nil
}
