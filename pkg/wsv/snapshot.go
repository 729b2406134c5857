package wsv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/storage/store"
	"go.uber.org/zap"
)

var (
	// DomainPrefix prefixes the key of every persisted domain.
	DomainPrefix = []byte("wsv/domain/")
	// BlockPrefix prefixes persisted blocks, keyed by big-endian height.
	BlockPrefix = []byte("wsv/block/")
	// ParametersKey holds the protocol parameters.
	ParametersKey = []byte("wsv/parameters")
	// HeightKey holds the height of the last persisted block.
	HeightKey = []byte("wsv/height")
)

func domainKey(id model.DomainId) []byte {
	return append(append([]byte(nil), DomainPrefix...), id.Name...)
}

func blockKey(height uint64) []byte {
	k := append([]byte(nil), BlockPrefix...)
	return binary.BigEndian.AppendUint64(k, height)
}

// Snapshot persists the state of v. Blocks already persisted are not
// written again.
func (v *WorldStateView) Snapshot(db store.DB) error {
	defer v.read()()

	stored, err := storedHeight(db)
	if err != nil {
		return err
	}

	tx := db.NewTransaction()
	defer tx.Cancel()

	existing := make(map[string]struct{})
	itr := db.NewIterator(DomainPrefix, nil)
	for itr.Next() {
		existing[string(itr.Key())] = struct{}{}
	}
	err = itr.Error()
	itr.Release()
	if err != nil {
		return err
	}

	for _, d := range v.sortedDomains() {
		data, err := model.SerializeDomain(d)
		if err != nil {
			return fmt.Errorf("serialize domain %s: %w", d.Id, err)
		}
		k := domainKey(d.Id)
		if err := tx.Set(k, data); err != nil {
			return err
		}
		delete(existing, string(k))
	}
	for k := range existing {
		if err := tx.Del([]byte(k)); err != nil {
			return err
		}
	}

	params, err := model.Marshal(v.world.parameters)
	if err != nil {
		return err
	}
	if err := tx.Set(ParametersKey, params); err != nil {
		return err
	}

	height := uint64(len(v.world.blocks))
	for h := stored + 1; h <= height; h++ {
		data, err := v.world.blocks[h-1].Serialize()
		if err != nil {
			return fmt.Errorf("serialize block %d: %w", h, err)
		}
		if err := tx.Set(blockKey(h), data); err != nil {
			return err
		}
	}
	if err := tx.Set(HeightKey, binary.BigEndian.AppendUint64(nil, height)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	v.logger.Debug("world state persisted", zap.Int("domains", len(v.world.domains)), zap.Uint64("height", height))
	return nil
}

func storedHeight(db store.DB) (uint64, error) {
	data, err := db.Get(HeightKey)
	if errors.Is(err, store.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("malformed height record")
	}
	return binary.BigEndian.Uint64(data), nil
}

// Load reads a world persisted by Snapshot. An empty database yields an
// empty world.
func Load(db store.DB, cfg Config, logger *zap.Logger) (*WorldStateView, error) {
	var domains []*model.Domain
	itr := db.NewIterator(DomainPrefix, nil)
	for itr.Next() {
		d, err := model.DeserializeDomain(itr.Value())
		if err != nil {
			itr.Release()
			return nil, fmt.Errorf("load domain %q: %w", itr.Key(), err)
		}
		domains = append(domains, d)
	}
	err := itr.Error()
	itr.Release()
	if err != nil {
		return nil, err
	}

	var params []model.Parameter
	data, err := db.Get(ParametersKey)
	switch {
	case errors.Is(err, store.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := model.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("load parameters: %w", err)
		}
	}

	world := NewWorld(domains, params...)

	height, err := storedHeight(db)
	if err != nil {
		return nil, err
	}
	for h := uint64(1); h <= height; h++ {
		data, err := db.Get(blockKey(h))
		if err != nil {
			return nil, fmt.Errorf("load block %d: %w", h, err)
		}
		b, err := model.DeserializeBlock(data)
		if err != nil {
			return nil, fmt.Errorf("load block %d: %w", h, err)
		}
		world.blocks = append(world.blocks, b)
	}
	return New(world, cfg, logger), nil
}
