// Package storage opens the key-value engine selected in configuration.
package storage

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/korthochain/ledger/pkg/storage/store/bg"
	"github.com/korthochain/ledger/pkg/storage/store/ldb"
)

// Open returns the database described by cfg. InMemory always uses the
// leveldb memory storage, whatever the engine.
func Open(cfg store.Config) (store.DB, error) {
	if cfg.InMemory {
		return ldb.OpenMemory()
	}
	switch cfg.Engine {
	case store.Badger, "":
		return bg.Open(cfg.Path)
	case store.LevelDB:
		return ldb.Open(cfg.Path)
	}
	return nil, fmt.Errorf("unknown storage engine %q", cfg.Engine)
}
