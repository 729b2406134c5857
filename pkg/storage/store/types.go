package store

import "errors"

var (
	ErrNotExist = errors.New("NotExist")
	ErrClosed   = errors.New("database closed")
)

// Engines supported by storage.Open.
const (
	Badger  = "badger"
	LevelDB = "leveldb"
)

// Config selects and locates the key-value engine.
type Config struct {
	Engine   string `yaml:"engine"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inmemory"`
}

func DefaultConfig() Config {
	return Config{Engine: Badger, Path: "ledger.db"}
}

type DB interface {
	Sync() error

	Close() error
	// kv
	Del([]byte) error
	Set([]byte, []byte) error
	Get([]byte) ([]byte, error)

	NewTransaction() Transaction
	NewIterator([]byte, []byte) Iterator
}

// Transaction groups writes so they land together or not at all.
type Transaction interface {
	Commit() error
	Cancel() error

	// kv
	Del([]byte) error
	Set([]byte, []byte) error
	Get([]byte) ([]byte, error)
}

// Iterator walks the keys sharing a prefix in ascending order, starting at
// the first key not less than start. Next must be called before the first
// Key or Value.
type Iterator interface {
	Next() bool

	Error() error

	Key() []byte

	Value() []byte

	Release()
}
