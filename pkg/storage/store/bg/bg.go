package bg

import (
	"errors"

	"github.com/dgraph-io/badger"
	"github.com/korthochain/ledger/pkg/storage/store"
)

// New wraps an open badger database.
func New(db *badger.DB) store.DB {
	return &bgStore{db: db}
}

// Open opens (or creates) a badger database in the directory path.
func Open(path string) (store.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (db *bgStore) Sync() error {
	return db.db.Sync()
}

func (db *bgStore) Close() error {
	return db.db.Close()
}

func (db *bgStore) Del(k []byte) error {
	return db.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(k)
	})
}

func (db *bgStore) Set(k, v []byte) error {
	return db.db.Update(func(tx *badger.Txn) error {
		return tx.Set(k, v)
	})
}

func (db *bgStore) Get(k []byte) ([]byte, error) {
	var v []byte
	err := db.db.View(func(tx *badger.Txn) error {
		var err error
		v, err = get(tx, k)
		return err
	})
	return v, err
}

func (db *bgStore) NewTransaction() store.Transaction {
	return &bgTransaction{tx: db.db.NewTransaction(true)}
}

func (tx *bgTransaction) Commit() error {
	return tx.tx.Commit()
}

func (tx *bgTransaction) Cancel() error {
	tx.tx.Discard()
	return nil
}

func (tx *bgTransaction) Del(k []byte) error {
	return tx.tx.Delete(k)
}

func (tx *bgTransaction) Set(k, v []byte) error {
	return tx.tx.Set(k, v)
}

func (tx *bgTransaction) Get(k []byte) ([]byte, error) {
	return get(tx.tx, k)
}

func get(tx *badger.Txn, k []byte) ([]byte, error) {
	item, err := tx.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
