package ldb

import (
	"errors"

	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type ldbStore struct {
	db *leveldb.DB
}

type ldbTransaction struct {
	tx *leveldb.Transaction
}

type ldbIterator struct {
	started bool
	start   []byte
	itr     iterator.Iterator
}

// Open opens (or creates) a leveldb database in the directory path.
func Open(path string) (store.DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &ldbStore{db: db}, nil
}

// OpenMemory opens a database that lives in memory only.
func OpenMemory() (store.DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &ldbStore{db: db}, nil
}

// Sync forces buffered writes to stable storage.
func (db *ldbStore) Sync() error {
	return db.db.Write(new(leveldb.Batch), &opt.WriteOptions{Sync: true})
}

func (db *ldbStore) Close() error {
	return db.db.Close()
}

func (db *ldbStore) Del(k []byte) error {
	return db.db.Delete(k, nil)
}

func (db *ldbStore) Set(k, v []byte) error {
	return db.db.Put(k, v, nil)
}

func (db *ldbStore) Get(k []byte) ([]byte, error) {
	return notExist(db.db.Get(k, nil))
}

// NewTransaction opens a leveldb transaction. Other writers block until it is
// committed or cancelled.
func (db *ldbStore) NewTransaction() store.Transaction {
	tx, err := db.db.OpenTransaction()
	if err != nil {
		return &failedTransaction{err: err}
	}
	return &ldbTransaction{tx: tx}
}

func (tx *ldbTransaction) Commit() error {
	return tx.tx.Commit()
}

func (tx *ldbTransaction) Cancel() error {
	tx.tx.Discard()
	return nil
}

func (tx *ldbTransaction) Del(k []byte) error {
	return tx.tx.Delete(k, nil)
}

func (tx *ldbTransaction) Set(k, v []byte) error {
	return tx.tx.Put(k, v, nil)
}

func (tx *ldbTransaction) Get(k []byte) ([]byte, error) {
	return notExist(tx.tx.Get(k, nil))
}

// failedTransaction reports the error that prevented a transaction from
// opening on every call.
type failedTransaction struct {
	err error
}

func (tx *failedTransaction) Commit() error              { return tx.err }
func (tx *failedTransaction) Cancel() error              { return nil }
func (tx *failedTransaction) Del([]byte) error           { return tx.err }
func (tx *failedTransaction) Set([]byte, []byte) error   { return tx.err }
func (tx *failedTransaction) Get([]byte) ([]byte, error) { return nil, tx.err }

func (db *ldbStore) NewIterator(prefix []byte, start []byte) store.Iterator {
	return &ldbIterator{
		start: start,
		itr:   db.db.NewIterator(util.BytesPrefix(prefix), nil),
	}
}

func (itr *ldbIterator) Next() bool {
	if !itr.started {
		itr.started = true
		if len(itr.start) > 0 {
			return itr.itr.Seek(itr.start)
		}
	}
	return itr.itr.Next()
}

func (itr *ldbIterator) Error() error {
	return itr.itr.Error()
}

func (itr *ldbIterator) Key() []byte {
	return append([]byte(nil), itr.itr.Key()...)
}

func (itr *ldbIterator) Value() []byte {
	return append([]byte(nil), itr.itr.Value()...)
}

func (itr *ldbIterator) Release() {
	itr.itr.Release()
}

func notExist(v []byte, err error) ([]byte, error) {
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, store.ErrNotExist
	}
	return v, err
}
