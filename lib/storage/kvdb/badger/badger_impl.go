package badger

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

func init() {
	kvdb.Register(kvdb.KVEngineTypeBadger, NewKVDBInstance)
}

// BadgerDatabase implements kvdb.Database on top of badger
type BadgerDatabase struct {
	path string
	db   *badger.DB
}

func NewKVDBInstance(param *kvdb.KVParameter) (kvdb.Database, error) {
	opts := badger.DefaultOptions(param.GetDBPath())
	if param.IsMemory() {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if param.GetMemCacheSize() > 0 {
		opts = opts.WithBlockCacheSize(int64(param.GetMemCacheSize()) << 20)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badgerdb: %w", err)
	}
	return &BadgerDatabase{path: param.GetDBPath(), db: db}, nil
}

// Path returns the path to the database directory.
func (bdb *BadgerDatabase) Path() string {
	return bdb.path
}

func (bdb *BadgerDatabase) Put(key []byte, value []byte) error {
	return bdb.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (bdb *BadgerDatabase) Get(key []byte) ([]byte, error) {
	var value []byte
	err := bdb.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, kvdb.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (bdb *BadgerDatabase) Has(key []byte) (bool, error) {
	_, err := bdb.Get(key)
	if err == kvdb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bdb *BadgerDatabase) Delete(key []byte) error {
	return bdb.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (bdb *BadgerDatabase) Close() {
	bdb.db.Close()
}

func (bdb *BadgerDatabase) NewBatch() kvdb.Batch {
	return &BadgerBatch{db: bdb.db}
}

func (bdb *BadgerDatabase) NewIteratorWithRange(start []byte, limit []byte) kvdb.Iterator {
	return newIterator(bdb.db, start, limit)
}

func (bdb *BadgerDatabase) NewIteratorWithPrefix(prefix []byte) kvdb.Iterator {
	start, limit := kvdb.BytesPrefix(prefix)
	return newIterator(bdb.db, start, limit)
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// BadgerBatch buffers writes and applies them in one transaction on Write
type BadgerBatch struct {
	db   *badger.DB
	ops  []batchOp
	size int
}

func (b *BadgerBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	b.size += len(value)
	return nil
}

func (b *BadgerBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	b.size++
	return nil
}

func (b *BadgerBatch) ValueSize() int {
	return b.size
}

func (b *BadgerBatch) Write() error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			var err error
			if op.delete {
				err = txn.Delete(op.key)
			} else {
				err = txn.Set(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerBatch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}

// badgerIterator walks [start, limit) inside a read-only transaction
// that lives until Release.
type badgerIterator struct {
	txn     *badger.Txn
	iter    *badger.Iterator
	start   []byte
	limit   []byte
	started bool
	key     []byte
	value   []byte
	err     error
}

func newIterator(db *badger.DB, start, limit []byte) *badgerIterator {
	txn := db.NewTransaction(false)
	return &badgerIterator{
		txn:   txn,
		iter:  txn.NewIterator(badger.DefaultIteratorOptions),
		start: start,
		limit: limit,
	}
}

func (it *badgerIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.iter.Seek(it.start)
		it.started = true
	} else {
		it.iter.Next()
	}
	if !it.iter.Valid() {
		return false
	}
	item := it.iter.Item()
	if it.limit != nil && bytes.Compare(item.Key(), it.limit) >= 0 {
		return false
	}
	it.key = item.KeyCopy(nil)
	it.value, it.err = item.ValueCopy(nil)
	return it.err == nil
}

func (it *badgerIterator) Key() []byte   { return it.key }
func (it *badgerIterator) Value() []byte { return it.value }
func (it *badgerIterator) Error() error  { return it.err }

func (it *badgerIterator) Release() {
	it.iter.Close()
	it.txn.Discard()
}
