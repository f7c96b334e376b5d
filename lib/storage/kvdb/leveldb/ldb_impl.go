package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

const (
	defCacheSize = 16
	defFds       = 16
)

func init() {
	kvdb.Register(kvdb.KVEngineTypeLDB, NewKVDBInstance)
}

// LDBDatabase define data structure of storage
type LDBDatabase struct {
	fn string
	db *leveldb.DB
}

func NewKVDBInstance(param *kvdb.KVParameter) (kvdb.Database, error) {
	baseDB := new(LDBDatabase)
	if param.IsMemory() {
		if err := baseDB.OpenMemory(); err != nil {
			return nil, err
		}
		return baseDB, nil
	}
	err := baseDB.Open(param.GetDBPath(), map[string]interface{}{
		"cache": param.GetMemCacheSize(),
		"fds":   param.GetFileHandlersCacheSize(),
	})
	if err != nil {
		return nil, err
	}
	return baseDB, nil
}

func setDefaultOptions(options map[string]interface{}) {
	if cache, ok := options["cache"].(int); !ok || cache < defCacheSize {
		options["cache"] = defCacheSize
	}
	if fds, ok := options["fds"].(int); !ok || fds < defFds {
		options["fds"] = defFds
	}
}

// Open opens an instance of LDB with parameters (ldb path and other options)
func (ldb *LDBDatabase) Open(path string, options map[string]interface{}) error {
	setDefaultOptions(options)
	cache := options["cache"].(int)
	fds := options["fds"].(int)

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: fds,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	// (Re)check for errors and abort if opening of the db failed
	if err != nil {
		return err
	}
	ldb.fn = path
	ldb.db = db
	return nil
}

// OpenMemory opens an in-memory instance, used by tests and dry-run tooling
func (ldb *LDBDatabase) OpenMemory() error {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return err
	}
	ldb.fn = "memory"
	ldb.db = db
	return nil
}

// Path returns the path to the database directory.
func (ldb *LDBDatabase) Path() string {
	return ldb.fn
}

// Put puts the given key / value to the queue
func (ldb *LDBDatabase) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Has if the given key exists
func (ldb *LDBDatabase) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

// Get returns the given key if it's present.
func (ldb *LDBDatabase) Get(key []byte) ([]byte, error) {
	dat, err := ldb.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, kvdb.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dat, nil
}

// Delete deletes the key from the queue and database
func (ldb *LDBDatabase) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

// Close close database instance
func (ldb *LDBDatabase) Close() {
	ldb.db.Close()
}

// NewIteratorWithRange returns a new Iterator for the range [start, limit)
func (ldb *LDBDatabase) NewIteratorWithRange(start []byte, limit []byte) kvdb.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
}

// NewIteratorWithPrefix returns a Iterator for iterating key with prefix
func (ldb *LDBDatabase) NewIteratorWithPrefix(prefix []byte) kvdb.Iterator {
	return ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
}

// NewBatch new an instance of Batch
func (ldb *LDBDatabase) NewBatch() kvdb.Batch {
	return &LDBBatch{db: ldb.db, b: new(leveldb.Batch)}
}

// LDBBatch define batch data structure
type LDBBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

// Put put a key-value pair into batch
func (b *LDBBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(value)
	return nil
}

// Delete delete a key from batch
func (b *LDBBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size++
	return nil
}

// Write batch write
func (b *LDBBatch) Write() error {
	return b.db.Write(b.b, nil)
}

// ValueSize return value size of batch
func (b *LDBBatch) ValueSize() int {
	return b.size
}

// Reset reset batch
func (b *LDBBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
