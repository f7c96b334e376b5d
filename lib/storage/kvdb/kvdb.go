package kvdb

import "errors"

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("kvdb: key not found")

// Database wraps all database operations. All methods are safe for concurrent use.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close()
	NewBatch() Batch
	// NewIteratorWithRange iterates [start, limit), nil means unbounded
	NewIteratorWithRange(start []byte, limit []byte) Iterator
	NewIteratorWithPrefix(prefix []byte) Iterator
}

// Batch is a write-only database that commits changes to its host database
// when Write is called
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	ValueSize() int
	Write() error
	Reset()
}

// Iterator iterates over a database's key/value pairs in ascending key order
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// BytesPrefix returns the key range [prefix, limit) covering every key with prefix
func BytesPrefix(prefix []byte) ([]byte, []byte) {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return prefix, limit
}
