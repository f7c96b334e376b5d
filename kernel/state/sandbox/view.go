package sandbox

import (
	"github.com/pkg/errors"
)

// Reader is the committed state a View reads through
type Reader interface {
	// Get returns nil without error when key is absent
	Get(key []byte) ([]byte, error)
	// Range iterates [start, end) ascending until fn returns false, nil end is unbounded
	Range(start, end []byte, fn func(key, value []byte) bool) error
}

// Entry is a cached value, Deleted marks a removed key in the write cache
type Entry struct {
	Value   []byte
	Deleted bool
}

// Write is one element of the write set
type Write struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

type caches struct {
	// committed values read so far, absent keys cached as Deleted
	readCache *MemModel
	// pending writes and deletes
	writeCache *MemModel
	snapshots  []*MemModel
}

// View buffers reads and writes over a Reader. Sub views share the caches of
// their parent and only add a key prefix. A View is not safe for concurrent use.
type View struct {
	backend Reader
	prefix  []byte
	c       *caches
}

func NewView(backend Reader) *View {
	return &View{
		backend: backend,
		c: &caches{
			readCache:  NewMemModel(),
			writeCache: NewMemModel(),
		},
	}
}

// Sub returns a view of the keys under prefix
func (v *View) Sub(prefix []byte) *View {
	return &View{
		backend: v.backend,
		prefix:  concat(v.prefix, prefix),
		c:       v.c,
	}
}

// Get returns nil without error when the key is absent or deleted
func (v *View) Get(key []byte) ([]byte, error) {
	fullKey := concat(v.prefix, key)
	if e, ok := v.c.writeCache.Get(fullKey); ok {
		if e.Deleted {
			return nil, nil
		}
		return copyBytes(e.Value), nil
	}
	if e, ok := v.c.readCache.Get(fullKey); ok {
		if e.Deleted {
			return nil, nil
		}
		return copyBytes(e.Value), nil
	}

	value, err := v.backend.Get(fullKey)
	if err != nil {
		return nil, errors.Wrapf(err, "read key %x", fullKey)
	}
	v.c.readCache.Put(fullKey, &Entry{Value: value, Deleted: value == nil})
	return copyBytes(value), nil
}

func (v *View) Has(key []byte) (bool, error) {
	value, err := v.Get(key)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (v *View) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	v.c.writeCache.Put(concat(v.prefix, key), &Entry{Value: copyBytes(value)})
	return nil
}

func (v *View) Del(key []byte) error {
	v.c.writeCache.Put(concat(v.prefix, key), &Entry{Deleted: true})
	return nil
}

// Range merges committed keys with pending writes under the view prefix and
// iterates [start, end) ascending. Keys passed to fn are relative to the view.
func (v *View) Range(start, end []byte, fn func(key, value []byte) bool) error {
	fullStart := concat(v.prefix, start)
	var fullEnd []byte
	if end == nil {
		_, fullEnd = prefixRange(v.prefix)
	} else {
		fullEnd = concat(v.prefix, end)
	}

	merged := NewMemModel()
	err := v.backend.Range(fullStart, fullEnd, func(key, value []byte) bool {
		merged.Put(copyBytes(key), &Entry{Value: copyBytes(value)})
		return true
	})
	if err != nil {
		return errors.Wrap(err, "range committed state")
	}
	v.c.writeCache.Range(fullStart, fullEnd, func(key []byte, e *Entry) bool {
		if e.Deleted {
			merged.Remove(key)
		} else {
			merged.Put(key, e)
		}
		return true
	})

	merged.Range(nil, nil, func(key []byte, e *Entry) bool {
		return fn(key[len(v.prefix):], copyBytes(e.Value))
	})
	return nil
}

// Snapshot saves the pending writes, the id is passed to RestoreSnapshot
func (v *View) Snapshot() int {
	v.c.snapshots = append(v.c.snapshots, v.c.writeCache.Clone())
	return len(v.c.snapshots) - 1
}

// RestoreSnapshot drops every write made after snapshot id was taken
func (v *View) RestoreSnapshot(id int) error {
	if id < 0 || id >= len(v.c.snapshots) {
		return errors.Errorf("snapshot %d not found", id)
	}
	v.c.writeCache = v.c.snapshots[id]
	v.c.snapshots = v.c.snapshots[:id]
	return nil
}

// DiscardSnapshot releases snapshot id and every later one, keeping the writes
func (v *View) DiscardSnapshot(id int) {
	if id < 0 || id >= len(v.c.snapshots) {
		return
	}
	v.c.snapshots = v.c.snapshots[:id]
}

// SnapshotCount is the number of retained snapshots
func (v *View) SnapshotCount() int {
	return len(v.c.snapshots)
}

// WriteSet returns every pending write of the whole view in key order
func (v *View) WriteSet() []*Write {
	writes := make([]*Write, 0, v.c.writeCache.Len())
	v.c.writeCache.Range(nil, nil, func(key []byte, e *Entry) bool {
		writes = append(writes, &Write{
			Key:     copyBytes(key),
			Value:   copyBytes(e.Value),
			Deleted: e.Deleted,
		})
		return true
	})
	return writes
}

// Reset drops pending writes, snapshots and the read cache
func (v *View) Reset() {
	v.c.readCache = NewMemModel()
	v.c.writeCache = NewMemModel()
	v.c.snapshots = nil
}
