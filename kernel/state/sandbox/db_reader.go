package sandbox

import (
	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

// DBReader exposes a kvdb database as the backend of a View
type DBReader struct {
	db kvdb.Database
}

func NewDBReader(db kvdb.Database) *DBReader {
	return &DBReader{db: db}
}

func (r *DBReader) Get(key []byte) ([]byte, error) {
	value, err := r.db.Get(key)
	if err == kvdb.ErrNotFound {
		return nil, nil
	}
	return value, err
}

func (r *DBReader) Range(start, end []byte, fn func(key, value []byte) bool) error {
	iter := r.db.NewIteratorWithRange(start, end)
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	err := iter.Error()
	iter.Release()
	return err
}

// Persist writes a write set to db in one batch
func Persist(db kvdb.Database, writes []*Write) error {
	batch := db.NewBatch()
	for _, w := range writes {
		var err error
		if w.Deleted {
			err = batch.Delete(w.Key)
		} else {
			err = batch.Put(w.Key, w.Value)
		}
		if err != nil {
			return errors.Wrapf(err, "batch key %x", w.Key)
		}
	}
	return errors.Wrap(batch.Write(), "write batch")
}
