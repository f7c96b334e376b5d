package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

func makeDB(t *testing.T, storageType string) kvdb.Database {
	kvParam := &kvdb.KVParameter{
		DBPath:                filepath.Join(t.TempDir(), "leveldb"),
		KVEngineType:          kvdb.KVEngineTypeLDB,
		StorageType:           storageType,
		MemCacheSize:          128,
		FileHandlersCacheSize: 1024,
	}
	db, err := kvdb.CreateKVInstance(kvParam)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestLdbBasic(t *testing.T) {
	for _, st := range []string{kvdb.StorageTypeSingle, kvdb.StorageTypeMemory} {
		db := makeDB(t, st)

		require.NoError(t, db.Put([]byte("k1"), []byte("v1")))
		val, err := db.Get([]byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), val)

		has, err := db.Has([]byte("k2"))
		require.NoError(t, err)
		assert.False(t, has)

		_, err = db.Get([]byte("k2"))
		assert.Equal(t, kvdb.ErrNotFound, err)

		require.NoError(t, db.Delete([]byte("k1")))
		_, err = db.Get([]byte("k1"))
		assert.Equal(t, kvdb.ErrNotFound, err)
	}
}

func TestLdbBatchAndIterator(t *testing.T) {
	db := makeDB(t, kvdb.StorageTypeMemory)

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a/1"), []byte("1")))
	require.NoError(t, batch.Put([]byte("a/2"), []byte("22")))
	require.NoError(t, batch.Put([]byte("b/1"), []byte("3")))
	assert.Equal(t, 4, batch.ValueSize())
	require.NoError(t, batch.Write())

	iter := db.NewIteratorWithPrefix([]byte("a/"))
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	iter.Release()
	assert.Equal(t, []string{"a/1", "a/2"}, keys)

	iter = db.NewIteratorWithRange([]byte("a/2"), nil)
	keys = keys[:0]
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	assert.Equal(t, []string{"a/2", "b/1"}, keys)
}

func TestTable(t *testing.T) {
	db := makeDB(t, kvdb.StorageTypeMemory)
	tbl := kvdb.NewTable(db, "MS")

	require.NoError(t, tbl.Put([]byte("x"), []byte("1")))
	raw, err := db.Get([]byte("MSx"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), raw)

	batch := tbl.NewBatch()
	require.NoError(t, batch.Put([]byte("y"), []byte("2")))
	require.NoError(t, batch.Write())
	require.NoError(t, db.Put([]byte("other"), []byte("3")))

	iter := tbl.NewIteratorWithRange(nil, nil)
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	assert.Equal(t, []string{"x", "y"}, keys)
}
