package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/lib/storage/kvdb"
)

func openDB(t *testing.T, storageType string) kvdb.Database {
	db, err := kvdb.CreateKVInstance(&kvdb.KVParameter{
		DBPath:       filepath.Join(t.TempDir(), "badger"),
		KVEngineType: kvdb.KVEngineTypeBadger,
		StorageType:  storageType,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestBadgerBasic(t *testing.T) {
	for _, st := range []string{kvdb.StorageTypeSingle, kvdb.StorageTypeMemory} {
		db := openDB(t, st)

		require.NoError(t, db.Put([]byte("k"), []byte("v")))
		val, err := db.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), val)

		ok, err := db.Has([]byte("k"))
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, db.Delete([]byte("k")))
		_, err = db.Get([]byte("k"))
		assert.Equal(t, kvdb.ErrNotFound, err)
	}
}

func TestBadgerBatchIterator(t *testing.T) {
	db := openDB(t, kvdb.StorageTypeMemory)

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("p/b"), []byte("2")))
	require.NoError(t, batch.Put([]byte("p/a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("q/a"), []byte("3")))
	require.NoError(t, batch.Delete([]byte("p/b")))
	require.NoError(t, batch.Write())

	iter := db.NewIteratorWithPrefix([]byte("p/"))
	var got []string
	for iter.Next() {
		got = append(got, string(iter.Key())+"="+string(iter.Value()))
	}
	require.NoError(t, iter.Error())
	iter.Release()
	assert.Equal(t, []string{"p/a=1"}, got)

	iter = db.NewIteratorWithRange(nil, []byte("q/a"))
	got = got[:0]
	for iter.Next() {
		got = append(got, string(iter.Key()))
	}
	iter.Release()
	assert.Equal(t, []string{"p/a"}, got)
}
