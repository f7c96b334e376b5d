package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/lib/logs"
)

func newTestStore(t *testing.T) *Store {
	log, err := logs.NewLogger("", "state")
	require.NoError(t, err)
	s, err := NewStore(&Config{StorageType: StorageTypeMem}, log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func commitKV(t *testing.T, s *Store, height uint32, kv map[string]string) []byte {
	view := s.NewReadWriter()
	for k, v := range kv {
		require.NoError(t, view.Set([]byte(k), []byte(v)))
	}
	root, err := s.Commit(view, height, nil, CommitOptions{})
	require.NoError(t, err)
	return root
}

func TestCommitAndRead(t *testing.T) {
	s := newTestStore(t)
	_, _, ok := s.Current()
	assert.False(t, ok)

	root := commitKV(t, s, 0, map[string]string{"a": "1", "b": "2", "c": "3"})
	height, cur, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, uint32(0), height)
	assert.Equal(t, root, cur)

	val, err := s.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
	val, err = s.Get([]byte("z"))
	require.NoError(t, err)
	assert.Nil(t, val)

	var keys []string
	err = s.Range([]byte("b"), nil, func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keys)

	view := s.NewReadWriter()
	require.NoError(t, view.Del([]byte("a")))
	root2, err := s.Commit(view, 1, root, CommitOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, root, root2)
	val, _ = s.Get([]byte("a"))
	assert.Nil(t, val)
}

func TestCommitChecks(t *testing.T) {
	s := newTestStore(t)
	root := commitKV(t, s, 0, map[string]string{"a": "1"})

	view := s.NewReadWriter()
	require.NoError(t, view.Set([]byte("a"), []byte("2")))
	_, err := s.Commit(view, 1, []byte("bad"), CommitOptions{})
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))

	_, err = s.Commit(view, 5, root, CommitOptions{})
	assert.Error(t, err)

	// readonly computes the root without saving
	dry, err := s.Commit(view, 1, root, CommitOptions{Readonly: true})
	require.NoError(t, err)
	assert.NotEqual(t, root, dry)
	assert.Equal(t, root, s.Root())

	_, err = s.Commit(view, 1, root, CommitOptions{CheckRoot: true, ExpectedRoot: []byte("other")})
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	assert.Equal(t, root, s.Root())

	saved, err := s.Commit(view, 1, root, CommitOptions{CheckRoot: true, ExpectedRoot: dry})
	require.NoError(t, err)
	assert.Equal(t, dry, saved)
}

func TestInitialHeight(t *testing.T) {
	s := newTestStore(t)
	commitKV(t, s, 10, map[string]string{"a": "1"})
	height, _, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, uint32(10), height)
	commitKV(t, s, 11, map[string]string{"a": "2"})
	height, _, _ = s.Current()
	assert.Equal(t, uint32(11), height)
}

func TestLocalStoreReload(t *testing.T) {
	log, err := logs.NewLogger("", "state")
	require.NoError(t, err)
	cfg := &Config{StorageType: StorageTypeLocal, Path: t.TempDir()}

	s, err := NewStore(cfg, log)
	require.NoError(t, err)
	root0 := commitKV(t, s, 0, map[string]string{"a": "1"})
	root1 := commitKV(t, s, 1, map[string]string{"b": "2"})
	require.NoError(t, s.Close())

	s, err = NewStore(cfg, log)
	require.NoError(t, err)
	defer s.Close()
	height, root, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), height)
	assert.Equal(t, root1, root)
	assert.NotEqual(t, root0, root)

	val, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	view := s.NewReadWriter()
	require.NoError(t, view.Set([]byte("c"), []byte("3")))
	_, err = s.Commit(view, 2, root1, CommitOptions{})
	require.NoError(t, err)
	val, _ = s.Get([]byte("c"))
	assert.Equal(t, []byte("3"), val)
}

func TestRevert(t *testing.T) {
	s := newTestStore(t)
	root0 := commitKV(t, s, 0, map[string]string{"a": "1"})
	root1 := commitKV(t, s, 1, map[string]string{"a": "2"})

	_, err := s.Revert(root0, 1, nil)
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	_, err = s.Revert(root1, 0, nil)
	assert.Error(t, err)

	// a wrong expected root leaves the committed height in place
	_, err = s.Revert(root1, 1, []byte("other"))
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	height, cur, _ := s.Current()
	assert.Equal(t, uint32(1), height)
	assert.Equal(t, root1, cur)

	prev, err := s.Revert(root1, 1, root0)
	require.NoError(t, err)
	assert.Equal(t, root0, prev)
	val, _ := s.Get([]byte("a"))
	assert.Equal(t, []byte("1"), val)

	// the first version has nothing to go back to
	_, err = s.Revert(root0, 0, nil)
	assert.Error(t, err)

	// height 1 can be committed again
	again := commitKV(t, s, 1, map[string]string{"a": "2"})
	assert.Equal(t, root1, again)
}

func TestFinalizeAndProve(t *testing.T) {
	s := newTestStore(t)
	root0 := commitKV(t, s, 0, map[string]string{"a": "1"})
	root1 := commitKV(t, s, 1, map[string]string{"a": "2", "b": "3"})
	root2 := commitKV(t, s, 2, map[string]string{"c": "4"})

	proof, err := s.Prove(root1, [][]byte{[]byte("a"), []byte("c")})
	require.NoError(t, err)
	require.Len(t, proof.Queries, 2)
	assert.True(t, proof.Queries[0].Exists)
	assert.Equal(t, []byte("2"), proof.Queries[0].Value)
	assert.False(t, proof.Queries[1].Exists)
	for _, q := range proof.Queries {
		assert.True(t, VerifyProof(root1, q))
		assert.False(t, VerifyProof(root2, q))
	}

	require.NoError(t, s.Finalize(2))
	_, err = s.Prove(root0, [][]byte{[]byte("a")})
	assert.True(t, errors.Is(err, abi.ErrRootMismatch))
	_, err = s.Prove(root2, [][]byte{[]byte("c")})
	assert.NoError(t, err)

	// the latest version survives any height
	require.NoError(t, s.Finalize(100))
	_, cur, _ := s.Current()
	assert.Equal(t, root2, cur)
}
