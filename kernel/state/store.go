// Package state is the versioned, root hashed chain state. Block height h is
// stored as tree version h+1.
package state

import (
	"bytes"
	"sync"

	"github.com/cosmos/iavl"
	idb "github.com/cosmos/iavl/db"
	ics23 "github.com/cosmos/ics23/go"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/xuperchain/xabi/kernel/abi"
	"github.com/xuperchain/xabi/kernel/state/sandbox"
	"github.com/xuperchain/xabi/lib/logs"
	"github.com/xuperchain/xabi/lib/metrics"
)

const (
	defCacheSize     = 10000
	rootCacheSize    = 1024
	StorageTypeMem   = "memory"
	StorageTypeLocal = "single"
)

type Config struct {
	Path      string
	CacheSize int
	// memory or single
	StorageType string
}

type CommitOptions struct {
	CheckRoot    bool
	Readonly     bool
	ExpectedRoot []byte
}

// Store wraps an iavl mutable tree. The working tree never keeps writes
// between calls, so reads always see the latest committed version.
type Store struct {
	mu   sync.RWMutex
	db   idb.DB
	tree *iavl.MutableTree
	// string(root) => version
	roots *lru.Cache
	log   logs.Logger
}

func NewStore(cfg *Config, log logs.Logger) (*Store, error) {
	var db idb.DB
	if cfg.StorageType == StorageTypeMem {
		db = idb.NewMemDB()
	} else {
		ldb, err := idb.NewDB("state", "goleveldb", cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open state db %s", cfg.Path)
		}
		db = ldb
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defCacheSize
	}
	tree := iavl.NewMutableTree(db, cacheSize, false, iavl.NewNopLogger())
	if _, err := tree.Load(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "load state tree")
	}
	roots, _ := lru.New(rootCacheSize)

	s := &Store{
		db:    db,
		tree:  tree,
		roots: roots,
		log:   log,
	}
	if height, _, ok := s.Current(); ok {
		metrics.StateHeightGauge.Set(float64(height))
		log.Info("state loaded", "height", height, "version", tree.Version())
	}
	return s, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Current returns the latest committed height and root, ok is false for an empty store
func (s *Store) Current() (height uint32, root []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version := s.tree.Version()
	if version == 0 {
		return 0, s.tree.Hash(), false
	}
	return uint32(version - 1), s.tree.Hash(), true
}

// Root of the latest committed version, the empty tree hash when nothing is committed
func (s *Store) Root() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Hash()
}

// NewReadWriter opens a buffered view over the latest committed state
func (s *Store) NewReadWriter() *sandbox.View {
	return sandbox.NewView(s)
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(key)
}

func (s *Store) Range(start, end []byte, fn func(key, value []byte) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iter, err := s.tree.Iterator(start, end, true)
	if err != nil {
		return errors.Wrap(err, "state iterator")
	}
	defer iter.Close()
	for ; iter.Valid(); iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Commit applies the write set of view as block height. prevRoot, when set,
// must be the current committed root. With Readonly the resulting root is
// computed and the tree is left untouched.
func (s *Store) Commit(view *sandbox.View, height uint32, prevRoot []byte, opts CommitOptions) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(prevRoot) > 0 && !bytes.Equal(prevRoot, s.tree.Hash()) {
		return nil, abi.ErrRootMismatch.More("previous root %x, committed %x", prevRoot, s.tree.Hash())
	}
	version := int64(height) + 1
	latest := s.tree.Version()
	if latest == 0 {
		if version > 1 {
			s.tree.SetInitialVersion(uint64(version))
		}
	} else if version != latest+1 {
		return nil, errors.Errorf("commit height %d, committed height %d", height, latest-1)
	}

	for _, w := range view.WriteSet() {
		var err error
		if w.Deleted {
			_, _, err = s.tree.Remove(w.Key)
		} else {
			_, err = s.tree.Set(w.Key, w.Value)
		}
		if err != nil {
			s.tree.Rollback()
			return nil, errors.Wrapf(err, "apply key %x", w.Key)
		}
	}

	root := s.tree.WorkingHash()
	if opts.CheckRoot && !bytes.Equal(root, opts.ExpectedRoot) {
		s.tree.Rollback()
		return nil, abi.ErrRootMismatch.More("height %d expected %x, got %x", height, opts.ExpectedRoot, root)
	}
	if opts.Readonly {
		s.tree.Rollback()
		return root, nil
	}

	saved, savedVersion, err := s.tree.SaveVersion()
	if err != nil {
		s.tree.Rollback()
		return nil, errors.Wrapf(err, "save version %d", version)
	}
	s.roots.Add(string(saved), savedVersion)
	metrics.StateHeightGauge.Set(float64(height))
	s.log.Debug("state committed", "height", height, "root", saved)
	return saved, nil
}

// Revert drops the version committed at height, whose root must be root,
// and returns the root of the previous height. Only the latest height can
// be reverted. A non empty expectedRoot must equal the previous root, the
// store is left untouched otherwise.
func (s *Store) Revert(root []byte, height uint32, expectedRoot []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := int64(height) + 1
	latest := s.tree.Version()
	if latest != version {
		return nil, errors.Errorf("revert height %d, committed height %d", height, latest-1)
	}
	if !bytes.Equal(root, s.tree.Hash()) {
		return nil, abi.ErrRootMismatch.More("revert root %x, committed %x", root, s.tree.Hash())
	}
	if !s.tree.VersionExists(version - 1) {
		return nil, errors.Errorf("no state before height %d", height)
	}
	if len(expectedRoot) > 0 {
		prev, err := s.tree.GetImmutable(version - 1)
		if err != nil {
			return nil, errors.Wrapf(err, "load version %d", version-1)
		}
		if !bytes.Equal(prev.Hash(), expectedRoot) {
			return nil, abi.ErrRootMismatch.More("revert to %x, expected %x", prev.Hash(), expectedRoot)
		}
	}

	if err := s.tree.LoadVersionForOverwriting(version - 1); err != nil {
		return nil, errors.Wrapf(err, "load version %d", version-1)
	}
	s.roots.Remove(string(root))
	metrics.StateHeightGauge.Set(float64(height - 1))
	s.log.Info("state reverted", "height", height, "root", root)
	return s.tree.Hash(), nil
}

// Finalize prunes every version below height, the latest version is always kept
func (s *Store) Finalize(height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toVersion := int64(height)
	latest := s.tree.Version()
	if toVersion >= latest {
		toVersion = latest - 1
	}
	versions := s.tree.AvailableVersions()
	if toVersion <= 0 || len(versions) == 0 || toVersion < int64(versions[0]) {
		return nil
	}
	if err := s.tree.DeleteVersionsTo(toVersion); err != nil {
		return errors.Wrapf(err, "delete versions to %d", toVersion)
	}
	s.log.Debug("state finalized", "height", height, "pruned_to_version", toVersion)
	return nil
}

// Prove builds an ics23 proof of presence or absence for every key in the
// version whose root is root
func (s *Store) Prove(root []byte, keys [][]byte) (*abi.Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, err := s.versionOf(root)
	if err != nil {
		return nil, err
	}
	itree, err := s.tree.GetImmutable(version)
	if err != nil {
		return nil, errors.Wrapf(err, "get version %d", version)
	}

	proof := &abi.Proof{Queries: make([]*abi.QueryProof, 0, len(keys))}
	for _, key := range keys {
		exists, err := itree.Has(key)
		if err != nil {
			return nil, errors.Wrapf(err, "has key %x", key)
		}
		query := &abi.QueryProof{Key: key, Value: []byte{}, Exists: exists}

		var cp *ics23.CommitmentProof
		if exists {
			if query.Value, err = itree.Get(key); err != nil {
				return nil, errors.Wrapf(err, "get key %x", key)
			}
			cp, err = itree.GetMembershipProof(key)
		} else {
			cp, err = itree.GetNonMembershipProof(key)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "prove key %x", key)
		}
		if query.Proof, err = cp.Marshal(); err != nil {
			return nil, errors.Wrap(err, "marshal proof")
		}
		proof.Queries = append(proof.Queries, query)
	}
	return proof, nil
}

func (s *Store) versionOf(root []byte) (int64, error) {
	if v, ok := s.roots.Get(string(root)); ok {
		if version := v.(int64); s.tree.VersionExists(version) {
			return version, nil
		}
	}
	versions := s.tree.AvailableVersions()
	for i := len(versions) - 1; i >= 0; i-- {
		version := int64(versions[i])
		itree, err := s.tree.GetImmutable(version)
		if err != nil {
			continue
		}
		if bytes.Equal(itree.Hash(), root) {
			s.roots.Add(string(root), version)
			return version, nil
		}
	}
	return 0, abi.ErrRootMismatch.More("no state with root %x", root)
}

// VerifyProof checks a query proof against root
func VerifyProof(root []byte, query *abi.QueryProof) bool {
	cp := new(ics23.CommitmentProof)
	if err := cp.Unmarshal(query.Proof); err != nil {
		return false
	}
	if query.Exists {
		return ics23.VerifyMembership(ics23.IavlSpec, root, cp, query.Key, query.Value)
	}
	return ics23.VerifyNonMembership(ics23.IavlSpec, root, cp, query.Key)
}
