package sandbox

import (
	"bytes"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// MemModel is an ordered in-memory kv map keyed by []byte
type MemModel struct {
	tree *redblacktree.Tree
}

func NewMemModel() *MemModel {
	return &MemModel{
		tree: redblacktree.NewWith(treeCompare),
	}
}

func (m *MemModel) Get(key []byte) (*Entry, bool) {
	v, ok := m.tree.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

func (m *MemModel) Put(key []byte, value *Entry) {
	m.tree.Put(key, value)
}

func (m *MemModel) Remove(key []byte) {
	m.tree.Remove(key)
}

func (m *MemModel) Len() int {
	return m.tree.Size()
}

// Clone copies the map, entries are immutable and shared
func (m *MemModel) Clone() *MemModel {
	c := NewMemModel()
	it := m.tree.Iterator()
	for it.Next() {
		c.tree.Put(it.Key(), it.Value())
	}
	return c
}

// Range calls fn for every key in [start, end) in ascending order until fn
// returns false. A nil end means no upper bound.
func (m *MemModel) Range(start, end []byte, fn func(key []byte, value *Entry) bool) {
	var node *redblacktree.Node
	if start == nil {
		node = m.tree.Left()
	} else {
		var ok bool
		node, ok = m.tree.Ceiling(start)
		if !ok {
			return
		}
	}
	if node == nil {
		return
	}

	if !inRange(node.Key.([]byte), end) || !fn(node.Key.([]byte), node.Value.(*Entry)) {
		return
	}
	it := m.tree.IteratorAt(node)
	for it.Next() {
		key := it.Key().([]byte)
		if !inRange(key, end) || !fn(key, it.Value().(*Entry)) {
			return
		}
	}
}

func inRange(key, end []byte) bool {
	return end == nil || bytes.Compare(key, end) < 0
}

func treeCompare(a, b interface{}) int {
	return bytes.Compare(a.([]byte), b.([]byte))
}
