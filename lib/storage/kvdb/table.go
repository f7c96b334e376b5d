package kvdb

// table is a prefixed view of a Database
type table struct {
	db     Database
	prefix string
}

// NewTable returns a Database object that prefixes all keys with a given string
func NewTable(db Database, prefix string) Database {
	return &table{
		db:     db,
		prefix: prefix,
	}
}

func (dt *table) key(key []byte) []byte {
	return append([]byte(dt.prefix), key...)
}

func (dt *table) Put(key []byte, value []byte) error {
	return dt.db.Put(dt.key(key), value)
}

func (dt *table) Has(key []byte) (bool, error) {
	return dt.db.Has(dt.key(key))
}

func (dt *table) Get(key []byte) ([]byte, error) {
	return dt.db.Get(dt.key(key))
}

func (dt *table) Delete(key []byte) error {
	return dt.db.Delete(dt.key(key))
}

// Close the underlying db is owned by the caller
func (dt *table) Close() {}

func (dt *table) NewIteratorWithRange(start []byte, limit []byte) Iterator {
	pStart := dt.key(start)
	var pLimit []byte
	if limit == nil {
		_, pLimit = BytesPrefix([]byte(dt.prefix))
	} else {
		pLimit = dt.key(limit)
	}
	return &tableIterator{
		iter:   dt.db.NewIteratorWithRange(pStart, pLimit),
		prefix: len(dt.prefix),
	}
}

func (dt *table) NewIteratorWithPrefix(prefix []byte) Iterator {
	return &tableIterator{
		iter:   dt.db.NewIteratorWithPrefix(dt.key(prefix)),
		prefix: len(dt.prefix),
	}
}

func (dt *table) NewBatch() Batch {
	return &tableBatch{dt.db.NewBatch(), dt.prefix}
}

type tableIterator struct {
	iter   Iterator
	prefix int
}

func (ti *tableIterator) Next() bool    { return ti.iter.Next() }
func (ti *tableIterator) Key() []byte   { return ti.iter.Key()[ti.prefix:] }
func (ti *tableIterator) Value() []byte { return ti.iter.Value() }
func (ti *tableIterator) Error() error  { return ti.iter.Error() }
func (ti *tableIterator) Release()      { ti.iter.Release() }

type tableBatch struct {
	batch  Batch
	prefix string
}

func (tb *tableBatch) Put(key, value []byte) error {
	return tb.batch.Put(append([]byte(tb.prefix), key...), value)
}

func (tb *tableBatch) Delete(key []byte) error {
	return tb.batch.Delete(append([]byte(tb.prefix), key...))
}

func (tb *tableBatch) Write() error {
	return tb.batch.Write()
}

func (tb *tableBatch) ValueSize() int {
	return tb.batch.ValueSize()
}

func (tb *tableBatch) Reset() {
	tb.batch.Reset()
}
