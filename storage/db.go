package storage

// DB is the key-value substrate every backend implements. Reads see every
// completed Set/Delete; Batch.Write applies all of its operations atomically.
type DB interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	NewIterator(prefix []byte) Iterator
	NewBatch() Batch
	Close() error
}

// Iterator walks key-value pairs matching a prefix in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Batch buffers writes until Write.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write() error
	Reset()
}

// batchOp is a buffered batch write; a nil value means delete.
type batchOp struct {
	key, value []byte
}

// KV is one key-value pair.
type KV struct {
	Key, Value []byte
}

// NewSliceIterator returns an Iterator over pairs that are already loaded
// and sorted. Backends without a native cursor use it.
func NewSliceIterator(pairs []KV) Iterator {
	return &sliceIter{pairs: pairs, idx: -1}
}

type sliceIter struct {
	pairs []KV
	idx   int
	err   error
}

func (it *sliceIter) Next() bool    { it.idx++; return it.idx < len(it.pairs) }
func (it *sliceIter) Key() []byte   { return it.pairs[it.idx].Key }
func (it *sliceIter) Value() []byte { return it.pairs[it.idx].Value }
func (it *sliceIter) Release()      {}
func (it *sliceIter) Error() error  { return it.err }

// errIterator is returned when a backend fails to start a scan.
func errIterator(err error) Iterator {
	return &sliceIter{idx: -1, err: err}
}
