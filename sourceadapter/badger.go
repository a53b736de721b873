package sourceadapter

import (
	"github.com/bsm/idxcompact"
	"github.com/dgraph-io/badger"
)

// BadgerSource adapts an open badger.DB to idxcompact.Source.
type BadgerSource struct {
	db       *badger.DB
	maxDocid uint64
}

// OpenBadgerSource opens (creating if necessary) a badger database at
// dir.
func OpenBadgerSource(dir string, maxDocid uint64) (*BadgerSource, error) {
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerSource{db: db, maxDocid: maxDocid}, nil
}

// Close closes the underlying database.
func (s *BadgerSource) Close() error { return s.db.Close() }

// MaxDocid implements idxcompact.Source.
func (s *BadgerSource) MaxDocid() uint64 { return s.maxDocid }

// SetMaxDocid overrides the cached max docid, e.g. after DetectMaxDocid.
func (s *BadgerSource) SetMaxDocid(did uint64) { s.maxDocid = did }

// Table implements idxcompact.Source.
func (s *BadgerSource) Table(kind idxcompact.TableKind) idxcompact.SourceTable {
	return &badgerTable{db: s.db, kind: kind}
}

// DetectMaxDocid scans the docdata table for its highest document id,
// for callers that don't already track it out of band.
func (s *BadgerSource) DetectMaxDocid() (uint64, error) {
	return detectMaxDocid(s.Table(idxcompact.TableDocdata))
}

// Put writes one record directly, for seeding test fixtures.
func (s *BadgerSource) Put(kind idxcompact.TableKind, key, tag []byte, compressed bool) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(prefixedKey(kind, key), encodeValue(tag, compressed))
	})
}

func prefixedKey(kind idxcompact.TableKind, key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = tableTag(kind)
	copy(out[1:], key)
	return out
}

type badgerTable struct {
	db   *badger.DB
	kind idxcompact.TableKind
}

func (t *badgerTable) Path() string { return "badger:" + t.kind.String() }

func (t *badgerTable) Exists() bool {
	found := false
	_ = t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{tableTag(t.kind)}
		it.Seek(prefix)
		found = it.ValidForPrefix(prefix)
		return nil
	})
	return found
}

func (t *badgerTable) Empty() bool { return !t.Exists() }

func (t *badgerTable) Cursor() (idxcompact.LiveCursor, error) {
	txn := t.db.NewTransaction(false)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte{tableTag(t.kind)}
	it.Seek(prefix)
	return &badgerCursor{txn: txn, it: it, prefix: prefix, started: false}, nil
}

// badgerCursor implements idxcompact.LiveCursor over one table's
// prefixed key range within a badger transaction.
type badgerCursor struct {
	txn     *badger.Txn
	it      *badger.Iterator
	prefix  []byte
	started bool
	key     []byte
	tag     []byte
	comp    bool
}

func (c *badgerCursor) Next() (bool, error) {
	if c.started {
		c.it.Next()
	}
	c.started = true
	if !c.it.ValidForPrefix(c.prefix) {
		c.it.Close()
		c.txn.Discard()
		return false, nil
	}
	item := c.it.Item()
	c.key = append(c.key[:0], item.Key()[1:]...)
	val, err := item.Value()
	if err != nil {
		return false, err
	}
	tag, compressed := decodeValue(val)
	c.tag = append(c.tag[:0], tag...)
	c.comp = compressed
	return true, nil
}

func (c *badgerCursor) Key() []byte      { return c.key }
func (c *badgerCursor) Tag() []byte      { return c.tag }
func (c *badgerCursor) Compressed() bool { return c.comp }
