package sourceadapter

import (
	"github.com/bsm/idxcompact"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// GoLevelDBSource adapts an open goleveldb database to idxcompact.Source.
type GoLevelDBSource struct {
	db       *leveldb.DB
	maxDocid uint64
}

// OpenGoLevelDBSource opens (creating if necessary) a goleveldb database
// at dir.
func OpenGoLevelDBSource(dir string, maxDocid uint64) (*GoLevelDBSource, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &GoLevelDBSource{db: db, maxDocid: maxDocid}, nil
}

// Close closes the underlying database.
func (s *GoLevelDBSource) Close() error { return s.db.Close() }

// MaxDocid implements idxcompact.Source.
func (s *GoLevelDBSource) MaxDocid() uint64 { return s.maxDocid }

// SetMaxDocid overrides the cached max docid, e.g. after DetectMaxDocid.
func (s *GoLevelDBSource) SetMaxDocid(did uint64) { s.maxDocid = did }

// Table implements idxcompact.Source.
func (s *GoLevelDBSource) Table(kind idxcompact.TableKind) idxcompact.SourceTable {
	return &goLevelDBTable{db: s.db, kind: kind}
}

// DetectMaxDocid scans the docdata table for its highest document id,
// for callers that don't already track it out of band.
func (s *GoLevelDBSource) DetectMaxDocid() (uint64, error) {
	return detectMaxDocid(s.Table(idxcompact.TableDocdata))
}

// Put writes one record directly, for seeding test fixtures.
func (s *GoLevelDBSource) Put(kind idxcompact.TableKind, key, tag []byte, compressed bool) error {
	return s.db.Put(prefixedKey(kind, key), encodeValue(tag, compressed), nil)
}

type goLevelDBTable struct {
	db   *leveldb.DB
	kind idxcompact.TableKind
}

func (t *goLevelDBTable) Path() string { return "goleveldb:" + t.kind.String() }

func (t *goLevelDBTable) Exists() bool {
	prefix := []byte{tableTag(t.kind)}
	it := t.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	return it.Next()
}

func (t *goLevelDBTable) Empty() bool { return !t.Exists() }

func (t *goLevelDBTable) Cursor() (idxcompact.LiveCursor, error) {
	prefix := []byte{tableTag(t.kind)}
	it := t.db.NewIterator(util.BytesPrefix(prefix), nil)
	return &goLevelDBCursor{it: it}, nil
}

// goLevelDBCursor implements idxcompact.LiveCursor over one table's
// prefixed key range within a goleveldb iterator.
type goLevelDBCursor struct {
	it   iterator
	key  []byte
	tag  []byte
	comp bool
}

// iterator is the subset of goleveldb's Iterator this cursor drives.
type iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

func (c *goLevelDBCursor) Next() (bool, error) {
	if !c.it.Next() {
		c.it.Release()
		return false, nil
	}
	c.key = append(c.key[:0], c.it.Key()[1:]...)
	tag, compressed := decodeValue(c.it.Value())
	c.tag = append(c.tag[:0], tag...)
	c.comp = compressed
	return true, nil
}

func (c *goLevelDBCursor) Key() []byte      { return c.key }
func (c *goLevelDBCursor) Tag() []byte      { return c.tag }
func (c *goLevelDBCursor) Compressed() bool { return c.comp }
