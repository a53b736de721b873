package idxcompact

// sstableCursor adapts an SSTableReader to the LiveCursor interface, so
// that an intermediate SSTable produced by one cascade round (spec.md
// §4.11) can be fed back into the next round exactly like a live source
// table. Grounded on the original's reuse of GlassTable's own cursor
// type for both live and merged-intermediate tables — the same trick,
// collapsed onto one Go interface.
type sstableCursor struct {
	r          *SSTableReader
	key, value []byte
	compressed bool
}

// newSSTableCursor wraps r as a LiveCursor.
func newSSTableCursor(r *SSTableReader) *sstableCursor {
	return &sstableCursor{r: r}
}

func (c *sstableCursor) Next() (bool, error) {
	key, value, compressed, ok, err := c.r.ReadItem()
	if err != nil || !ok {
		return false, err
	}
	c.key, c.value, c.compressed = key, value, compressed
	return true, nil
}

func (c *sstableCursor) Key() []byte        { return c.key }
func (c *sstableCursor) Tag() []byte        { return c.value }
func (c *sstableCursor) Compressed() bool   { return c.compressed }

// offsetCursor wraps a LiveCursor for a docid-keyed table (docdata,
// termlist) and rewrites the docid embedded in each key by a fixed
// offset, so that records from multiple sources land in disjoint key
// ranges after merge (spec.md §3 invariants, §4.10). Keys in these
// tables lead with the sort-preserving packed docid but may carry
// trailing bytes after it (termlist position-style suffixes), which are
// preserved unchanged.
type offsetCursor struct {
	inner  LiveCursor
	offset uint64
	key    []byte
}

func newOffsetCursor(inner LiveCursor, offset uint64) *offsetCursor {
	return &offsetCursor{inner: inner, offset: offset}
}

func (c *offsetCursor) Next() (bool, error) {
	ok, err := c.inner.Next()
	if err != nil || !ok {
		return false, err
	}
	if c.offset == 0 {
		c.key = c.inner.Key()
		return true, nil
	}
	key := c.inner.Key()
	did, n, valid := unpackUintSort(key)
	if !valid {
		return false, wrapf(ErrDatabaseCorrupt, "docid-keyed table: malformed key")
	}
	c.key = appendUintSort(nil, did+c.offset)
	c.key = append(c.key, key[n:]...)
	return true, nil
}

func (c *offsetCursor) Key() []byte      { return c.key }
func (c *offsetCursor) Tag() []byte      { return c.inner.Tag() }
func (c *offsetCursor) Compressed() bool { return c.inner.Compressed() }
