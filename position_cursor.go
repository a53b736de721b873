package idxcompact

// PositionCursor wraps a source's position-table cursor, shifting the
// docid embedded in each key by offset (spec.md §4.9). Tags are passed
// through verbatim — positions never collide across disjoint docid
// ranges, so no re-assembly is needed.
//
// Grounded on PositionCursor<T> in the original.
type PositionCursor struct {
	inner  LiveCursor
	offset uint64
	key    []byte
}

// NewPositionCursor wraps inner, shifting every docid it yields by
// offset.
func NewPositionCursor(inner LiveCursor, offset uint64) *PositionCursor {
	return &PositionCursor{inner: inner, offset: offset}
}

func (c *PositionCursor) Next() (bool, error) {
	ok, err := c.inner.Next()
	if err != nil || !ok {
		return false, err
	}
	rawKey := c.inner.Key()
	term, n, ok := unpackStringSort(rawKey)
	if !ok {
		return false, wrapf(ErrDatabaseCorrupt, "position: malformed term prefix")
	}
	did, n2, ok := unpackUintSort(rawKey[n:])
	if !ok || n+n2 != len(rawKey) {
		return false, wrapf(ErrDatabaseCorrupt, "position: malformed docid suffix")
	}

	key := appendStringSort(nil, term)
	key = appendUintSort(key, did+c.offset)
	c.key = key
	return true, nil
}

func (c *PositionCursor) Key() []byte      { return c.key }
func (c *PositionCursor) Tag() []byte      { return c.inner.Tag() }
func (c *PositionCursor) Compressed() bool { return c.inner.Compressed() }
