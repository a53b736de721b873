package idxcompact

// MergeCursor is the generic heap participant for merges that need no
// per-record key rewriting — spelling and synonym tables are keyed by
// word, not docid, so no offset shifting applies (spec.md §4.8). It
// exists mainly to prime the first record and report end-of-stream
// uniformly, mirroring the original's MergeCursor<T>, which in the
// collapsed Go model reduces to bookkeeping around a plain LiveCursor.
type MergeCursor struct {
	inner LiveCursor
	valid bool
}

// NewMergeCursor wraps inner and advances it once, so the cursor is
// either primed with a first record or already known to be empty.
func NewMergeCursor(inner LiveCursor) (*MergeCursor, error) {
	mc := &MergeCursor{inner: inner}
	ok, err := inner.Next()
	if err != nil {
		return nil, err
	}
	mc.valid = ok
	return mc, nil
}

// Valid reports whether the cursor currently sits on a record.
func (mc *MergeCursor) Valid() bool { return mc.valid }

// Advance moves to the next record, updating Valid().
func (mc *MergeCursor) Advance() error {
	ok, err := mc.inner.Next()
	if err != nil {
		return err
	}
	mc.valid = ok
	return nil
}

func (mc *MergeCursor) Key() []byte      { return mc.inner.Key() }
func (mc *MergeCursor) Tag() []byte      { return mc.inner.Tag() }
func (mc *MergeCursor) Compressed() bool { return mc.inner.Compressed() }
