package idxcompact

// postlistKeyKind classifies a normalised postlist-table key, per
// spec.md §3/§4.5.
type postlistKeyKind int

const (
	postlistKindMeta postlistKeyKind = iota
	postlistKindValuestats
	postlistKindValuechunk
	postlistKindDoclenChunk
	postlistKindPosting
)

// PostlistCursor wraps a source's live or intermediate postlist cursor
// and performs the per-source normalisation of spec.md §4.5: value
// chunk keys get their embedded docid shifted by offset; posting chunk
// keys (including doclen-chunks) are rewritten into non-initial form,
// with the initial chunk's (tf, cf, firstdid) header unpacked out of
// the tag and exposed as fields instead. User metadata and valuestats
// keys pass through unchanged, since they carry no docid.
//
// Grounded on PostlistCursor<T> in the original (both its GlassTable&
// and SSTable& specialisations collapse onto this one type,
// parametrised over the LiveCursor interface).
type PostlistCursor struct {
	inner  LiveCursor
	offset uint64

	key        []byte
	tag        []byte
	compressed bool
	kind       postlistKeyKind
	term       []byte
	firstDid   uint64
	isInitial  bool
	tf, cf     uint64
}

// NewPostlistCursor wraps inner, shifting every docid it yields by
// offset.
func NewPostlistCursor(inner LiveCursor, offset uint64) *PostlistCursor {
	return &PostlistCursor{inner: inner, offset: offset}
}

// Next advances to the next normalised record.
func (c *PostlistCursor) Next() (bool, error) {
	ok, err := c.inner.Next()
	if err != nil || !ok {
		return false, err
	}
	rawKey := c.inner.Key()
	rawTag := c.inner.Tag()
	c.compressed = c.inner.Compressed()
	c.isInitial = false
	c.tf, c.cf = 0, 0

	switch {
	case isUserMetadataKey(rawKey):
		c.kind = postlistKindMeta
		c.key, c.tag = rawKey, rawTag
		return true, nil

	case isValueStatsKey(rawKey):
		c.kind = postlistKindValuestats
		c.key, c.tag = rawKey, rawTag
		return true, nil

	case isValueChunkKey(rawKey):
		c.kind = postlistKindValuechunk
		slot, n, ok := unpackUint(rawKey[2:])
		if !ok {
			return false, wrapf(ErrDatabaseCorrupt, "postlist: malformed valuechunk key")
		}
		did, n2, ok := unpackUintSort(rawKey[2+n:])
		if !ok || 2+n+n2 != len(rawKey) {
			return false, wrapf(ErrDatabaseCorrupt, "postlist: malformed valuechunk did")
		}
		c.key = packValueChunkKey(slot, did+c.offset)
		c.tag = rawTag
		return true, nil

	case isDocLenChunkKey(rawKey):
		c.kind = postlistKindDoclenChunk
		c.term = c.term[:0]
		return true, c.normalizePosting(rawKey[2:], rawTag, prefixDocLenChunk)

	default:
		c.kind = postlistKindPosting
		term, n, ok := unpackStringSort(rawKey)
		if !ok {
			return false, wrapf(ErrDatabaseCorrupt, "postlist: malformed term prefix")
		}
		c.term = append(c.term[:0], term...)
		return true, c.normalizePosting(rawKey[n:], rawTag, nil)
	}
}

// normalizePosting implements the shared initial/non-initial handling
// of spec.md §4.5 for both plain posting keys and doclen-chunk keys,
// which differ only in their fixed prefix.
func (c *PostlistCursor) normalizePosting(suffix, tag []byte, fixedPrefix []byte) error {
	if len(suffix) == 0 {
		// Initial chunk: unpack (tf, cf, firstdid-1) from the tag head.
		tf, n1, ok := unpackUint(tag)
		if !ok {
			return wrapf(ErrDatabaseCorrupt, "postlist: initial chunk tf")
		}
		cf, n2, ok := unpackUint(tag[n1:])
		if !ok {
			return wrapf(ErrDatabaseCorrupt, "postlist: initial chunk cf")
		}
		firstDidMinus1, n3, ok := unpackUint(tag[n1+n2:])
		if !ok {
			return wrapf(ErrDatabaseCorrupt, "postlist: initial chunk firstdid")
		}
		c.tf, c.cf = tf, cf
		c.firstDid = firstDidMinus1 + 1 + c.offset
		c.isInitial = true
		c.tag = tag[n1+n2+n3:]
	} else {
		did, n, ok := unpackUintSort(suffix)
		if !ok || n != len(suffix) {
			return wrapf(ErrDatabaseCorrupt, "postlist: non-initial chunk firstdid")
		}
		c.firstDid = did + c.offset
		c.tag = tag
	}

	if fixedPrefix != nil {
		key := append([]byte(nil), fixedPrefix...)
		c.key = appendUintSort(key, c.firstDid)
	} else {
		c.key = packPostlistKey(c.term, c.firstDid)
	}
	return nil
}

// Key returns the normalised (non-initial-form) key for the current
// record.
func (c *PostlistCursor) Key() []byte { return c.key }

// Tag returns the chunk body (tf/cf/firstdid header already stripped
// for posting records) or the raw tag for non-posting records.
func (c *PostlistCursor) Tag() []byte { return c.tag }

// Compressed reports whether Tag() is compressed.
func (c *PostlistCursor) Compressed() bool { return c.compressed }

// Kind classifies the current record.
func (c *PostlistCursor) Kind() postlistKeyKind { return c.kind }

// Term returns the current posting term (empty for doclen-chunk
// records, meaningless for non-posting records).
func (c *PostlistCursor) Term() []byte { return c.term }

// FirstDid returns the current posting chunk's shifted first doc id.
func (c *PostlistCursor) FirstDid() uint64 { return c.firstDid }

// IsInitial reports whether the current record was this source's
// initial chunk for its term (before normalisation).
func (c *PostlistCursor) IsInitial() bool { return c.isInitial }

// TF returns the source's term frequency for this term; valid only
// when IsInitial().
func (c *PostlistCursor) TF() uint64 { return c.tf }

// CF returns the source's collection frequency for this term; valid
// only when IsInitial().
func (c *PostlistCursor) CF() uint64 { return c.cf }
