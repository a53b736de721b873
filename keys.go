package idxcompact

// Key namespace prefixes, per spec.md §3.
var (
	prefixUserMetadata = []byte{0x00, 0xc0}
	prefixValueStats    = []byte{0x00, 0xd0}
	prefixValueChunk    = []byte{0x00, 0xd8}
	prefixDocLenChunk   = []byte{0x00, 0xe0}
)

func hasPrefix(key, prefix []byte) bool {
	return len(key) > 1 && len(key) >= len(prefix) && key[0] == prefix[0] && key[1] == prefix[1]
}

func isUserMetadataKey(key []byte) bool { return hasPrefix(key, prefixUserMetadata) }
func isValueStatsKey(key []byte) bool   { return hasPrefix(key, prefixValueStats) }
func isValueChunkKey(key []byte) bool   { return hasPrefix(key, prefixValueChunk) }
func isDocLenChunkKey(key []byte) bool  { return hasPrefix(key, prefixDocLenChunk) }

// packValueChunkKey rebuilds a valuestream-chunk key for slot/did, per
// the per-source normalisation of spec.md §4.5.
func packValueChunkKey(slot uint64, did uint64) []byte {
	key := append([]byte(nil), prefixValueChunk...)
	key = appendUint(key, slot)
	key = appendUintSort(key, did)
	return key
}

// DecodeDocidKey decodes a docdata/termlist key (a bare sort-preserving
// packed docid) back to its integer value, for callers constructing
// Source implementations outside this package (see sourceadapter).
func DecodeDocidKey(key []byte) (uint64, bool) {
	did, n, ok := unpackUintSort(key)
	if !ok || n != len(key) {
		return 0, false
	}
	return did, true
}

// EncodeDocidKey is the inverse of DecodeDocidKey.
func EncodeDocidKey(did uint64) []byte {
	return appendUintSort(nil, did)
}

// packPostlistKey packs a posting-list key for (term, firstdid), per
// spec.md §3: term is length-prefixed sort-preserving, firstdid is
// sort-preserving packed. Used for non-initial chunk keys. Keeps the
// full appendStringSort terminator (both 0x00 bytes) so the key parses
// the same way whether PostlistCursor.Next reads it straight off a live
// source's raw wire format or re-reads it back out of an already
// written SSTable (unpackStringSort needs the complete two-byte
// terminator to find the end of the term).
func packPostlistKey(term []byte, firstdid uint64) []byte {
	key := appendStringSort(nil, term)
	key = appendUintSort(key, firstdid)
	return key
}

// unpackPostlistTerm extracts the term from the front of a posting key,
// returning the term and the number of bytes consumed by it (including
// the sort-preserving terminator).
func unpackPostlistTerm(key []byte) (term []byte, n int, ok bool) {
	return unpackStringSort(key)
}

// encodeValuestats encodes the valuestats tag: pack_uint(freq) ++
// pack_string(lbound) ++ ubound_raw, omitting the trailing ubound
// segment when ubound == lbound (spec.md §3).
func encodeValuestats(freq uint64, lbound, ubound []byte) []byte {
	out := appendUint(nil, freq)
	out = appendString(out, lbound)
	if string(lbound) != string(ubound) {
		out = append(out, ubound...)
	}
	return out
}

// decodeValuestats reverses encodeValuestats.
func decodeValuestats(tag []byte) (freq uint64, lbound, ubound []byte, err error) {
	freq, n, ok := unpackUint(tag)
	if !ok {
		return 0, nil, nil, wrapf(ErrDatabaseCorrupt, "valuestats freq")
	}
	tag = tag[n:]
	lbound, n, ok = unpackString(tag)
	if !ok {
		return 0, nil, nil, wrapf(ErrDatabaseCorrupt, "valuestats lbound")
	}
	tag = tag[n:]
	if len(tag) == 0 {
		ubound = lbound
	} else {
		ubound = tag
	}
	return freq, lbound, ubound, nil
}
