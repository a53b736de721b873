package idxcompact

// Exported wire-format constructors for callers outside this package
// that need to populate a source table directly — a Source adapter
// seeding fixtures, or a benchmark — without duplicating the exact byte
// layout PostlistCursor.Next (postlist_cursor.go) and mergePostlists
// (merge_postlists.go) already decode/encode. These mirror the raw,
// per-source on-disk record shape, not the merged/normalised one.

// UserMetadataKey builds a user-metadata record key for name.
func UserMetadataKey(name []byte) []byte {
	key := append([]byte(nil), prefixUserMetadata...)
	return append(key, name...)
}

// ValueStatsKey builds a valuestats record key for value slot.
func ValueStatsKey(slot uint64) []byte {
	key := append([]byte(nil), prefixValueStats...)
	return appendUint(key, slot)
}

// ValueStatsTag encodes a valuestats tag; see encodeValuestats.
func ValueStatsTag(freq uint64, lbound, ubound []byte) []byte {
	return encodeValuestats(freq, lbound, ubound)
}

// ValueChunkKey builds a value-stream chunk record key for (slot, did).
func ValueChunkKey(slot, did uint64) []byte {
	return packValueChunkKey(slot, did)
}

// EncodePostingInitialChunk builds the raw (key, tag) for a single
// source's initial posting chunk for term, carrying that source's own
// tf/cf and first document id. lastChunk reports whether this source
// has no continuation chunks for term; payload is the chunk body that
// follows the continuation-flag byte.
func EncodePostingInitialChunk(term []byte, tf, cf, firstDid uint64, lastChunk bool, payload []byte) (key, tag []byte) {
	key = appendStringSort(nil, term)
	tag = appendUint(nil, tf)
	tag = appendUint(tag, cf)
	tag = appendUint(tag, firstDid-1)
	tag = append(tag, continuationByte(lastChunk))
	tag = append(tag, payload...)
	return key, tag
}

// EncodePostingContinuationChunk builds the raw (key, tag) for a
// non-initial posting chunk for term starting at firstDid.
func EncodePostingContinuationChunk(term []byte, firstDid uint64, lastChunk bool, payload []byte) (key, tag []byte) {
	key = appendStringSort(nil, term)
	key = appendUintSort(key, firstDid)
	tag = append([]byte{continuationByte(lastChunk)}, payload...)
	return key, tag
}

// EncodeDoclenInitialChunk is EncodePostingInitialChunk's doclen-chunk
// counterpart (empty term, fixed key prefix).
func EncodeDoclenInitialChunk(tf, cf, firstDid uint64, lastChunk bool, payload []byte) (key, tag []byte) {
	key = append([]byte(nil), prefixDocLenChunk...)
	tag = appendUint(nil, tf)
	tag = appendUint(tag, cf)
	tag = appendUint(tag, firstDid-1)
	tag = append(tag, continuationByte(lastChunk))
	tag = append(tag, payload...)
	return key, tag
}

// EncodeDoclenContinuationChunk is EncodePostingContinuationChunk's
// doclen-chunk counterpart.
func EncodeDoclenContinuationChunk(firstDid uint64, lastChunk bool, payload []byte) (key, tag []byte) {
	key = append([]byte(nil), prefixDocLenChunk...)
	key = appendUintSort(key, firstDid)
	tag = append([]byte{continuationByte(lastChunk)}, payload...)
	return key, tag
}

func continuationByte(lastChunk bool) byte {
	if lastChunk {
		return '1'
	}
	return '0'
}
