package idxcompact

import "container/heap"

// Prefix-compressed and byte-length-prefixed sorted word sets, the two
// tag encodings merge_spellings/merge_synonyms operate on (spec.md §3,
// §4.8). Grounded on the original's PrefixCompressedStringItor/Writer
// and ByteLengthPrefixedStringItor, whose own bodies (prefix_compressed_strings.h)
// were not part of the retrieved source; the wire shapes below are
// re-derived from spec.md §3's description and from these call sites,
// reusing the same reuse/suffix-length convention as SSTable keys
// (sstable_writer.go, sparseindex.go) for the prefix-compressed case.

// synonymMagicXOR is the fixed byte every synonym word-length prefix is
// XORed with (spec.md §3, "each length is XORed with a fixed magic
// byte"); the original's own constant (MAGIC_XOR_VALUE) was not among
// the retrieved source files, so a stable value is fixed here.
const synonymMagicXOR = 0x2a

// decodeWordSet decodes a prefix-compressed sorted word list tag into
// its constituent words, in order.
func decodeWordSet(tag []byte) ([][]byte, error) {
	var words [][]byte
	var last []byte
	for len(tag) > 0 {
		if len(tag) < 2 {
			return nil, wrapf(ErrDatabaseCorrupt, "word set: truncated header")
		}
		reuse, suflen := int(tag[0]), int(tag[1])
		tag = tag[2:]
		if reuse > len(last) || suflen > len(tag) {
			return nil, wrapf(ErrDatabaseCorrupt, "word set: bad lengths")
		}
		word := make([]byte, reuse+suflen)
		copy(word, last[:reuse])
		copy(word[reuse:], tag[:suflen])
		tag = tag[suflen:]
		words = append(words, word)
		last = word
	}
	return words, nil
}

// encodeWordSet encodes a sorted, duplicate-free word list using the
// same prefix-compression convention.
func encodeWordSet(words [][]byte) []byte {
	var tag []byte
	var last []byte
	for _, w := range words {
		reuse := commonPrefixLen(last, w)
		tag = append(tag, byte(reuse), byte(len(w)-reuse))
		tag = append(tag, w[reuse:]...)
		last = w
	}
	return tag
}

// decodeSynonymSet decodes a byte-length-XOR-prefixed sorted word list.
func decodeSynonymSet(tag []byte) ([][]byte, error) {
	var words [][]byte
	for len(tag) > 0 {
		l := int(tag[0] ^ synonymMagicXOR)
		tag = tag[1:]
		if l > len(tag) {
			return nil, wrapf(ErrDatabaseCorrupt, "synonym set: truncated word")
		}
		words = append(words, tag[:l])
		tag = tag[l:]
	}
	return words, nil
}

// encodeSynonymSet encodes a sorted, duplicate-free word list using the
// byte-length-XOR convention.
func encodeSynonymSet(words [][]byte) []byte {
	var tag []byte
	for _, w := range words {
		tag = append(tag, byte(len(w))^synonymMagicXOR)
		tag = append(tag, w...)
	}
	return tag
}

// mergeWordIters runs the secondary min-heap merge of spec.md §4.8's
// slow path: union of words across sources, duplicates collapsed,
// lexicographic order preserved.
func mergeWordIters(iters []*wordIter) [][]byte {
	h := newWordHeap(iters)
	var out [][]byte
	var last []byte
	first := true
	for h.Len() > 0 {
		it := heap.Pop(h).(*wordIter)
		word := it.word()
		if first || string(word) != string(last) {
			out = append(out, word)
			last = word
			first = false
		}
		it.advance()
		if it.valid() {
			heap.Push(h, it)
		}
	}
	return out
}
