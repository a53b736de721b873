package idxcompact

import (
	"bytes"
	"container/heap"
)

// MetadataResolver resolves a user-metadata key collision across two or
// more sources (spec.md §4.7 phase 1, §6). When nil, the first source's
// tag wins.
type MetadataResolver func(key []byte, tags [][]byte) ([]byte, error)

// mergePostlists runs the four-phase postlist merge of spec.md §4.7
// over cursors (one per contributing source, already primed with their
// docid offset). Grounded 1:1 on merge_postlists in the original: a
// single priority-queue pass over the whole table, split into
// contiguous phases because the key namespaces sort in a fixed order
// (user metadata < valuestats < valuechunk < postings/doclen-chunks).
func mergePostlists(out *SSTableWriter, cursors []*PostlistCursor, resolve MetadataResolver) error {
	h, err := newPostlistHeap(cursors)
	if err != nil {
		return err
	}

	if err := mergeUserMetadata(out, h, resolve); err != nil {
		return err
	}
	if err := mergeValueStats(out, h); err != nil {
		return err
	}
	if err := mergeValueChunks(out, h); err != nil {
		return err
	}
	return mergePostingChunks(out, h)
}

func mergeUserMetadata(out *SSTableWriter, h *postlistHeap, resolve MetadataResolver) error {
	var lastKey []byte
	var tags [][]byte

	flush := func() error {
		if len(tags) == 0 {
			return nil
		}
		tag := tags[0]
		if len(tags) > 1 {
			if resolve != nil {
				resolved, err := resolve(lastKey, tags)
				if err != nil {
					return err
				}
				tag = resolved
			}
		}
		tags = tags[:0]
		return out.Add(lastKey, tag, false)
	}

	for h.Len() > 0 {
		e := (*h)[0]
		if e.cur.Kind() != postlistKindMeta {
			break
		}
		key := e.cur.Key()
		if lastKey == nil || !bytes.Equal(key, lastKey) {
			if err := flush(); err != nil {
				return err
			}
			lastKey = append([]byte(nil), key...)
		}
		tags = append(tags, append([]byte(nil), e.cur.Tag()...))

		heapTop := heapPopFront(h)
		if err := h.advancePush(heapTop); err != nil {
			return err
		}
	}
	return flush()
}

func mergeValueStats(out *SSTableWriter, h *postlistHeap) error {
	var lastKey []byte
	var freq uint64
	var lbound, ubound []byte

	flush := func() error {
		if freq == 0 {
			return nil
		}
		tag := encodeValuestats(freq, lbound, ubound)
		freq = 0
		return out.Add(lastKey, tag, false)
	}

	for h.Len() > 0 {
		e := (*h)[0]
		if e.cur.Kind() != postlistKindValuestats {
			break
		}
		key := e.cur.Key()
		if lastKey == nil || !bytes.Equal(key, lastKey) {
			if err := flush(); err != nil {
				return err
			}
			lastKey = append([]byte(nil), key...)
		}

		f, l, u, err := decodeValuestats(e.cur.Tag())
		if err != nil {
			return err
		}
		if freq == 0 {
			freq, lbound, ubound = f, l, u
		} else {
			freq += f
			if bytes.Compare(l, lbound) < 0 {
				lbound = l
			}
			if bytes.Compare(u, ubound) > 0 {
				ubound = u
			}
		}

		heapTop := heapPopFront(h)
		if err := h.advancePush(heapTop); err != nil {
			return err
		}
	}
	return flush()
}

func mergeValueChunks(out *SSTableWriter, h *postlistHeap) error {
	for h.Len() > 0 {
		e := (*h)[0]
		if e.cur.Kind() != postlistKindValuechunk {
			break
		}
		if err := out.Add(e.cur.Key(), e.cur.Tag(), e.cur.Compressed()); err != nil {
			return err
		}
		heapTop := heapPopFront(h)
		if err := h.advancePush(heapTop); err != nil {
			return err
		}
	}
	return nil
}

// postingChunk is one source's contribution to a term group, ordered by
// firstdid within the group (spec.md §4.7 phase 4).
type postingChunk struct {
	firstdid uint64
	tag      []byte
}

func mergePostingChunks(out *SSTableWriter, h *postlistHeap) error {
	var (
		haveGroup  bool
		groupTerm  []byte
		groupDocLen bool
		tf, cf     uint64
		chunks     []postingChunk
	)

	flush := func() error {
		if len(chunks) == 0 {
			return nil
		}
		firstTag := appendUint(nil, tf)
		firstTag = appendUint(firstTag, cf)
		firstTag = appendUint(firstTag, chunks[0].firstdid-1)
		body := append([]byte(nil), chunks[0].tag...)
		if len(chunks) == 1 {
			body[0] = '1'
		} else {
			body[0] = '0'
		}
		firstTag = append(firstTag, body...)

		var initialKey []byte
		if groupDocLen {
			initialKey = append([]byte(nil), prefixDocLenChunk...)
		} else {
			initialKey = appendStringSort(nil, groupTerm)
		}
		if err := out.Add(initialKey, firstTag, false); err != nil {
			return err
		}

		for i := 1; i < len(chunks); i++ {
			body := append([]byte(nil), chunks[i].tag...)
			if i == len(chunks)-1 {
				body[0] = '1'
			} else {
				body[0] = '0'
			}
			var key []byte
			if groupDocLen {
				key = append([]byte(nil), prefixDocLenChunk...)
				key = appendUintSort(key, chunks[i].firstdid)
			} else {
				key = packPostlistKey(groupTerm, chunks[i].firstdid)
			}
			if err := out.Add(key, body, false); err != nil {
				return err
			}
		}
		chunks = chunks[:0]
		return nil
	}

	for {
		var e *postlistHeapEntry
		if h.Len() > 0 {
			e = heapPopFront(h)
		}

		sameGroup := haveGroup && e != nil && groupDocLen == (e.cur.Kind() == postlistKindDoclenChunk) &&
			bytes.Equal(groupTerm, e.cur.Term())
		if e == nil || !sameGroup {
			if err := flush(); err != nil {
				return err
			}
			if e == nil {
				return nil
			}
			haveGroup = true
			groupTerm = append(groupTerm[:0], e.cur.Term()...)
			groupDocLen = e.cur.Kind() == postlistKindDoclenChunk
			tf, cf = 0, 0
		}

		if e.cur.IsInitial() {
			tf += e.cur.TF()
			cf += e.cur.CF()
		}
		chunks = append(chunks, postingChunk{firstdid: e.cur.FirstDid(), tag: append([]byte(nil), e.cur.Tag()...)})

		if err := h.advancePush(e); err != nil {
			return err
		}
	}
}

// heapPopFront is a small helper to make the sequential-phase code read
// like the original's pq.top()/pq.pop() pairing.
func heapPopFront(h *postlistHeap) *postlistHeapEntry {
	return heap.Pop(h).(*postlistHeapEntry)
}
