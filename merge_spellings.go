package idxcompact

import (
	"bytes"
	"container/heap"
)

// mergeSpellings runs the min-heap merge of spec.md §4.8 over the
// spelling table. Grounded 1:1 on merge_spellings in the original.
func mergeSpellings(out *SSTableWriter, cursors []*MergeCursor, comp Compressor) error {
	h := newMergeHeap(cursors)

	for h.Len() > 0 {
		e := popMergeHeap(h)
		key := append([]byte(nil), e.cur.Key()...)

		if h.Len() == 0 || bytes.Compare(h.top().cur.Key(), key) > 0 {
			if err := out.Add(key, e.cur.Tag(), e.cur.Compressed()); err != nil {
				return err
			}
			if err := h.advancePush(e); err != nil {
				return err
			}
			continue
		}

		group := []*mergeHeapEntry{e}
		for h.Len() > 0 && bytes.Equal(h.top().cur.Key(), key) {
			group = append(group, popMergeHeap(h))
		}

		var tag []byte
		if len(key) > 0 && key[0] == 'W' {
			var total uint64
			for _, m := range group {
				dec, err := decodeTag(comp, m.cur.Tag(), m.cur.Compressed())
				if err != nil {
					return err
				}
				freq, ok := unpackUintLast(dec)
				if !ok || freq == 0 {
					return wrapf(ErrDatabaseCorrupt, "bad spelling word freq")
				}
				total += freq
			}
			tag = appendUintLast(nil, total)
		} else {
			var iters []*wordIter
			for _, m := range group {
				dec, err := decodeTag(comp, m.cur.Tag(), m.cur.Compressed())
				if err != nil {
					return err
				}
				words, err := decodeWordSet(dec)
				if err != nil {
					return err
				}
				iters = append(iters, &wordIter{words: words})
			}
			tag = encodeWordSet(mergeWordIters(iters))
		}

		if err := out.Add(key, tag, false); err != nil {
			return err
		}
		for _, m := range group {
			if err := h.advancePush(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeTag(comp Compressor, tag []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return tag, nil
	}
	return comp.Decompress(nil, tag)
}

func (h *mergeHeap) top() *mergeHeapEntry { return (*h)[0] }

func popMergeHeap(h *mergeHeap) *mergeHeapEntry { return heap.Pop(h).(*mergeHeapEntry) }
