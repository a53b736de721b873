package idxcompact

import "bytes"

// mergeSynonyms runs the min-heap merge of spec.md §4.8 over the
// synonym table. Grounded 1:1 on merge_synonyms in the original.
func mergeSynonyms(out *SSTableWriter, cursors []*MergeCursor, comp Compressor) error {
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

		var iters []*wordIter
		for _, m := range group {
			dec, err := decodeTag(comp, m.cur.Tag(), m.cur.Compressed())
			if err != nil {
				return err
			}
			words, err := decodeSynonymSet(dec)
			if err != nil {
				return err
			}
			iters = append(iters, &wordIter{words: words})
		}
		tag := encodeSynonymSet(mergeWordIters(iters))

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
