package idxcompact

import "container/heap"

// mergePositions runs the min-heap merge of spec.md §4.9 over the
// position table. Tags never collide across sources (disjoint docid
// ranges), so every record is copied through unchanged once its key
// has been normalised by PositionCursor.
func mergePositions(out *SSTableWriter, cursors []*PositionCursor) error {
	h, err := newPositionHeap(cursors)
	if err != nil {
		return err
	}
	for h.Len() > 0 {
		e := heapPopPosition(h)
		if err := out.Add(e.cur.Key(), e.cur.Tag(), e.cur.Compressed()); err != nil {
			return err
		}
		if err := h.advancePush(e); err != nil {
			return err
		}
	}
	return nil
}

func heapPopPosition(h *positionHeap) *positionHeapEntry {
	return heap.Pop(h).(*positionHeapEntry)
}
