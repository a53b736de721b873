package idxcompact

import (
	"bytes"
	"container/heap"
)

// postlistHeapEntry is one live source's current posting record,
// tracked alongside its source index so callers can recover
// per-source offsets and priority on ties (spec.md §4.6: ties break on
// firstdid).
type postlistHeapEntry struct {
	cur *PostlistCursor
	src int
}

// postlistHeap is a min-heap over postlistHeapEntry ordered by
// (key, firstdid), grounded on the original's
// `priority_queue<PostlistCursor*, ..., PostlistCursorGt>`.
type postlistHeap []*postlistHeapEntry

func (h postlistHeap) Len() int { return len(h) }
func (h postlistHeap) Less(i, j int) bool {
	c := bytes.Compare(h[i].cur.Key(), h[j].cur.Key())
	if c != 0 {
		return c < 0
	}
	if h[i].cur.FirstDid() != h[j].cur.FirstDid() {
		return h[i].cur.FirstDid() < h[j].cur.FirstDid()
	}
	return h[i].src < h[j].src
}
func (h postlistHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *postlistHeap) Push(x interface{}) { *h = append(*h, x.(*postlistHeapEntry)) }
func (h *postlistHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// newPostlistHeap primes each cursor and returns a ready min-heap
// containing only the ones with a first record.
func newPostlistHeap(cursors []*PostlistCursor) (*postlistHeap, error) {
	h := &postlistHeap{}
	for i, c := range cursors {
		ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			*h = append(*h, &postlistHeapEntry{cur: c, src: i})
		}
	}
	heap.Init(h)
	return h, nil
}

// advancePush advances the entry's cursor and, if it yielded another
// record, pushes it back onto the heap (spec.md §4.6).
func (h *postlistHeap) advancePush(e *postlistHeapEntry) error {
	ok, err := e.cur.Next()
	if err != nil {
		return err
	}
	if ok {
		heap.Push(h, e)
	}
	return nil
}

// positionHeapEntry/positionHeap mirror postlistHeap for the position
// table, which has no secondary tie-break field (spec.md §4.9).
type positionHeapEntry struct {
	cur *PositionCursor
	src int
}

type positionHeap []*positionHeapEntry

func (h positionHeap) Len() int            { return len(h) }
func (h positionHeap) Less(i, j int) bool  { return bytes.Compare(h[i].cur.Key(), h[j].cur.Key()) < 0 }
func (h positionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *positionHeap) Push(x interface{}) { *h = append(*h, x.(*positionHeapEntry)) }
func (h *positionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newPositionHeap(cursors []*PositionCursor) (*positionHeap, error) {
	h := &positionHeap{}
	for i, c := range cursors {
		ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			*h = append(*h, &positionHeapEntry{cur: c, src: i})
		}
	}
	heap.Init(h)
	return h, nil
}

func (h *positionHeap) advancePush(e *positionHeapEntry) error {
	ok, err := e.cur.Next()
	if err != nil {
		return err
	}
	if ok {
		heap.Push(h, e)
	}
	return nil
}

// mergeHeapEntry/mergeHeap drive the top-level spelling/synonym merge
// (spec.md §4.8), ordered by raw key only — word-set re-assembly for
// same-key groups happens one level down, via wordHeap.
type mergeHeapEntry struct {
	cur *MergeCursor
	src int
}

type mergeHeap []*mergeHeapEntry

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return bytes.Compare(h[i].cur.Key(), h[j].cur.Key()) < 0 }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeHeapEntry)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newMergeHeap(cursors []*MergeCursor) *mergeHeap {
	h := &mergeHeap{}
	for i, c := range cursors {
		if c.Valid() {
			*h = append(*h, &mergeHeapEntry{cur: c, src: i})
		}
	}
	heap.Init(h)
	return h
}

func (h *mergeHeap) advancePush(e *mergeHeapEntry) error {
	if err := e.cur.Advance(); err != nil {
		return err
	}
	if e.cur.Valid() {
		heap.Push(h, e)
	}
	return nil
}

// wordIter walks one source's decoded, already-sorted word list for
// the slow path of merge_spellings/merge_synonyms (spec.md §4.8): "a
// secondary min-heap of per-source word iterators".
type wordIter struct {
	words [][]byte
	pos   int
}

func (w *wordIter) valid() bool    { return w.pos < len(w.words) }
func (w *wordIter) word() []byte   { return w.words[w.pos] }
func (w *wordIter) advance()       { w.pos++ }

type wordHeap []*wordIter

func (h wordHeap) Len() int            { return len(h) }
func (h wordHeap) Less(i, j int) bool  { return bytes.Compare(h[i].word(), h[j].word()) < 0 }
func (h wordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *wordHeap) Push(x interface{}) { *h = append(*h, x.(*wordIter)) }
func (h *wordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newWordHeap(iters []*wordIter) *wordHeap {
	h := &wordHeap{}
	for _, it := range iters {
		if it.valid() {
			*h = append(*h, it)
		}
	}
	heap.Init(h)
	return h
}
