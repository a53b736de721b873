package idxcompact

// mergeDocidKeyed implements spec.md §4.10 for docdata and termlist:
// sources are processed sequentially, never heap-merged, because each
// source's docid range is disjoint and already ordered. Grounded on
// merge_docid_keyed in the original.
func mergeDocidKeyed(out *SSTableWriter, cursors []LiveCursor, offsets []uint64) error {
	for i, cur := range cursors {
		oc := newOffsetCursor(cur, offsets[i])
		for {
			ok, err := oc.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if err := out.Add(oc.Key(), oc.Tag(), oc.Compressed()); err != nil {
				return err
			}
		}
	}
	return nil
}
