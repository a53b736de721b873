package idxcompact

import (
	"fmt"
	"path/filepath"
)

// cascadeTmp is one temporary SSTable produced by a cascade round: its
// backing file stays open (rewound to read mode by Commit) so the next
// round can stream it straight back in as a cursor.
type cascadeTmp struct {
	path string
	fh   *BufferedFile
}

// buildPostlistCursors wraps each raw cursor with its docid offset.
func buildPostlistCursors(raw []LiveCursor, offsets []uint64) []*PostlistCursor {
	out := make([]*PostlistCursor, len(raw))
	for i, r := range raw {
		out[i] = NewPostlistCursor(r, offsets[i])
	}
	return out
}

// cascadeGroups partitions [0,n) into consecutive pairs, folding a
// trailing singleton into a final group of three (spec.md §4.11:
// "group consecutive sources into pairs (last group of 3 if an odd one
// remains)"). Grounded on the original's `j = i+2; if (j == n-1) ++j;`.
func cascadeGroups(n int) [][2]int {
	var groups [][2]int
	for i := 0; i < n; {
		j := i + 2
		if j == n-1 {
			j++
		}
		if j > n {
			j = n
		}
		groups = append(groups, [2]int{i, j})
		i = j
	}
	return groups
}

// multimergePostlists implements spec.md §4.11: bound postlist merge
// fan-in to ≤3 by pairwise-merging into temporary SSTables across
// rounds, then run the final merge into out. Grounded 1:1 on
// multimerge_postlists in the original.
func multimergePostlists(out *SSTableWriter, opts *Options, sourceCursors []LiveCursor, offsets []uint64, resolve MetadataResolver) error {
	if len(sourceCursors) <= 3 {
		return mergePostlists(out, buildPostlistCursors(sourceCursors, offsets), resolve)
	}

	cursors := sourceCursors
	curOffsets := offsets
	round := 0
	var consumed []*cascadeTmp

	for len(cursors) > 3 {
		tmps, err := runCascadeRound(opts, round, cursors, curOffsets, resolve)
		if err != nil {
			return err
		}
		// The previous round's temporaries have now been read in full.
		for _, t := range consumed {
			closeAndUnlink(opts, t)
		}
		consumed = tmps
		next := make([]LiveCursor, len(tmps))
		nextOffsets := make([]uint64, len(tmps))
		for i, t := range tmps {
			next[i] = newSSTableCursor(NewSSTableReader(t.fh))
		}
		cursors, curOffsets = next, nextOffsets
		round++
	}

	err := mergePostlists(out, buildPostlistCursors(cursors, curOffsets), resolve)
	for _, t := range consumed {
		closeAndUnlink(opts, t)
	}
	return err
}

// runCascadeRound merges cursors[g[0]:g[1]] into one temporary
// SSTable per group and returns the resulting temporaries, ready to be
// streamed back in as the next round's cursors.
func runCascadeRound(opts *Options, round int, cursors []LiveCursor, offsets []uint64, resolve MetadataResolver) ([]*cascadeTmp, error) {
	groups := cascadeGroups(len(cursors))
	tmps := make([]*cascadeTmp, 0, len(groups))

	for i, g := range groups {
		path := filepath.Join(opts.tmpDir(), fmt.Sprintf("tmp%d_%d.", round, i))
		fh, err := OpenBufferedFile(path, false)
		if err != nil {
			return nil, err
		}

		w := NewSSTableWriter(fh, &WriterOptions{BlockSize: 65536})
		groupCursors := buildPostlistCursors(cursors[g[0]:g[1]], offsets[g[0]:g[1]])
		if err := mergePostlists(w, groupCursors, resolve); err != nil {
			return nil, err
		}
		if err := w.FlushDB(); err != nil {
			return nil, err
		}
		root := &RootInfo{}
		if err := w.Commit(1, root); err != nil {
			return nil, err
		}

		tmps = append(tmps, &cascadeTmp{path: path, fh: fh})
	}
	return tmps, nil
}

func closeAndUnlink(opts *Options, t *cascadeTmp) {
	_ = t.fh.Close()
	opts.unlinkTmp(t.path)
}
