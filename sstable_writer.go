package idxcompact

import (
	"bytes"
)

// WriterOptions configures an SSTableWriter, following the teacher's
// WriterOptions.norm() normalization pattern.
type WriterOptions struct {
	// BlockSize is advisory only for this format (the original notes it
	// is "not really meaningful" for SSTable output). Commit does not
	// consult it: RootInfo.Blocksize is always recorded as 2048.
	// Default: 2048.
	BlockSize int

	// Compressor is consulted only by callers that choose to pre-compress
	// a value before calling Add; the writer itself never compresses
	// (spec.md §9 Open Questions).
	Compressor Compressor

	// FullCompaction and MaxItemSize mirror SSTable::set_full_compaction
	// and set_max_item_size in the original; neither currently changes
	// writer behaviour (the original's own implementations are no-ops),
	// but they are accepted and recorded for forward-compatibility and
	// for RootInfo-adjacent reporting.
	FullCompaction bool
	MaxItemSize    int

	// EnableFilter builds a bloom filter over every added key and writes
	// it as a trailer after the sparse index (filter.go), supplementary
	// to the core format.
	EnableFilter bool
	// FilterEntries sizes the filter when the first key is added; 0
	// sizes it for defaultFilterEntries (filter.go).
	FilterEntries uint64

	// EnableChecksum appends a running blake2b-256 digest of every byte
	// written (checksum.go) as the table's final trailer.
	EnableChecksum bool
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}
	if oo.BlockSize <= 0 {
		oo.BlockSize = 2048
	}
	if oo.Compressor == nil {
		oo.Compressor = DefaultCompressor
	}
	return &oo
}

// SSTableWriter is an append-only sorted-string table writer: keys must
// be added in strictly increasing order (spec.md §4.3).
type SSTableWriter struct {
	fh       *BufferedFile
	opts     *WriterOptions
	index    SparseIndex
	lastKey  []byte
	numEntries uint64
	readOnly bool
	root     int64
	hasRoot  bool

	filter       *KeyFilter
	filterOffset int64

	checksum *Checksum
}

func (w *SSTableWriter) writeByte(b byte) error {
	if w.checksum != nil {
		w.checksum.Write([]byte{b})
	}
	return w.fh.WriteByte(b)
}

func (w *SSTableWriter) write(p []byte) error {
	if w.checksum != nil {
		w.checksum.Write(p)
	}
	return w.fh.Write(p)
}

// NewSSTableWriter wraps fh (already open in write mode) as an
// SSTableWriter.
func NewSSTableWriter(fh *BufferedFile, opts *WriterOptions) *SSTableWriter {
	w := &SSTableWriter{fh: fh, opts: opts.norm(), root: -1}
	if w.opts.EnableChecksum {
		w.checksum = NewChecksum()
	}
	return w
}

// SetFullCompaction mirrors SSTable::set_full_compaction in the
// original.
func (w *SSTableWriter) SetFullCompaction(full bool) { w.opts.FullCompaction = full }

// SetMaxItemSize mirrors SSTable::set_max_item_size in the original.
func (w *SSTableWriter) SetMaxItemSize(n int) { w.opts.MaxItemSize = n }

// Add appends (key, value) to the table. compressed indicates whether
// value is already compressed (the writer never compresses itself).
func (w *SSTableWriter) Add(key, value []byte, compressed bool) error {
	if w.readOnly {
		return wrapf(ErrInvalidOperation, "add() on read-only SSTable")
	}
	if len(key) == 0 || len(key) > 255 {
		return wrapf(ErrInvalidArgument, "invalid key size: %d", len(key))
	}
	if bytes.Compare(key, w.lastKey) <= 0 && w.lastKey != nil {
		return wrapf(ErrInvalidOperation, "new key <= previous key")
	}

	if w.opts.EnableFilter {
		if w.filter == nil {
			w.filter = NewKeyFilter(w.opts.FilterEntries)
		}
		w.filter.Add(key)
	}

	if len(w.lastKey) > 0 {
		reuse := commonPrefixLen(w.lastKey, key)
		if err := w.writeByte(byte(reuse)); err != nil {
			return err
		}
		if err := w.writeByte(byte(len(key) - reuse)); err != nil {
			return err
		}
		if err := w.write(key[reuse:]); err != nil {
			return err
		}
	} else {
		if err := w.writeByte(byte(len(key))); err != nil {
			return err
		}
		if err := w.write(key); err != nil {
			return err
		}
	}
	w.numEntries++

	pos, err := w.fh.Position()
	if err != nil {
		return err
	}
	w.index.MaybeAddEntry(key, pos)

	valSizeEnc := uint64(len(value)) << 1
	if compressed {
		valSizeEnc |= 1
	}
	valLen := appendUint(nil, valSizeEnc)
	if err := w.write(valLen); err != nil {
		return err
	}
	if err := w.write(value); err != nil {
		return err
	}

	w.lastKey = append(w.lastKey[:0], key...)
	return nil
}

// FlushDB writes the sparse index, then the optional key filter and
// checksum trailers, and remembers their start offsets.
func (w *SSTableWriter) FlushDB() error {
	root, err := w.index.Write(w.fh)
	if err != nil {
		return err
	}
	w.root = root
	w.hasRoot = true
	if w.checksum != nil {
		w.checksum.Write(w.index.data)
	}

	if w.filter != nil {
		off, err := w.fh.Position()
		if err != nil {
			return err
		}
		if err := w.write(appendString(nil, w.filter.Bytes())); err != nil {
			return err
		}
		w.filterOffset = off
	}

	if w.checksum != nil {
		if err := w.fh.Write(appendChecksumTrailer(nil, w.checksum.Sum())); err != nil {
			return err
		}
	}
	return w.fh.Flush()
}

// Commit finalises the table, filling in root, and switches the table to
// read-only mode, rewinding it so it can be re-read for a follow-on
// merge pass (spec.md §4.3).
func (w *SSTableWriter) Commit(revision uint32, root *RootInfo) error {
	if !w.hasRoot {
		return wrapf(ErrInvalidOperation, "root not set")
	}
	root.Level = 1 // level hook: single-level sparse index only, see DESIGN.md
	root.NumEntries = w.numEntries
	root.RootIsFake = false
	root.Sequential = true
	root.Root = w.root
	root.Blocksize = 2048
	root.FilterOffset = w.filterOffset

	w.readOnly = true
	if err := w.fh.Rewind(); err != nil {
		return err
	}
	w.lastKey = nil
	return nil
}

// Sync requests a durability barrier on the underlying file.
func (w *SSTableWriter) Sync() error { return w.fh.Sync() }

// Empty reports whether the table currently holds no data.
func (w *SSTableWriter) Empty() (bool, error) { return w.fh.Empty() }

// NumEntries returns the number of records written so far.
func (w *SSTableWriter) NumEntries() uint64 { return w.numEntries }
