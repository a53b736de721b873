package idxcompact

import (
	"io"
	"net"
	"os"

	"github.com/pkg/errors"
)

const bufferedFileSize = 4096

// BufferedFile is a sequential, 4KiB-buffered byte stream over a file
// descriptor. A BufferedFile is either in read mode or write mode, never
// both at once; rewind() switches a written file back to read mode for a
// follow-on pass (used when an SSTable is written then re-opened as an
// input to the next merge phase, e.g. a cascaded postlist round).
type BufferedFile struct {
	f        *os.File
	readOnly bool

	buf    [bufferedFileSize]byte
	bufEnd int // bytes buffered: unread bytes in read mode, unflushed bytes in write mode

	// filePos is, in read mode, the index in buf of the next unread
	// byte. Position() does not use it: it asks the file for its offset
	// and adjusts by bufEnd.
	filePos int64
}

// OpenBufferedFile opens path for buffered access. readOnly selects the
// mode; the two are mutually exclusive for the lifetime of the handle.
func OpenBufferedFile(path string, readOnly bool) (*BufferedFile, error) {
	var f *os.File
	var err error
	if readOnly {
		f, err = os.Open(path)
	} else {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	}
	if err != nil {
		kind := ErrDatabaseOpen
		if !readOnly {
			kind = ErrDatabaseCreate
		}
		return nil, wrapf(kind, "open %q", path)
	}
	return &BufferedFile{f: f, readOnly: readOnly}, nil
}

// NewBufferedFile wraps an already-open file in write mode, starting at
// its current offset.
func NewBufferedFile(f *os.File) *BufferedFile {
	return &BufferedFile{f: f, readOnly: false}
}

// Position returns the logical byte offset of the next byte to be read
// (read mode) or written (write mode).
func (bf *BufferedFile) Position() (int64, error) {
	cur, err := bf.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, wrapf(ErrDatabaseError, "seek")
	}
	if bf.readOnly {
		return cur - int64(bf.bufEnd), nil
	}
	return cur + int64(bf.bufEnd), nil
}

// WriteByte appends a single byte, flushing the buffer first if full.
func (bf *BufferedFile) WriteByte(b byte) error {
	if bf.bufEnd == bufferedFileSize {
		if err := bf.Flush(); err != nil {
			return err
		}
	}
	bf.buf[bf.bufEnd] = b
	bf.bufEnd++
	return nil
}

// Write appends p, flushing as necessary. When p doesn't fit in the
// remaining buffer space, it is written directly alongside the buffered
// tail via a single vectored write so p is never copied into buf first.
func (bf *BufferedFile) Write(p []byte) error {
	if bf.bufEnd+len(p) <= bufferedFileSize {
		copy(bf.buf[bf.bufEnd:], p)
		bf.bufEnd += len(p)
		return nil
	}

	if err := bf.writevRetry(bf.buf[:bf.bufEnd], p); err != nil {
		return err
	}
	bf.bufEnd = 0
	return nil
}

// writevRetry issues a two-buffer vectored write (net.Buffers uses
// writev(2) under the hood on platforms that support it), retrying until
// both slices are fully accepted (spec.md §9: short writes must be
// retried).
func (bf *BufferedFile) writevRetry(head, tail []byte) error {
	bufs := net.Buffers{append([]byte(nil), head...), tail}
	for len(bufs) > 0 {
		if _, err := bufs.WriteTo(bf.f); err != nil {
			return wrapf(ErrDatabaseError, "writev")
		}
	}
	return nil
}

// Read reads len(p) bytes, refilling the internal buffer from the
// underlying file as needed. A short read that lands exactly on a record
// boundary must be signalled as io.EOF by the caller inspecting n == 0;
// a short read elsewhere is corruption, per spec.md §4.1.
func (bf *BufferedFile) Read(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if bf.bufEnd == 0 {
			n, err := bf.f.Read(bf.buf[:])
			if n == 0 {
				if err == io.EOF || err == nil {
					if total > 0 {
						return total, nil
					}
					return 0, io.EOF
				}
				return total, wrapf(ErrDatabaseError, "read")
			}
			bf.bufEnd = n
			bf.filePos = 0 // buf now holds [0:n) unread, consumed from the front
		}
		n := copy(p, bf.buf[bf.filePos:bf.filePos+int64(bf.bufEnd)])
		bf.filePos += int64(n)
		bf.bufEnd -= n
		p = p[n:]
		total += n
	}
	return total, nil
}

// ReadByte reads a single byte, returning io.EOF if the file is
// exhausted exactly at this point.
func (bf *BufferedFile) ReadByte() (byte, error) {
	var b [1]byte
	n, err := bf.Read(b[:])
	if n == 0 {
		return 0, err
	}
	return b[0], err
}

// Flush writes any buffered-but-unwritten data. Required before
// Position() is consumed as a durable offset by the sparse index.
func (bf *BufferedFile) Flush() error {
	if bf.readOnly || bf.bufEnd == 0 {
		return nil
	}
	if err := bf.writeAllRetry(bf.buf[:bf.bufEnd]); err != nil {
		return err
	}
	bf.bufEnd = 0
	return nil
}

func (bf *BufferedFile) writeAllRetry(p []byte) error {
	for len(p) > 0 {
		n, err := bf.f.Write(p)
		if err != nil {
			return wrapf(ErrDatabaseError, "write")
		}
		p = p[n:]
	}
	return nil
}

// Sync requests a durability barrier on the underlying file.
func (bf *BufferedFile) Sync() error {
	if err := bf.f.Sync(); err != nil {
		return wrapf(ErrDatabaseError, "fsync")
	}
	return nil
}

// Rewind repositions to offset 0 and switches to read mode.
func (bf *BufferedFile) Rewind() error {
	if _, err := bf.f.Seek(0, io.SeekStart); err != nil {
		return wrapf(ErrDatabaseError, "seek")
	}
	bf.readOnly = true
	bf.bufEnd = 0
	bf.filePos = 0
	return nil
}

// Empty reports whether the underlying file currently holds no data.
func (bf *BufferedFile) Empty() (bool, error) {
	if bf.bufEnd > 0 {
		return false, nil
	}
	fi, err := bf.f.Stat()
	if err != nil {
		return true, nil
	}
	return fi.Size() == 0, nil
}

// Close closes the underlying file.
func (bf *BufferedFile) Close() error {
	if err := bf.f.Close(); err != nil {
		return errors.Wrap(err, "idxcompact: close")
	}
	return nil
}
