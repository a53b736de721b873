package idxcompact

import "io"

// SSTableReader reads back an SSTable written by SSTableWriter, in
// forward-only streaming order (spec.md §4.4). It never seeks into the
// sparse index — that's out of scope for the compactor, which only ever
// streams a table start-to-end.
type SSTableReader struct {
	fh      *BufferedFile
	lastKey []byte
}

// NewSSTableReader wraps fh (already rewound to the start of the data
// records) as an SSTableReader.
func NewSSTableReader(fh *BufferedFile) *SSTableReader {
	return &SSTableReader{fh: fh}
}

// ReadItem reads the next (key, value, compressed) record. ok is false
// at end of file.
func (r *SSTableReader) ReadItem() (key, value []byte, compressed bool, ok bool, err error) {
	h1, err := r.fh.ReadByte()
	if err == io.EOF {
		return nil, nil, false, false, nil
	}
	if err != nil {
		return nil, nil, false, false, err
	}

	reuse := 0
	keyLen := int(h1)
	if len(r.lastKey) > 0 {
		reuse = int(h1)
		h2, err := r.fh.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, nil, false, false, wrapf(ErrDatabaseError, "EOF while reading key length")
			}
			return nil, nil, false, false, err
		}
		keyLen = int(h2)
	}

	suffix := make([]byte, keyLen)
	if _, err := readFull(r.fh, suffix); err != nil {
		return nil, nil, false, false, wrapf(ErrDatabaseError, "read %d bytes of key data", keyLen)
	}

	key = make([]byte, reuse+keyLen)
	copy(key, r.lastKey[:reuse])
	copy(key[reuse:], suffix)
	r.lastKey = append(r.lastKey[:0], key...)

	// Variable-length value-size header: up to 10 bytes, continuation
	// bit is the high bit of each byte.
	var hdr [10]byte
	n := 0
	for ; n < len(hdr); n++ {
		b, err := r.fh.ReadByte()
		if err != nil {
			break
		}
		hdr[n] = b
		if b < 0x80 {
			n++
			break
		}
	}
	valSizeEnc, hn, ok2 := unpackUint(hdr[:n])
	if !ok2 {
		return nil, nil, false, false, wrapf(ErrDatabaseCorrupt, "val_size unpack_uint invalid")
	}
	_ = hn
	compressed = valSizeEnc&1 != 0
	valLen := valSizeEnc >> 1

	value = make([]byte, valLen)
	if _, err := readFull(r.fh, value); err != nil {
		return nil, nil, false, false, wrapf(ErrDatabaseError, "read %d bytes of value data", valLen)
	}

	return key, value, compressed, true, nil
}

func readFull(r *BufferedFile, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := r.Read(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, wrapf(ErrDatabaseError, "short read")
	}
	return n, nil
}
