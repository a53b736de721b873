package idxcompact

import "github.com/golang/snappy"

// Compressor is the black-box compression codec spec.md §1 treats as an
// external collaborator: compress/decompress over byte blobs, nothing
// more. The compactor never re-compresses a tag it reads already
// compressed from a source (spec.md §9 Open Questions) — it only calls
// Compress when a caller explicitly asks a table to compress fresh
// output, which none of the merge paths in this package currently do
// (all of them pass through source compression flags unchanged).
type Compressor interface {
	Compress(dst, src []byte) []byte
	Decompress(dst, src []byte) ([]byte, error)
}

// snappyCompressor is the default Compressor, matching the teacher's own
// choice of codec for SSTable block payloads.
type snappyCompressor struct{}

// DefaultCompressor is the snappy-backed Compressor used unless an
// Options.Compressor override is supplied.
var DefaultCompressor Compressor = snappyCompressor{}

func (snappyCompressor) Compress(dst, src []byte) []byte {
	return snappy.Encode(dst, src)
}

func (snappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return nil, wrapf(ErrDatabaseCorrupt, "snappy decode")
	}
	return out, nil
}
