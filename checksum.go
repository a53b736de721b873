package idxcompact

import (
	"encoding/binary"
	"os"

	"golang.org/x/crypto/blake2b"
)

// checksumSize is the width of the trailer blake2b writes: blake2b-256,
// truncated to nothing (full digest kept, fixed width for trailer
// framing).
const checksumSize = blake2b.Size256

// Checksum accumulates a running blake2b-256 digest over everything
// written to an SSTable, independent of the sorted-records/sparse-index
// layout itself (SPEC_FULL.md Domain Stack): a durability check layered
// on top of §4.1/§4.3's sync() barrier, not a replacement for it.
type Checksum struct {
	h blake2bHasher
}

type blake2bHasher interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
	Reset()
}

// NewChecksum starts a fresh running digest.
func NewChecksum() *Checksum {
	h, _ := blake2b.New256(nil)
	return &Checksum{h: h}
}

// Write feeds bytes into the running digest.
func (c *Checksum) Write(p []byte) { c.h.Write(p) }

// Sum returns the final checksumSize-byte digest.
func (c *Checksum) Sum() []byte { return c.h.Sum(nil) }

// appendChecksumTrailer appends a fixed-width trailer: a 4-byte magic
// tag, then the digest. Written after the key filter trailer (if any),
// making it the very last bytes in the file.
func appendChecksumTrailer(dst []byte, sum []byte) []byte {
	var magic [4]byte
	binary.LittleEndian.PutUint32(magic[:], checksumMagic)
	dst = append(dst, magic[:]...)
	return append(dst, sum...)
}

const checksumMagic = 0x686e6b63 // "cknh" little-endian

// verifyChecksumTrailer checks that the last bytes of data match a
// checksum trailer computed over the rest of data. It returns false (not
// an error) when the trailer magic is absent, since the checksum
// trailer is optional and older/plain tables won't carry one.
func verifyChecksumTrailer(data []byte) (ok bool, present bool) {
	trailerLen := 4 + checksumSize
	if len(data) < trailerLen {
		return false, false
	}
	trailer := data[len(data)-trailerLen:]
	if binary.LittleEndian.Uint32(trailer[:4]) != checksumMagic {
		return false, false
	}
	body := data[:len(data)-trailerLen]
	h, _ := blake2b.New256(nil)
	h.Write(body)
	sum := h.Sum(nil)
	for i := range sum {
		if sum[i] != trailer[4+i] {
			return false, true
		}
	}
	return true, true
}

// VerifyTableChecksum re-reads an SSTable file written with
// EnableChecksum and reports whether its trailing checksum matches its
// contents. present is false when the file carries no checksum trailer
// at all, e.g. it was written without EnableChecksum.
func VerifyTableChecksum(path string) (ok bool, present bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, false, wrapf(ErrDatabaseOpen, "read %q", path)
	}
	ok, present = verifyChecksumTrailer(data)
	return ok, present, nil
}
