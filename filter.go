package idxcompact

import (
	"github.com/AndreasBriese/bbloom"
	farm "github.com/dgryski/go-farm"
)

// filterFalsePositiveRate fixes the bloom filter's target false-positive
// rate; bbloom sizes its bit array from entries/rate at construction.
const filterFalsePositiveRate = 0.01

// KeyFilter is a per-table bloom filter over record keys, written next
// to the sparse index so a future point lookup can skip the sparse-index
// walk entirely on a miss. This is supplementary to spec.md (no
// testable property depends on it) — see SPEC_FULL.md Domain Stack.
type KeyFilter struct {
	bf bbloom.Bloom
}

// defaultFilterEntries is used when the caller has no a priori entry
// count; bbloom sizes its bit array up front, so an unset estimate falls
// back to a size generous enough for one SSTable block run rather than
// one sized exactly to the (unknown in advance) final entry count.
const defaultFilterEntries = 1 << 16

// NewKeyFilter allocates a filter sized for an expected entry count.
func NewKeyFilter(expectedEntries uint64) *KeyFilter {
	if expectedEntries == 0 {
		expectedEntries = defaultFilterEntries
	}
	return &KeyFilter{bf: bbloom.New(float64(expectedEntries), filterFalsePositiveRate)}
}

// Add records key in the filter.
func (f *KeyFilter) Add(key []byte) {
	f.bf.Add(farmHash(key))
}

// Has reports whether key may be present; false is authoritative, true
// may be a false positive.
func (f *KeyFilter) Has(key []byte) bool {
	return f.bf.Has(farmHash(key))
}

// Bytes serialises the filter's bit array for storage in an SSTable
// trailer.
func (f *KeyFilter) Bytes() []byte {
	return f.bf.JSONMarshal()
}

// LoadKeyFilter restores a filter previously produced by Bytes.
func LoadKeyFilter(data []byte) (*KeyFilter, error) {
	return &KeyFilter{bf: bbloom.JSONUnmarshal(data)}, nil
}

func farmHash(key []byte) []byte {
	h := farm.Hash64(key)
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	return b[:]
}
