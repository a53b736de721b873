// Package sourceadapter demonstrates the read-side contract idxcompact's
// Source/SourceTable/LiveCursor interfaces expect by implementing it
// against two real embedded key-value stores: badger and goleveldb. A
// compactor's actual "original B-tree storage engine" (idxcompact's
// external collaborator, see spec.md §1) is out of scope for this
// module; these adapters exist to exercise that contract end to end in
// tests and examples, not as a production storage backend.
//
// Both backends store every table's records under one flat keyspace,
// disambiguated by a one-byte table tag prepended to each key, with the
// value framed as a one-byte compressed flag followed by the raw tag.
package sourceadapter

import (
	"github.com/bsm/idxcompact"
)

// tableTag returns the one-byte namespace prefix for kind.
func tableTag(kind idxcompact.TableKind) byte { return byte(kind) }

// encodeValue frames a (tag, compressed) pair for storage.
func encodeValue(tag []byte, compressed bool) []byte {
	out := make([]byte, 1+len(tag))
	if compressed {
		out[0] = 1
	}
	copy(out[1:], tag)
	return out
}

// decodeValue reverses encodeValue.
func decodeValue(raw []byte) (tag []byte, compressed bool) {
	if len(raw) == 0 {
		return nil, false
	}
	return raw[1:], raw[0] != 0
}

// detectMaxDocid streams a docdata table end to end to find its highest
// key, since docdata keys are bare packed docids in ascending order.
func detectMaxDocid(table idxcompact.SourceTable) (uint64, error) {
	if !table.Exists() || table.Empty() {
		return 0, nil
	}
	cur, err := table.Cursor()
	if err != nil {
		return 0, err
	}
	var max uint64
	for {
		ok, err := cur.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		did, valid := idxcompact.DecodeDocidKey(cur.Key())
		if valid && did > max {
			max = did
		}
	}
	return max, nil
}
