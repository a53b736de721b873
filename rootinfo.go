package idxcompact

// RootInfo is the per-table metadata published to the version file,
// per spec.md §3. The core only sets and reads these fields; their
// persistence is owned by VersionFile (versionfile.go).
type RootInfo struct {
	NumEntries  uint64
	Root        int64
	Level       int
	Blocksize   int
	CompressMin uint32
	FreeList    []byte
	Sequential  bool
	RootIsFake  bool

	// FilterOffset is the file offset of the optional key filter trailer
	// (filter.go), or 0 if none was written.
	FilterOffset int64
}

func (r *RootInfo) encode() []byte {
	buf := appendUint(nil, r.NumEntries)
	buf = appendUint(buf, uint64(r.Root))
	buf = appendUint(buf, uint64(r.Level))
	buf = appendUint(buf, uint64(r.Blocksize))
	buf = appendUint(buf, uint64(r.CompressMin))
	var flags uint64
	if r.Sequential {
		flags |= 1
	}
	if r.RootIsFake {
		flags |= 2
	}
	buf = appendUint(buf, flags)
	buf = appendString(buf, r.FreeList)
	buf = appendUint(buf, uint64(r.FilterOffset))
	return buf
}

func decodeRootInfo(buf []byte) (*RootInfo, error) {
	r := &RootInfo{}
	var n int
	var ok bool

	if r.NumEntries, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: num_entries")
	}
	buf = buf[n:]

	var v uint64
	if v, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: root")
	}
	r.Root = int64(v)
	buf = buf[n:]

	if v, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: level")
	}
	r.Level = int(v)
	buf = buf[n:]

	if v, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: blocksize")
	}
	r.Blocksize = int(v)
	buf = buf[n:]

	if v, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: compress_min")
	}
	r.CompressMin = uint32(v)
	buf = buf[n:]

	var flags uint64
	if flags, n, ok = unpackUint(buf); !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: flags")
	}
	r.Sequential = flags&1 != 0
	r.RootIsFake = flags&2 != 0
	buf = buf[n:]

	freeList, n2, ok := unpackString(buf)
	if !ok {
		return nil, wrapf(ErrDatabaseCorrupt, "root info: free_list")
	}
	r.FreeList = freeList
	buf = buf[n2:]

	if len(buf) > 0 {
		if v, _, ok = unpackUint(buf); ok {
			r.FilterOffset = int64(v)
		}
	}
	return r, nil
}
