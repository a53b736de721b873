package idxcompact

import "github.com/pkg/errors"

// Sentinel error kinds, per the error taxonomy of the compaction design.
// Callers should compare with errors.Is against these, and use
// errors.Cause (github.com/pkg/errors) to unwrap the underlying I/O or
// decode error where one is attached.
var (
	// ErrInvalidArgument is returned for out-of-range inputs discovered at
	// write time, e.g. a key outside [1,255] bytes. (A bad block size is
	// not an error: Options falls back to the default.)
	ErrInvalidArgument = errors.New("idxcompact: invalid argument")

	// ErrInvalidOperation is returned for API misuse: add to a read-only
	// table, commit before FlushDB has set the root, or compacting a
	// database with uncommitted writes in single-file mode.
	ErrInvalidOperation = errors.New("idxcompact: invalid operation")

	// ErrDatabaseCorrupt is returned for malformed on-disk structures:
	// bad key, bad tag header, bad varint, unexpected empty bound, an
	// illegal (zero) spelling frequency.
	ErrDatabaseCorrupt = errors.New("idxcompact: database corrupt")

	// ErrRangeError is returned when a decoded value overflows its type,
	// e.g. a valuestats frequency or bound too large to represent.
	ErrRangeError = errors.New("idxcompact: value out of range")

	// ErrDatabaseOpen is returned when an existing source table failed to
	// open.
	ErrDatabaseOpen = errors.New("idxcompact: failed to open database")

	// ErrDatabaseCreate is returned when a destination table/file could
	// not be created.
	ErrDatabaseCreate = errors.New("idxcompact: failed to create database")

	// ErrDatabaseError is a generic runtime I/O failure: short reads
	// mid-record, fsync failure, and similar.
	ErrDatabaseError = errors.New("idxcompact: database error")

	// ErrDatabaseLock is returned when the destination lock could not be
	// acquired.
	ErrDatabaseLock = errors.New("idxcompact: could not lock destination")
)

func wrapf(kind error, format string, args ...interface{}) error {
	return errors.Wrapf(kind, format, args...)
}
