package idxcompact

import (
	"os"

	"github.com/bsm/bfs"
	"go.uber.org/zap"
)

// CompactionLevel mirrors spec.md §6's STANDARD/FULL/FULLER levels.
type CompactionLevel int

const (
	Standard CompactionLevel = iota
	Full
	Fuller
)

const (
	minBlockSize     = 2048
	maxBlockSize     = 65536
	defaultBlockSize = 8192
)

// StatusFunc reports per-table progress, e.g. for CLI output (spec.md
// §6, "status(table_name, message)").
type StatusFunc func(table, message string)

// Options configures a Compact run, following the teacher's
// WriterOptions.norm() normalisation pattern.
type Options struct {
	// SingleFile emits one concatenated output file instead of one file
	// per table.
	SingleFile bool
	// Multipass enables the cascaded postlist merge of spec.md §4.11.
	Multipass bool
	// Dangerous skips durability (fsync) on intermediate cascade writes.
	Dangerous bool
	// NoSync skips fsync on intermediate writes even outside cascades.
	NoSync bool

	// BlockSize must be a power of two in [minBlockSize, maxBlockSize];
	// otherwise defaultBlockSize is used.
	BlockSize int

	// Level selects STANDARD/FULL/FULLER behaviour (set_full_compaction,
	// set_max_item_size).
	Level CompactionLevel

	// Resolve handles user-metadata collisions across sources; nil means
	// first-source-wins.
	Resolve MetadataResolver
	// Status reports per-table progress; nil disables reporting.
	Status StatusFunc

	// Compressor overrides the default snappy codec.
	Compressor Compressor

	// EnableFilter builds a per-table bloom filter trailer (filter.go)
	// over the compacted output's keys.
	EnableFilter bool
	// EnableChecksum appends a blake2b-256 content checksum trailer
	// (checksum.go) to every table written.
	EnableChecksum bool

	// Bucket, when set, receives a copy of every file written to the
	// local destination once the compaction completes (spec.md §6's
	// destination parameter, given a third pack-sourced option alongside
	// a plain directory path or file descriptor).
	Bucket bfs.Bucket

	// TmpDir holds cascaded-merge temporaries; defaults to
	// os.TempDir().
	TmpDir string
	// UnlinkTmp removes a consumed temporary file; defaults to
	// os.Remove.
	UnlinkTmp func(path string) error

	// Logger receives structured progress/diagnostic output.
	Logger *zap.Logger
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}
	if oo.BlockSize == 0 || oo.BlockSize&(oo.BlockSize-1) != 0 ||
		oo.BlockSize < minBlockSize || oo.BlockSize > maxBlockSize {
		oo.BlockSize = defaultBlockSize
	}
	if oo.Compressor == nil {
		oo.Compressor = DefaultCompressor
	}
	if oo.UnlinkTmp == nil {
		oo.UnlinkTmp = os.Remove
	}
	if oo.Logger == nil {
		oo.Logger = zap.NewNop()
	}
	return &oo
}

func (o *Options) tmpDir() string {
	if o.TmpDir != "" {
		return o.TmpDir
	}
	return os.TempDir()
}

func (o *Options) unlinkTmp(path string) {
	if err := o.UnlinkTmp(path); err != nil {
		o.Logger.Warn("failed to remove temporary postlist table", zap.String("path", path), zap.Error(err))
	}
}

func (o *Options) maxItemSize() int {
	if o.Level == Fuller {
		return 1
	}
	return 0
}

func (o *Options) fullCompaction() bool {
	return o.Level == Full || o.Level == Fuller
}

func (o *Options) status(table, message string) {
	if o.Status != nil {
		o.Status(table, message)
	}
}
