// Command idxcompact compacts one or more source index databases into a
// single output database. Flag parsing only; all compaction logic lives
// in the idxcompact package (spec.md §1 treats CLI parsing as an
// external collaborator).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bsm/idxcompact"
	"github.com/bsm/idxcompact/sourceadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	backend        string
	destination    string
	singleFile     bool
	multipass      bool
	dangerous      bool
	noSync         bool
	level          string
	blockSize      int
	enableFilter   bool
	enableChecksum bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "idxcompact <source-dir>...",
		Short: "Compact one or more source index databases into one output database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompact(f, args)
		},
	}

	cmd.Flags().StringVar(&f.backend, "backend", "goleveldb", "source backend: badger or goleveldb")
	cmd.Flags().StringVar(&f.destination, "dest", "", "destination directory (or file, with --single-file)")
	cmd.Flags().BoolVar(&f.singleFile, "single-file", false, "concatenate output into one file")
	cmd.Flags().BoolVar(&f.multipass, "multipass", false, "bound postlist merge fan-in with a cascaded merge")
	cmd.Flags().BoolVar(&f.dangerous, "dangerous", false, "skip durability guarantees on intermediate writes")
	cmd.Flags().BoolVar(&f.noSync, "no-sync", false, "skip fsync on committed tables")
	cmd.Flags().StringVar(&f.level, "level", "standard", "compaction level: standard, full, or fuller")
	cmd.Flags().IntVar(&f.blockSize, "block-size", 8192, "advisory SSTable block size")
	cmd.Flags().BoolVar(&f.enableFilter, "enable-filter", false, "write a bloom filter trailer per table")
	cmd.Flags().BoolVar(&f.enableChecksum, "enable-checksum", false, "write a content checksum trailer per table")
	cmd.MarkFlagRequired("dest")

	cmd.AddCommand(newVerifyCmd())
	return cmd
}

func runCompact(f rootFlags, sourceDirs []string) error {
	level, err := parseLevel(f.level)
	if err != nil {
		return err
	}

	sources := make([]idxcompact.Source, 0, len(sourceDirs))
	offsets := make([]uint64, 0, len(sourceDirs))
	var nextOffset uint64

	for _, dir := range sourceDirs {
		src, closeFn, err := openSource(f.backend, dir)
		if err != nil {
			return err
		}
		defer closeFn()

		sources = append(sources, src)
		offsets = append(offsets, nextOffset)
		nextOffset += src.MaxDocid() + 1
	}

	logger, _ := zap.NewDevelopment()
	opts := &idxcompact.Options{
		SingleFile:     f.singleFile,
		Multipass:      f.multipass,
		Dangerous:      f.dangerous,
		NoSync:         f.noSync,
		BlockSize:      f.blockSize,
		Level:          level,
		EnableFilter:   f.enableFilter,
		EnableChecksum: f.enableChecksum,
		Logger:         logger,
		Status: func(table, message string) {
			if message != "" {
				fmt.Printf("%-10s %s\n", table, message)
			}
		},
	}

	lastDocid := uint64(0)
	if nextOffset > 0 {
		lastDocid = nextOffset - 1
	}
	return idxcompact.Compact(sources, offsets, lastDocid, f.destination, opts)
}

func openSource(backend, dir string) (idxcompact.Source, func() error, error) {
	switch backend {
	case "badger":
		src, err := sourceadapter.OpenBadgerSource(dir, 0)
		if err != nil {
			return nil, nil, err
		}
		maxDocid, err := src.DetectMaxDocid()
		if err != nil {
			src.Close()
			return nil, nil, err
		}
		src.SetMaxDocid(maxDocid)
		return src, src.Close, nil
	case "goleveldb":
		src, err := sourceadapter.OpenGoLevelDBSource(dir, 0)
		if err != nil {
			return nil, nil, err
		}
		maxDocid, err := src.DetectMaxDocid()
		if err != nil {
			src.Close()
			return nil, nil, err
		}
		src.SetMaxDocid(maxDocid)
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func parseLevel(s string) (idxcompact.CompactionLevel, error) {
	switch strings.ToLower(s) {
	case "standard", "":
		return idxcompact.Standard, nil
	case "full":
		return idxcompact.Full, nil
	case "fuller":
		return idxcompact.Fuller, nil
	default:
		return 0, fmt.Errorf("unknown compaction level %q", s)
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <table-file>...",
		Short: "Check the checksum trailer of one or more compacted SSTables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := false
			for _, path := range args {
				ok, present, err := idxcompact.VerifyTableChecksum(path)
				if err != nil {
					return err
				}
				switch {
				case !present:
					fmt.Printf("%s: no checksum trailer\n", path)
				case ok:
					fmt.Printf("%s: OK\n", path)
				default:
					fmt.Printf("%s: CHECKSUM MISMATCH\n", path)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("checksum verification failed")
			}
			return nil
		},
	}
}
