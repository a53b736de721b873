package idxcompact

import (
	"os"
	"path/filepath"

	"github.com/colinmarc/cdb"
)

// VersionFile persists the per-table RootInfo records produced by a
// compaction, per spec.md §1/§6 ("the version/root-info metadata file
// writer"). spec.md treats this as an external collaborator and only
// specifies it as a sink for RootInfo records; here it is backed by a
// constant database (colinmarc/cdb), a natural fit for a small,
// write-once, read-many set of fixed keys.
type VersionFile struct {
	path string
	w    *cdb.Writer
}

// CreateVersionFile opens path for writing a fresh version file.
func CreateVersionFile(path string) (*VersionFile, error) {
	w, err := cdb.Create(path)
	if err != nil {
		return nil, wrapf(ErrDatabaseCreate, "create version file %q", path)
	}
	return &VersionFile{path: path, w: w}, nil
}

// SetRoot records the RootInfo for a named table ("postlist", "docdata",
// ...).
func (v *VersionFile) SetRoot(table string, root *RootInfo) error {
	if err := v.w.Put([]byte(table), root.encode()); err != nil {
		return wrapf(ErrDatabaseError, "write root info for %q", table)
	}
	return nil
}

// SetLastDocid records the highest document id present in the compacted
// output, mirroring GlassVersion::set_last_docid in the original.
func (v *VersionFile) SetLastDocid(docid uint64) error {
	if err := v.w.Put([]byte("\x00last_docid"), appendUint(nil, docid)); err != nil {
		return wrapf(ErrDatabaseError, "write last_docid")
	}
	return nil
}

// Close freezes and closes the version file.
func (v *VersionFile) Close() error {
	if err := v.w.Close(); err != nil {
		return wrapf(ErrDatabaseError, "close version file")
	}
	return nil
}

// OpenVersionFile opens an existing version file for reading.
func OpenVersionFile(path string) (*cdb.CDB, error) {
	db, err := cdb.Open(path)
	if err != nil {
		return nil, wrapf(ErrDatabaseOpen, "open version file %q", path)
	}
	return db, nil
}

// ReadRoot reads back the RootInfo for a named table.
func ReadRoot(db *cdb.CDB, table string) (*RootInfo, error) {
	buf, err := db.Get([]byte(table))
	if err != nil {
		return nil, wrapf(ErrDatabaseOpen, "read root info for %q", table)
	}
	return decodeRootInfo(buf)
}

func versionFilePath(destDir string) string {
	return filepath.Join(destDir, "version.cdb")
}

func publishVersionFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err != nil {
		return wrapf(ErrDatabaseError, "publish version file")
	}
	return nil
}
