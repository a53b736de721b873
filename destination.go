package idxcompact

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bsm/bfs"
)

// publishToBucket copies the named files out of localDir into bucket,
// giving spec.md §6's directory-or-fd destination a third option
// (Options.Bucket): compaction always stages output on local disk first
// (the cascade's own temporary read-back needs a seekable, reopenable
// file), then the finished files are additionally pushed to any
// bfs.Bucket — local, S3, GCS, whatever the caller connected.
func publishToBucket(ctx context.Context, bucket bfs.Bucket, localDir string, names []string) error {
	for _, name := range names {
		if err := copyToBucket(ctx, bucket, filepath.Join(localDir, name), name); err != nil {
			return err
		}
	}
	return nil
}

func copyToBucket(ctx context.Context, bucket bfs.Bucket, localPath, name string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return wrapf(ErrDatabaseOpen, "open %q for publish", localPath)
	}
	defer f.Close()

	w, err := bucket.Create(ctx, name, nil)
	if err != nil {
		return wrapf(ErrDatabaseCreate, "create bucket object %q", name)
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Discard()
		return wrapf(ErrDatabaseError, "copy %q to bucket", name)
	}
	return w.Commit()
}
