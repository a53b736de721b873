package idxcompact

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// destLock holds the destination directory lock for the lifetime of a
// compaction (spec.md §5: "the output directory is held under a file
// lock for the whole run"). Grounded on the original's FlintLock role;
// backed here by flock(2) via golang.org/x/sys/unix, the idiomatic Go
// equivalent the pack reaches for (bsm/bfs and others import
// golang.org/x/sys for the same class of syscall access).
type destLock struct {
	f *os.File
}

// acquireLock takes an exclusive, non-blocking lock on dir/lock.
func acquireLock(dir string) (*destLock, error) {
	path := filepath.Join(dir, "lock")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, wrapf(ErrDatabaseLock, "open lock file %q", path)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, wrapf(ErrDatabaseLock, "lock %q", path)
	}
	return &destLock{f: f}, nil
}

// Release unlocks and closes the lock file.
func (l *destLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
