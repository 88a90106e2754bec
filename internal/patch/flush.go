package patch

import (
	"fmt"
	"os"
	"path/filepath"
)

// Filesystem operations used while flushing, replaceable in tests.
//
//nolint:gochecknoglobals // test seams
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// staged is a change whose next content has been written to a temp file
// next to its destination.
type staged struct {
	change *ResolvedChange
	tmp    string
}

// flush makes changes visible on disk.
//
// All new contents are first written to temp files in their destination
// directories. Only then are they renamed into place and deletions
// performed. If any step of the second phase fails, completed steps are
// undone from the buffered prior contents and directories created for
// new files are removed.
func flush(changes []*ResolvedChange) error {
	var (
		pending     []staged
		createdDirs []string
	)

	cleanup := func() {
		for _, s := range pending {
			if s.tmp != "" {
				_ = os.Remove(s.tmp)
			}
		}
		for i := len(createdDirs) - 1; i >= 0; i-- {
			_ = os.RemoveAll(createdDirs[i])
		}
	}

	for _, c := range changes {
		if c.Delete {
			if c.Existed {
				pending = append(pending, staged{change: c})
			}
			continue
		}

		dir := filepath.Dir(c.abs)
		top, mkErr := mkdirAllTracked(dir)
		if mkErr != nil {
			cleanup()
			return fmt.Errorf("failed to create directory for %s: %w", c.Path, mkErr)
		}
		if top != "" {
			createdDirs = append(createdDirs, top)
		}

		tmp, wErr := writeTemp(dir, []byte(c.Next), c.mode)
		if wErr != nil {
			cleanup()
			return fmt.Errorf("failed to stage %s: %w", c.Path, wErr)
		}
		pending = append(pending, staged{change: c, tmp: tmp})
	}

	for i, s := range pending {
		var opErr error
		if s.tmp == "" {
			opErr = removeFile(s.change.abs)
		} else {
			opErr = renameFile(s.tmp, s.change.abs)
		}
		if opErr != nil {
			restore(pending[:i])
			cleanup()
			return fmt.Errorf("failed to write %s: %w", s.change.Path, opErr)
		}
		pending[i].tmp = ""
	}
	return nil
}

// restore undoes completed flush steps, newest first. Errors are ignored;
// restoring is best effort once the filesystem has already failed once.
func restore(done []staged) {
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i].change
		if c.Existed {
			_ = atomicWrite(c.abs, []byte(c.Prior), c.mode)
		} else {
			_ = os.Remove(c.abs)
		}
	}
}

// mkdirAllTracked creates dir and any missing parents, returning the
// outermost directory it created ("" if dir already existed).
func mkdirAllTracked(dir string) (string, error) {
	top := ""
	for cur := dir; ; {
		if _, err := os.Stat(cur); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", err
		}
		top = cur
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	if top == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return top, nil
}

// writeTemp writes data to a new synced temp file in dir.
func writeTemp(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".patchbay-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	return tmp, nil
}

// atomicWrite writes data to path via a synced temp file and a rename.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp, err := writeTemp(filepath.Dir(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
