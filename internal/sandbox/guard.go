// Package sandbox confines file access to a single root directory.
//
// Guard resolves paths taken from diffs and requests and rejects any that
// escape the root. Locker serializes mutations of the tree.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/patchbay/internal/errors"
)

// Guard resolves candidate paths against a fixed sandbox root.
// A Guard is immutable and safe for concurrent use.
type Guard struct {
	root string
}

// New creates a Guard for root. The root must be an existing directory;
// it is made absolute and has its symlinks evaluated once, here.
func New(root string) (*Guard, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.Wrap(errors.ErrConfigInvalidSandbox, "sandbox root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalidSandbox, "cannot resolve %q: %v", root, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalidSandbox, "cannot resolve %q: %v", root, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalidSandbox, "cannot stat %q: %v", real, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrConfigInvalidSandbox, "%q is not a directory", real)
	}
	return &Guard{root: real}, nil
}

// Root returns the canonical sandbox root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve maps candidate to an absolute path inside the root and the same
// path relative to the root (slash-separated). One leading "a/" or "b/"
// diff prefix is stripped first.
//
// Symlinks are followed for the longest existing prefix of the path, so a
// link inside the sandbox pointing elsewhere is rejected, dangling or not.
// Absolute candidates are accepted when they lie inside the root. Any failure is a
// *errors.PathViolationError.
func (g *Guard) Resolve(candidate string) (abs, rel string, err error) {
	violation := &errors.PathViolationError{Path: candidate}

	p := StripDiffPrefix(strings.TrimSpace(candidate))
	if p == "" || strings.ContainsRune(p, 0) {
		return "", "", violation
	}

	var joined string
	if filepath.IsAbs(p) {
		joined = filepath.Clean(p)
	} else {
		joined = filepath.Join(g.root, filepath.FromSlash(p))
	}

	canonical, err := evalExisting(joined)
	if err != nil {
		return "", "", violation
	}
	if !g.contains(canonical) {
		return "", "", violation
	}

	r, err := filepath.Rel(g.root, canonical)
	if err != nil {
		return "", "", violation
	}
	return canonical, filepath.ToSlash(r), nil
}

// contains reports whether p is the root or a descendant of it.
// The separator suffix keeps "/srv/app2" from matching root "/srv/app".
func (g *Guard) contains(p string) bool {
	if p == g.root {
		return true
	}
	prefix := g.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// StripDiffPrefix removes one leading "a/" or "b/" segment.
func StripDiffPrefix(p string) string {
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// maxLinkHops bounds dangling-link chains the way the kernel bounds loops.
const maxLinkHops = 40

// evalExisting evaluates symlinks on the deepest existing ancestor of p and
// re-appends the components that do not exist yet. A missing component that
// is itself a dangling symlink is replaced by its target, so a later write
// through the link cannot land outside. p must be clean and absolute.
func evalExisting(p string) (string, error) {
	return evalHops(p, 0)
}

func evalHops(p string, hops int) (string, error) {
	var missing []string
	cur := p
	for {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				real = filepath.Join(real, missing[i])
			}
			return real, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		if info, lerr := os.Lstat(cur); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			if hops >= maxLinkHops {
				return "", errors.Wrapf(errors.ErrPathViolation, "too many links at %q", cur)
			}
			target, rerr := os.Readlink(cur)
			if rerr != nil {
				return "", rerr
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			for i := len(missing) - 1; i >= 0; i-- {
				target = filepath.Join(target, missing[i])
			}
			return evalHops(filepath.Clean(target), hops+1)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}
