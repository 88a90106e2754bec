// Package patch previews and applies unified diffs inside the sandbox.
//
// Apply is all-or-nothing: every file's next content is computed in memory
// first, and nothing is written unless every hunk of every file applies.
package patch

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/mrz1836/patchbay/internal/diff"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
)

// PreviewResult lists the sandbox-relative paths a diff would touch.
type PreviewResult struct {
	OK    bool     `json:"ok"`
	Files []string `json:"files"`
}

// ApplyResult lists the sandbox-relative paths an apply changed.
type ApplyResult struct {
	OK      bool     `json:"ok"`
	Changed []string `json:"changed"`
}

// ResolvedChange is one file's computed transition.
// Prior is empty when the file did not exist.
type ResolvedChange struct {
	Path    string `json:"path"`
	Existed bool   `json:"existed"`
	Delete  bool   `json:"delete,omitempty"`
	Prior   string `json:"-"`
	Next    string `json:"-"`

	abs  string
	mode os.FileMode
}

// Applier previews and applies diffs against one sandbox.
type Applier struct {
	guard  *sandbox.Guard
	locker *sandbox.Locker
	logger zerolog.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithLocker serializes Apply calls through l.
func WithLocker(l *sandbox.Locker) Option {
	return func(a *Applier) {
		a.locker = l
	}
}

// New creates an Applier writing only beneath guard's root.
func New(guard *sandbox.Guard, logger zerolog.Logger, opts ...Option) *Applier {
	a := &Applier{guard: guard, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Preview parses text and resolves every path it names, without reading
// or writing any file. A single path outside the sandbox fails the whole
// preview with a *errors.PathViolationError.
func (a *Applier) Preview(_ context.Context, text string) (*PreviewResult, error) {
	files, err := diff.Parse(text)
	if err != nil {
		return nil, err
	}

	var rels []string
	for _, fd := range files {
		for _, p := range fd.Paths() {
			_, rel, err := a.resolve(p)
			if err != nil {
				return nil, err
			}
			rels = append(rels, rel)
		}
	}
	return &PreviewResult{OK: true, Files: lo.Uniq(rels)}, nil
}

// Plan computes the next content of every file text touches against the
// current disk state, without writing. It fails on the first file whose
// hunks do not apply.
func (a *Applier) Plan(_ context.Context, text string) ([]*ResolvedChange, error) {
	files, err := diff.Parse(text)
	if err != nil {
		return nil, err
	}
	// Every path is checked before any file is read.
	for _, fd := range files {
		for _, p := range fd.Paths() {
			if _, _, err := a.resolve(p); err != nil {
				return nil, err
			}
		}
	}
	return a.plan(files)
}

// Apply applies text to the sandbox. Either every file changes or none
// does: parse errors, path violations, and hunk conflicts are all detected
// before the first write, and a failure while writing restores the files
// already written.
func (a *Applier) Apply(ctx context.Context, text string) (*ApplyResult, error) {
	files, err := diff.Parse(text)
	if err != nil {
		return nil, err
	}
	for _, fd := range files {
		for _, p := range fd.Paths() {
			if _, _, err := a.resolve(p); err != nil {
				return nil, err
			}
		}
	}

	unlock, err := a.locker.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	changes, err := a.plan(files)
	if err != nil {
		a.logger.Warn().Err(err).Str("file", errors.OffendingFile(err)).Msg("patch rejected")
		return nil, err
	}

	if err := flush(changes); err != nil {
		a.logger.Error().Err(err).Msg("patch write failed, restored prior contents")
		return nil, errors.Wrap(err, "failed to write patch")
	}

	changed := lo.FilterMap(changes, func(c *ResolvedChange, _ int) (string, bool) {
		return c.Path, c.Existed || !c.Delete
	})
	a.logger.Info().Strs("changed", changed).Msg("patch applied")
	return &ApplyResult{OK: true, Changed: changed}, nil
}

// resolve maps a header path through the guard, reporting violations
// against the header as written.
func (a *Applier) resolve(headerPath string) (abs, rel string, err error) {
	abs, rel, err = a.guard.Resolve(headerPath)
	if err != nil {
		return "", "", &errors.PathViolationError{Path: sandbox.StripDiffPrefix(headerPath), File: headerPath}
	}
	if rel == "." {
		return "", "", &errors.ApplyConflictError{File: headerPath, Reason: "path is the sandbox root"}
	}
	return abs, rel, nil
}

// planner tracks buffered file states while a diff is applied in memory.
type planner struct {
	a       *Applier
	byAbs   map[string]*ResolvedChange
	ordered []*ResolvedChange
}

func (a *Applier) plan(files []diff.FileDiff) ([]*ResolvedChange, error) {
	p := &planner{a: a, byAbs: make(map[string]*ResolvedChange)}
	for _, fd := range files {
		if err := p.applyFile(fd); err != nil {
			return nil, err
		}
	}
	return p.ordered, nil
}

// load returns the buffered state for a path, reading it from disk on first use.
func (p *planner) load(headerPath string) (*ResolvedChange, error) {
	abs, rel, err := p.a.resolve(headerPath)
	if err != nil {
		return nil, err
	}
	if c, ok := p.byAbs[abs]; ok {
		return c, nil
	}

	c := &ResolvedChange{Path: rel, abs: abs, mode: 0o644}
	info, err := os.Stat(abs)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, &errors.ApplyConflictError{File: rel, Reason: "path is a directory"}
		}
		data, err := os.ReadFile(abs) //#nosec G304 -- path resolved inside the sandbox
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", rel)
		}
		c.Existed = true
		c.Prior = string(data)
		c.Next = c.Prior
		c.mode = info.Mode().Perm()
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "failed to stat %s", rel)
	default:
		c.Delete = true // absent until something writes it
	}

	p.byAbs[abs] = c
	p.ordered = append(p.ordered, c)
	return c, nil
}

func (p *planner) applyFile(fd diff.FileDiff) error {
	src := fd.OldPath
	if fd.IsCreate() {
		src = fd.NewPath
	}
	from, err := p.load(src)
	if err != nil {
		return err
	}
	present := !from.Delete

	switch {
	case fd.IsCreate() && present:
		return &errors.ApplyConflictError{File: from.Path, Reason: "file already exists"}
	case fd.IsDelete() && !present:
		return &errors.ApplyConflictError{File: from.Path, Reason: "file does not exist"}
	}

	current := ""
	if present {
		current = from.Next
	}
	next, conflict := applyHunks(current, fd.Hunks)
	if conflict != nil {
		return &errors.ApplyConflictError{File: from.Path, Hunk: conflict.hunk, Reason: conflict.reason}
	}

	if fd.IsDelete() {
		if len(fd.Hunks) > 0 && next != "" {
			return &errors.ApplyConflictError{File: from.Path, Reason: "file is not empty after removing its lines"}
		}
		from.Next = ""
		from.Delete = true
		return nil
	}

	to := from
	if fd.IsRename() {
		if to, err = p.load(fd.NewPath); err != nil {
			return err
		}
		if to != from {
			if !to.Delete {
				return &errors.ApplyConflictError{File: to.Path, Reason: "rename target already exists"}
			}
			to.mode = from.mode
			from.Next = ""
			from.Delete = true
		}
	}
	to.Next = next
	to.Delete = false
	return nil
}
