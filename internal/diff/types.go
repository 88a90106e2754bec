// Package diff parses unified diffs and produces them.
//
// Parsing never touches the filesystem and performs no path validation;
// paths are returned as written in the headers, minus timestamps.
package diff

// LineKind marks a hunk body line as context, addition, or removal.
type LineKind byte

// Hunk body line kinds, matching their diff prefix characters.
const (
	Context LineKind = ' '
	Add     LineKind = '+'
	Remove  LineKind = '-'
)

// Line is one body line of a hunk, without its prefix or newline.
type Line struct {
	Kind LineKind
	Text string

	// NoNewline is set when the line was followed by
	// "\ No newline at end of file".
	NoNewline bool
}

// Hunk is a contiguous block of changes.
// OldStart and NewStart are 1-based; a zero-length side uses the line
// before which nothing exists (0 for an empty file), as diff(1) writes it.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int

	// Section is the optional text after the closing "@@".
	Section string

	Lines []Line
}

// OldSide returns the lines the hunk expects to find (context and removals).
func (h Hunk) OldSide() []Line {
	return h.side(Remove)
}

// NewSide returns the lines the hunk leaves behind (context and additions).
func (h Hunk) NewSide() []Line {
	return h.side(Add)
}

func (h Hunk) side(keep LineKind) []Line {
	out := make([]Line, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Kind == Context || l.Kind == keep {
			out = append(out, l)
		}
	}
	return out
}

// FileDiff is the set of hunks for one file header pair.
// OldPath is empty for a created file and NewPath is empty for a deleted
// one; never both.
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// IsCreate reports whether the diff creates a file (--- /dev/null).
func (f FileDiff) IsCreate() bool {
	return f.OldPath == ""
}

// IsDelete reports whether the diff deletes a file (+++ /dev/null).
func (f FileDiff) IsDelete() bool {
	return f.NewPath == ""
}

// IsRename reports whether old and new paths name different files
// once the a/ and b/ prefixes are ignored.
func (f FileDiff) IsRename() bool {
	if f.IsCreate() || f.IsDelete() {
		return false
	}
	return trimPrefix(f.OldPath) != trimPrefix(f.NewPath)
}

// Path returns the path the diff results in: NewPath, or OldPath for a deletion.
func (f FileDiff) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// Paths returns every path named by the headers, old first.
func (f FileDiff) Paths() []string {
	paths := make([]string, 0, 2)
	if f.OldPath != "" {
		paths = append(paths, f.OldPath)
	}
	if f.NewPath != "" {
		paths = append(paths, f.NewPath)
	}
	return paths
}

func trimPrefix(p string) string {
	if len(p) > 2 && (p[:2] == "a/" || p[:2] == "b/") {
		return p[2:]
	}
	return p
}
