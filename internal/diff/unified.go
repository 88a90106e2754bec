package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each change.
const DefaultContext = 3

// eofMarker stands in for a missing final newline while difflib runs.
const eofMarker = "\x00\n"

// Unified returns a unified diff turning oldText into newText, with the
// given header names. It returns "" when the contents are equal.
// A missing final newline is written as "\ No newline at end of file".
func Unified(fromFile, toFile, oldText, newText string) (string, error) {
	if oldText == newText {
		return "", nil
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitKeep(oldText),
		B:        splitKeep(newText),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  DefaultContext,
	})
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(out, eofMarker, "\n"+noNewlineMarker+" No newline at end of file\n"), nil
}

// UnifiedFile is Unified with conventional a/ and b/ headers for path.
func UnifiedFile(path, oldText, newText string) (string, error) {
	return Unified("a/"+path, "b/"+path, oldText, newText)
}

// splitKeep splits s into newline-terminated lines. difflib.SplitLines is
// not used because it appends a phantom empty line to text that already
// ends in a newline.
func splitKeep(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	last := len(lines) - 1
	lines[last] = strings.TrimSuffix(lines[last], "\n") + eofMarker
	return lines
}
