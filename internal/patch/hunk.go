package patch

import (
	"fmt"
	"strings"

	"github.com/mrz1836/patchbay/internal/diff"
)

// MaxOffset is how many lines above or below its stated position a hunk
// is searched for before it is declared a conflict.
const MaxOffset = 1000

// hunkConflict reports the 1-based hunk that could not be placed.
type hunkConflict struct {
	hunk   int
	reason string
}

// applyHunks applies hunks, in order, to content.
//
// Each hunk's old side (context and removals) must match the content
// exactly, ignoring a trailing carriage return. The match is looked for at
// the stated line shifted by the drift of the previous hunk, then at
// increasing distance on either side; the nearest match wins and the
// earlier line breaks ties. Hunks never overlap or move backwards.
func applyHunks(content string, hunks []diff.Hunk) (string, *hunkConflict) {
	src, endsWithNewline := splitLines(content)
	out := make([]string, 0, len(src))

	var (
		cursor     int
		drift      int
		eofTouched bool
		eofNewline = endsWithNewline
	)

	for i, h := range hunks {
		oldSide := h.OldSide()
		newSide := h.NewSide()

		stated := h.OldStart - 1
		if h.OldLines == 0 {
			// "-N,0" inserts after line N.
			stated = h.OldStart
		}

		pos, ok := locate(src, oldSide, stated+drift, cursor)
		if !ok {
			return "", &hunkConflict{
				hunk:   i + 1,
				reason: fmt.Sprintf("context for hunk at line %d not found", h.OldStart),
			}
		}
		drift = pos - stated

		out = append(out, src[cursor:pos]...)
		cursor = pos
		for _, l := range h.Lines {
			switch l.Kind {
			case diff.Context:
				// Keep the file's own line; it may differ by a carriage return.
				out = append(out, src[cursor])
				cursor++
			case diff.Remove:
				cursor++
			case diff.Add:
				out = append(out, l.Text)
			}
		}

		eofTouched = cursor == len(src)
		if eofTouched {
			eofNewline = true
			if n := len(newSide); n > 0 && newSide[n-1].NoNewline {
				eofNewline = false
			}
		}
	}

	out = append(out, src[cursor:]...)
	if !eofTouched {
		eofNewline = endsWithNewline
	}
	return joinLines(out, eofNewline), nil
}

// locate finds where want matches src, starting at stated and moving
// outwards up to MaxOffset lines. Positions before minPos are not considered.
func locate(src []string, want []diff.Line, stated, minPos int) (int, bool) {
	maxPos := len(src) - len(want)
	if maxPos < minPos {
		return 0, false
	}
	stated = max(minPos, min(stated, maxPos))

	for d := 0; d <= MaxOffset; d++ {
		below, above := stated-d, stated+d
		if below < minPos && above > maxPos {
			break
		}
		if below >= minPos && matchAt(src, want, below) {
			return below, true
		}
		if d > 0 && above <= maxPos && matchAt(src, want, above) {
			return above, true
		}
	}
	return 0, false
}

func matchAt(src []string, want []diff.Line, pos int) bool {
	for i, l := range want {
		if strings.TrimSuffix(src[pos+i], "\r") != strings.TrimSuffix(l.Text, "\r") {
			return false
		}
	}
	return true
}

// splitLines splits content into lines without newlines and reports whether
// the last line was newline-terminated. Empty content has no lines.
func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	endsWithNewline := strings.HasSuffix(content, "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), endsWithNewline
}

func joinLines(lines []string, trailingNewline bool) string {
	if len(lines) == 0 {
		return ""
	}
	s := strings.Join(lines, "\n")
	if trailingNewline {
		s += "\n"
	}
	return s
}
