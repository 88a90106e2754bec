package diff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/errors"
)

// hunkHeaderRe matches "@@ -l[,s] +l[,s] @@ section". The ranges are captured
// loosely so that non-numeric values are reported as such rather than as
// an unrecognized line.
var hunkHeaderRe = regexp.MustCompile(`^@@ -([^\s,]+)(?:,([^\s]+))? \+([^\s,]+)(?:,([^\s]+))? @@ ?(.*)$`)

const noNewlineMarker = `\`

// Parse parses unified diff text into per-file hunk sets, in input order.
//
// Git extended headers ("diff --git", "index", mode lines) and any other
// text between file sections are skipped. A "---" header must be followed
// immediately by "+++". Hunk bodies are delimited by the line counts in
// their headers; a blank line inside a body counts as an empty context line.
func Parse(text string) ([]FileDiff, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &errors.ParseError{Reason: "empty diff"}
	}

	p := &parser{lines: splitRaw(text)}
	files, err := p.parse()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &errors.ParseError{Reason: "no file headers found"}
	}
	return files, nil
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) fail(reason string) error {
	return &errors.ParseError{Line: p.pos + 1, Reason: reason}
}

func (p *parser) parse() ([]FileDiff, error) {
	var files []FileDiff
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		switch {
		case strings.HasPrefix(line, "--- "):
			fd, err := p.parseFile()
			if err != nil {
				return nil, err
			}
			files = append(files, fd)
		case strings.HasPrefix(line, "+++ "):
			return nil, p.fail(`"+++" header without preceding "---"`)
		case strings.HasPrefix(line, "@@"):
			return nil, p.fail("hunk header before file header")
		default:
			p.pos++
		}
	}
	return files, nil
}

func (p *parser) parseFile() (FileDiff, error) {
	oldPath := headerPath(p.lines[p.pos][4:])
	p.pos++
	if p.pos >= len(p.lines) || !strings.HasPrefix(p.lines[p.pos], "+++ ") {
		return FileDiff{}, p.fail(`expected "+++" header after "---"`)
	}
	newPath := headerPath(p.lines[p.pos][4:])
	if oldPath == "" && newPath == "" {
		return FileDiff{}, p.fail("both file paths are empty or /dev/null")
	}
	p.pos++

	fd := FileDiff{OldPath: oldPath, NewPath: newPath}
	for p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], "@@") {
		h, err := p.parseHunk()
		if err != nil {
			return FileDiff{}, err
		}
		fd.Hunks = append(fd.Hunks, h)
	}
	if len(fd.Hunks) > 0 && p.strayBodyLine() {
		return FileDiff{}, p.fail("hunk body longer than its header declares")
	}
	return fd, nil
}

// strayBodyLine reports whether the current line looks like a context,
// removal or addition line that no hunk accounted for. Skipping it would
// drop part of the change. "-- " is a format-patch signature separator.
func (p *parser) strayBodyLine() bool {
	if p.pos >= len(p.lines) {
		return false
	}
	l := p.lines[p.pos]
	if l == "-- " || strings.HasPrefix(l, "--- ") {
		return false
	}
	return strings.HasPrefix(l, " ") || strings.HasPrefix(l, "+") || strings.HasPrefix(l, "-")
}

func (p *parser) parseHunk() (Hunk, error) {
	m := hunkHeaderRe.FindStringSubmatch(p.lines[p.pos])
	if m == nil {
		return Hunk{}, p.fail("malformed hunk header")
	}

	var (
		h   Hunk
		err error
	)
	if h.OldStart, h.OldLines, err = parseRange(m[1], m[2]); err != nil {
		return Hunk{}, p.fail(err.Error())
	}
	if h.NewStart, h.NewLines, err = parseRange(m[3], m[4]); err != nil {
		return Hunk{}, p.fail(err.Error())
	}
	h.Section = m[5]
	p.pos++

	oldLeft, newLeft := h.OldLines, h.NewLines
	for oldLeft > 0 || newLeft > 0 {
		if p.pos >= len(p.lines) {
			return Hunk{}, p.fail("unexpected end of diff inside hunk")
		}
		raw := p.lines[p.pos]

		var l Line
		switch {
		case raw == "" || raw == "\r":
			l = Line{Kind: Context}
		case raw[0] == ' ':
			l = Line{Kind: Context, Text: raw[1:]}
		case raw[0] == '-':
			l = Line{Kind: Remove, Text: raw[1:]}
		case raw[0] == '+':
			l = Line{Kind: Add, Text: raw[1:]}
		case strings.HasPrefix(raw, noNewlineMarker):
			p.markNoNewline(&h)
			p.pos++
			continue
		default:
			return Hunk{}, p.fail("hunk body shorter than its header declares")
		}

		switch l.Kind {
		case Context:
			oldLeft--
			newLeft--
		case Remove:
			oldLeft--
		case Add:
			newLeft--
		}
		if oldLeft < 0 || newLeft < 0 {
			return Hunk{}, p.fail("hunk body longer than its header declares")
		}
		h.Lines = append(h.Lines, l)
		p.pos++
	}

	// The marker may trail the last counted line.
	if p.pos < len(p.lines) && strings.HasPrefix(p.lines[p.pos], noNewlineMarker) {
		p.markNoNewline(&h)
		p.pos++
	}
	return h, nil
}

func (p *parser) markNoNewline(h *Hunk) {
	if n := len(h.Lines); n > 0 {
		h.Lines[n-1].NoNewline = true
	}
}

// parseRange parses the start and optional length of one side of a hunk
// header. An omitted length means 1.
func parseRange(start, length string) (int, int, error) {
	s, err := strconv.Atoi(start)
	if err != nil || s < 0 {
		return 0, 0, errors.Wrapf(errors.ErrInvalidArgument, "invalid hunk range start %q", start)
	}
	if length == "" {
		return s, 1, nil
	}
	n, err := strconv.Atoi(length)
	if err != nil || n < 0 {
		return 0, 0, errors.Wrapf(errors.ErrInvalidArgument, "invalid hunk range length %q", length)
	}
	return s, n, nil
}

// headerPath extracts the path from a ---/+++ header value, dropping a
// tab-separated timestamp and surrounding quotes. /dev/null becomes "".
func headerPath(v string) string {
	if i := strings.IndexByte(v, '\t'); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	if unq, err := strconv.Unquote(v); err == nil && strings.HasPrefix(v, `"`) {
		v = unq
	}
	if v == constants.DevNull {
		return ""
	}
	return v
}

// splitRaw splits text into lines without their newlines. Carriage returns
// are kept; they may belong to the file content.
func splitRaw(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
