package diff

import (
	"regexp"
	"strings"

	"github.com/mrz1836/patchbay/internal/errors"
)

// fenceRe matches one fenced code block and captures its info string and body.
var fenceRe = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\r?\n(.*?)```")

// Extract locates the diff embedded in free text, such as a model response.
//
// The first fenced block labeled diff or patch wins. Failing that, the first
// unlabeled fenced block that parses as a diff is used, and failing that the
// whole text if it is itself a diff. The result is guaranteed to parse.
// When nothing qualifies the error wraps ErrNoDiffFound.
func Extract(text string) (string, error) {
	matches := fenceRe.FindAllStringSubmatch(text, -1)

	for _, m := range matches {
		switch strings.ToLower(m[1]) {
		case "diff", "patch", "udiff":
			body := m[2]
			if _, err := Parse(body); err != nil {
				return "", errors.Wrapf(errors.ErrNoDiffFound, "fenced %s block is not a valid diff (%v)", m[1], err)
			}
			return body, nil
		}
	}

	for _, m := range matches {
		if m[1] != "" {
			continue
		}
		if _, err := Parse(m[2]); err == nil {
			return m[2], nil
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "--- ") || strings.HasPrefix(trimmed, "diff --git ") {
		if _, err := Parse(trimmed); err == nil {
			return trimmed + "\n", nil
		}
	}

	return "", errors.Wrap(errors.ErrNoDiffFound, "response contains no diff block")
}
