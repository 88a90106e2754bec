package git

import (
	"strconv"
	"strings"
)

// Status is the parsed form of "git status --porcelain --branch".
type Status struct {
	Branch    string       `json:"branch,omitempty"`
	Ahead     int          `json:"ahead,omitempty"`
	Behind    int          `json:"behind,omitempty"`
	Staged    []FileChange `json:"staged"`
	Unstaged  []FileChange `json:"unstaged"`
	Untracked []string     `json:"untracked"`
}

// FileChange represents a changed file in the working tree.
type FileChange struct {
	Path    string     `json:"path"`
	Status  ChangeType `json:"status"`
	OldPath string     `json:"oldPath,omitempty"`
}

// ChangeType is a porcelain status letter.
type ChangeType string

// Change type constants for git status.
const (
	ChangeAdded    ChangeType = "A"
	ChangeModified ChangeType = "M"
	ChangeDeleted  ChangeType = "D"
	ChangeRenamed  ChangeType = "R"
	ChangeCopied   ChangeType = "C"
	ChangeUnmerged ChangeType = "U"
)

// IsClean returns true if the working tree has no changes.
func (s *Status) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// parseStatus parses porcelain v1 output with a branch header.
func parseStatus(output string) *Status {
	status := &Status{
		Staged:    []FileChange{},
		Unstaged:  []FileChange{},
		Untracked: []string{},
	}

	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			parseBranchLine(line, status)
			continue
		}

		// XY PATH or XY ORIG -> PATH
		indexStatus, workTreeStatus := line[0], line[1]
		path := strings.TrimSpace(line[3:])

		var oldPath string
		if orig, dest, ok := strings.Cut(path, " -> "); ok {
			oldPath, path = orig, dest
		}

		if indexStatus == '?' && workTreeStatus == '?' {
			status.Untracked = append(status.Untracked, path)
			continue
		}
		if indexStatus != ' ' && indexStatus != '?' {
			status.Staged = append(status.Staged, FileChange{Path: path, Status: ChangeType(indexStatus), OldPath: oldPath})
		}
		if workTreeStatus != ' ' && workTreeStatus != '?' {
			status.Unstaged = append(status.Unstaged, FileChange{Path: path, Status: ChangeType(workTreeStatus), OldPath: oldPath})
		}
	}
	return status
}

// parseBranchLine reads "## main...origin/main [ahead 1, behind 2]".
// A fresh repository reports "## No commits yet on main".
func parseBranchLine(line string, status *Status) {
	line = strings.TrimPrefix(line, "## ")
	line = strings.TrimPrefix(line, "No commits yet on ")

	local, remote, found := strings.Cut(line, "...")
	status.Branch = local
	if !found {
		return
	}

	start := strings.Index(remote, " [")
	if start == -1 || !strings.HasSuffix(remote, "]") {
		return
	}
	info := remote[start+2 : len(remote)-1]
	status.Ahead = countAfter(info, "ahead ")
	status.Behind = countAfter(info, "behind ")
}

func countAfter(info, prefix string) int {
	idx := strings.Index(info, prefix)
	if idx == -1 {
		return 0
	}
	num := info[idx+len(prefix):]
	if comma := strings.IndexByte(num, ','); comma != -1 {
		num = num[:comma]
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0
	}
	return n
}
