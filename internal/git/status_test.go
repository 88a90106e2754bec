package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	out := "## main...origin/main [ahead 2, behind 1]\n" +
		"M  staged.go\n" +
		" M unstaged.go\n" +
		"MM both.go\n" +
		"R  old.go -> new.go\n" +
		"?? new_file.txt\n"

	s := parseStatus(out)
	assert.Equal(t, "main", s.Branch)
	assert.Equal(t, 2, s.Ahead)
	assert.Equal(t, 1, s.Behind)
	assert.Equal(t, []FileChange{
		{Path: "staged.go", Status: ChangeModified},
		{Path: "both.go", Status: ChangeModified},
		{Path: "new.go", Status: ChangeRenamed, OldPath: "old.go"},
	}, s.Staged)
	assert.Equal(t, []FileChange{
		{Path: "unstaged.go", Status: ChangeModified},
		{Path: "both.go", Status: ChangeModified},
	}, s.Unstaged)
	assert.Equal(t, []string{"new_file.txt"}, s.Untracked)
	assert.False(t, s.IsClean())
}

func TestParseStatus_FreshRepo(t *testing.T) {
	s := parseStatus("## No commits yet on main\n")
	assert.Equal(t, "main", s.Branch)
	assert.True(t, s.IsClean())
}

func TestParseStatus_NoUpstream(t *testing.T) {
	s := parseStatus("## feature\n")
	assert.Equal(t, "feature", s.Branch)
	assert.Zero(t, s.Ahead)
}
