package tui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/patchbay/internal/agent"
	"github.com/mrz1836/patchbay/internal/constants"
	"github.com/mrz1836/patchbay/internal/git"
	"github.com/mrz1836/patchbay/internal/patch"
	"github.com/mrz1836/patchbay/internal/tool"
)

func TestRenderer_Record(t *testing.T) {
	rec := &agent.Record{
		ID:       "run-1",
		Task:     "fix bug",
		Status:   constants.RunStatusFailedAtValidate,
		State:    agent.StateFailed,
		Proposal: "Here you go",
		Stages: []agent.StageRecord{
			{Stage: constants.StagePropose, OK: true},
			{Stage: constants.StagePreview, OK: true, Preview: &patch.PreviewResult{OK: true, Files: []string{"src/app.py"}}},
			{Stage: constants.StageApply, OK: true, Apply: &patch.ApplyResult{OK: true, Changed: []string{"src/app.py"}}},
			{
				Stage:      constants.StageValidate,
				Error:      "tests failed (exit 1)",
				Validation: tool.NewTestResult(tool.Outcome{ExitCode: 1, Stdout: "1 failed, 1 passed"}),
			},
		},
	}

	var buf bytes.Buffer
	NewRenderer(&buf).Record(rec)
	s := buf.String()

	for _, want := range []string{"run-1", "fix bug", "Propose", "Preview", "Apply", "Validate", "Here you go", "changed src/app.py", "tests failed (exit 1)", "1 failed, 1 passed", "failed-at-validate"} {
		assert.Contains(t, s, want)
	}
}

func TestRenderer_OutcomeTail(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line %02d", i))
	}
	o := &tool.Outcome{Tool: "test", ExitCode: 1, Stdout: strings.Join(lines, "\n") + "\n", Truncated: true}

	var buf bytes.Buffer
	NewRenderer(&buf).Outcome(o)
	s := buf.String()

	assert.Contains(t, s, "10 lines omitted")
	assert.NotContains(t, s, "line 09")
	assert.Contains(t, s, "line 10")
	assert.Contains(t, s, "line 29")
	assert.Contains(t, s, "output truncated")
}

func TestRenderer_OutcomeTimedOut(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Outcome(&tool.Outcome{Tool: "lint", ExitCode: 124, Stderr: "Timeout", TimedOut: true})
	assert.Contains(t, buf.String(), "timed out")
	assert.Contains(t, buf.String(), "Timeout")
}

func TestRenderer_Status(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Status(&git.StatusResult{
		Outcome: tool.Outcome{Success: true},
		Status: &git.Status{
			Branch:    "main",
			Unstaged:  []git.FileChange{{Path: "src/app.py", Status: git.ChangeModified}},
			Untracked: []string{"notes.txt"},
		},
	})
	s := buf.String()
	assert.Contains(t, s, "main")
	assert.Contains(t, s, "modified")
	assert.Contains(t, s, "src/app.py")
	assert.Contains(t, s, "notes.txt")

	buf.Reset()
	NewRenderer(&buf).Status(&git.StatusResult{Status: &git.Status{Branch: "main"}})
	assert.Contains(t, buf.String(), "working tree clean")
}

func TestRenderer_Diff(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Diff("--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new\n")
	s := buf.String()
	assert.Contains(t, s, "-old")
	assert.Contains(t, s, "+new")
	assert.Equal(t, 5, strings.Count(s, "\n"))
}

func TestRenderer_PreviewAndModule(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	r.Preview(&patch.PreviewResult{OK: true, Files: []string{"a", "b"}})
	r.Module(&tool.ModuleResult{OK: false, Exit: 2, Stdout: "hi\n", Stderr: "boom"})
	s := buf.String()
	assert.Contains(t, s, "2 file(s) would change")
	assert.Contains(t, s, "hi\n")
	assert.Contains(t, s, "boom")
	assert.Contains(t, s, "exit 2")
}

func TestRenderer_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).KeyValues([][2]string{{"log", "/tmp/x.log"}, {"project", ".patchbay/config.yaml"}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "/tmp/x.log")
	assert.Contains(t, lines[1], ".patchbay/config.yaml")
}
