package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/errors"
)

const appDiff = `diff --git a/src/app.py b/src/app.py
index 3b18e51..a7c4f2d 100644
--- a/src/app.py
+++ b/src/app.py
@@ -1,3 +1,3 @@ def main():
 import sys
-print("hello")
+print("hello, world")
 sys.exit(0)
`

func TestParse_SingleFile(t *testing.T) {
	t.Parallel()

	files, err := Parse(appDiff)
	require.NoError(t, err)
	require.Len(t, files, 1)

	fd := files[0]
	assert.Equal(t, "a/src/app.py", fd.OldPath)
	assert.Equal(t, "b/src/app.py", fd.NewPath)
	assert.False(t, fd.IsCreate())
	assert.False(t, fd.IsDelete())
	assert.False(t, fd.IsRename())
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	assert.Equal(t, Hunk{
		OldStart: 1, OldLines: 3, NewStart: 1, NewLines: 3,
		Section: "def main():",
		Lines: []Line{
			{Kind: Context, Text: "import sys"},
			{Kind: Remove, Text: `print("hello")`},
			{Kind: Add, Text: `print("hello, world")`},
			{Kind: Context, Text: "sys.exit(0)"},
		},
	}, h)
	assert.Len(t, h.OldSide(), 3)
	assert.Len(t, h.NewSide(), 3)
}

func TestParse_MultipleFilesPreserveOrder(t *testing.T) {
	t.Parallel()

	text := `--- a/b.txt
+++ b/b.txt
@@ -1 +1 @@
-old
+new
--- /dev/null
+++ b/new/file.txt	2024-01-01 00:00:00
@@ -0,0 +1,2 @@
+one
+two
--- a/gone.txt
+++ /dev/null
@@ -1 +0,0 @@
-bye
`
	files, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "b/b.txt", files[0].Path())

	assert.True(t, files[1].IsCreate())
	assert.Equal(t, "b/new/file.txt", files[1].NewPath)
	assert.Equal(t, []string{"b/new/file.txt"}, files[1].Paths())
	assert.Equal(t, 0, files[1].Hunks[0].OldLines)

	assert.True(t, files[2].IsDelete())
	assert.Equal(t, "a/gone.txt", files[2].Path())
	assert.Equal(t, 0, files[2].Hunks[0].NewLines)
}

func TestParse_OmittedLengthMeansOne(t *testing.T) {
	t.Parallel()

	files, err := Parse("--- a/x\n+++ b/x\n@@ -3 +3,2 @@\n-a\n+b\n+c\n")
	require.NoError(t, err)
	h := files[0].Hunks[0]
	assert.Equal(t, 3, h.OldStart)
	assert.Equal(t, 1, h.OldLines)
	assert.Equal(t, 2, h.NewLines)
}

func TestParse_NoNewlineMarker(t *testing.T) {
	t.Parallel()

	text := "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file\n"
	files, err := Parse(text)
	require.NoError(t, err)

	lines := files[0].Hunks[0].Lines
	require.Len(t, lines, 2)
	assert.True(t, lines[0].NoNewline)
	assert.True(t, lines[1].NoNewline)
}

func TestParse_BlankLineIsEmptyContext(t *testing.T) {
	t.Parallel()

	text := "--- a/x\n+++ b/x\n@@ -1,3 +1,3 @@\n a\n\n-b\n+c\n"
	files, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, Line{Kind: Context}, files[0].Hunks[0].Lines[1])
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		line int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t\n", 0},
		{"no headers", "just some prose\n", 0},
		{"missing plus header", "--- a/x\n@@ -1 +1 @@\n", 2},
		{"plus without minus", "+++ b/x\n", 1},
		{"hunk before header", "@@ -1 +1 @@\n", 1},
		{"malformed hunk header", "--- a/x\n+++ b/x\n@@ garbage @@\n", 3},
		{"non integer range", "--- a/x\n+++ b/x\n@@ -a,1 +1,1 @@\n-x\n+y\n", 3},
		{"non integer length", "--- a/x\n+++ b/x\n@@ -1,z +1,1 @@\n-x\n+y\n", 3},
		{"truncated body", "--- a/x\n+++ b/x\n@@ -1,2 +1,2 @@\n a\n", 5},
		{"body longer than header", "--- a/x\n+++ b/x\n@@ -1 +1 @@\n a\n-b\n", 5},
		{"context after counts used up", "--- a/x\n+++ b/x\n@@ -1,2 +1,2 @@\n a\n-b\n+B\n c\n-d\n+D\n", 7},
		{"both dev null", "--- /dev/null\n+++ /dev/null\n", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tc.text)
			require.ErrorIs(t, err, errors.ErrDiffParse)

			var pe *errors.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.line, pe.Line)
		})
	}
}

func TestParse_CRLFContentKept(t *testing.T) {
	t.Parallel()

	text := "--- a/x\r\n+++ b/x\r\n@@ -1 +1 @@\r\n-old\r\n+new\r\n"
	files, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "a/x", files[0].OldPath)
	assert.Equal(t, "old\r", files[0].Hunks[0].Lines[0].Text)
}

func TestFileDiff_IsRename(t *testing.T) {
	t.Parallel()

	assert.True(t, FileDiff{OldPath: "a/old.txt", NewPath: "b/new.txt"}.IsRename())
	assert.False(t, FileDiff{OldPath: "a/same.txt", NewPath: "b/same.txt"}.IsRename())
	assert.False(t, FileDiff{NewPath: "b/new.txt"}.IsRename())
}
