package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/diff"
)

func mustHunks(t *testing.T, text string) []diff.Hunk {
	t.Helper()
	files, err := diff.Parse(text)
	require.NoError(t, err)
	require.Len(t, files, 1)
	return files[0].Hunks
}

func TestApplyHunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		diff    string
		want    string
	}{
		{
			name:    "exact position",
			content: "a\nb\nc\n",
			diff:    "--- a/x\n+++ b/x\n@@ -2 +2 @@\n-b\n+B\n",
			want:    "a\nB\nc\n",
		},
		{
			name:    "drift down",
			content: "new1\nnew2\na\nb\nc\n",
			diff:    "--- a/x\n+++ b/x\n@@ -1,2 +1,2 @@\n a\n-b\n+B\n",
			want:    "new1\nnew2\na\nB\nc\n",
		},
		{
			name:    "drift up",
			content: "b\nc\n",
			diff:    "--- a/x\n+++ b/x\n@@ -5,2 +5,2 @@\n b\n-c\n+C\n",
			want:    "b\nC\n",
		},
		{
			name:    "second hunk follows drift of the first",
			content: "x\nx\na\n1\n2\n3\nb\n",
			diff:    "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+A\n@@ -5 +5 @@\n-b\n+B\n",
			want:    "x\nx\nA\n1\n2\n3\nB\n",
		},
		{
			name:    "insert into empty",
			content: "",
			diff:    "--- /dev/null\n+++ b/x\n@@ -0,0 +1,2 @@\n+one\n+two\n",
			want:    "one\ntwo\n",
		},
		{
			name:    "append after last line",
			content: "a\n",
			diff:    "--- a/x\n+++ b/x\n@@ -1,0 +2 @@\n+b\n",
			want:    "a\nb\n",
		},
		{
			name:    "no newline kept from original",
			content: "a\nb",
			diff:    "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+A\n",
			want:    "A\nb",
		},
		{
			name:    "no newline requested by diff",
			content: "a\n",
			diff:    "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+A\n\\ No newline at end of file\n",
			want:    "A",
		},
		{
			name:    "newline added at end",
			content: "a",
			diff:    "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n\\ No newline at end of file\n+a\n",
			want:    "a\n",
		},
		{
			name:    "crlf content matches lf diff",
			content: "a\r\nb\r\n",
			diff:    "--- a/x\n+++ b/x\n@@ -1,2 +1,2 @@\n a\n-b\n+B\r\n",
			want:    "a\r\nB\r\n",
		},
		{
			name:    "remove everything",
			content: "a\nb\n",
			diff:    "--- a/x\n+++ /dev/null\n@@ -1,2 +0,0 @@\n-a\n-b\n",
			want:    "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, conflict := applyHunks(tc.content, mustHunks(t, tc.diff))
			require.Nil(t, conflict)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyHunks_TiePrefersEarlierLine(t *testing.T) {
	t.Parallel()

	// "b" sits one line above and one line below the stated line 3.
	content := "a\nb\nX\nb\nc\n"
	got, conflict := applyHunks(content, mustHunks(t, "--- a/x\n+++ b/x\n@@ -3 +3 @@\n-b\n+B\n"))
	require.Nil(t, conflict)
	assert.Equal(t, "a\nB\nX\nb\nc\n", got)
}

func TestApplyHunks_Conflict(t *testing.T) {
	t.Parallel()

	_, conflict := applyHunks("a\nb\n", mustHunks(t, "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+A\n@@ -2 +2 @@\n-z\n+Z\n"))
	require.NotNil(t, conflict)
	assert.Equal(t, 2, conflict.hunk)
	assert.Contains(t, conflict.reason, "line 2")
}

func TestApplyHunks_BeyondMaxOffset(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("pad\n", MaxOffset+5) + "target\n"
	_, conflict := applyHunks(content, mustHunks(t, "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-target\n+hit\n"))
	require.NotNil(t, conflict)
	assert.Equal(t, 1, conflict.hunk)
}

func TestApplyHunks_HunksDoNotMoveBackwards(t *testing.T) {
	t.Parallel()

	_, conflict := applyHunks("a\nb\n", mustHunks(t, "--- a/x\n+++ b/x\n@@ -2 +2 @@\n-b\n+B\n@@ -1 +1 @@\n-a\n+A\n"))
	require.NotNil(t, conflict)
	assert.Equal(t, 2, conflict.hunk)
}
