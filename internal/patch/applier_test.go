package patch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/patchbay/internal/diff"
	"github.com/mrz1836/patchbay/internal/errors"
	"github.com/mrz1836/patchbay/internal/sandbox"
	"github.com/mrz1836/patchbay/internal/testutil"
)

const appPy = "import sys\nprint(\"hello\")\nsys.exit(0)\n"

const appDiff = `--- a/src/app.py
+++ b/src/app.py
@@ -1,3 +1,3 @@
 import sys
-print("hello")
+print("hello, world")
 sys.exit(0)
`

func newTestApplier(t *testing.T) (*Applier, string) {
	t.Helper()
	root := t.TempDir()
	g, err := sandbox.New(root)
	require.NoError(t, err)
	l := sandbox.NewLocker("", 0)
	return New(g, zerolog.Nop(), WithLocker(l)), g.Root()
}

func TestPreview_SingleFile(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "src/app.py", appPy)

	res, err := a.Preview(context.Background(), appDiff)
	require.NoError(t, err)
	assert.Equal(t, &PreviewResult{OK: true, Files: []string{"src/app.py"}}, res)
}

func TestPreview_Idempotent(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "src/app.py", appPy)

	text := appDiff + "--- a/README.md\n+++ b/README.md\n@@ -0,0 +1 @@\n+hi\n"
	first, err := a.Preview(context.Background(), text)
	require.NoError(t, err)
	second, err := a.Preview(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"src/app.py", "README.md"}, first.Files)
}

func TestPreview_DoesNotNeedMatchingContent(t *testing.T) {
	a, root := newTestApplier(t)

	_, err := a.Preview(context.Background(), appDiff)
	require.NoError(t, err)
	assert.Empty(t, testutil.Snapshot(t, root))
}

func TestPathViolation_NothingWritten(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent relative", "../outside.txt"},
		{"etc passwd", "../../etc/passwd"},
		{"absolute", "/etc/passwd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, root := newTestApplier(t)
			testutil.WriteFile(t, root, "src/app.py", appPy)
			before := testutil.Snapshot(t, root)

			text := appDiff + "--- " + tc.path + "\n+++ " + tc.path + "\n@@ -0,0 +1 @@\n+pwned\n"

			_, err := a.Preview(context.Background(), text)
			require.ErrorIs(t, err, errors.ErrPathViolation)
			assert.Equal(t, tc.path, errors.OffendingFile(err))

			_, err = a.Apply(context.Background(), text)
			require.ErrorIs(t, err, errors.ErrPathViolation)

			assert.Equal(t, before, testutil.Snapshot(t, root))
			_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "outside.txt"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestPreview_ParseError(t *testing.T) {
	a, _ := newTestApplier(t)
	_, err := a.Preview(context.Background(), "   \n")
	require.ErrorIs(t, err, errors.ErrDiffParse)
}

func TestApply_SingleFile(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "src/app.py", appPy)

	res, err := a.Apply(context.Background(), appDiff)
	require.NoError(t, err)
	assert.Equal(t, &ApplyResult{OK: true, Changed: []string{"src/app.py"}}, res)
	assert.Equal(t, "import sys\nprint(\"hello, world\")\nsys.exit(0)\n", testutil.ReadFile(t, root, "src/app.py"))
}

func TestApply_ConflictLeavesFileUnchanged(t *testing.T) {
	a, root := newTestApplier(t)
	original := "import os\nprint(\"bye\")\n"
	testutil.WriteFile(t, root, "src/app.py", original)

	_, err := a.Apply(context.Background(), appDiff)
	require.ErrorIs(t, err, errors.ErrApplyConflict)
	assert.Equal(t, "src/app.py", errors.OffendingFile(err))
	assert.Equal(t, original, testutil.ReadFile(t, root, "src/app.py"))
}

func TestApply_UncountedHunkLinesRejected(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "f.txt", "a\nb\nc\nd\n")

	text := "--- a/f.txt\n+++ b/f.txt\n@@ -1,2 +1,2 @@\n a\n-b\n+B\n c\n-d\n+D\n"
	_, err := a.Apply(context.Background(), text)
	require.ErrorIs(t, err, errors.ErrDiffParse)
	assert.Equal(t, "a\nb\nc\nd\n", testutil.ReadFile(t, root, "f.txt"))

	_, err = a.Preview(context.Background(), text)
	require.ErrorIs(t, err, errors.ErrDiffParse)
}

func TestApply_MultiFileConflictWritesNothing(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "src/app.py", appPy)
	testutil.WriteFile(t, root, "lib/util.py", "def f():\n    return 1\n")
	before := testutil.Snapshot(t, root)

	text := appDiff + `--- /dev/null
+++ b/docs/new.md
@@ -0,0 +1 @@
+# New
--- a/lib/util.py
+++ b/lib/util.py
@@ -1,2 +1,2 @@
 def f():
-    return 2
+    return 3
`
	_, err := a.Apply(context.Background(), text)
	require.ErrorIs(t, err, errors.ErrApplyConflict)

	var ac *errors.ApplyConflictError
	require.ErrorAs(t, err, &ac)
	assert.Equal(t, "lib/util.py", ac.File)
	assert.Equal(t, 1, ac.Hunk)

	assert.Equal(t, before, testutil.Snapshot(t, root))
	_, statErr := os.Stat(filepath.Join(root, "docs"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestApply_FirstFailingFileIsReported(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "one.txt", "a\n")
	testutil.WriteFile(t, root, "two.txt", "b\n")

	text := "--- a/one.txt\n+++ b/one.txt\n@@ -1 +1 @@\n-x\n+y\n--- a/two.txt\n+++ b/two.txt\n@@ -1 +1 @@\n-x\n+y\n"
	_, err := a.Apply(context.Background(), text)
	assert.Equal(t, "one.txt", errors.OffendingFile(err))
}

func TestApply_CreateDeleteRename(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "old.txt", "keep me\n")
	testutil.WriteFile(t, root, "gone.txt", "bye\n")

	text := `--- /dev/null
+++ b/pkg/deep/new.txt
@@ -0,0 +1,2 @@
+hello
+world
--- a/gone.txt
+++ /dev/null
@@ -1 +0,0 @@
-bye
--- a/old.txt
+++ b/moved.txt
@@ -1 +1 @@
-keep me
+kept
`
	res, err := a.Apply(context.Background(), text)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pkg/deep/new.txt", "gone.txt", "old.txt", "moved.txt"}, res.Changed)

	assert.Equal(t, map[string]string{
		"pkg/deep/new.txt": "hello\nworld\n",
		"moved.txt":        "kept\n",
	}, testutil.Snapshot(t, root))
}

func TestApply_CreateExistingFileConflicts(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "x.txt", "here\n")

	_, err := a.Apply(context.Background(), "--- /dev/null\n+++ b/x.txt\n@@ -0,0 +1 @@\n+new\n")
	require.ErrorIs(t, err, errors.ErrApplyConflict)
	assert.Equal(t, "here\n", testutil.ReadFile(t, root, "x.txt"))
}

func TestApply_DeleteMissingFileConflicts(t *testing.T) {
	a, _ := newTestApplier(t)
	_, err := a.Apply(context.Background(), "--- a/nope.txt\n+++ /dev/null\n@@ -1 +0,0 @@\n-x\n")
	require.ErrorIs(t, err, errors.ErrApplyConflict)
}

func TestApply_MissingFileTreatedAsEmpty(t *testing.T) {
	a, root := newTestApplier(t)

	res, err := a.Apply(context.Background(), "--- a/notes.txt\n+++ b/notes.txt\n@@ -0,0 +1 @@\n+first\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, res.Changed)
	assert.Equal(t, "first\n", testutil.ReadFile(t, root, "notes.txt"))
}

func TestApply_SameFileTwiceUsesBufferedContent(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "x.txt", "a\nb\n")

	text := "--- a/x.txt\n+++ b/x.txt\n@@ -1 +1 @@\n-a\n+A\n--- a/x.txt\n+++ b/x.txt\n@@ -2 +2 @@\n-b\n+B\n"
	res, err := a.Apply(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.txt"}, res.Changed)
	assert.Equal(t, "A\nB\n", testutil.ReadFile(t, root, "x.txt"))
}

func TestApply_PreservesMode(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "run.sh", "echo hi\n")
	require.NoError(t, os.Chmod(filepath.Join(root, "run.sh"), 0o700)) //nolint:gosec // test script

	_, err := a.Apply(context.Background(), "--- a/run.sh\n+++ b/run.sh\n@@ -1 +1 @@\n-echo hi\n+echo bye\n")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestApply_RestoresOnWriteFailure(t *testing.T) {
	a, root := newTestApplier(t)
	testutil.WriteFile(t, root, "a.txt", "a\n")
	testutil.WriteFile(t, root, "b.txt", "b\n")
	before := testutil.Snapshot(t, root)

	calls := 0
	renameFile = func(oldPath, newPath string) error {
		calls++
		if calls == 3 {
			return os.ErrPermission
		}
		return os.Rename(oldPath, newPath)
	}
	t.Cleanup(func() { renameFile = os.Rename })

	text := "--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-a\n+A\n" +
		"--- /dev/null\n+++ b/new/c.txt\n@@ -0,0 +1 @@\n+c\n" +
		"--- a/b.txt\n+++ b/b.txt\n@@ -1 +1 @@\n-b\n+B\n"

	_, err := a.Apply(context.Background(), text)
	require.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, before, testutil.Snapshot(t, root))
	_, statErr := os.Stat(filepath.Join(root, "new"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlan_RoundTrip(t *testing.T) {
	a, root := newTestApplier(t)
	original := "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\n"
	testutil.WriteFile(t, root, "n.txt", original)

	text := "--- a/n.txt\n+++ b/n.txt\n@@ -2,2 +2,3 @@\n two\n-three\n+THREE\n+three and a half\n@@ -7,2 +8,2 @@\n seven\n-eight\n+EIGHT\n"

	changes, err := a.Plan(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	result := changes[0].Next

	derived, err := diff.UnifiedFile("n.txt", original, result)
	require.NoError(t, err)

	again, err := a.Plan(context.Background(), derived)
	require.NoError(t, err)
	assert.Equal(t, result, again[0].Next)

	// Plan never writes.
	assert.Equal(t, original, testutil.ReadFile(t, root, "n.txt"))
}

func TestApply_RootItselfRejected(t *testing.T) {
	a, _ := newTestApplier(t)
	_, err := a.Apply(context.Background(), "--- a/.\n+++ b/.\n@@ -0,0 +1 @@\n+x\n")
	require.ErrorIs(t, err, errors.ErrApplyConflict)
}
