package change_detector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureTimestamps_RecordsWalkedFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "dir", "b.txt")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	writeFile(t, filepath.Join(root, "node_modules", "c.js"), "c")

	stamp := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(a, stamp, stamp))

	snapshot := CaptureTimestamps(root, nil)

	assert.Len(t, snapshot, 2)
	assert.Equal(t, stamp.UnixNano(), snapshot[a])
	assert.Contains(t, snapshot, b)
}

func TestCaptureTimestamps_DetectsTouchedFile(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	writeFile(t, a, "a")
	writeFile(t, b, "b")
	base := time.Unix(1700000000, 0)
	require.NoError(t, os.Chtimes(a, base, base))
	require.NoError(t, os.Chtimes(b, base, base))

	before := CaptureTimestamps(root, nil)

	later := base.Add(time.Second)
	require.NoError(t, os.Chtimes(a, later, later))
	writeFile(t, filepath.Join(root, "c.txt"), "new file")
	require.NoError(t, os.Remove(b))

	after := CaptureTimestamps(root, nil)

	assert.Equal(t, []string{a}, DetectModifiedFiles(before, after))
}

func TestCaptureProjectSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")

	snapshot, err := CaptureProjectSnapshot(root, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.Len())
	assert.True(t, filepath.IsAbs(snapshot.RootDir))
	assert.False(t, snapshot.CapturedAt.IsZero())
}
