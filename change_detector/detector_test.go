package change_detector

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/reviewmentor/change_detector/models"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDetectModifiedFiles_Scenario(t *testing.T) {
	before := models.FileSnapshot{"a.txt": 100, "b.txt": 100}
	after := models.FileSnapshot{"a.txt": 150, "b.txt": 100, "c.txt": 200}

	assert.Equal(t, []string{"a.txt"}, DetectModifiedFiles(before, after))
}

func TestDetectModifiedFiles_IgnoresDeletedAndOlder(t *testing.T) {
	before := models.FileSnapshot{"gone.txt": 100, "older.txt": 300, "same.txt": 5}
	after := models.FileSnapshot{"older.txt": 200, "same.txt": 5}

	assert.Empty(t, DetectModifiedFiles(before, after))
}

func TestDetectModifiedFiles_Sorted(t *testing.T) {
	before := models.FileSnapshot{"z": 1, "m": 1, "a": 1}
	after := models.FileSnapshot{"z": 2, "m": 2, "a": 2}

	assert.Equal(t, []string{"a", "m", "z"}, DetectModifiedFiles(before, after))
}

func TestDetectModifiedFiles_StrictIncrease(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}\.txt`), 0, 20, rapid.ID[string]).Draw(t, "paths")
		before := models.FileSnapshot{}
		after := models.FileSnapshot{}
		for _, p := range paths {
			inBefore := rapid.Bool().Draw(t, "inBefore")
			inAfter := rapid.Bool().Draw(t, "inAfter")
			if inBefore {
				before[p] = rapid.Int64Range(0, 1000).Draw(t, "before")
			}
			if inAfter {
				after[p] = rapid.Int64Range(0, 1000).Draw(t, "after")
			}
		}

		modified := DetectModifiedFiles(before, after)

		reported := make(map[string]bool, len(modified))
		for _, p := range modified {
			reported[p] = true
		}
		for _, p := range paths {
			b, inBefore := before[p]
			a, inAfter := after[p]
			want := inBefore && inAfter && a > b
			if reported[p] != want {
				t.Fatalf("path %q: reported=%v want=%v (before=%d,%v after=%d,%v)", p, reported[p], want, b, inBefore, a, inAfter)
			}
		}
	})
}

func TestConfirmContentChanged(t *testing.T) {
	contents := map[string]string{
		"/p/touched.txt": "same bytes",
		"/p/edited.txt":  "new bytes",
		"/p/binary.bin":  "whatever",
	}
	read := func(path string) (string, error) {
		if c, ok := contents[path]; ok {
			return c, nil
		}
		return "", errors.New("gone")
	}
	fingerprints := models.Fingerprints{
		"/p/touched.txt": Fingerprint("same bytes"),
		"/p/edited.txt":  Fingerprint("old bytes"),
		"/p/vanished":    Fingerprint("x"),
	}

	confirmed := ConfirmContentChanged(
		[]string{"/p/binary.bin", "/p/edited.txt", "/p/touched.txt", "/p/vanished"},
		fingerprints, read,
	)

	assert.Equal(t, []string{"/p/binary.bin", "/p/edited.txt", "/p/vanished"}, confirmed)
}

func TestConfirmContentChanged_ReadsDisk(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	writeFile(t, path, "old")
	fingerprints := models.Fingerprints{path: Fingerprint("old")}

	assert.Empty(t, ConfirmContentChanged([]string{path}, fingerprints, nil))

	writeFile(t, path, "new")
	assert.Equal(t, []string{path}, ConfirmContentChanged([]string{path}, fingerprints, nil))
}
