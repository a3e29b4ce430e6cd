package change_detector

import (
	"os"
	"path/filepath"
	"time"

	"github.com/meysamhadeli/reviewmentor/change_detector/models"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/zeebo/xxh3"
)

// CaptureTimestamps walks root and records each file's modification time.
// Files that vanish or cannot be stat'ed between the walk and the stat are
// left out: absence in a snapshot means "no information", not "unchanged".
func CaptureTimestamps(root string, ignore *utils.IgnoreSet) models.FileSnapshot {
	timestamps := make(models.FileSnapshot)

	for path := range Walk(root, ignore) {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		timestamps[path] = info.ModTime().UnixNano()
	}

	return timestamps
}

// CaptureProjectSnapshot wraps CaptureTimestamps with its root and capture time.
func CaptureProjectSnapshot(root string, ignore *utils.IgnoreSet) (*models.ProjectSnapshot, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &models.ProjectSnapshot{
		RootDir:    absRoot,
		CapturedAt: time.Now(),
		Files:      CaptureTimestamps(absRoot, ignore),
	}, nil
}

// Fingerprint hashes content with xxh3.
func Fingerprint(content string) uint64 {
	return xxh3.HashString(content)
}
