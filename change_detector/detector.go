package change_detector

import (
	"os"
	"sort"

	"github.com/meysamhadeli/reviewmentor/change_detector/models"
)

// DetectModifiedFiles returns the paths present in both snapshots whose
// modification time strictly increased, sorted.
//
// Equal timestamps are not reported, so an edit that lands inside the
// filesystem's mtime resolution is missed. Files only in after (created) or
// only in before (deleted) are never reported.
func DetectModifiedFiles(before, after models.FileSnapshot) []string {
	modified := make([]string, 0)
	for path, afterTime := range after {
		beforeTime, ok := before[path]
		if ok && afterTime > beforeTime {
			modified = append(modified, path)
		}
	}
	sort.Strings(modified)
	return modified
}

// ContentReader returns the current content of a file.
type ContentReader func(path string) (string, error)

// ReadCurrent reads a file from disk.
func ReadCurrent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ConfirmContentChanged drops paths whose current content hashes to the
// fingerprint captured before the review, i.e. files whose mtime moved but
// whose bytes did not. Paths without a fingerprint, or whose content can no
// longer be read, keep the mtime verdict.
func ConfirmContentChanged(paths []string, fingerprints models.Fingerprints, read ContentReader) []string {
	if read == nil {
		read = ReadCurrent
	}

	confirmed := make([]string, 0, len(paths))
	for _, path := range paths {
		baseline, ok := fingerprints[path]
		if !ok {
			confirmed = append(confirmed, path)
			continue
		}
		content, err := read(path)
		if err != nil {
			confirmed = append(confirmed, path)
			continue
		}
		if Fingerprint(content) != baseline {
			confirmed = append(confirmed, path)
		}
	}
	return confirmed
}
