package summary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/reviewmentor/summary/models"
)

const (
	DefaultSummaryFile = "CODE_REVIEW_SUMMARY.json"
	TextSummaryFile    = "CODE_REVIEW_SUMMARY.txt"
)

var (
	ErrSummaryNotFound = errors.New("review summary not found")
	ErrSummaryInvalid  = errors.New("review summary is not valid JSON")
)

// ArtifactPath returns the absolute path of the summary file inside root.
func ArtifactPath(root, name string) string {
	if name == "" {
		name = DefaultSummaryFile
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(root, name)
}

// ArtifactExists reports whether the summary file is present in root.
func ArtifactExists(root, name string) bool {
	info, err := os.Stat(ArtifactPath(root, name))
	return err == nil && !info.IsDir()
}

// ReadSummaryJson loads and parses the summary file in root. The returned
// error wraps ErrSummaryNotFound or ErrSummaryInvalid.
func ReadSummaryJson(root, name string) (*models.ReviewSummary, error) {
	path := ArtifactPath(root, name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSummaryNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSummaryNotFound, path, err)
	}

	summary, err := ParseSummary(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return summary, nil
}

// ParseSummary accepts either an object with an "issues" array or a bare
// array of issues.
func ParseSummary(data []byte) (*models.ReviewSummary, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrSummaryInvalid)
	}

	if trimmed[0] == '[' {
		var issues []models.Issue
		if err := json.Unmarshal(trimmed, &issues); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSummaryInvalid, err)
		}
		return &models.ReviewSummary{Issues: issues}, nil
	}

	var raw struct {
		Summary models.Aggregate `json:"summary"`
		Issues  *[]models.Issue  `json:"issues"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummaryInvalid, err)
	}
	if raw.Issues == nil {
		return nil, fmt.Errorf("%w: missing \"issues\" array", ErrSummaryInvalid)
	}

	return &models.ReviewSummary{Summary: raw.Summary, Issues: *raw.Issues}, nil
}

// ReadTextSummary returns the plain-text report the backend writes next to
// the JSON artifact.
func ReadTextSummary(root string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(root, TextSummaryFile))
	if err != nil {
		return "", false
	}
	return string(data), true
}
