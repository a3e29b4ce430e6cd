package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Severity values the review backend emits. Anything else is kept verbatim.
const (
	SeverityCritical = "CRITICAL"
	SeverityMajor    = "MAJOR"
	SeverityMinor    = "MINOR"
)

// Category values the review backend emits.
const (
	CategorySecurity    = "SECURITY"
	CategoryBug         = "BUG"
	CategoryQuality     = "QUALITY"
	CategoryPerformance = "PERFORMANCE"
)

// LooseInt decodes JSON numbers, numeric strings and null. Strings that are
// not numbers decode to zero.
type LooseInt int

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*n = LooseInt(parseLooseInt(text))
		return nil
	}

	var number float64
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("expected a number, got %s", string(data))
	}
	*n = LooseInt(int(number))
	return nil
}

func parseLooseInt(text string) int {
	text = strings.TrimSpace(text)
	if value, err := strconv.Atoi(text); err == nil {
		return value
	}
	if value, err := strconv.ParseFloat(text, 64); err == nil {
		return int(value)
	}
	return 0
}

// Issue is one finding reported by the review backend.
type Issue struct {
	File         string   `json:"file"`
	LineStart    LooseInt `json:"line_start"`
	LineEnd      LooseInt `json:"line_end"`
	Category     string   `json:"category"`
	Severity     string   `json:"severity"`
	Comment      string   `json:"comment"`
	SuggestedFix string   `json:"suggested_fix"`
}

// Aggregate is the backend's own tally. It is informational only; counts
// shown to the user are recomputed from Issues.
type Aggregate struct {
	TotalFilesAnalyzed LooseInt `json:"total_files_analyzed"`
	TotalIssues        LooseInt `json:"total_issues"`
	Critical           LooseInt `json:"critical"`
	Major              LooseInt `json:"major"`
	Minor              LooseInt `json:"minor"`
}

// ReviewSummary is the content of the review artifact file.
type ReviewSummary struct {
	Summary Aggregate `json:"summary"`
	Issues  []Issue   `json:"issues"`
}
