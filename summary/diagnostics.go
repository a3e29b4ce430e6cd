package summary

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/reviewmentor/summary/models"
)

const DiagnosticSource = "reviewmentor"

// DiagnosticSeverity follows the four levels editors use for diagnostics.
type DiagnosticSeverity string

const (
	DiagnosticError       DiagnosticSeverity = "error"
	DiagnosticWarning     DiagnosticSeverity = "warning"
	DiagnosticInformation DiagnosticSeverity = "information"
	DiagnosticHint        DiagnosticSeverity = "hint"
)

// Diagnostic is an issue scoped to a location in the project.
type Diagnostic struct {
	File         string             `json:"file"`
	LineStart    int                `json:"line_start"`
	LineEnd      int                `json:"line_end"`
	Severity     DiagnosticSeverity `json:"severity"`
	Message      string             `json:"message"`
	SuggestedFix string             `json:"suggested_fix,omitempty"`
	Source       string             `json:"source"`
}

// Counts is the aggregate shown in the summary view.
type Counts struct {
	Total         int `json:"total"`
	Critical      int `json:"critical"`
	Major         int `json:"major"`
	Minor         int `json:"minor"`
	Other         int `json:"other"`
	FilesModified int `json:"files_modified"`
}

// MapSeverity converts a backend severity to a diagnostic severity.
func MapSeverity(severity string) DiagnosticSeverity {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case models.SeverityCritical:
		return DiagnosticError
	case models.SeverityMajor:
		return DiagnosticWarning
	case models.SeverityMinor:
		return DiagnosticInformation
	default:
		return DiagnosticHint
	}
}

// ResolveIssuePath makes an issue's file absolute relative to root. Symlinks
// in existing paths are resolved so they compare equal to walked paths under
// a resolved root.
func ResolveIssuePath(root, file string) string {
	file = strings.TrimSpace(file)
	if file == "" {
		return ""
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	file = filepath.Clean(file)
	if resolved, err := filepath.EvalSymlinks(file); err == nil {
		return resolved
	}
	return file
}

// ProjectDiagnostics maps every issue with a file to a diagnostic, sorted by
// file and then line.
func ProjectDiagnostics(root string, summary *models.ReviewSummary) []Diagnostic {
	if summary == nil {
		return nil
	}

	diagnostics := make([]Diagnostic, 0, len(summary.Issues))
	for _, issue := range summary.Issues {
		file := ResolveIssuePath(root, issue.File)
		if file == "" {
			continue
		}

		start := int(issue.LineStart)
		if start < 1 {
			start = 1
		}
		end := int(issue.LineEnd)
		if end < start {
			end = start
		}

		diagnostics = append(diagnostics, Diagnostic{
			File:         file,
			LineStart:    start,
			LineEnd:      end,
			Severity:     MapSeverity(issue.Severity),
			Message:      diagnosticMessage(issue),
			SuggestedFix: issue.SuggestedFix,
			Source:       DiagnosticSource,
		})
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		if diagnostics[i].File != diagnostics[j].File {
			return diagnostics[i].File < diagnostics[j].File
		}
		return diagnostics[i].LineStart < diagnostics[j].LineStart
	})
	return diagnostics
}

func diagnosticMessage(issue models.Issue) string {
	category := strings.ToUpper(strings.TrimSpace(issue.Category))
	if category == "" {
		return issue.Comment
	}
	return fmt.Sprintf("[%s] %s", category, issue.Comment)
}

// ComputeCounts tallies issues by severity.
func ComputeCounts(summary *models.ReviewSummary, modified []string) Counts {
	counts := Counts{FilesModified: len(modified)}
	if summary == nil {
		return counts
	}

	for _, issue := range summary.Issues {
		counts.Total++
		switch strings.ToUpper(strings.TrimSpace(issue.Severity)) {
		case models.SeverityCritical:
			counts.Critical++
		case models.SeverityMajor:
			counts.Major++
		case models.SeverityMinor:
			counts.Minor++
		default:
			counts.Other++
		}
	}
	return counts
}

// IssueFiles returns the set of absolute paths referenced by issues.
func IssueFiles(root string, summary *models.ReviewSummary) map[string]struct{} {
	files := make(map[string]struct{})
	if summary == nil {
		return files
	}
	for _, issue := range summary.Issues {
		if file := ResolveIssuePath(root, issue.File); file != "" {
			files[file] = struct{}{}
		}
	}
	return files
}
