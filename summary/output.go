package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"github.com/pterm/pterm"
)

// Report is what the summary writers render.
type Report struct {
	Root        string       `json:"root"`
	Modified    []string     `json:"modified_files"`
	Counts      Counts       `json:"counts"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Pending     []string     `json:"pending_fixes,omitempty"`
	Warning     string       `json:"warning,omitempty"`
	TextSummary string       `json:"text_summary,omitempty"`
}

// Writer renders a report in one format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns the writer for format.
func GetWriter(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONWriter outputs the report as indented JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// TextWriter outputs a boxed summary and a diagnostics table.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	var b strings.Builder

	if report.Warning != "" {
		b.WriteString(lipgloss.Yellow.Render("⚠ "+report.Warning) + "\n\n")
	}

	if len(report.Modified) > 0 {
		b.WriteString(lipgloss.Info.Render("Modified files") + "\n")
		for _, file := range report.Modified {
			b.WriteString(lipgloss.Green.Render("  ✔ ") + relativePath(report.Root, file) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.BoxStyle.Render(countsText(report.Counts)) + "\n\n")

	if len(report.Diagnostics) == 0 {
		b.WriteString(lipgloss.Green.Render("No issues found.") + "\n")
	} else {
		table, err := diagnosticsTable(report)
		if err != nil {
			return err
		}
		b.WriteString(table + "\n")
	}

	if len(report.Pending) > 0 {
		b.WriteString("\n" + lipgloss.BlueSky.Render(fmt.Sprintf("%d pending fix(es):", len(report.Pending))) + "\n")
		for _, file := range report.Pending {
			b.WriteString("  • " + relativePath(report.Root, file) + "\n")
		}
	}

	if report.TextSummary != "" {
		b.WriteString("\n" + strings.TrimRight(report.TextSummary, "\n") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countsText(counts Counts) string {
	lines := []string{
		lipgloss.Info.Render("AI Review Summary"),
		fmt.Sprintf("Total Issues:   %d", counts.Total),
		lipgloss.SeverityStyle("CRITICAL").Render(fmt.Sprintf("Critical:       %d", counts.Critical)),
		lipgloss.SeverityStyle("MAJOR").Render(fmt.Sprintf("Major:          %d", counts.Major)),
		lipgloss.SeverityStyle("MINOR").Render(fmt.Sprintf("Minor:          %d", counts.Minor)),
	}
	if counts.Other > 0 {
		lines = append(lines, fmt.Sprintf("Other:          %d", counts.Other))
	}
	lines = append(lines, fmt.Sprintf("Files Modified: %d", counts.FilesModified))
	return strings.Join(lines, "\n")
}

func diagnosticsTable(report *Report) (string, error) {
	data := pterm.TableData{{"File", "Lines", "Severity", "Message"}}
	for _, d := range report.Diagnostics {
		lines := fmt.Sprintf("%d", d.LineStart)
		if d.LineEnd > d.LineStart {
			lines = fmt.Sprintf("%d-%d", d.LineStart, d.LineEnd)
		}
		data = append(data, []string{
			relativePath(report.Root, d.File),
			lines,
			string(d.Severity),
			d.Message,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func relativePath(root, file string) string {
	if root == "" {
		return file
	}
	if rel, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return file
}
