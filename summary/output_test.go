package summary

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Root:        "/project",
		Modified:    []string{"/project/src/app.js"},
		Counts:      Counts{Total: 1, Critical: 1, FilesModified: 1},
		Diagnostics: ProjectDiagnostics("/project", sampleSummary())[1:2],
		Pending:     []string{"/project/src/app.js"},
		TextSummary: "CODE REVIEW COMPLETE\n",
	}
}

func TestGetWriter(t *testing.T) {
	w, err := GetWriter("text")
	require.NoError(t, err)
	assert.IsType(t, &TextWriter{}, w)

	w, err = GetWriter("JSON")
	require.NoError(t, err)
	assert.IsType(t, &JSONWriter{}, w)

	_, err = GetWriter("sarif")
	assert.Error(t, err)
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, sampleReport()))

	var parsed Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "/project", parsed.Root)
	assert.Equal(t, 1, parsed.Counts.Critical)
	require.Len(t, parsed.Diagnostics, 1)
	assert.Equal(t, "[QUALITY] long function", parsed.Diagnostics[0].Message)
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "AI Review Summary")
	assert.Contains(t, out, "src/app.js")
	assert.Contains(t, out, "a.js")
	assert.Contains(t, out, "long function")
	assert.Contains(t, out, "pending fix")
	assert.Contains(t, out, "CODE REVIEW COMPLETE")
}

func TestTextWriter_NoIssuesWithWarning(t *testing.T) {
	var buf bytes.Buffer
	report := &Report{Root: "/p", Warning: "review summary not found"}

	require.NoError(t, (&TextWriter{}).Write(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "review summary not found")
	assert.Contains(t, out, "No issues found.")
}
