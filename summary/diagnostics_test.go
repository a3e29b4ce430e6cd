package summary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/reviewmentor/summary/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *models.ReviewSummary {
	return &models.ReviewSummary{Issues: []models.Issue{
		{File: "b.js", LineStart: 20, LineEnd: 22, Category: "bug", Severity: "CRITICAL", Comment: "crash", SuggestedFix: "guard"},
		{File: "a.js", LineStart: 5, Category: "QUALITY", Severity: "MAJOR", Comment: "long function"},
		{File: "b.js", LineStart: 2, LineEnd: 2, Category: "SECURITY", Severity: "minor", Comment: "hardcoded key"},
		{File: "", Severity: "CRITICAL", Comment: "dropped"},
		{File: "/abs/c.css", LineStart: 0, Severity: "INFO", Comment: "no category"},
	}}
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, DiagnosticError, MapSeverity("CRITICAL"))
	assert.Equal(t, DiagnosticWarning, MapSeverity("major"))
	assert.Equal(t, DiagnosticInformation, MapSeverity(" MINOR "))
	assert.Equal(t, DiagnosticHint, MapSeverity("INFO"))
	assert.Equal(t, DiagnosticHint, MapSeverity(""))
}

func TestProjectDiagnostics(t *testing.T) {
	root := "/project"

	diagnostics := ProjectDiagnostics(root, sampleSummary())

	require.Len(t, diagnostics, 4)

	assert.Equal(t, "/abs/c.css", diagnostics[0].File)
	assert.Equal(t, 1, diagnostics[0].LineStart)
	assert.Equal(t, 1, diagnostics[0].LineEnd)
	assert.Equal(t, "no category", diagnostics[0].Message)

	assert.Equal(t, filepath.Join(root, "a.js"), diagnostics[1].File)
	assert.Equal(t, DiagnosticWarning, diagnostics[1].Severity)
	assert.Equal(t, "[QUALITY] long function", diagnostics[1].Message)
	assert.Equal(t, 5, diagnostics[1].LineEnd)

	assert.Equal(t, filepath.Join(root, "b.js"), diagnostics[2].File)
	assert.Equal(t, 2, diagnostics[2].LineStart)
	assert.Equal(t, DiagnosticInformation, diagnostics[2].Severity)
	assert.Equal(t, "[SECURITY] hardcoded key", diagnostics[2].Message)

	assert.Equal(t, 20, diagnostics[3].LineStart)
	assert.Equal(t, 22, diagnostics[3].LineEnd)
	assert.Equal(t, DiagnosticError, diagnostics[3].Severity)
	assert.Equal(t, "[BUG] crash", diagnostics[3].Message)
	assert.Equal(t, "guard", diagnostics[3].SuggestedFix)

	for _, d := range diagnostics {
		assert.Equal(t, DiagnosticSource, d.Source)
	}
}

func TestProjectDiagnostics_NilSummary(t *testing.T) {
	assert.Empty(t, ProjectDiagnostics("/p", nil))
}

func TestComputeCounts(t *testing.T) {
	counts := ComputeCounts(sampleSummary(), []string{"/project/a.js", "/project/b.js"})

	assert.Equal(t, Counts{Total: 5, Critical: 2, Major: 1, Minor: 1, Other: 1, FilesModified: 2}, counts)
	assert.Equal(t, Counts{FilesModified: 1}, ComputeCounts(nil, []string{"x"}))
}

func TestIssueFiles(t *testing.T) {
	files := IssueFiles("/project", sampleSummary())

	assert.Len(t, files, 3)
	assert.Contains(t, files, filepath.Join("/project", "a.js"))
	assert.Contains(t, files, filepath.Join("/project", "b.js"))
	assert.Contains(t, files, "/abs/c.css")
}

func TestResolveIssuePath_ResolvesSymlinks(t *testing.T) {
	realDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	target := filepath.Join(realDir, "app.js")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	link := filepath.Join(t.TempDir(), "linked")
	require.NoError(t, os.Symlink(realDir, link))

	assert.Equal(t, target, ResolveIssuePath("/elsewhere", filepath.Join(link, "app.js")))
	assert.Equal(t, target, ResolveIssuePath(link, "app.js"))
	assert.Equal(t, filepath.Join("/project", "missing.js"), ResolveIssuePath("/project", " missing.js "))
	assert.Empty(t, ResolveIssuePath("/project", "  "))
}
