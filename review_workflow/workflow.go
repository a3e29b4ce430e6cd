package review_workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/reviewmentor/change_detector"
	"github.com/meysamhadeli/reviewmentor/providers/contracts"
	provider_models "github.com/meysamhadeli/reviewmentor/providers/models"
	"github.com/meysamhadeli/reviewmentor/review_session"
	"github.com/meysamhadeli/reviewmentor/summary"
	"github.com/meysamhadeli/reviewmentor/summary/models"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/pterm/pterm"
)

var (
	ErrNoWorkspace       = errors.New("no project directory to review")
	ErrMissingCredential = errors.New("an API key is required to run a review")
)

// Workflow runs one review over a project: capture, backend call, change
// detection and projection of the backend's findings.
type Workflow struct {
	Session *review_session.ReviewSession
	Backend contracts.IReviewBackend
	Ignore  *utils.IgnoreSet
	Logger  *pterm.Logger

	SummaryFile   string
	MaxFileBytes  int64
	VerifyContent bool
	// ReuseSummary skips the backend when the artifact already exists.
	ReuseSummary  bool
}

// Result is everything one run produced.
type Result struct {
	SessionID      string
	Root           string
	BackendInvoked bool
	Completion     provider_models.Completion
	Modified       []string
	Summary        *models.ReviewSummary
	SummaryWarning error
	Diagnostics    []summary.Diagnostic
	Counts         summary.Counts
	Pending        []string
}

// Run reviews root with the given credential. Any backend failure aborts the
// run; a missing or malformed summary artifact only sets SummaryWarning.
func (w *Workflow) Run(ctx context.Context, root, credential string) (*Result, error) {
	absRoot, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}

	logger := w.Logger
	if logger == nil {
		logger = utils.DisabledLogger()
	}

	sessionCtx, err := w.Session.Begin(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	defer w.Session.End()

	result := &Result{SessionID: w.Session.ID(), Root: absRoot}

	before := change_detector.CaptureTimestamps(absRoot, w.Ignore)

	if w.ReuseSummary && summary.ArtifactExists(absRoot, w.SummaryFile) {
		logger.Info("using existing review summary", logger.Args("file", summary.ArtifactPath(absRoot, w.SummaryFile)))
	} else {
		logger.Debug("requesting review", logger.Args("root", absRoot, "captured", w.Session.OriginalCount()))
		result.BackendInvoked = true
		result.Completion, err = w.Backend.RequestReview(sessionCtx, provider_models.ReviewRequest{
			DirectoryPath: absRoot,
			ApiKey:        credential,
		})
		if err != nil {
			return result, err
		}
	}

	after := change_detector.CaptureTimestamps(absRoot, w.Ignore)
	modified := change_detector.DetectModifiedFiles(before, after)
	if w.VerifyContent {
		modified = change_detector.ConfirmContentChanged(modified, w.Session.Fingerprints(), nil)
	}
	result.Modified = w.withoutArtifacts(absRoot, modified)

	issueSummary, err := summary.ReadSummaryJson(absRoot, w.SummaryFile)
	if err != nil {
		logger.Warn("review summary unavailable", logger.Args("error", err))
		result.SummaryWarning = err
		issueSummary = &models.ReviewSummary{}
	}
	result.Summary = issueSummary

	issueFiles := summary.IssueFiles(absRoot, issueSummary)
	for _, path := range result.Modified {
		if _, flagged := issueFiles[path]; !flagged {
			continue
		}
		if w.Session.Original(path).IsNone() {
			continue
		}
		content, err := change_detector.ReadText(path, w.MaxFileBytes).Unpack()
		if err != nil {
			logger.Debug("skipping proposal", logger.Args("path", path, "reason", err))
			continue
		}
		w.Session.RecordProposed(path, content)
	}

	result.Diagnostics = summary.ProjectDiagnostics(absRoot, issueSummary)
	result.Counts = summary.ComputeCounts(issueSummary, result.Modified)
	result.Pending = w.Session.Pending()

	logger.Info("review finished", logger.Args(
		"session", result.SessionID,
		"modified", len(result.Modified),
		"issues", result.Counts.Total,
		"pending", len(result.Pending),
	))
	return result, nil
}

func (w *Workflow) withoutArtifacts(root string, paths []string) []string {
	jsonArtifact := summary.ArtifactPath(root, w.SummaryFile)
	textArtifact := filepath.Join(root, summary.TextSummaryFile)

	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != jsonArtifact && path != textArtifact {
			out = append(out, path)
		}
	}
	return out
}

// ResolveRoot returns the absolute, symlink-free form of root, or
// ErrNoWorkspace when it is empty or not a directory. The review service
// reports files by their resolved path, so walked paths must use the same
// form.
func ResolveRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", ErrNoWorkspace
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWorkspace, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoWorkspace, absRoot)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWorkspace, err)
	}
	return realRoot, nil
}
