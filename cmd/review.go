package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"github.com/meysamhadeli/reviewmentor/review_session"
	"github.com/meysamhadeli/reviewmentor/review_workflow"
	"github.com/meysamhadeli/reviewmentor/summary"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [dir]",
	Short: "Review a project with the AI review service and decide on each proposed fix.",
	Long: `The 'review' subcommand captures the content of every text file in the project, asks the
review service to review the directory, detects the files it changed and shows the issues it
reported. Each changed file that has an issue becomes a proposed fix you can accept (keep the new
content) or reject (restore the original). Undecided fixes are saved and can be handled later
with 'accept', 'reject' and 'diff'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		noInteractive, _ := cmd.Flags().GetBool("no-interactive")
		force, _ := cmd.Flags().GetBool("force")
		return handleReviewCommand(rootDependencies, projectRoot(rootDependencies, args), !noInteractive, force)
	},
}

func init() {
	reviewCmd.Flags().Bool("no-interactive", false, "Save proposed fixes without prompting for decisions")
	reviewCmd.Flags().BoolP("force", "f", false, "Call the review service even when a summary file already exists")
	rootCmd.AddCommand(reviewCmd)
}

func handleReviewCommand(rootDependencies *RootDependencies, dir string, interactive bool, force bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := rootDependencies.Config

	root, err := review_workflow.ResolveRoot(dir)
	if err != nil {
		return err
	}

	unlock, err := rootDependencies.Store.Lock(root)
	if err != nil {
		return err
	}
	defer unlock()

	if previous, ok := rootDependencies.Store.Load(root); ok && previous.HasPending() {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("⚠ %d undecided fix(es) from an earlier review will be replaced.", len(previous.Proposed))))
	}

	reader := bufio.NewReader(os.Stdin)

	credential := cfg.ApiKey
	if credential == "" {
		credential, err = utils.CredentialPrompt(os.Stdin, reader)
		if err != nil && !errors.Is(err, utils.ErrEmptyCredential) {
			return err
		}
	}

	ignore, err := utils.LoadIgnoreSet(root, cfg.IgnoreDirs)
	if err != nil {
		return err
	}

	session := review_session.NewReviewSession(&review_session.SessionConfig{
		Ignore:       ignore,
		MaxFileBytes: cfg.MaxFileBytes,
		Logger:       rootDependencies.Logger,
	})

	go utils.GracefulShutdown(ctx, cancel, func() {
		session.End()
	})

	workflow := &review_workflow.Workflow{
		Session:       session,
		Backend:       rootDependencies.Backend,
		Ignore:        ignore,
		Logger:        rootDependencies.Logger,
		SummaryFile:   cfg.SummaryFile,
		MaxFileBytes:  cfg.MaxFileBytes,
		VerifyContent: cfg.VerifyContentHash,
		ReuseSummary:  cfg.ReuseSummary && !force,
	}

	spinnerReview, _ := newSpinner().Start("AI Reviewing…")
	result, err := workflow.Run(ctx, root, credential)
	spinnerReview.Stop()
	fmt.Print("\r")
	if err != nil {
		return err
	}

	if !result.BackendInvoked {
		fmt.Println(lipgloss.BlueSky.Render("Using existing AI review summary. Pass --force to review again."))
	}

	report := &summary.Report{
		Root:        root,
		Modified:    result.Modified,
		Counts:      result.Counts,
		Diagnostics: result.Diagnostics,
	}
	if result.SummaryWarning != nil {
		report.Warning = "AI review summary not found or invalid JSON: " + result.SummaryWarning.Error()
	}
	if err := (&summary.TextWriter{}).Write(os.Stdout, report); err != nil {
		return err
	}

	if err := persistSession(rootDependencies, session); err != nil {
		return err
	}

	pending := session.Pending()
	if len(pending) == 0 {
		fmt.Println(lipgloss.Green.Render("No fixes waiting for a decision."))
		return nil
	}

	if interactive {
		if err := decideInteractively(ctx, rootDependencies, session, reader); err != nil {
			return err
		}
		pending = session.Pending()
	}

	if len(pending) > 0 {
		fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf(
			"%d fix(es) still pending.\nreviewmentor diff <file>    show a fix\nreviewmentor accept <file>  keep the new content\nreviewmentor reject <file>  restore the original",
			len(pending))))
	}
	return nil
}

// decideInteractively walks the pending fixes, showing each diff and asking
// for a decision. State is saved after every decision.
func decideInteractively(ctx context.Context, rootDependencies *RootDependencies, session *review_session.ReviewSession, reader *bufio.Reader) error {
	root := session.Root()

	for _, path := range session.Pending() {
		if ctx.Err() != nil {
			fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
			return nil
		}

		if err := printFixDiff(ctx, rootDependencies, session, path); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}

		answer, err := utils.DecisionPrompt(ctx, reader, displayPath(root, path))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return nil
			}
			return err
		}

		if err := applyDecision(session, path, toDecision(answer)); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		if err := persistSession(rootDependencies, session); err != nil {
			return err
		}
	}
	return nil
}
