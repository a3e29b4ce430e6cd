package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"github.com/meysamhadeli/reviewmentor/review_session"
	"github.com/meysamhadeli/reviewmentor/review_session/models"
	"github.com/meysamhadeli/reviewmentor/review_workflow"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending [dir]",
	Short: "List the fixes of the last review that are still waiting for a decision.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handlePendingCommand(rootDependencies, projectRoot(rootDependencies, args))
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept [file...]",
	Short: "Keep the content proposed for the given files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecisionCommand(cmd, args, models.DecisionAccept)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [file...]",
	Short: "Restore the original content of the given files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecisionCommand(cmd, args, models.DecisionReject)
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <file>",
	Short: "Show the difference between the original and proposed content of a file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		return handleDiffCommand(cmd.Context(), rootDependencies, dir, args[0])
	},
}

func init() {
	for _, command := range []*cobra.Command{acceptCmd, rejectCmd} {
		command.Flags().StringP("dir", "d", "", "Project directory of the review (default: current directory)")
		command.Flags().BoolP("all", "a", false, "Apply the decision to every pending fix")
	}
	diffCmd.Flags().StringP("dir", "d", "", "Project directory of the review (default: current directory)")

	rootCmd.AddCommand(pendingCmd, acceptCmd, rejectCmd, diffCmd)
}

func runDecisionCommand(cmd *cobra.Command, args []string, decision models.Decision) error {
	all, _ := cmd.Flags().GetBool("all")
	if len(args) == 0 && !all {
		return fmt.Errorf("name at least one file or pass --all")
	}

	rootDependencies, err := handleRootCommand(cmd)
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	return handleDecisionCommand(rootDependencies, dir, args, all, decision)
}

func handlePendingCommand(rootDependencies *RootDependencies, dir string) error {
	root, err := review_workflow.ResolveRoot(dir)
	if err != nil {
		return err
	}

	state, ok := rootDependencies.Store.Load(root)
	if !ok || !state.HasPending() {
		fmt.Println(lipgloss.Green.Render("No fixes waiting for a decision."))
		return nil
	}

	session := review_session.NewReviewSession(&review_session.SessionConfig{Logger: rootDependencies.Logger})
	if err := session.Restore(state); err != nil {
		return err
	}

	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("%d pending fix(es) from review %s (%s):",
		len(state.Proposed), state.ID, state.CreatedAt.Format("2006-01-02 15:04"))))
	for _, path := range session.Pending() {
		marker := lipgloss.Green.Render("  • ")
		if session.Original(path).IsNone() {
			marker = lipgloss.Yellow.Render("  ! ")
		}
		fmt.Println(marker + displayPath(root, path))
	}
	return nil
}

func handleDecisionCommand(rootDependencies *RootDependencies, dir string, files []string, all bool, decision models.Decision) error {
	session, unlock, err := openPersistedSession(rootDependencies, dir)
	if err != nil {
		return err
	}
	defer unlock()

	root := session.Root()
	targets := session.Pending()
	if !all {
		targets = make([]string, 0, len(files))
		for _, file := range files {
			targets = append(targets, resolveFileArg(rootDependencies.Cwd, file))
		}
	}

	var failed int
	for _, path := range targets {
		if err := applyDecision(session, path, decision); err != nil {
			failed++
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	}

	if err := persistSession(rootDependencies, session); err != nil {
		return err
	}

	if remaining := len(session.Pending()); remaining > 0 {
		fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("%d fix(es) still pending in %s", remaining, root)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d decision(s) failed", failed, len(targets))
	}
	return nil
}

func handleDiffCommand(ctx context.Context, rootDependencies *RootDependencies, dir string, file string) error {
	session, unlock, err := openPersistedSession(rootDependencies, dir)
	if err != nil {
		return err
	}
	defer unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	return printFixDiff(ctx, rootDependencies, session, resolveFileArg(rootDependencies.Cwd, file))
}

// openPersistedSession locks the project root and restores its saved
// session. The returned function releases the lock.
func openPersistedSession(rootDependencies *RootDependencies, dir string) (*review_session.ReviewSession, func(), error) {
	if dir == "" {
		dir = rootDependencies.Cwd
	}
	root, err := review_workflow.ResolveRoot(dir)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := rootDependencies.Store.Lock(root)
	if err != nil {
		return nil, nil, err
	}

	state, ok := rootDependencies.Store.Load(root)
	if !ok {
		unlock()
		return nil, nil, fmt.Errorf("no saved review for %s; run 'reviewmentor review' first", root)
	}

	session := review_session.NewReviewSession(&review_session.SessionConfig{Logger: rootDependencies.Logger})
	if err := session.Restore(state); err != nil {
		unlock()
		return nil, nil, err
	}
	return session, unlock, nil
}

// persistSession saves the pending part of the session, or drops the saved
// state once nothing is pending.
func persistSession(rootDependencies *RootDependencies, session *review_session.ReviewSession) error {
	state := session.Export()
	if !state.HasPending() {
		return rootDependencies.Store.Delete(state.Root)
	}
	return rootDependencies.Store.Save(state)
}

// toDecision maps a prompt answer to a session decision.
func toDecision(answer utils.Answer) models.Decision {
	switch answer {
	case utils.AnswerAccept:
		return models.DecisionAccept
	case utils.AnswerReject:
		return models.DecisionReject
	default:
		return models.DecisionSkip
	}
}

func applyDecision(session *review_session.ReviewSession, path string, decision models.Decision) error {
	label := displayPath(session.Root(), path)

	applied, err := session.Decide(path, decision)
	if err != nil {
		if errors.Is(err, review_session.ErrNoOriginal) {
			return fmt.Errorf("cannot reject %s: its original content was not captured", label)
		}
		return err
	}

	switch {
	case decision == models.DecisionSkip:
		fmt.Println(lipgloss.Gray.Render("⏭ Skipped " + label))
	case !applied:
		fmt.Println(lipgloss.Yellow.Render("No pending fix for " + label))
	case decision == models.DecisionAccept:
		fmt.Println(lipgloss.Green.Render("✔️ Fix accepted: " + label))
	default:
		fmt.Println(lipgloss.Red.Render("❌ Fix rejected, original restored: " + label))
	}
	return nil
}

func printFixDiff(ctx context.Context, rootDependencies *RootDependencies, session *review_session.ReviewSession, path string) error {
	label := displayPath(session.Root(), path)

	proposed := session.Proposed(path)
	if proposed.IsNone() {
		return fmt.Errorf("no pending fix for %s", label)
	}
	original := session.Original(path).UnwrapOr("")

	diff, err := utils.UnifiedDiff(label, original, proposed.UnwrapOr(""))
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Println(lipgloss.Gray.Render(label + ": proposed content is identical to the original"))
		return nil
	}

	fmt.Println(lipgloss.Info.Render(label))
	return utils.RenderDiffWithContext(ctx, os.Stdout, diff, rootDependencies.Config.Theme)
}

// resolveFileArg makes file absolute against cwd and resolves symlinks, the
// form session paths are stored in.
func resolveFileArg(cwd, file string) string {
	if !filepath.IsAbs(file) {
		file = filepath.Join(cwd, file)
	}
	file = filepath.Clean(file)
	if resolved, err := filepath.EvalSymlinks(file); err == nil {
		return resolved
	}
	return file
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
