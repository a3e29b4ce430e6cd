package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"github.com/meysamhadeli/reviewmentor/review_workflow"
	"github.com/spf13/cobra"
)

// resetSessionCmd represents the reset-session command
var resetSessionCmd = &cobra.Command{
	Use:   "reset-session [dir]",
	Short: "Drop the saved review session of a project",
	Long: `The 'reset-session' command removes the saved pending fixes of a project so they can no
longer be accepted or rejected. Files on disk are left as they are. With --all every saved
session is removed. --force skips the confirmation and also removes a stale session lock.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		all, _ := cmd.Flags().GetBool("all")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleResetSessionCommand(rootDependencies, projectRoot(rootDependencies, args), force, stats, all)
	},
}

func init() {
	resetSessionCmd.Flags().BoolP("force", "f", false, "Reset without confirmation and remove a stale lock")
	resetSessionCmd.Flags().BoolP("stats", "s", false, "Show session store statistics instead of resetting")
	resetSessionCmd.Flags().Bool("all", false, "Remove the saved sessions of every project")

	rootCmd.AddCommand(resetSessionCmd)
}

func handleResetSessionCommand(rootDependencies *RootDependencies, dir string, force bool, showStats bool, all bool) error {
	store := rootDependencies.Store

	if showStats {
		storeStats, err := store.GetStoreStats()
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
			return nil
		}

		fmt.Println(lipgloss.Info.Render("Session Store Statistics:"))
		if sessionDir, ok := storeStats["session_dir"].(string); ok {
			fmt.Printf("  Session Directory: %s\n", sessionDir)
		}
		if files, ok := storeStats["session_files"].(int); ok {
			fmt.Printf("  Saved Sessions: %d\n", files)
		}
		if locks, ok := storeStats["lock_files"].(int); ok {
			fmt.Printf("  Active Locks: %d\n", locks)
		}
		if size, ok := storeStats["total_size"].(int64); ok {
			fmt.Printf("  Total Size: %.2f KB\n", float64(size)/1024)
		}
		return nil
	}

	var root string
	if !all {
		resolved, err := review_workflow.ResolveRoot(dir)
		if err != nil {
			return err
		}
		root = resolved
	}

	if !force {
		question := fmt.Sprintf("Drop the saved review session of %s? (y/N): ", root)
		if all {
			question = "Drop the saved review sessions of every project? (y/N): "
		}
		reader := bufio.NewReader(os.Stdin)
		fmt.Print(question)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Session reset cancelled."))
			return nil
		}
	}

	spinnerReset, _ := newSpinner().Start("Resetting review session...")

	if all {
		deleted, err := store.Clear()
		spinnerReset.Stop()
		fmt.Print("\r")
		if err != nil {
			return fmt.Errorf("error resetting sessions: %w", err)
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d saved session(s).", deleted)))
		return nil
	}

	if force {
		if err := store.ForceUnlock(root); err != nil {
			spinnerReset.Stop()
			fmt.Print("\r")
			return err
		}
	}

	unlock, err := store.Lock(root)
	if err != nil {
		spinnerReset.Stop()
		fmt.Print("\r")
		return err
	}
	defer unlock()

	err = store.Delete(root)
	spinnerReset.Stop()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("error resetting session: %w", err)
	}

	fmt.Println(lipgloss.Green.Render("✓ Review session has been successfully reset!"))
	return nil
}
