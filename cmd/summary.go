package cmd

import (
	"os"
	"sort"

	"github.com/meysamhadeli/reviewmentor/review_workflow"
	"github.com/meysamhadeli/reviewmentor/summary"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [dir]",
	Short: "Show the issues of the last review without contacting the review service.",
	Long: `The 'summary' subcommand reads the summary file the review service left in the project
and prints its issues as diagnostics with per-severity counts, followed by the plain-text
report when one exists. Use --format json for machine-readable output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return handleSummaryCommand(rootDependencies, projectRoot(rootDependencies, args), format)
	},
}

func init() {
	summaryCmd.Flags().String("format", "text", "Output format: 'text' or 'json'")
	rootCmd.AddCommand(summaryCmd)
}

func handleSummaryCommand(rootDependencies *RootDependencies, dir string, format string) error {
	writer, err := summary.GetWriter(format)
	if err != nil {
		return err
	}

	root, err := review_workflow.ResolveRoot(dir)
	if err != nil {
		return err
	}

	report := &summary.Report{Root: root}

	issueSummary, err := summary.ReadSummaryJson(root, rootDependencies.Config.SummaryFile)
	if err != nil {
		rootDependencies.Logger.Debug("summary unavailable", rootDependencies.Logger.Args("error", err))
		report.Warning = "AI review summary not found or invalid JSON: " + err.Error()
	} else {
		report.Diagnostics = summary.ProjectDiagnostics(root, issueSummary)
		report.Counts = summary.ComputeCounts(issueSummary, nil)
	}

	if state, ok := rootDependencies.Store.Load(root); ok {
		for path := range state.Proposed {
			report.Pending = append(report.Pending, path)
		}
		sort.Strings(report.Pending)
	}

	if text, ok := summary.ReadTextSummary(root); ok {
		report.TextSummary = text
	}

	return writer.Write(os.Stdout, report)
}
