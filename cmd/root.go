package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/meysamhadeli/reviewmentor/config"
	"github.com/meysamhadeli/reviewmentor/constants/lipgloss"
	"github.com/meysamhadeli/reviewmentor/providers/contracts"
	"github.com/meysamhadeli/reviewmentor/providers/review_service"
	"github.com/meysamhadeli/reviewmentor/review_session"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies is what every subcommand needs, built once per run.
type RootDependencies struct {
	Cwd     string
	Config  *config.Config
	Logger  *pterm.Logger
	Store   *review_session.SessionStore
	Backend contracts.IReviewBackend
}

var rootCmd = &cobra.Command{
	Use:   "reviewmentor",
	Short: "Run an AI code review over a project and decide on each proposed fix.",
	Long: `reviewmentor sends a project directory to a local AI review service, detects which
files the service changed, shows the reported issues as diagnostics and lets you accept
or reject every proposed fix file by file. Rejected fixes restore the original content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(lipgloss.BlueSky.Render("reviewmentor version: " + config.DefaultConfig.Version))
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command. Errors are printed once and exit with 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("🚫 %v", err)))
		os.Exit(1)
	}
}

func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting current working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.LogLevel, os.Stderr)

	store, err := review_session.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}

	backend := review_service.NewReviewServiceProvider(&review_service.ReviewServiceConfig{
		BaseURL:    cfg.BackendURL,
		Timeout:    cfg.BackendTimeout,
		Retries:    cfg.BackendRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})

	logger.Debug("configuration loaded", logger.Args(
		"cwd", cwd,
		"backend_url", cfg.BackendURL,
		"session_dir", store.Dir(),
	))

	return &RootDependencies{
		Cwd:     cwd,
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Backend: backend,
	}, nil
}

// projectRoot returns the directory named by args, or the working directory.
func projectRoot(rootDependencies *RootDependencies, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return rootDependencies.Cwd
}

func newSpinner() *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true)
}
