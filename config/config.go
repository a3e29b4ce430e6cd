package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const ConfigName = "reviewmentor-config"

// Config represents the structure of the configuration file
type Config struct {
	Version           string        `mapstructure:"version"`
	Theme             string        `mapstructure:"theme"`
	LogLevel          string        `mapstructure:"log_level"`
	BackendURL        string        `mapstructure:"backend_url"`
	BackendTimeout    time.Duration `mapstructure:"backend_timeout"`
	BackendRetries    int           `mapstructure:"backend_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	ApiKey            string        `mapstructure:"api_key"`
	SummaryFile       string        `mapstructure:"summary_file"`
	VerifyContentHash bool          `mapstructure:"verify_content_hash"`
	ReuseSummary      bool          `mapstructure:"reuse_summary"`
	MaxFileBytes      int64         `mapstructure:"max_file_bytes"`
	IgnoreDirs        []string      `mapstructure:"ignore_dirs"`
	SessionDir        string        `mapstructure:"session_dir"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:           "0.3.0",
	Theme:             "dracula",
	LogLevel:          "info",
	BackendURL:        "http://localhost:8000/review",
	BackendTimeout:    15 * time.Minute,
	BackendRetries:    1,
	RetryDelay:        2 * time.Second,
	ApiKey:            "",
	SummaryFile:       "CODE_REVIEW_SUMMARY.json",
	VerifyContentHash: true,
	ReuseSummary:      true,
	MaxFileBytes:      2 * 1024 * 1024,
	IgnoreDirs:        []string{},
	SessionDir:        "",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs builds the configuration from defaults, the config file,
// environment variables and flags, in increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		// Looks for reviewmentor-config.yaml, .yml or .json in cwd.
		viper.SetConfigName(ConfigName)
		viper.AddConfigPath(cwd)
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid backend_url %q", c.BackendURL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("backend_timeout must be positive, got %s", c.BackendTimeout)
	}
	if c.BackendRetries < 0 {
		return fmt.Errorf("backend_retries must not be negative, got %d", c.BackendRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %s", c.RetryDelay)
	}
	if c.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must not be negative, got %d", c.MaxFileBytes)
	}
	if c.SummaryFile == "" {
		return errors.New("summary_file must not be empty")
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("log_level", DefaultConfig.LogLevel)
	viper.SetDefault("backend_url", DefaultConfig.BackendURL)
	viper.SetDefault("backend_timeout", DefaultConfig.BackendTimeout)
	viper.SetDefault("backend_retries", DefaultConfig.BackendRetries)
	viper.SetDefault("retry_delay", DefaultConfig.RetryDelay)
	viper.SetDefault("api_key", DefaultConfig.ApiKey)
	viper.SetDefault("summary_file", DefaultConfig.SummaryFile)
	viper.SetDefault("verify_content_hash", DefaultConfig.VerifyContentHash)
	viper.SetDefault("reuse_summary", DefaultConfig.ReuseSummary)
	viper.SetDefault("max_file_bytes", DefaultConfig.MaxFileBytes)
	viper.SetDefault("ignore_dirs", DefaultConfig.IgnoreDirs)
	viper.SetDefault("session_dir", DefaultConfig.SessionDir)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("backend_url", "BACKEND_URL")
	_ = viper.BindEnv("backend_timeout", "BACKEND_TIMEOUT")
	_ = viper.BindEnv("backend_retries", "BACKEND_RETRIES")
	_ = viper.BindEnv("retry_delay", "RETRY_DELAY")
	_ = viper.BindEnv("api_key", "API_KEY")
	_ = viper.BindEnv("summary_file", "SUMMARY_FILE")
	_ = viper.BindEnv("verify_content_hash", "VERIFY_CONTENT_HASH")
	_ = viper.BindEnv("reuse_summary", "REUSE_SUMMARY")
	_ = viper.BindEnv("max_file_bytes", "MAX_FILE_BYTES")
	_ = viper.BindEnv("ignore_dirs", "IGNORE_DIRS")
	_ = viper.BindEnv("session_dir", "SESSION_DIR")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("theme", flags.Lookup("theme"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = viper.BindPFlag("backend_url", flags.Lookup("backend_url"))
	_ = viper.BindPFlag("backend_timeout", flags.Lookup("backend_timeout"))
	_ = viper.BindPFlag("backend_retries", flags.Lookup("backend_retries"))
	_ = viper.BindPFlag("retry_delay", flags.Lookup("retry_delay"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api_key"))
	_ = viper.BindPFlag("summary_file", flags.Lookup("summary_file"))
	_ = viper.BindPFlag("verify_content_hash", flags.Lookup("verify_content_hash"))
	_ = viper.BindPFlag("reuse_summary", flags.Lookup("reuse_summary"))
	_ = viper.BindPFlag("max_file_bytes", flags.Lookup("max_file_bytes"))
	_ = viper.BindPFlag("ignore_dirs", flags.Lookup("ignore_dirs"))
	_ = viper.BindPFlag("session_dir", flags.Lookup("session_dir"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	flags.String("theme", DefaultConfig.Theme, "Set the chroma theme used to highlight diffs (e.g., 'dracula', 'monokai', 'github').")
	flags.String("log_level", DefaultConfig.LogLevel, "Set the log level: 'debug', 'info', 'warn' or 'error'.")

	// Review backend
	flags.String("backend_url", DefaultConfig.BackendURL, "The URL of the local review service.")
	flags.Duration("backend_timeout", DefaultConfig.BackendTimeout, "Upper bound for one review request.")
	flags.Int("backend_retries", DefaultConfig.BackendRetries, "How many times an unreachable backend is retried.")
	flags.Duration("retry_delay", DefaultConfig.RetryDelay, "Delay before retrying an unreachable backend.")
	flags.String("api_key", DefaultConfig.ApiKey, "The API key forwarded to the review service. Prompted for when empty.")

	// Change detection and summary
	flags.String("summary_file", DefaultConfig.SummaryFile, "Name of the JSON summary the review service writes in the project root.")
	flags.Bool("verify_content_hash", DefaultConfig.VerifyContentHash, "Only report files whose content changed, not just their modification time.")
	flags.Bool("reuse_summary", DefaultConfig.ReuseSummary, "Skip the review service when a summary file already exists.")
	flags.Int64("max_file_bytes", DefaultConfig.MaxFileBytes, "Files larger than this are not captured for rollback.")
	flags.StringSlice("ignore_dirs", DefaultConfig.IgnoreDirs, "Extra directory names to skip while walking the project.")
	flags.String("session_dir", DefaultConfig.SessionDir, "Directory holding persisted review sessions (default: user cache dir).")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}
