package utils

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// NewLogger builds the structured logger shared by all components. Unknown
// levels fall back to info.
func NewLogger(level string, writer io.Writer) *pterm.Logger {
	logger := pterm.DefaultLogger.WithLevel(ParseLogLevel(level))
	if writer != nil {
		logger = logger.WithWriter(writer)
	}
	return logger
}

// DisabledLogger discards everything. Components use it when no logger is
// provided.
func DisabledLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
}

// ParseLogLevel maps a config value onto a pterm level.
func ParseLogLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}
