package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	if cfg.Logging.ConsoleLevel != "" && !slices.Contains(validLogLevels, cfg.Logging.ConsoleLevel) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleLevel",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.ConsoleLevel),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	if cfg.Plugins.RegistryTTLHours < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "plugins.registryTtlHours",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Plugins.RegistryTTLHours),
		})
	}

	if cfg.Network.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "network.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Network.TimeoutSeconds),
		})
	}
	if cfg.Network.MaxRetries < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "network.maxRetries",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Network.MaxRetries),
		})
	}
	if cfg.Network.GitTimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "network.gitTimeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Network.GitTimeoutSeconds),
		})
	}

	return issues
}
