package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Empty(t, issues)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "logging.level")
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"silent", "fatal", "error", "warn", "info", "debug", "trace", ""} {
		cfg := Defaults()
		cfg.Logging.Level = level
		assert.Empty(t, Validate(&cfg), "level %q should be valid", level)
	}
}

func TestValidate_InvalidConsoleStyle(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.ConsoleStyle = "fancy"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "logging.consoleStyle")
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Plugins.RegistryTTLHours = -1
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "plugins.registryTtlHours")
}

func TestValidate_NegativeNetworkValues(t *testing.T) {
	cfg := Defaults()
	cfg.Network.TimeoutSeconds = -1
	cfg.Network.MaxRetries = -2
	cfg.Network.GitTimeoutSeconds = -3
	issues := Validate(&cfg)
	assert.Len(t, issues, 3)
}

func TestValidate_MultipleIssuesReported(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "bad"
	cfg.Logging.ConsoleStyle = "worse"
	cfg.Plugins.RegistryTTLHours = -5
	issues := Validate(&cfg)
	assert.Len(t, issues, 3)
}
