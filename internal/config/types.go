package config

// Config is the root configuration for Vireo.
type Config struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Plugins PluginsConfig `yaml:"plugins,omitempty"`
	Network NetworkConfig `yaml:"network,omitempty"`
	Locale  string        `yaml:"locale,omitempty"` // UI locale, e.g. "de" or "pt_BR"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleLevel string `yaml:"consoleLevel,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// PluginsConfig controls the plugin subsystem.
type PluginsConfig struct {
	RegistryURL      string `yaml:"registryUrl,omitempty"`      // overrides the built-in registry location
	RegistryTTLHours int    `yaml:"registryTtlHours,omitempty"` // registry cache lifetime
	DefaultRef       string `yaml:"defaultRef,omitempty"`       // ref used when install gives none
	StartupScan      *bool  `yaml:"startupScan,omitempty"`      // re-check blacklist on start; defaults to true
}

// NetworkConfig bounds the slow network operations.
type NetworkConfig struct {
	TimeoutSeconds    int `yaml:"timeoutSeconds,omitempty"`    // registry fetch timeout
	MaxRetries        int `yaml:"maxRetries,omitempty"`        // registry fetch retry cap
	GitTimeoutSeconds int `yaml:"gitTimeoutSeconds,omitempty"` // clone/fetch timeout
}

// StartupScanEnabled reports whether the startup blacklist scan should run.
func (p PluginsConfig) StartupScanEnabled() bool {
	return p.StartupScan == nil || *p.StartupScan
}
