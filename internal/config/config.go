// Package config loads and validates the Vireo host configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleLevel: "info",
			ConsoleStyle: "pretty",
		},
		Plugins: PluginsConfig{
			RegistryTTLHours: 24,
			DefaultRef:       "main",
		},
		Network: NetworkConfig{
			TimeoutSeconds:    30,
			MaxRetries:        3,
			GitTimeoutSeconds: 120,
		},
		Locale: "en",
	}
}
