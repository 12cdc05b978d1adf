package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vireotag/vireo/internal/config"
	"github.com/vireotag/vireo/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Vireo status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Vireo %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Plugins: %s\n", paths.Plugins)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// A missing config file yields defaults; only a broken one errors.
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Logging:  level=%s style=%s\n", cfg.Logging.Level, cfg.Logging.ConsoleStyle)
			registryURL := cfg.Plugins.RegistryURL
			if registryURL == "" {
				registryURL = "(default)"
			}
			fmt.Printf("Registry: url=%s ttl=%dh\n", registryURL, cfg.Plugins.RegistryTTLHours)
			fmt.Printf("Plugins:  defaultRef=%s startupScan=%v\n",
				cfg.Plugins.DefaultRef, cfg.Plugins.StartupScanEnabled())
			fmt.Printf("Network:  timeout=%ds retries=%d gitTimeout=%ds\n",
				cfg.Network.TimeoutSeconds, cfg.Network.MaxRetries, cfg.Network.GitTimeoutSeconds)
			fmt.Printf("Locale:   %s\n", cfg.Locale)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
