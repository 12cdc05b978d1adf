package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vireotag/vireo/internal/plugin"
	"github.com/vireotag/vireo/internal/registry"
)

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Install and manage plugins",
	}

	cmd.AddCommand(newPluginInstallCmd())
	cmd.AddCommand(newPluginUninstallCmd())
	cmd.AddCommand(newPluginEnableCmd())
	cmd.AddCommand(newPluginDisableCmd())
	cmd.AddCommand(newPluginUpdateCmd())
	cmd.AddCommand(newPluginSwitchRefCmd())
	cmd.AddCommand(newPluginListCmd())
	cmd.AddCommand(newPluginInfoCmd())
	cmd.AddCommand(newPluginStatusCmd())

	return cmd
}

// promptConfirm builds the install confirmation callback: print the trust
// warning and ask on the terminal, unless --yes was given.
func promptConfirm(yes bool) plugin.ConfirmFunc {
	return func(w plugin.Warning) bool {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w.Message)
		if yes {
			return true
		}
		fmt.Fprint(os.Stderr, "Install anyway? [y/N] ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func newPluginInstallCmd() *cobra.Command {
	var (
		ref            string
		force          bool
		yes            bool
		discardChanges bool
	)
	cmd := &cobra.Command{
		Use:   "install <git-url-or-path>",
		Short: "Install a plugin from a git repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := rt.gitContext(cmd.Context())
			defer cancel()

			inst, err := rt.mgr.Install(ctx, args[0], plugin.InstallOptions{
				Ref:        ref,
				Force:      force,
				AllowDirty: discardChanges,
				Confirm:    promptConfirm(yes),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Installed %s %s (%s @ %s)\n",
				inst.Record.ID, inst.Manifest.Version, inst.Record.RequestedRef, shortCommit(inst.Record.Commit))
			if inst.Record.OriginalURL != "" {
				fmt.Printf("Note: %s moved to %s\n", inst.Record.OriginalURL, inst.Record.URL)
			}
			fmt.Printf("Enable it with: vireo plugin enable %s\n", inst.Record.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit to install (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "install even if the repository or ref is blacklisted")
	cmd.Flags().BoolVar(&yes, "yes", false, "answer yes to the unreviewed-code warning")
	cmd.Flags().BoolVar(&discardChanges, "discard-changes", false, "discard local edits in the plugin checkout")
	return cmd
}

func newPluginUninstallCmd() *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "uninstall <id>",
		Short: "Remove an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.mgr.Uninstall(cmd.Context(), args[0], purge); err != nil {
				return err
			}
			fmt.Printf("Uninstalled %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also remove the plugin's data directory")
	return cmd
}

func newPluginEnableCmd() *cobra.Command {
	var overrideBlacklist bool
	cmd := &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.mgr.Enable(cmd.Context(), args[0], overrideBlacklist); err != nil {
				return err
			}
			fmt.Printf("Enabled %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&overrideBlacklist, "override-blacklist", false, "enable even though the plugin is blacklisted; remembered across restarts")
	return cmd
}

func newPluginDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable an enabled plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.mgr.Disable(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Disabled %s\n", args[0])
			return nil
		},
	}
}

func newPluginUpdateCmd() *cobra.Command {
	var (
		ref            string
		discardChanges bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a plugin to the tip of its pinned ref",
		Long: `Update re-synchronizes a plugin's checkout. Branch-pinned plugins move to
the branch tip; plugins pinned to a tag or commit stay put unless --ref
names a new target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := rt.gitContext(cmd.Context())
			defer cancel()

			inst, err := rt.mgr.Update(ctx, args[0], ref, discardChanges)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s to %s @ %s\n",
				inst.Record.ID, inst.Record.RequestedRef, shortCommit(inst.Record.Commit))
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "switch to this ref while updating")
	cmd.Flags().BoolVar(&discardChanges, "discard-changes", false, "discard local edits in the plugin checkout")
	return cmd
}

func newPluginSwitchRefCmd() *cobra.Command {
	var discardChanges bool
	cmd := &cobra.Command{
		Use:   "switch-ref <id> <ref>",
		Short: "Pin a plugin to a different branch, tag or commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := rt.gitContext(cmd.Context())
			defer cancel()

			inst, err := rt.mgr.SwitchRef(ctx, args[0], args[1], discardChanges)
			if err != nil {
				return err
			}
			fmt.Printf("Switched %s to %s (%s @ %s)\n",
				inst.Record.ID, inst.Record.RequestedRef, inst.Record.RefKind, shortCommit(inst.Record.Commit))
			return nil
		},
	}
	cmd.Flags().BoolVar(&discardChanges, "discard-changes", false, "discard local edits in the plugin checkout")
	return cmd
}

func newPluginListCmd() *cobra.Command {
	var (
		remote   bool
		category string
		trust    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins, or registry plugins with --remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			if remote {
				snap, err := rt.mgr.RegistrySnapshot(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tNAME\tTRUST\tURL")
				for _, e := range snap.List(category, registry.TrustLevel(trust)) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Name, snap.TrustLevel(e.GitURL), e.GitURL)
				}
				return nil
			}

			installed, err := rt.mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tVERSION\tSTATE\tREF\tCOMMIT\tTRUST")
			for _, inst := range installed {
				version := "?"
				if inst.Manifest != nil {
					version = inst.Manifest.Version
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					inst.Record.ID, version, inst.Record.State,
					inst.Record.RequestedRef, shortCommit(inst.Record.Commit), inst.Trust)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list plugins from the registry instead of installed ones")
	cmd.Flags().StringVar(&category, "category", "", "with --remote, filter by category")
	cmd.Flags().StringVar(&trust, "trust", "", "with --remote, filter by trust level")
	return cmd
}

func newPluginInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show details for an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			inst, err := rt.mgr.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rec := inst.Record
			fmt.Printf("ID:        %s\n", rec.ID)
			if inst.Manifest != nil {
				fmt.Printf("Name:      %s\n", inst.Manifest.LocalizedName(rt.cfg.Locale))
				fmt.Printf("Version:   %s\n", inst.Manifest.Version)
				fmt.Printf("About:     %s\n", inst.Manifest.LocalizedDescription(rt.cfg.Locale))
				fmt.Printf("Authors:   %s\n", strings.Join(inst.Manifest.Authors, ", "))
				fmt.Printf("License:   %s\n", inst.Manifest.License)
				fmt.Printf("API:       %s\n", strings.Join(inst.Manifest.API, ", "))
			}
			fmt.Printf("URL:       %s\n", rec.URL)
			if rec.OriginalURL != "" {
				fmt.Printf("Moved from: %s\n", rec.OriginalURL)
			}
			fmt.Printf("Ref:       %s (%s)\n", rec.RequestedRef, rec.RefKind)
			fmt.Printf("Commit:    %s\n", rec.Commit)
			fmt.Printf("State:     %s\n", rec.State)
			fmt.Printf("Trust:     %s\n", inst.Trust)
			fmt.Printf("Installed: %s\n", rec.InstalledAt.Format("2006-01-02 15:04"))
			fmt.Printf("Updated:   %s\n", rec.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newPluginStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the plugin subsystem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			// Reconcile against the registry first so newly blacklisted
			// plugins show up disabled here, as they would after a restart.
			if rt.cfg.Plugins.StartupScanEnabled() {
				if err := rt.mgr.StartupScan(cmd.Context()); err != nil {
					return err
				}
			}

			installed, err := rt.mgr.List(cmd.Context())
			if err != nil {
				return err
			}

			var enabled, disabled, failed int
			for _, inst := range installed {
				switch {
				case inst.Record.Enabled:
					enabled++
				case inst.Record.State == string(plugin.StateError):
					failed++
				default:
					disabled++
				}
			}
			fmt.Printf("Plugins:  %d installed, %d enabled, %d disabled, %d in error\n",
				len(installed), enabled, disabled, failed)
			for _, inst := range installed {
				if inst.Record.State == string(plugin.StateError) {
					fmt.Printf("  !! %s failed to activate; check the logs\n", inst.Record.ID)
				}
			}

			discovered, err := rt.mgr.Discover(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range discovered {
				fmt.Printf("  ?  %s found in %s but not installed\n", d.Record.ID, d.Record.URL)
			}
			return nil
		},
	}
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
