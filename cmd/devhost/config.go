// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/devhost/devhost/internal/config"
)

// newConfigCommand creates the `devhost config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage devhost configuration",
		Long: `Manage devhost configuration.

Configuration is read from $XDG_CONFIG_HOME/devhost/config.cue
(~/.config/devhost/config.cue by default), then ./config.cue, unless --config
names a file. DEVHOST_* environment variables override file values, e.g.
DEVHOST_STRICT=true or DEVHOST_PYTHON_MIN_VERSION=3.11.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.Context(), cmd, app, flags)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App, flags *rootFlags) error {
	cfg, path, err := loadConfig(cmd.Context(), cmd, app, flags)
	if err != nil {
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flags.verbose))
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: 1, Err: err}
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if path != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("strict"), valueStyle.Render(strconv.FormatBool(cfg.Strict)))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("package_manager"), valueStyle.Render(cfg.PackageManager))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("container"))
	fmt.Fprintf(out, "  engine: %s\n", valueStyle.Render(cfg.Container.Engine))
	fmt.Fprintf(out, "  install_script_url: %s\n", valueStyle.Render(cfg.Container.InstallScriptURL))
	fmt.Fprintf(out, "  post_install: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Container.PostInstall)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("python"))
	fmt.Fprintf(out, "  min_version: %s\n", valueStyle.Render(cfg.Python.MinVersion))
	fmt.Fprintf(out, "  framework: %s\n", valueStyle.Render(cfg.Python.FrameworkRequirement()))
	fmt.Fprintf(out, "  upgrade_framework: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Python.UpgradeFramework)))
	fmt.Fprintf(out, "  allow_break_system_packages: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Python.AllowBreakSystemPackages)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("shell"))
	if cfg.Shell.ProfileFile == "" {
		fmt.Fprintf(out, "  profile_file: %s\n", SubtitleStyle.Render("(chosen from $SHELL)"))
	} else {
		fmt.Fprintf(out, "  profile_file: %s\n", valueStyle.Render(cfg.Shell.ProfileFile))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))
	fmt.Fprintf(out, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(out, "  format: %s\n", valueStyle.Render(cfg.UI.Format.String()))

	return nil
}

func initConfig(app *App) error {
	path, created, err := config.CreateDefaultConfig()
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Config file already exists:"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created config file:"), path)
	return nil
}

func showConfigPath(app *App, flags *rootFlags) error {
	path := flags.cfgFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	_, err := fmt.Fprintln(app.stdout, path)
	return err
}
