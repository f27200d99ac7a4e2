// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/devhost/devhost/internal/config"
	"github.com/devhost/devhost/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	cfgFile string
	verbose bool
	dryRun  bool
	strict  bool
	ask     bool
	format  string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "devhost",
		Short: "Provision a Linux development host",
		Long: TitleStyle.Render("devhost") + SubtitleStyle.Render(" - provision a Linux development host") + `

devhost makes sure this machine has a container engine with its compose
plugin, python 3.9 or newer with pip, and a python web framework, and that
~/.local/bin is on your PATH. Anything already installed is left alone.

` + SubtitleStyle.Render("Examples:") + `
  devhost                 Install whatever is missing
  devhost --dry-run       Print the commands that would run
  devhost check           Report what is installed without changing anything
  devhost config init     Write a default config file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, app, flags, false)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.cfgFile, "config", "", "config file (default is $HOME/.config/devhost/config.cue)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.format, "format", "", "summary format: text, markdown, json or toml")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "log the commands that would change the host instead of running them")
	rootCmd.Flags().BoolVar(&flags.strict, "strict", false, "treat failed best-effort steps as fatal")
	rootCmd.Flags().BoolVar(&flags.ask, "ask", false, "ask for confirmation before the first change")

	rootCmd.AddCommand(newCheckCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newVersionCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and runs the root command. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Code.Validate() == nil {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies flag overrides on top.
func loadConfig(ctx context.Context, cmd *cobra.Command, app *App, flags *rootFlags) (*config.Config, string, error) {
	cfg, path, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.cfgFile})
	if err != nil {
		return nil, path, err
	}

	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		cfg.Strict = flags.strict
	}
	if flags.verbose {
		cfg.UI.Verbose = true
	}
	if flags.format != "" {
		format := config.OutputFormat(flags.format)
		if err := format.Validate(); err != nil {
			return nil, path, issue.NewErrorContext().
				WithOperation("parse --format").
				WithResource(flags.format).
				WithSuggestion("Use one of: text, markdown, json, toml").
				Wrap(err).
				Build()
		}
		cfg.UI.Format = format
	}
	return cfg, path, nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
