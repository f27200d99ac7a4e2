// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devhost/devhost/internal/config"
	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/provision"
	"github.com/devhost/devhost/internal/report"
	"github.com/devhost/devhost/pkg/types"
)

// runProvision runs the provisioning steps, or only their probes when
// checkOnly is set, prints the summary and maps the outcome to an exit code.
func runProvision(cmd *cobra.Command, app *App, flags *rootFlags, checkOnly bool) error {
	ctx := cmd.Context()
	cmd.SilenceUsage = true

	logger := newLogger(app.stderr, flags.verbose)
	installLogger(logger)

	cfg, cfgPath, err := loadConfig(ctx, cmd, app, flags)
	if err != nil {
		return fatalExit(cmd, app, logger, err, flags.verbose, config.DefaultConfig())
	}
	if cfg.UI.Verbose && !flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	applyColorScheme(cfg.UI.ColorScheme)
	if cfgPath != "" {
		logger.Debug("loaded config", "path", cfgPath)
	}

	runner := app.Runner
	var dry *execx.DryRunRunner
	if flags.dryRun && !checkOnly {
		dry = execx.NewDryRunRunner(runner)
		runner = dry
	}

	opts := provision.Options{
		DryRun:        dry != nil,
		CheckOnly:     checkOnly,
		Env:           app.Env,
		OSReleasePath: app.OSReleasePath,
	}
	if flags.ask && dry == nil && !checkOnly {
		opts.Confirm = app.Confirm
	}

	summary, runErr := provision.New(runner, cfg, opts).Run(ctx)

	if len(summary.Entries) > 0 {
		if err := report.Render(app.stdout, summary, cfg.UI.Format, report.Options{GlamourStyle: glamourStyle(cfg.UI.ColorScheme)}); err != nil {
			logger.Warn("rendering summary", "error", err)
		}
	}

	if runErr != nil {
		return fatalExit(cmd, app, logger, runErr, cfg.UI.Verbose, cfg)
	}

	switch {
	case checkOnly && !summary.OK():
		logger.Warn("some tools are missing, run devhost to install them")
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitFailure}
	case checkOnly:
		logger.Info("every tool is installed")
	case dry != nil:
		logger.Info(fmt.Sprintf("dry run complete, %d commands would run", len(dry.Planned())))
	default:
		if installed := summary.Installed(); len(installed) > 0 {
			logger.Info("host is ready", "installed", strings.Join(installed, ", "))
		} else {
			logger.Info("host is ready", "installed", "nothing")
		}
	}
	return nil
}

// fatalExit logs err at fatal level, renders catalog guidance in verbose
// mode and returns the exit error for fang.
func fatalExit(cmd *cobra.Command, app *App, logger *log.Logger, err error, verbose bool, cfg *config.Config) error {
	logger.Log(log.FatalLevel, formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if guidance := ae.Guidance(); guidance != nil {
			if !verbose {
				fmt.Fprintln(app.stderr, VerboseStyle.Render("Run again with --verbose for troubleshooting steps."))
			} else if rendered, rerr := guidance.Render(glamourStyle(cfg.UI.ColorScheme)); rerr == nil {
				fmt.Fprint(app.stderr, rendered)
			}
		}
	}

	cmd.SilenceErrors = true
	return &ExitError{Code: types.ExitFailure, Err: err}
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if lipgloss.HasDarkBackground() {
			return "dark"
		}
		return "light"
	}
	return "notty"
}

func applyColorScheme(scheme config.ColorScheme) {
	switch scheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}
