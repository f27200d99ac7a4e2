// SPDX-License-Identifier: MPL-2.0

// Package provision runs devhost's step sequence: privilege, container
// engine, compose, python, pip, framework and PATH. Every step checks for the
// tool first, installs only when it is missing and verifies the result.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/devhost/devhost/internal/config"
	"github.com/devhost/devhost/internal/container"
	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/pkgmgr"
	"github.com/devhost/devhost/internal/privilege"
	"github.com/devhost/devhost/internal/report"
)

// Tool names used in the summary. The engine and framework entries are named
// after the configured engine and framework.
const (
	ToolCompose = "compose"
	ToolPython  = "python"
	ToolPip     = "pip"
	ToolPath    = "PATH"
)

var (
	// ErrVersionTooOld is returned when a tool is older than required even
	// after installing it.
	ErrVersionTooOld = errors.New("version below the required minimum")
	// ErrSourcesExhausted is returned when every install source for a tool
	// failed.
	ErrSourcesExhausted = errors.New("every install source failed")
	// ErrDeclined is returned when the user answers no to the confirmation
	// prompt.
	ErrDeclined = errors.New("declined by user")
)

type (
	// ConfirmFunc asks the user whether to go ahead with the first change to
	// the host. action describes the change.
	ConfirmFunc func(ctx context.Context, action string) (bool, error)

	// Options tune a Provisioner. Zero values select the real host.
	Options struct {
		// DryRun logs mutating commands instead of running them. The runner
		// passed to New must already be an execx.DryRunRunner.
		DryRun bool
		// CheckOnly runs presence probes only.
		CheckOnly bool
		// Confirm, when set, is called once before the first mutating command.
		Confirm ConfirmFunc
		// Env is the process state used for privilege detection and PATH.
		Env privilege.Environment
		// OSReleasePath overrides /etc/os-release.
		OSReleasePath string
		// GOOS overrides runtime.GOOS.
		GOOS string
	}

	// Provisioner runs the steps against one host.
	Provisioner struct {
		runner execx.Runner
		cfg    *config.Config
		opts   Options

		priv    *privilege.Context
		pm      *pkgmgr.Manager
		pmErr   error
		engine  container.Engine
		summary *report.Summary
		gate    *gate
	}

	// step is one stage of a run. A non-nil error stops the run.
	step struct {
		name string
		tool string
		run  func(context.Context) error
	}
)

// New returns a Provisioner that executes commands through runner.
func New(runner execx.Runner, cfg *config.Config, opts Options) *Provisioner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Env.Getenv == nil {
		opts.Env.Getenv = os.Getenv
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	p := &Provisioner{cfg: cfg, opts: opts, summary: &report.Summary{DryRun: opts.DryRun}}
	p.gate = &gate{next: runner, confirm: opts.Confirm}
	p.runner = p.gate
	return p
}

// Summary returns what the run has gathered so far.
func (p *Provisioner) Summary() *report.Summary { return p.summary }

// Run executes every step in order and returns the summary. When a step fails
// fatally the remaining steps are skipped and the partial summary is returned
// with the error, which is an *issue.ActionableError.
func (p *Provisioner) Run(ctx context.Context) (*report.Summary, error) {
	steps, err := p.prepare()
	if err != nil {
		return p.summary, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	p.gate.cancel = cancel

	for i, s := range steps {
		slog.Debug("running step", "step", s.name)
		err := s.run(ctx)
		if err == nil {
			continue
		}

		if errors.Is(context.Cause(ctx), ErrDeclined) {
			err = issue.NewErrorContext().
				WithOperation(s.name).
				WithSuggestion("Run with --dry-run to see every command devhost would run").
				Wrap(context.Cause(ctx)).
				Build()
		}
		e, _ := p.summary.Get(s.tool)
		e.Tool, e.Status, e.Detail = s.tool, report.StatusFailed, errorDetail(err)
		p.summary.Set(e)
		for _, rest := range steps[i+1:] {
			p.summary.Set(report.Entry{Tool: rest.tool, Status: report.StatusSkipped, Detail: "not run after an earlier failure"})
		}
		return p.summary, err
	}
	return p.summary, nil
}

func (p *Provisioner) prepare() ([]step, error) {
	engineType, err := container.ParseEngineType(p.cfg.Container.Engine)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select container engine").
			WithResource(p.cfg.Container.Engine).
			WithSuggestion("Set container.engine to docker or podman").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			Build()
	}
	p.engine, _ = container.NewEngine(engineType, p.runner)

	if p.opts.CheckOnly {
		p.priv = privilege.Inspect(p.runner, p.opts.Env)
	} else {
		priv, err := privilege.Detect(p.runner, p.opts.Env)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("gain root privileges").
				WithSuggestions(
					"Run devhost as root",
					"Install sudo and grant your user access to it",
				).
				WithIssue(issue.PrivilegeUnavailableId).
				Wrap(err).
				Build()
		}
		p.priv = priv
		slog.Info("privileges", "root", p.priv.IsRoot(), "user", p.priv.User, "home", p.priv.Home)
	}

	p.detectPackageManager()

	return []step{
		{name: "container engine", tool: p.engine.Name(), run: p.ensureEngine},
		{name: "compose", tool: ToolCompose, run: p.ensureCompose},
		{name: "python", tool: ToolPython, run: p.ensurePython},
		{name: "pip", tool: ToolPip, run: p.ensurePip},
		{name: "framework", tool: p.cfg.Python.Framework, run: p.ensureFramework},
		{name: "path", tool: ToolPath, run: p.ensurePath},
	}, nil
}

// detectPackageManager records the manager or the reason there is none. A
// missing manager only matters once something has to be installed.
func (p *Provisioner) detectPackageManager() {
	d := pkgmgr.Detector{Runner: p.runner, OSReleasePath: p.opts.OSReleasePath, GOOS: p.opts.GOOS}
	kind, rel, err := d.Detect()
	p.summary.Host = rel.String()

	if forced, perr := pkgmgr.ParseKind(p.cfg.PackageManager); perr == nil && forced != pkgmgr.Auto {
		kind, err = forced, nil
	}
	if err != nil {
		p.pmErr = err
		slog.Debug("no package manager", "error", err)
		return
	}

	p.summary.PackageManager = kind.String()
	var esc pkgmgr.Escalator
	if p.priv != nil && !p.priv.IsRoot() {
		esc = p.priv
	}
	p.pm = pkgmgr.New(kind, p.runner, esc, pkgmgr.WithStrictRefresh(p.cfg.Strict))
	slog.Debug("package manager", "kind", kind, "host", p.summary.Host)
}

// manager returns the package manager, failing when none was found.
func (p *Provisioner) manager(tool string) (*pkgmgr.Manager, error) {
	if p.pm != nil {
		return p.pm, nil
	}
	id := issue.PackageManagerNotFoundId
	if errors.Is(p.pmErr, pkgmgr.ErrUnsupportedOS) {
		id = issue.UnsupportedOSId
	}
	return nil, issue.NewErrorContext().
		WithOperation("install " + tool).
		WithSuggestion("Set package_manager in the config file if detection picked the wrong one").
		WithIssue(id).
		Wrap(p.pmErr).
		Build()
}

// bestEffort downgrades err to a warning unless strict mode is on.
func (p *Provisioner) bestEffort(operation string, id issue.Id, err error) error {
	if err == nil {
		return nil
	}
	if p.cfg.Strict || errors.Is(err, context.Canceled) || errors.Is(err, ErrDeclined) {
		return issue.NewErrorContext().
			WithOperation(operation).
			WithSuggestion("Set strict: false to continue past this step").
			WithIssue(id).
			Wrap(err).
			Build()
	}
	slog.Warn(operation+" failed, continuing", "error", err)
	return nil
}

// mutate runs a state-changing command as root.
func (p *Provisioner) mutate(ctx context.Context, cmd execx.Command) (execx.Result, error) {
	return p.runner.Run(ctx, p.priv.Escalate(cmd.Mutate().Streamed()))
}

func errorDetail(err error) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Cause != nil {
		err = ae.Cause
	}
	var ee *execx.ExitError
	if errors.As(err, &ee) && ee.Stderr != "" {
		return lastLine(ee.Stderr)
	}
	return err.Error()
}

func fatal(operation, resource string, id issue.Id, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithSuggestions(suggestions...).
		WithIssue(id).
		Wrap(fmt.Errorf("%w: %w", ErrSourcesExhausted, err)).
		Build()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
