// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/report"
	"github.com/devhost/devhost/internal/version"
)

// PythonBinary is the interpreter every python step drives.
const PythonBinary = "python3"

// externallyManaged is pip's PEP 668 refusal to touch a distro interpreter.
const externallyManaged = "externally-managed-environment"

type (
	// frameworkSource is one way of installing the framework.
	frameworkSource struct {
		name    string
		install func(context.Context) error
	}
)

// pythonVersion runs python3 --version. Python 2 printed it on stderr.
func (p *Provisioner) pythonVersion(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, execx.New(PythonBinary, "--version"))
	if err != nil {
		return "", err
	}
	return version.Extract(res.Output())
}

// ensurePython makes python3 at or above the configured minimum available.
func (p *Provisioner) ensurePython(ctx context.Context) error {
	minimum := p.cfg.Python.MinVersion

	entry, ok := p.probePython(ctx, minimum)
	if ok {
		slog.Info("python is already installed", "version", entry.Version, "minimum", minimum)
		p.summary.Set(entry)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.opts.CheckOnly {
		p.summary.Set(entry)
		return nil
	}

	pm, err := p.manager(ToolPython)
	if err != nil {
		return err
	}
	pkgs := pm.Kind().PythonPackages()
	slog.Info("python "+minimum+" or newer not found, installing", "found", entry.Version, "packages", strings.Join(pkgs, " "))
	if err := pm.Install(ctx, pkgs...); err != nil {
		return fatal("install python", strings.Join(pkgs, " "), issue.PythonTooOldId, err,
			"Enable a repository that ships python "+minimum+" or newer")
	}
	source := pm.Kind().String() + ": " + strings.Join(pkgs, " ")

	if p.opts.DryRun {
		p.summary.Set(report.Entry{Tool: ToolPython, Version: entry.Version, Status: report.StatusSkipped, Source: source, Detail: "dry run"})
		return nil
	}

	after, ok := p.probePython(ctx, minimum)
	if !ok {
		cause := fmt.Errorf("%w: %s", ErrVersionTooOld, after.Detail)
		if after.Version == "" {
			cause = fmt.Errorf("%s not found after installing %s", PythonBinary, strings.Join(pkgs, " "))
		}
		p.summary.Set(after)
		return issue.NewErrorContext().
			WithOperation("install python " + minimum + " or newer").
			WithResource(source).
			WithSuggestions(
				"Enable a repository that ships a newer python",
				"Lower python.min_version if an older interpreter is acceptable",
			).
			WithIssue(issue.PythonTooOldId).
			Wrap(cause).
			Build()
	}
	after.Status, after.Source = report.StatusInstalled, source
	slog.Info("python installed", "version", after.Version)
	p.summary.Set(after)
	return nil
}

// probePython reports python as present when it meets minimum.
func (p *Provisioner) probePython(ctx context.Context, minimum string) (report.Entry, bool) {
	v, err := p.pythonVersion(ctx)
	if err != nil {
		return report.Entry{Tool: ToolPython, Status: report.StatusMissing, Detail: errorDetail(err)}, false
	}
	ok, err := version.AtLeast(v, minimum)
	if err != nil {
		return report.Entry{Tool: ToolPython, Version: v, Status: report.StatusMissing, Detail: err.Error()}, false
	}
	if !ok {
		return report.Entry{Tool: ToolPython, Version: v, Status: report.StatusMissing, Detail: "below minimum " + minimum}, false
	}
	return report.Entry{Tool: ToolPython, Version: v, Status: report.StatusPresent}, true
}

// ensurePip makes `python3 -m pip` work, from the OS package or ensurepip.
func (p *Provisioner) ensurePip(ctx context.Context) error {
	if v, err := p.pipVersion(ctx); err == nil {
		slog.Info("pip is already installed", "version", v)
		p.summary.Set(report.Entry{Tool: ToolPip, Version: v, Status: report.StatusPresent})
		return nil
	} else if ctx.Err() != nil {
		return ctx.Err()
	} else if p.opts.CheckOnly {
		p.summary.Set(report.Entry{Tool: ToolPip, Status: report.StatusMissing, Detail: errorDetail(err)})
		return nil
	}

	var source string
	pm, err := p.manager(ToolPip)
	if err == nil {
		pkg := pm.Kind().PipPackage()
		if err = pm.Install(ctx, pkg); err == nil {
			source = pm.Kind().String() + ": " + pkg
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("pip package install failed, trying ensurepip", "error", err)
		if _, ensureErr := p.mutate(ctx, execx.New(PythonBinary, "-m", "ensurepip", "--upgrade")); ensureErr != nil {
			return fatal("install pip", PythonBinary+" -m pip", issue.PipUnavailableId, errors.Join(err, ensureErr))
		}
		source = "ensurepip"
	}

	if p.opts.DryRun {
		p.summary.Set(report.Entry{Tool: ToolPip, Status: report.StatusSkipped, Source: source, Detail: "dry run"})
		return nil
	}

	v, err := p.pipVersion(ctx)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("verify pip").
			WithResource(source).
			WithIssue(issue.PipUnavailableId).
			Wrap(err).
			Build()
	}
	slog.Info("pip installed", "version", v, "source", source)
	p.summary.Set(report.Entry{Tool: ToolPip, Version: v, Status: report.StatusInstalled, Source: source})
	return nil
}

func (p *Provisioner) pipVersion(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, execx.New(PythonBinary, "-m", "pip", "--version"))
	if err != nil {
		return "", err
	}
	return version.Extract(res.Output())
}

// frameworkVersion reads the Version: line of `pip show` run as the target
// user, so --user installs are visible.
func (p *Provisioner) frameworkVersion(ctx context.Context) (string, error) {
	name := p.cfg.Python.Framework
	res, err := p.runner.Run(ctx, p.priv.AsUser(execx.New(PythonBinary, "-m", "pip", "show", name)))
	if err != nil {
		return "", err
	}
	sc := bufio.NewScanner(strings.NewReader(res.Output()))
	for sc.Scan() {
		if v, ok := strings.CutPrefix(sc.Text(), "Version:"); ok {
			return version.Extract(v)
		}
	}
	return "", fmt.Errorf("%s: %w in pip show output", name, version.ErrNoVersion)
}

// ensureFramework installs the web framework package, trying each source in
// turn until one works.
func (p *Provisioner) ensureFramework(ctx context.Context) error {
	name := p.cfg.Python.Framework
	upgrade := p.cfg.Python.UpgradeFramework

	current, probeErr := p.frameworkVersion(ctx)
	if probeErr == nil && (!upgrade || p.opts.CheckOnly) {
		slog.Info(name+" is already installed", "version", current)
		p.summary.Set(report.Entry{Tool: name, Version: current, Status: report.StatusPresent})
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.opts.CheckOnly {
		p.summary.Set(report.Entry{Tool: name, Status: report.StatusMissing, Detail: errorDetail(probeErr)})
		return nil
	}

	present := probeErr == nil
	if present {
		slog.Info("upgrading "+name, "version", current)
	} else {
		slog.Info(name+" not found, installing", "requirement", p.cfg.Python.FrameworkRequirement())
	}

	var errs []error
	source := ""
	for _, s := range p.frameworkSources(upgrade) {
		err := s.install(ctx)
		if err == nil {
			source = s.name
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isExternallyManaged(err) {
			slog.Warn("pip refused the system interpreter (externally managed), trying the next source", "source", s.name)
		} else {
			slog.Warn(name+" install failed, trying the next source", "source", s.name, "error", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	if source == "" {
		if present {
			slog.Warn(name+" upgrade failed, keeping the installed version", "version", current)
			p.summary.Set(report.Entry{Tool: name, Version: current, Status: report.StatusPresent, Detail: "upgrade failed"})
			return nil
		}
		return fatal("install "+name, p.cfg.Python.FrameworkRequirement(), issue.FrameworkInstallFailedId, errors.Join(errs...),
			"Create a virtual environment with python3 -m venv and install "+name+" there")
	}

	if p.opts.DryRun {
		p.summary.Set(report.Entry{Tool: name, Version: current, Status: report.StatusSkipped, Source: source, Detail: "dry run"})
		return nil
	}

	v, err := p.frameworkVersion(ctx)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("verify " + name).
			WithResource(source).
			WithIssue(issue.FrameworkInstallFailedId).
			Wrap(err).
			Build()
	}
	status := report.StatusInstalled
	if present && v == current {
		status = report.StatusPresent
	}
	slog.Info(name+" installed", "version", v, "source", source)
	p.summary.Set(report.Entry{Tool: name, Version: v, Status: status, Source: source})
	return nil
}

// frameworkSources lists install sources, preferred first: a per-user pip
// install, the distro package, then pip overriding PEP 668.
func (p *Provisioner) frameworkSources(upgrade bool) []frameworkSource {
	py := p.cfg.Python
	req := py.FrameworkRequirement()

	pip := func(extra ...string) func(context.Context) error {
		args := []string{"-m", "pip", "install", "--user"}
		if upgrade {
			args = append(args, "--upgrade")
		}
		args = append(args, extra...)
		args = append(args, req)
		return func(ctx context.Context) error {
			cmd := p.priv.AsUser(execx.New(PythonBinary, args...).Mutate().Streamed())
			_, err := p.runner.Run(ctx, cmd)
			return err
		}
	}

	sources := []frameworkSource{{name: "pip --user", install: pip()}}

	// Distro packages cannot honor a pinned version.
	if py.FrameworkVersion == "" && p.pm != nil {
		pkg := p.pm.Kind().FrameworkPackage(py.Framework)
		sources = append(sources, frameworkSource{
			name:    p.pm.Kind().String() + ": " + pkg,
			install: func(ctx context.Context) error { return p.pm.Install(ctx, pkg) },
		})
	}

	if py.AllowBreakSystemPackages {
		sources = append(sources, frameworkSource{
			name:    "pip --user --break-system-packages",
			install: pip("--break-system-packages"),
		})
	}
	return sources
}

func isExternallyManaged(err error) bool {
	var ee *execx.ExitError
	return errors.As(err, &ee) && strings.Contains(ee.Stderr, externallyManaged)
}
