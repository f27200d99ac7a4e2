// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devhost/devhost/internal/container"
	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/issue"
	"github.com/devhost/devhost/internal/report"
)

const dockerGroup = "docker"

// ensureEngine makes the container engine CLI available.
func (p *Provisioner) ensureEngine(ctx context.Context) error {
	tool := p.engine.Name()

	if entry, ok := p.probeEngine(ctx); ok {
		slog.Info(tool+" is already installed", "version", entry.Version)
		p.summary.Set(entry)
		return nil
	} else if p.opts.CheckOnly {
		p.summary.Set(entry)
		return nil
	}

	slog.Info(tool + " not found, installing")
	source, err := p.installEngine(ctx)
	if err != nil {
		return fatal("install "+tool, tool, issue.ContainerEngineInstallFailedId, err,
			"Check that the package repositories are reachable",
			"Install "+tool+" manually and run devhost again")
	}

	if p.opts.DryRun {
		p.summary.Set(report.Entry{Tool: tool, Status: report.StatusSkipped, Source: source, Detail: "dry run"})
		return p.postInstall(ctx)
	}

	if err := p.postInstall(ctx); err != nil {
		return err
	}

	entry, ok := p.probeEngine(ctx)
	if !ok {
		return issue.NewErrorContext().
			WithOperation("verify " + tool).
			WithResource(source).
			WithIssue(issue.ContainerEngineInstallFailedId).
			Wrap(errors.New(entry.Detail)).
			Build()
	}
	entry.Status, entry.Source = report.StatusInstalled, source
	if !p.engine.ServiceReachable(ctx) {
		slog.Warn(tool+" is installed but its service does not answer yet", "hint", "log out and back in, or start the service")
		entry.Detail = "service not reachable"
	}
	slog.Info(tool+" installed", "version", entry.Version, "source", source)
	p.summary.Set(entry)
	return nil
}

// probeEngine reports the engine as present, or missing with the reason.
func (p *Provisioner) probeEngine(ctx context.Context) (report.Entry, bool) {
	tool := p.engine.Name()
	v, err := p.engine.Version(ctx)
	if err == nil {
		return report.Entry{Tool: tool, Version: v, Status: report.StatusPresent}, true
	}

	var notAvailable *container.ErrEngineNotAvailable
	if errors.As(err, &notAvailable) {
		return report.Entry{Tool: tool, Status: report.StatusMissing, Detail: notAvailable.Reason}, false
	}
	// The binary answered but its output had no version in it.
	slog.Debug("unparseable engine version", "engine", tool, "error", err)
	return report.Entry{Tool: tool, Status: report.StatusPresent, Detail: "version unknown"}, true
}

// installEngine tries the OS packages and then, for docker, the convenience
// script. It returns a description of the source that worked.
func (p *Provisioner) installEngine(ctx context.Context) (string, error) {
	var pkgErr error
	pm, err := p.manager(p.engine.Name())
	if err == nil {
		candidates := pm.Kind().DockerPackages()
		if p.engine.Name() == string(container.EngineTypePodman) {
			candidates = pm.Kind().PodmanPackages()
		}
		pkg, err := pm.InstallFirst(ctx, candidates...)
		if err == nil {
			return pm.Kind().String() + ": " + pkg, nil
		}
		pkgErr = err
	} else {
		pkgErr = err
	}

	if p.engine.Name() != string(container.EngineTypeDocker) || ctx.Err() != nil {
		return "", pkgErr
	}

	slog.Warn("package install failed, trying the convenience script", "url", p.cfg.Container.InstallScriptURL, "error", pkgErr)
	if err := p.runInstallScript(ctx); err != nil {
		return "", errors.Join(pkgErr, err)
	}
	return "script: " + p.cfg.Container.InstallScriptURL, nil
}

// runInstallScript downloads the install script and runs it as root.
func (p *Provisioner) runInstallScript(ctx context.Context) error {
	url := execx.Quote(p.cfg.Container.InstallScriptURL)

	var fetch string
	switch {
	case p.onPath("curl"):
		fetch = "curl -fsSL " + url
	case p.onPath("wget"):
		fetch = "wget -qO- " + url
	default:
		return fmt.Errorf("fetching %s: neither curl nor wget is installed", p.cfg.Container.InstallScriptURL)
	}

	if _, err := p.mutate(ctx, execx.New("sh", "-c", pipeToShell(fetch))); err != nil {
		return fmt.Errorf("running install script: %w", err)
	}
	return nil
}

// pipeToShell runs the output of fetch as a script. A failed fetch fails the
// whole command instead of feeding sh an empty script.
func pipeToShell(fetch string) string {
	return `script=$(` + fetch + `) && printf '%s\n' "$script" | sh`
}

// postInstall sets up group membership and the service for docker. Every
// part is best-effort unless strict mode is on.
func (p *Provisioner) postInstall(ctx context.Context) error {
	if p.engine.Name() != string(container.EngineTypeDocker) || !p.cfg.Container.PostInstall {
		return nil
	}

	if _, err := p.runner.Run(ctx, execx.New("getent", "group", dockerGroup)); err != nil {
		_, err := p.mutate(ctx, execx.New("groupadd", dockerGroup))
		if err := p.bestEffort("create the docker group", issue.PostInstallFailedId, err); err != nil {
			return err
		}
	}

	if !p.priv.TargetIsRoot() {
		_, err := p.mutate(ctx, execx.New("usermod", "-aG", dockerGroup, p.priv.User))
		if err := p.bestEffort("add "+p.priv.User+" to the docker group", issue.PostInstallFailedId, err); err != nil {
			return err
		}
		if err == nil {
			slog.Info("added "+p.priv.User+" to the docker group", "hint", "log out and back in for it to take effect")
		}
	}

	if p.onPath("systemctl") {
		_, err := p.mutate(ctx, execx.New("systemctl", "enable", "--now", dockerGroup))
		if err := p.bestEffort("enable the docker service", issue.PostInstallFailedId, err); err != nil {
			return err
		}
	}
	return nil
}

// ensureCompose makes a compose implementation available. The plugin package
// is preferred; the classic standalone binary is the fallback.
func (p *Provisioner) ensureCompose(ctx context.Context) error {
	info, err := container.DetectCompose(ctx, p.runner, p.engine)
	if err == nil {
		slog.Info("compose is already installed", "version", info.Version, "flavor", info.Flavor)
		p.summary.Set(composeEntry(info, report.StatusPresent, ""))
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.opts.CheckOnly {
		p.summary.Set(report.Entry{Tool: ToolCompose, Status: report.StatusMissing})
		return nil
	}

	pm, err := p.manager(ToolCompose)
	if err != nil {
		return err
	}

	kind := pm.Kind()
	candidates := []string{kind.ComposePluginPackage(), kind.ComposeClassicPackage()}
	if p.engine.Name() == string(container.EngineTypePodman) {
		candidates = []string{kind.PodmanComposePackage()}
	}

	slog.Info("compose not found, installing", "candidates", strings.Join(candidates, " "))
	pkg, err := pm.InstallFirst(ctx, candidates...)
	if err != nil {
		return fatal("install compose", strings.Join(candidates, ", "), issue.ComposeInstallFailedId, err,
			"Install the compose plugin from the engine vendor's repository")
	}
	source := kind.String() + ": " + pkg

	if p.opts.DryRun {
		p.summary.Set(report.Entry{Tool: ToolCompose, Status: report.StatusSkipped, Source: source, Detail: "dry run"})
		return nil
	}

	info, err = container.DetectCompose(ctx, p.runner, p.engine)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("verify compose").
			WithResource(source).
			WithIssue(issue.ComposeInstallFailedId).
			Wrap(err).
			Build()
	}
	slog.Info("compose installed", "version", info.Version, "flavor", info.Flavor, "source", source)
	p.summary.Set(composeEntry(info, report.StatusInstalled, source))
	return nil
}

func composeEntry(info container.ComposeInfo, status report.Status, source string) report.Entry {
	return report.Entry{
		Tool:    ToolCompose,
		Version: info.Version,
		Status:  status,
		Source:  source,
		Detail:  string(info.Flavor),
	}
}

func (p *Provisioner) onPath(name string) bool {
	_, err := p.runner.LookPath(name)
	return err == nil
}
