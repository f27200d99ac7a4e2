// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devhost/devhost/internal/execx"
)

type (
	// Escalator wraps a command so it runs with root privileges.
	Escalator interface {
		Escalate(cmd execx.Command) execx.Command
	}

	// Option configures a Manager.
	Option func(*Manager)

	// Manager installs OS packages with one package manager. The package
	// index is refreshed at most once, right before the first install.
	Manager struct {
		kind       Kind
		runner     execx.Runner
		esc        Escalator
		refreshed  bool
		refreshErr error
		strict     bool
	}
)

// WithStrictRefresh makes a failed index refresh fail the install that
// triggered it instead of only logging a warning.
func WithStrictRefresh(strict bool) Option {
	return func(m *Manager) {
		m.strict = strict
	}
}

// New returns a Manager for kind. esc may be nil when already root.
func New(kind Kind, runner execx.Runner, esc Escalator, opts ...Option) *Manager {
	m := &Manager{kind: kind, runner: runner, esc: esc}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Kind returns the manager's kind.
func (m *Manager) Kind() Kind { return m.kind }

// Refresh updates the package index unless that already happened. A failed
// refresh is not retried; its error is returned again on later calls.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.refreshed {
		return m.refreshErr
	}
	m.refreshed = true

	argv := m.kind.refreshArgs()
	if argv == nil {
		return nil
	}
	slog.Info("refreshing package index", "manager", m.kind)
	if _, err := m.run(ctx, argv); err != nil {
		m.refreshErr = fmt.Errorf("refreshing %s package index: %w", m.kind, err)
	}
	return m.refreshErr
}

// Install installs pkgs in a single transaction.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	argv := m.kind.installArgs(pkgs)
	if argv == nil {
		return fmt.Errorf("%w: %q", ErrNoPackageManager, m.kind)
	}

	if err := m.Refresh(ctx); err != nil {
		if m.strict || ctx.Err() != nil {
			return err
		}
		slog.Warn("package index refresh failed, installing from the stale index", "manager", m.kind, "error", err)
	}

	slog.Info("installing packages", "manager", m.kind, "packages", strings.Join(pkgs, " "))
	if _, err := m.run(ctx, argv); err != nil {
		return fmt.Errorf("installing %s with %s: %w", strings.Join(pkgs, " "), m.kind, err)
	}
	return nil
}

// InstallFirst tries each candidate alone, in order, and returns the first
// one that installs. The error of the last attempt is returned when all fail.
func (m *Manager) InstallFirst(ctx context.Context, candidates ...string) (string, error) {
	var lastErr error
	for _, pkg := range candidates {
		if err := m.Install(ctx, pkg); err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			slog.Warn("package install failed, trying next candidate", "package", pkg, "error", err)
			lastErr = err
			continue
		}
		return pkg, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no package candidates for %s", m.kind)
	}
	return "", lastErr
}

func (m *Manager) run(ctx context.Context, argv []string) (execx.Result, error) {
	cmd := execx.New(argv[0], argv[1:]...).
		WithEnv(m.kind.env()...).
		Mutate().
		Streamed()
	if m.esc != nil {
		cmd = m.esc.Escalate(cmd)
	}
	return m.runner.Run(ctx, cmd)
}
