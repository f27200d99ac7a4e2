// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"

	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/version"
)

// BaseCLIEngine provides the shared implementation for CLI-based engines.
type BaseCLIEngine struct {
	binary string
	runner execx.Runner
}

// NewBaseCLIEngine creates an engine driving binary through r.
func NewBaseCLIEngine(binary string, r execx.Runner) *BaseCLIEngine {
	return &BaseCLIEngine{binary: binary, runner: r}
}

// Binary returns the executable name.
func (e *BaseCLIEngine) Binary() string { return e.binary }

// Command builds a read-only invocation of the engine binary.
func (e *BaseCLIEngine) Command(args ...string) execx.Command {
	return execx.New(e.binary, args...)
}

// RunCommandWithOutput runs the engine with args and returns trimmed output.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	res, err := e.runner.Run(ctx, e.Command(args...))
	if err != nil {
		return "", err
	}
	return res.Output(), nil
}

// RunCommandStatus runs the engine with args and reports only success.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	_, err := e.runner.Run(ctx, e.Command(args...))
	return err
}

// clientVersion runs `<binary> --version` and extracts the version number.
func (e *BaseCLIEngine) clientVersion(ctx context.Context, name string) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "--version")
	if err != nil {
		reason := "probe failed"
		if execx.IsNotFound(err) {
			reason = "not installed"
		}
		return "", &ErrEngineNotAvailable{Engine: name, Reason: reason, Err: err}
	}
	v, err := version.Extract(out)
	if err != nil {
		return "", fmt.Errorf("parsing %s version from %q: %w", name, out, err)
	}
	return v, nil
}
