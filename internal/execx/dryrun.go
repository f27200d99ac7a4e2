// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"context"
	"log/slog"
)

// DryRunRunner forwards read-only commands to the wrapped Runner and only
// records mutating ones.
type DryRunRunner struct {
	Runner
	planned []Command
}

// NewDryRunRunner wraps next.
func NewDryRunRunner(next Runner) *DryRunRunner {
	return &DryRunRunner{Runner: next}
}

// Run executes probes and logs mutating commands without running them.
func (d *DryRunRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if !cmd.Mutating {
		return d.Runner.Run(ctx, cmd)
	}
	d.planned = append(d.planned, cmd)
	slog.Info("dry run, not executing", "command", cmd.String())
	return Result{}, nil
}

// Planned returns the mutating commands that were skipped, in order.
func (d *DryRunRunner) Planned() []Command {
	return append([]Command(nil), d.planned...)
}
