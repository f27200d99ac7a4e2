// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/devhost/devhost/internal/execx"
	"github.com/devhost/devhost/internal/version"
)

const (
	// ComposePlugin is the docker compose v2 CLI plugin.
	ComposePlugin ComposeFlavor = "plugin"
	// ComposeClassic is a standalone binary (docker-compose or podman-compose).
	ComposeClassic ComposeFlavor = "classic"
	// ComposePodman is the `podman compose` wrapper.
	ComposePodman ComposeFlavor = "podman"
)

// ErrComposeNotFound is returned when no compose probe succeeds.
var ErrComposeNotFound = errors.New("compose not found")

type (
	// ComposeFlavor names how compose is provided.
	ComposeFlavor string

	// ComposeProbe is one way of asking for a compose version.
	ComposeProbe struct {
		Flavor  ComposeFlavor
		Command execx.Command
	}

	// ComposeInfo describes a detected compose implementation.
	ComposeInfo struct {
		Flavor  ComposeFlavor
		Version string
		// Command is the probe that answered, for display.
		Command string
	}
)

// DetectCompose runs the engine's compose probes in order and returns the
// first that answers with a version.
func DetectCompose(ctx context.Context, r execx.Runner, e Engine) (ComposeInfo, error) {
	var errs []error
	for _, p := range e.ComposeProbes() {
		res, err := r.Run(ctx, p.Command)
		if err != nil {
			if ctx.Err() != nil {
				return ComposeInfo{}, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		v, err := version.Extract(res.Output())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Command.String(), err))
			continue
		}
		return ComposeInfo{Flavor: p.Flavor, Version: v, Command: p.Command.String()}, nil
	}
	return ComposeInfo{}, fmt.Errorf("%w for %s: %w", ErrComposeNotFound, e.Name(), errors.Join(errs...))
}
