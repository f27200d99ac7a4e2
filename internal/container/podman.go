// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"

	"github.com/devhost/devhost/internal/execx"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine(r execx.Runner) *PodmanEngine {
	return &PodmanEngine{BaseCLIEngine: NewBaseCLIEngine("podman", r)}
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return string(EngineTypePodman)
}

// Version returns the Podman client version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	return e.clientVersion(ctx, e.Name())
}

// ServiceReachable checks if podman can reach its storage and runtime.
func (e *PodmanEngine) ServiceReachable(ctx context.Context) bool {
	return e.RunCommandStatus(ctx, "info", "--format", "{{.Version.Version}}") == nil
}

// ComposeProbes returns the `podman compose` wrapper followed by podman-compose.
func (e *PodmanEngine) ComposeProbes() []ComposeProbe {
	return []ComposeProbe{
		{Flavor: ComposePodman, Command: execx.New("podman", "compose", "version")},
		{Flavor: ComposeClassic, Command: execx.New("podman-compose", "--version")},
	}
}
