// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"

	"github.com/devhost/devhost/internal/execx"
)

// DockerEngine implements the Engine interface using the Docker CLI.
// It embeds BaseCLIEngine for common CLI operations.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(r execx.Runner) *DockerEngine {
	return &DockerEngine{BaseCLIEngine: NewBaseCLIEngine("docker", r)}
}

// Name returns the engine name.
func (e *DockerEngine) Name() string {
	return string(EngineTypeDocker)
}

// Version returns the Docker client version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	return e.clientVersion(ctx, e.Name())
}

// ServiceReachable checks if the Docker daemon answers.
func (e *DockerEngine) ServiceReachable(ctx context.Context) bool {
	return e.RunCommandStatus(ctx, "version", "--format", "{{.Server.Version}}") == nil
}

// ComposeProbes returns the v2 plugin probe followed by the classic binary.
func (e *DockerEngine) ComposeProbes() []ComposeProbe {
	return []ComposeProbe{
		{Flavor: ComposePlugin, Command: execx.New("docker", "compose", "version", "--short")},
		{Flavor: ComposeClassic, Command: execx.New("docker-compose", "version", "--short")},
	}
}
