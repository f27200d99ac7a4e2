// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devhost/devhost/internal/execx"
)

const (
	// EngineTypeDocker selects the Docker CLI and daemon.
	EngineTypeDocker EngineType = "docker"
	// EngineTypePodman selects Podman.
	EngineTypePodman EngineType = "podman"
)

// ErrInvalidEngineType is returned by ParseEngineType for unknown names.
var ErrInvalidEngineType = errors.New("invalid container engine")

type (
	// EngineType identifies the container engine type.
	EngineType string

	// Engine defines the probes devhost runs against a container engine.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Binary returns the executable name.
		Binary() string
		// Version returns the client version, or an error wrapping
		// ErrEngineNotAvailable when the binary is missing or broken.
		Version(ctx context.Context) (string, error)
		// ServiceReachable reports whether the daemon (docker) or the
		// podman service answers.
		ServiceReachable(ctx context.Context) bool
		// ComposeProbes lists compose detection commands, preferred first.
		ComposeProbes() []ComposeProbe
	}

	// ErrEngineNotAvailable is returned when a container engine is not available.
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
		Err    error
	}
)

// Error implements the error interface.
func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns the underlying probe error.
func (e *ErrEngineNotAvailable) Unwrap() error { return e.Err }

// ParseEngineType validates s. The empty string selects docker.
func ParseEngineType(s string) (EngineType, error) {
	switch t := EngineType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return EngineTypeDocker, nil
	case EngineTypeDocker, EngineTypePodman:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q (expected docker or podman)", ErrInvalidEngineType, s)
	}
}

// String returns the engine type name.
func (t EngineType) String() string { return string(t) }

// NewEngine creates the engine of type t backed by r.
func NewEngine(t EngineType, r execx.Runner) (Engine, error) {
	switch t {
	case EngineTypeDocker:
		return NewDockerEngine(r), nil
	case EngineTypePodman:
		return NewPodmanEngine(r), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEngineType, t)
	}
}
